package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenBackend fails its probe or its writes on demand.
type brokenBackend struct {
	name     string
	probeErr error
	saveErr  error
	saves    int
	inner    *MemoryBackend
}

func newBroken(name string) *brokenBackend {
	return &brokenBackend{name: name, inner: NewMemoryBackend()}
}

func (b *brokenBackend) Name() string { return b.name }

func (b *brokenBackend) Available(ctx context.Context) error { return b.probeErr }

func (b *brokenBackend) Save(ctx context.Context, key string, data []byte) error {
	b.saves++
	if b.saveErr != nil {
		return b.saveErr
	}
	return b.inner.Save(ctx, key, data)
}

func (b *brokenBackend) Load(ctx context.Context, key string) ([]byte, error) {
	return b.inner.Load(ctx, key)
}

func TestChain_ProbeSkipsUnavailable(t *testing.T) {
	ctx := context.Background()
	primary := newBroken("primary")
	primary.probeErr = errors.New("locked")
	mem := NewMemoryBackend()

	c := NewChain(primary, mem)
	assert.Equal(t, "", c.Active())

	name, err := c.Probe(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", name)
}

func TestChain_NoBackend(t *testing.T) {
	a := newBroken("a")
	a.probeErr = errors.New("down")

	c := NewChain(a)
	_, err := c.Probe(context.Background())
	assert.ErrorIs(t, err, ErrNoBackend)

	err = c.Save(context.Background(), "k", []byte("v"))
	assert.ErrorIs(t, err, ErrNoBackend)
}

func TestChain_SaveFallsBackAfterFailedWrite(t *testing.T) {
	ctx := context.Background()
	primary := newBroken("primary")
	secondary := newBroken("secondary")
	c := NewChain(primary, secondary, NewMemoryBackend())

	_, err := c.Probe(ctx)
	require.NoError(t, err)
	assert.Equal(t, "primary", c.Active())

	primary.saveErr = errors.New("disk full")
	require.NoError(t, c.Save(ctx, "session", []byte("hello")))

	assert.Equal(t, 1, primary.saves)
	assert.Equal(t, 1, secondary.saves)
	assert.Equal(t, "secondary", c.Active())

	got, err := c.Load(ctx, "session")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestChain_SaveFailsWhenEveryBackendFails(t *testing.T) {
	ctx := context.Background()
	a := newBroken("a")
	b := newBroken("b")
	a.saveErr = errors.New("a broke")
	b.saveErr = errors.New("b broke")
	c := NewChain(a, b)

	err := c.Save(ctx, "k", []byte("v"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoBackend)
	assert.Contains(t, err.Error(), "a broke")
	assert.Contains(t, err.Error(), "b broke")
}

func TestChain_SaveReachesLastBackendWhenEarlierWritesFail(t *testing.T) {
	ctx := context.Background()
	a := newBroken("a")
	b := newBroken("b")
	a.saveErr = errors.New("disk full")
	b.saveErr = errors.New("disk full")
	mem := NewMemoryBackend()
	c := NewChain(a, b, mem)

	require.NoError(t, c.Save(ctx, "session", []byte("last words")))
	assert.Equal(t, 1, a.saves, "a still probes fine but must not be retried")
	assert.Equal(t, 1, b.saves)
	assert.Equal(t, "memory", c.Active())

	got, err := mem.Load(ctx, "session")
	require.NoError(t, err)
	assert.Equal(t, []byte("last words"), got)
}

func TestChain_LoadFallsThroughAndSwitches(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryBackend()
	secondary := newBroken("secondary")
	require.NoError(t, secondary.inner.Save(ctx, "session", []byte("old save")))

	c := NewChain(primary, secondary)
	_, err := c.Probe(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", c.Active())

	got, err := c.Load(ctx, "session")
	require.NoError(t, err)
	assert.Equal(t, []byte("old save"), got)
	assert.Equal(t, "secondary", c.Active())

	_, err = c.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "saves")
	f := NewFileBackend(dir)

	require.NoError(t, f.Available(ctx))

	_, err := f.Load(ctx, "session")
	assert.ErrorIs(t, err, ErrNotFound)

	payload := []byte(`{"version":1,"frame":42}`)
	require.NoError(t, f.Save(ctx, "session", payload))
	require.NoError(t, f.Save(ctx, "session", append(payload, ' ')))

	got, err := f.Load(ctx, "session")
	require.NoError(t, err)
	assert.Equal(t, append(payload, ' '), got)

	// only the final file remains, no temp leftovers
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.Error(t, f.Save(ctx, "../escape", payload))
}

func TestSQLiteBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewSQLiteBackend(filepath.Join(t.TempDir(), "db", "deepdrill.db"))
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Available(ctx))

	_, err := s.Load(ctx, "session")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "session", []byte("v1")))
	require.NoError(t, s.Save(ctx, "session", []byte("v2")))

	got, err := s.Load(ctx, "session")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestSQLiteBackend_UnavailableWithoutPath(t *testing.T) {
	s := NewSQLiteBackend("")
	assert.Error(t, s.Available(context.Background()))
}
