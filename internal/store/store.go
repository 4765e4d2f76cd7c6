/*
Package store
File: store.go
Description:
    Ranked key-value persistence with fallback.

    A Chain holds backends in priority order (SQLite, compressed files,
    memory). Each backend is probed for availability; the first one that
    answers becomes active. Probing runs once at startup and again after
    every failed write, so a broken disk degrades to the next backend
    instead of losing the save.
*/

package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/everforgeworks/deepdrill/internal/logger"
)

var (
	// ErrNotFound is returned by Load when no backend holds the key.
	ErrNotFound = errors.New("store: key not found")

	// ErrNoBackend means every backend failed its probe.
	ErrNoBackend = errors.New("store: no backend available")
)

// Backend is one persistence layer.
type Backend interface {
	Name() string
	// Available reports whether the backend can currently accept writes.
	Available(ctx context.Context) error
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
}

// Chain tries backends in rank order. It is safe for concurrent use.
type Chain struct {
	mu       sync.Mutex
	backends []Backend
	active   int // index into backends, -1 before the first probe
}

// NewChain ranks backends in the order given.
func NewChain(backends ...Backend) *Chain {
	return &Chain{backends: backends, active: -1}
}

// Probe selects the highest-ranked available backend.
func (c *Chain) Probe(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.probeLocked(ctx, nil); err != nil {
		return "", err
	}
	return c.backends[c.active].Name(), nil
}

// Active names the backend writes currently go to ("" before a probe).
func (c *Chain) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active < 0 {
		return ""
	}
	return c.backends[c.active].Name()
}

// probeLocked walks the ranking, skipping every backend in skip.
func (c *Chain) probeLocked(ctx context.Context, skip map[int]bool) error {
	for i, b := range c.backends {
		if skip[i] {
			continue
		}
		err := b.Available(ctx)
		if err == nil {
			if i != c.active {
				logger.Log.WithField("backend", b.Name()).Info("storage backend selected")
			}
			c.active = i
			return nil
		}
		logger.Log.WithFields(logrus.Fields{"backend": b.Name(), "error": err}).Warn("storage backend unavailable")
	}
	c.active = -1
	return ErrNoBackend
}

// Save writes to the active backend. On failure it re-probes, skipping every
// backend already tried, and retries on the new choice until one succeeds
// or every backend has been tried.
func (c *Chain) Save(ctx context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active < 0 {
		if err := c.probeLocked(ctx, nil); err != nil {
			return err
		}
	}

	var errs []error
	tried := map[int]bool{}
	for c.active >= 0 && !tried[c.active] {
		b := c.backends[c.active]
		tried[c.active] = true

		err := b.Save(ctx, key, data)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
		logger.Log.WithFields(logrus.Fields{"backend": b.Name(), "key": key, "error": err}).Warn("save failed; falling back")

		if perr := c.probeLocked(ctx, tried); perr != nil {
			break
		}
	}
	return errors.Join(append([]error{ErrNoBackend}, errs...)...)
}

// Load reads key from the active backend, falling through the rest in rank
// order. A backend that has the key becomes the active one.
func (c *Chain) Load(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	order := make([]int, 0, len(c.backends))
	if c.active >= 0 {
		order = append(order, c.active)
	}
	for i := range c.backends {
		if i != c.active {
			order = append(order, i)
		}
	}

	for _, i := range order {
		b := c.backends[i]
		data, err := b.Load(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			logger.Log.WithFields(logrus.Fields{"backend": b.Name(), "key": key, "error": err}).Warn("load failed")
			continue
		}
		if i != c.active {
			logger.Log.WithFields(logrus.Fields{"backend": b.Name(), "key": key}).Info("save found; switching backend")
			c.active = i
		}
		return data, nil
	}
	return nil, ErrNotFound
}

// Close releases every backend that holds resources.
func (c *Chain) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for _, b := range c.backends {
		if cl, ok := b.(io.Closer); ok {
			if err := cl.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
