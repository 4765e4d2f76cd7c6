/*
Package main
File: main.go
Description: Server entry point. Loads the mine, restores the last saved session
if there is one, and runs the frame ticker, the presence pulse and the HTTP/WebSocket API.
*/

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/everforgeworks/deepdrill/internal/api"
	"github.com/everforgeworks/deepdrill/internal/game"
	"github.com/everforgeworks/deepdrill/internal/logger"
	"github.com/everforgeworks/deepdrill/internal/presence"
	"github.com/everforgeworks/deepdrill/internal/store"
)

func main() {
	addr := flag.String("addr", ":8081", "HTTP listen address")
	configPath := flag.String("config", "mine.yaml", "path to the mine configuration")
	dataDir := flag.String("data", "", "directory for save data (overrides storage paths in the config)")
	flag.Parse()

	logger.Init()
	log := logger.Log

	// 1. Load the mine configuration from YAML
	cfg, err := game.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *dataDir != "" {
		cfg.Storage.SQLitePath = filepath.Join(*dataDir, "deepdrill.db")
		cfg.Storage.FileDir = filepath.Join(*dataDir, "saves")
	}

	// 2. Persistence chain, best backend first
	sqlite := store.NewSQLiteBackend(cfg.Storage.SQLitePath)
	chain := store.NewChain(sqlite, store.NewFileBackend(cfg.Storage.FileDir), store.NewMemoryBackend())
	defer chain.Close()
	backend, err := chain.Probe(context.Background())
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	log.WithField("backend", backend).Info("storage ready")

	// 3. Real-time hub and presence
	peers := presence.NewRegistry(cfg.Presence.TTL())
	hub := api.NewHub(peers)
	go hub.Run()

	notifier := game.NotifierFunc(func(msg string) {
		logger.Log.WithField("msg", msg).Debug("notice")
		hub.Publish(api.TypeNotice, msg)
	})

	// 4. Restore the last session or dig a new mine
	session := restoreOrCreate(cfg, chain, notifier)
	srv := api.NewServer(session, chain, peers, hub, cfg.Storage.SaveKey)

	// 5. Frame ticker: the simulation clock
	go func() {
		ticker := time.NewTicker(cfg.Balance.FrameInterval())
		defer ticker.Stop()
		for now := range ticker.C {
			srv.Tick(now)
		}
	}()

	// 6. Presence pulse
	go func() {
		interval := cfg.Presence.BroadcastInterval()
		if interval <= 0 {
			interval = 100 * time.Millisecond
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for now := range ticker.C {
			srv.PresencePulse(now)
		}
	}()

	// 7. Hot-reload logic: SIGHUP retunes balance and the shop without resetting the mine
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGHUP)
		for range sigChan {
			log.Info("SIGNAL: reloading tuning")
			next, err := game.LoadConfig(*configPath)
			if err != nil {
				log.WithError(err).Error("reload rejected; keeping current tuning")
				continue
			}
			srv.Retune(next)
		}
	}()

	// 8. Setup Router and Handlers
	mux := http.NewServeMux()
	srv.Routes(mux)
	httpServer := &http.Server{Addr: *addr, Handler: corsMiddleware(mux)}

	// 9. Graceful shutdown: save before exit
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := srv.Save(ctx); err != nil {
			log.WithError(err).Error("final save failed")
		}
		_ = httpServer.Shutdown(ctx)
	}()

	log.WithFields(logrus.Fields{"addr": *addr, "player": session.Player.ID}).Info("DEEPDRILL server live")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// restoreOrCreate loads the saved session, falling back to a fresh mine when
// there is no save or it cannot be decoded.
func restoreOrCreate(cfg game.Config, chain *store.Chain, notifier game.Notifier) *game.Session {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := chain.Load(ctx, cfg.Storage.SaveKey)
	switch {
	case err == nil:
		snap, err := game.DecodeSnapshot(data)
		if err == nil {
			var s *game.Session
			s, err = game.RestoreSession(cfg, snap, game.WithNotifier(notifier))
			if err == nil {
				logger.Log.WithFields(logrus.Fields{"frame": snap.Frame, "backend": chain.Active()}).Info("session restored")
				return s
			}
		}
		logger.Log.WithError(err).Warn("saved session unusable; starting a new mine")
	case errors.Is(err, store.ErrNotFound):
		logger.Log.Info("no saved session; starting a new mine")
	default:
		logger.Log.WithError(err).Warn("could not read saved session; starting a new mine")
	}
	return game.NewSession(cfg, game.WithPlayerID(uuid.NewString()), game.WithNotifier(notifier))
}

// corsMiddleware lets a browser client on another origin talk to the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
