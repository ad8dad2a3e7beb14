package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"

	"github.com/inamate/inamate/canvas-go/internal/asset"
	"github.com/inamate/inamate/canvas-go/internal/board"
	"github.com/inamate/inamate/canvas-go/internal/config"
	"github.com/inamate/inamate/canvas-go/internal/db"
	"github.com/inamate/inamate/canvas-go/internal/db/dbgen"
	"github.com/inamate/inamate/canvas-go/internal/discovery"
	"github.com/inamate/inamate/canvas-go/internal/engine"
	"github.com/inamate/inamate/canvas-go/internal/export"
	"github.com/inamate/inamate/canvas-go/internal/generate"
	mw "github.com/inamate/inamate/canvas-go/internal/middleware"
	"github.com/inamate/inamate/canvas-go/internal/session"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store board.Store
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			slog.Error("migrate database", "error", err)
			os.Exit(1)
		}
		store = dbgen.New(pool)
	} else {
		slog.Warn("DATABASE_URL not set, boards are kept in memory")
		store = board.NewMemoryStore()
	}

	boardService := board.NewService(store)
	boardHandler := board.NewHandler(boardService)

	assetHandler := asset.NewHandler(cfg.AssetDir)
	loader := asset.NewLoader(cfg.AssetDir)
	exportHandler := export.NewHandler(boardService, loader)

	engOpts := []engine.Option{
		engine.WithLoader(loader),
		engine.WithSnapThreshold(cfg.SnapThreshold),
	}
	if cfg.GenerationURL != "" {
		engOpts = append(engOpts, engine.WithGenerator(generate.NewClient(cfg.GenerationURL, cfg.GenerationSecret, cfg.GenerationTimeout)))
	} else {
		slog.Info("GENERATION_URL not set, image generation disabled")
	}

	hub := session.NewHub(boardService, cfg.AutosaveInterval, slog.Default(), engOpts...)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix(asset.URLPrefix).Handler(assetHandler.Serve()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/boards", boardHandler.List).Methods("GET")
	api.HandleFunc("/boards", boardHandler.Create).Methods("POST")
	api.HandleFunc("/boards/{boardId}", boardHandler.Get).Methods("GET")
	api.HandleFunc("/boards/{boardId}", boardHandler.Delete).Methods("DELETE")
	api.HandleFunc("/boards/{boardId}/snapshots/latest", boardHandler.GetLatestSnapshot).Methods("GET")
	api.HandleFunc("/boards/{boardId}/export", exportHandler.Export).Methods("GET")

	if cfg.MDNSEnabled {
		server, err := discovery.Advertise(cfg.MDNSInstance, cfg.Port, version)
		if err != nil {
			slog.Error("mdns advertise", "error", err)
		} else {
			defer server.Shutdown()
		}
		api.HandleFunc("/peers", discovery.PeersHandler).Methods("GET")
	}

	// WebSocket endpoint
	r.HandleFunc("/ws/boards/{boardId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, cfg.OriginHosts())
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop the hub first so every open board is saved.
		slog.Info("saving open boards...")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *session.Hub, originPatterns []string) {
	boardID := mux.Vars(r)["boardId"]

	sess, err := hub.Open(r.Context(), boardID)
	switch {
	case errors.Is(err, session.ErrBoardOpen):
		http.Error(w, "board is open in another session", http.StatusConflict)
		return
	case errors.Is(err, board.ErrBoardNotFound):
		http.Error(w, "board not found", http.StatusNotFound)
		return
	case err != nil:
		slog.Error("open board", "error", err, "board", boardID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		sess.Close()
		return
	}

	session.NewClient(sess, conn).Serve(r.Context())
}
