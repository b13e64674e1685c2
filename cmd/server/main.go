package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/gridforge/gridforge/internal/asset"
	"github.com/gridforge/gridforge/internal/auth"
	"github.com/gridforge/gridforge/internal/config"
	"github.com/gridforge/gridforge/internal/db"
	"github.com/gridforge/gridforge/internal/editor"
	"github.com/gridforge/gridforge/internal/export"
	"github.com/gridforge/gridforge/internal/mapstore"
	"github.com/gridforge/gridforge/internal/scene"
	"github.com/gridforge/gridforge/internal/session"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	authService := auth.NewService(pool, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	mapService := mapstore.NewService(pool)
	mapHandler := mapstore.NewHandler(mapService)

	docLoader := func(ctx context.Context, mapID string) (*scene.MapDocument, error) {
		raw, _, err := mapService.LatestSnapshot(ctx, mapID)
		if err != nil {
			return nil, err
		}
		return scene.ParseDocument(raw)
	}
	docSaver := func(ctx context.Context, mapID string, doc *scene.MapDocument) error {
		data, err := doc.Encode()
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
		return mapService.SaveSnapshot(ctx, mapID, data)
	}

	hub := session.NewHub(docLoader, docSaver, editor.Options{
		SnapThreshold: cfg.SnapThreshold,
		GridSize:      cfg.GridSize,
	})
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	assetHandler := asset.NewHandler(cfg.AssetDir)
	exportHandler := export.NewHandler(mapService)

	origins := strings.Split(cfg.AllowedOrigins, ",")

	r := mux.NewRouter()

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Asset palette endpoints
	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.Middleware)

	api.HandleFunc("/auth/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/maps", mapHandler.List).Methods("GET")
	api.HandleFunc("/maps", mapHandler.Create).Methods("POST")
	api.HandleFunc("/maps/{mapId}", mapHandler.Get).Methods("GET")
	api.HandleFunc("/maps/{mapId}", mapHandler.Delete).Methods("DELETE")
	api.HandleFunc("/maps/{mapId}/snapshots/latest", mapHandler.LatestSnapshot).Methods("GET")
	api.HandleFunc("/maps/{mapId}/export", exportHandler.ExportMap).Methods("GET")

	// Live editing session endpoint
	r.HandleFunc("/ws/maps/{mapId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, mapService, origins)
	})

	handler := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(
		handlers.CORS(
			handlers.AllowedOrigins(origins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		)(handlers.LoggingHandler(os.Stdout, r)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop the hub first so every dirty map gets a final snapshot.
		stopHub()
		<-hub.Done()

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

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *session.Hub, authSvc *auth.Service, maps *mapstore.Service, origins []string) {
	mapID := mux.Vars(r)["mapId"]

	token := auth.TokenFromRequest(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	userID, err := authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if err := maps.CheckAccess(r.Context(), mapID, userID); err != nil {
		http.Error(w, "no access to map", http.StatusForbidden)
		return
	}

	user, err := authSvc.GetUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "user not found", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(origins),
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := session.NewClient(hub, conn, userID, user.DisplayName, mapID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// originPatterns strips schemes from the configured origins; the
// websocket library matches against host patterns.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(strings.TrimSpace(o), "http://")
		o = strings.TrimPrefix(o, "https://")
		if o != "" {
			patterns = append(patterns, o)
		}
	}
	return patterns
}
