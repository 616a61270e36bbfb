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
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/inamate/nestboard/internal/auth"
	"github.com/inamate/nestboard/internal/board"
	"github.com/inamate/nestboard/internal/collab"
	"github.com/inamate/nestboard/internal/config"
	"github.com/inamate/nestboard/internal/document"
	"github.com/inamate/nestboard/internal/engine"
	mw "github.com/inamate/nestboard/internal/middleware"
	"github.com/inamate/nestboard/internal/store"
)

// playgroundBoardID is an in-memory board open to anonymous users. It is
// never persisted.
const playgroundBoardID = "board_playground"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	authService := auth.NewService(st, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	boardService := board.NewService(st)
	boardHandler := board.NewHandler(boardService)

	// Document loader for the collaboration hub
	docLoader := func(ctx context.Context, boardID string) (*document.Board, error) {
		if boardID == playgroundBoardID {
			return document.NewSampleBoard(playgroundBoardID), nil
		}
		return boardService.LoadDocument(ctx, boardID)
	}

	// Document saver for the collaboration hub
	docSaver := func(ctx context.Context, boardID string, doc *document.Board) error {
		if boardID == playgroundBoardID {
			return nil
		}
		return boardService.SaveDocument(ctx, boardID, doc)
	}

	hub := collab.NewHub(docLoader, docSaver, cfg.AutosaveInterval, engine.Size{
		Width:  cfg.ViewportWidth,
		Height: cfg.ViewportHeight,
	})
	go hub.Run()
	boardService.SetLiveBoards(hub)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/auth/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/boards", boardHandler.List).Methods("GET")
	api.HandleFunc("/boards", boardHandler.Create).Methods("POST")
	api.HandleFunc("/boards/{boardId}", boardHandler.Get).Methods("GET")
	api.HandleFunc("/boards/{boardId}", boardHandler.Delete).Methods("DELETE")
	api.HandleFunc("/boards/{boardId}/snapshots/latest", boardHandler.GetLatestSnapshot).Methods("GET")
	api.HandleFunc("/boards/{boardId}/snapshots", boardHandler.SaveSnapshot).Methods("POST")
	api.HandleFunc("/boards/{boardId}/export.svg", boardHandler.ExportSVG).Methods("GET")

	// WebSocket endpoint
	originPatterns := mw.OriginPatterns(cfg.Origins())
	r.HandleFunc("/ws/board/{boardId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, boardService, originPatterns)
	})

	// CORS wraps the router so preflight requests are answered before route
	// matching.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mw.CORS(cfg.Origins())(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		// Stop hub first to save all dirty boards
		slog.Info("saving all boards...")
		hub.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, boardSvc *board.Service, originPatterns []string) {
	boardID := mux.Vars(r)["boardId"]

	var userID string
	var displayName string

	if boardID == playgroundBoardID {
		// Anonymous user for playground
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
	} else {
		// Auth via query param for real boards
		token, err := auth.TokenFromRequest(r)
		if err != nil {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		userID, err = authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		if err := boardSvc.Authorize(r.Context(), boardID, userID); err != nil {
			switch {
			case errors.Is(err, board.ErrNotFound):
				http.Error(w, "board not found", http.StatusNotFound)
			case errors.Is(err, board.ErrForbidden):
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				slog.Error("authorize board", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		user, err := authSvc.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusInternalServerError)
			return
		}
		displayName = user.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, displayName, boardID, clientID)

	hub.Register(client)
	client.Serve(r.Context())
}
