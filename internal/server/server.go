package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/shouni/go-coloring-kit/pkg/chat"
	"github.com/shouni/go-coloring-kit/pkg/domain"
	"github.com/shouni/go-coloring-kit/pkg/workflow"
)

const (
	maxBodyBytes    = 1 << 16
	shutdownTimeout = 5 * time.Second
)

// Server はぬりえ本の生成フローとチャットを JSON API として公開します。
type Server struct {
	baseCtx context.Context
	logger  *slog.Logger
	manager *workflow.Manager
	server  *http.Server
}

// New は Server を生成します。ctx は生成フローなどリクエストより長く生きる処理に渡されます。
func New(ctx context.Context, addr string, manager *workflow.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		baseCtx: ctx,
		logger:  logger.With("component", "api-server"),
		manager: manager,
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler はルーティング済みの http.Handler を返します。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("GET /api/images", s.handleImages)
	mux.HandleFunc("POST /api/download", s.handleDownload)
	mux.HandleFunc("PUT /api/locale", s.handleLocale)
	mux.HandleFunc("GET /api/translations", s.handleTranslations)
	mux.HandleFunc("POST /api/chat/sessions", s.handleChatOpen)
	mux.HandleFunc("GET /api/chat/sessions/{id}", s.handleChatGet)
	mux.HandleFunc("DELETE /api/chat/sessions/{id}", s.handleChatClose)
	mux.HandleFunc("POST /api/chat/sessions/{id}/messages", s.handleChatSend)
	return mux
}

// Run は ctx がキャンセルされるまで待ち受けます。
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()
	s.logger.Info("api server listening", "address", listener.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api shutdown: %w", err)
		}
		return nil
	}
}

type stateResponse struct {
	workflow.Snapshot
	HasImages  bool          `json:"has_images"`
	ErrorTitle string        `json:"error_title,omitempty"`
	Locale     domain.Locale `json:"locale"`
	Title      string        `json:"title"`
	Subtitle   string        `json:"subtitle"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	store := s.manager.Translations()
	snap := s.manager.Orchestrator().Snapshot()
	resp := stateResponse{
		Snapshot:  snap,
		HasImages: snap.Images != nil,
		Locale:    store.Locale(),
		Title:     store.T("app.title"),
		Subtitle:  store.T("app.subtitle"),
	}
	if snap.Error != "" {
		resp.ErrorTitle = store.T("error.title")
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerationRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	orch := s.manager.Orchestrator()
	done, err := orch.Start(s.baseCtx, req)
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, workflow.ErrBusy):
		s.writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	go func() {
		if err := <-done; err != nil {
			s.logger.Debug("generation finished with error", "error", err)
		}
	}()
	s.writeJSON(w, http.StatusAccepted, orch.Snapshot())
}

func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	snap := s.manager.Orchestrator().Snapshot()
	if snap.Images == nil {
		s.writeError(w, http.StatusNotFound, "no generated images")
		return
	}
	s.writeJSON(w, http.StatusOK, snap.Images)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	orch := s.manager.Orchestrator()
	path, err := orch.Download(r.Context())
	switch {
	case errors.Is(err, workflow.ErrBusy), errors.Is(err, workflow.ErrNoImages):
		s.writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, orch.Snapshot().Error)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

type localeRequest struct {
	Locale string `json:"locale"`
}

func (s *Server) handleLocale(w http.ResponseWriter, r *http.Request) {
	var req localeRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var loc domain.Locale
	if strings.TrimSpace(req.Locale) == "" {
		loc = domain.MatchAcceptLanguage(r.Header.Get("Accept-Language"))
	} else {
		parsed, err := domain.ParseLocale(req.Locale)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		loc = parsed
	}

	s.manager.Translations().SetLocale(r.Context(), loc)
	w.WriteHeader(http.StatusNoContent)
}

type translationsResponse struct {
	Locale       domain.Locale  `json:"locale"`
	Translations map[string]any `json:"translations"`
}

func (s *Server) handleTranslations(w http.ResponseWriter, r *http.Request) {
	store := s.manager.Translations()
	s.writeJSON(w, http.StatusOK, translationsResponse{
		Locale:       store.Locale(),
		Translations: store.Mapping(),
	})
}

type chatSessionResponse struct {
	ID       string               `json:"id"`
	Busy     bool                 `json:"busy"`
	Messages []domain.ChatMessage `json:"messages"`
}

func (s *Server) handleChatOpen(w http.ResponseWriter, r *http.Request) {
	id, session, err := s.manager.Chats().Open(r.Context())
	if err != nil {
		s.log().Error("failed to open chat session", "error", err)
		s.writeError(w, http.StatusInternalServerError, s.manager.Translations().T("chat.error"))
		return
	}
	s.log().Info("chat session opened", "session_id", id, "active_sessions", s.manager.Chats().Len())
	s.writeJSON(w, http.StatusCreated, chatSessionResponse{ID: id, Messages: session.History()})
}

func (s *Server) handleChatGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, err := s.manager.Chats().Get(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, chatSessionResponse{ID: id, Busy: session.Busy(), Messages: session.History()})
}

func (s *Server) handleChatClose(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Chats().Close(r.PathValue("id")); err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type chatMessageRequest struct {
	Text string `json:"text"`
}

type chatMessageResponse struct {
	Reply    domain.ChatMessage   `json:"reply"`
	Messages []domain.ChatMessage `json:"messages"`
}

func (s *Server) handleChatSend(w http.ResponseWriter, r *http.Request) {
	session, err := s.manager.Chats().Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req chatMessageRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := session.SendMessage(r.Context(), req.Text)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, chat.ErrBusy):
		s.writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, chatMessageResponse{Reply: reply, Messages: session.History()})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
