package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jwebster45206/local-legends/internal/logger"
	"github.com/jwebster45206/local-legends/pkg/chat"
	"github.com/jwebster45206/local-legends/pkg/state"
	"github.com/jwebster45206/local-legends/pkg/storage"
)

type SessionHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewSessionHandler(storage storage.Storage, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		storage: storage,
		logger:  logger,
	}
}

// Init loads the session named by ?session_id=, creating it if it does not exist.
// Without a session_id a new one is generated.
// POST /api/session/init
func (h *SessionHandler) Init(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session_id")
	if id == "" {
		id = uuid.New().String()
	}

	sess, err := h.storage.LoadSession(r.Context(), id)
	if err != nil {
		logger.WithError(h.logger, err).Error("Error loading session", "session_id", id)
		respondError(w, h.logger, http.StatusInternalServerError, "Error initializing session")
		return
	}
	if sess == nil {
		sess = state.NewSession(id, time.Now())
		h.logger.Info("Created session", "session_id", id)
	}
	if err := h.storage.SaveSession(r.Context(), sess); err != nil {
		logger.WithError(h.logger, err).Error("Error saving session", "session_id", id)
		respondError(w, h.logger, http.StatusInternalServerError, "Error initializing session")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, chat.SessionInitResponse{
		SessionID:  sess.ID,
		CreatedAt:  sess.CreatedAt,
		LastActive: sess.LastActive,
		Message:    "Session initialized",
	})
}

// Conversations returns every conversation in the session.
// GET /api/session/{id}/conversations
func (h *SessionHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, err := h.storage.LoadSession(r.Context(), id)
	if err != nil {
		logger.WithError(h.logger, err).Error("Error loading session", "session_id", id)
		respondError(w, h.logger, http.StatusInternalServerError, "Error fetching conversations")
		return
	}
	if sess == nil {
		respondError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}

	conversations := sess.Conversations
	if conversations == nil {
		conversations = make(map[string][]chat.ChatMessage)
	}
	respondJSON(w, h.logger, http.StatusOK, chat.ConversationsResponse{
		SessionID:         sess.ID,
		Conversations:     conversations,
		TotalNPCsTalkedTo: sess.TalkedTo(),
	})
}
