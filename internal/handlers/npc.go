package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jwebster45206/local-legends/internal/logger"
	"github.com/jwebster45206/local-legends/internal/services"
	"github.com/jwebster45206/local-legends/pkg/chat"
	"github.com/jwebster45206/local-legends/pkg/storage"
)

// MaxDescriptionLength is where listing descriptions are cut off.
const MaxDescriptionLength = 200

type NPCHandler struct {
	storage   storage.Storage
	responder services.Responder
	logger    *slog.Logger
}

func NewNPCHandler(storage storage.Storage, responder services.Responder, logger *slog.Logger) *NPCHandler {
	return &NPCHandler{
		storage:   storage,
		responder: responder,
		logger:    logger,
	}
}

// List returns the roster.
// GET /api/npcs
func (h *NPCHandler) List(w http.ResponseWriter, r *http.Request) {
	npcs, err := h.storage.ListNPCs(r.Context())
	if err != nil {
		logger.WithError(h.logger, err).Error("Error fetching NPCs")
		respondError(w, h.logger, http.StatusInternalServerError, "Error fetching NPCs")
		return
	}

	out := make([]chat.NPCInfo, 0, len(npcs))
	for _, n := range npcs {
		n.Description = truncate(n.Description, MaxDescriptionLength)
		out = append(out, n)
	}
	respondJSON(w, h.logger, http.StatusOK, chat.NPCListResponse{NPCs: out, Total: len(out)})
}

// Interact sends one visitor line to an NPC and records the exchange.
// POST /api/npc/{name}/interact
func (h *NPCHandler) Interact(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req chat.InteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid interaction request", "error", err)
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := h.storage.LoadSession(r.Context(), req.SessionID)
	if err != nil {
		logger.WithError(h.logger, err).Error("Error loading session", "session_id", req.SessionID)
		respondError(w, h.logger, http.StatusInternalServerError, "Error during interaction")
		return
	}
	if sess == nil {
		respondError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}

	npc, err := h.findNPC(r, name)
	if err != nil {
		logger.WithError(h.logger, err).Error("Error fetching NPCs")
		respondError(w, h.logger, http.StatusInternalServerError, "Error during interaction")
		return
	}
	if npc == nil {
		respondError(w, h.logger, http.StatusNotFound, "NPC '"+name+"' not found")
		return
	}

	history := sess.PromptHistory(npc.Name)
	reply, err := h.responder.Respond(r.Context(), *npc, req.Message, history)
	if err != nil || reply == nil {
		logger.WithError(h.logger, err).Error("Failed to generate NPC response", "npc", npc.Name)
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to generate NPC response")
		return
	}
	reply.Options = services.LimitOptions(reply.Options)

	now := time.Now()
	sess.AddExchange(npc.Name,
		chat.ChatMessage{Role: chat.ChatRoleUser, Content: req.Message, Timestamp: now},
		chat.ChatMessage{Role: chat.ChatRoleAgent, Content: reply.Text, Options: reply.Options, Timestamp: now})
	if err := h.storage.SaveSession(r.Context(), sess); err != nil {
		logger.WithError(h.logger, err).Error("Error saving session", "session_id", sess.ID)
		respondError(w, h.logger, http.StatusInternalServerError, "Error during interaction")
		return
	}

	h.logger.Debug("NPC replied", "npc", npc.Name, "session_id", sess.ID, "options", len(reply.Options))
	respondJSON(w, h.logger, http.StatusOK, chat.InteractionResponse{
		NPCName:   npc.Name,
		Response:  *reply,
		SessionID: sess.ID,
	})
}

func (h *NPCHandler) findNPC(r *http.Request, name string) (*chat.NPCInfo, error) {
	npcs, err := h.storage.ListNPCs(r.Context())
	if err != nil {
		return nil, err
	}
	for i := range npcs {
		if strings.EqualFold(npcs[i].Name, name) {
			return &npcs[i], nil
		}
	}
	return nil, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
