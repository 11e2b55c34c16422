// Package handler exposes the pull-based messaging surface over REST.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"linkup/internal/chat/service"
	"linkup/internal/common"

	"github.com/gorilla/mux"
)

// Presence answers whether a user currently holds a live realtime session.
type Presence interface {
	IsOnline(userID string) bool
}

type ChatHandler struct {
	chatService service.ChatService
	presence    Presence
}

func NewChatHandler(chatService service.ChatService, presence Presence) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		presence:    presence,
	}
}

func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/messages", h.SendMessage).Methods(http.MethodPost)
	r.HandleFunc("/api/messages/{messageID}", h.DeleteMessage).Methods(http.MethodDelete)
	r.HandleFunc("/api/conversations", h.ListConversations).Methods(http.MethodGet)
	r.HandleFunc("/api/conversations/with/{recipientID}", h.GetOrCreateConversation).Methods(http.MethodPost)
	r.HandleFunc("/api/conversations/{conversationID}/messages", h.GetMessages).Methods(http.MethodGet)
}

type sendMessageRequest struct {
	RecipientID string   `json:"recipient_id"`
	Text        string   `json:"text"`
	Attachments []string `json:"attachments"`
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	senderID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Text == "" && len(req.Attachments) == 0 {
		writeError(w, http.StatusBadRequest, "message must contain text or attachments")
		return
	}
	if req.RecipientID == "" {
		writeError(w, http.StatusBadRequest, "recipient_id is required")
		return
	}

	msg, err := h.chatService.SendMessage(r.Context(), senderID, req.RecipientID, req.Text, req.Attachments)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{Message: "Message sent successfully", Data: msg})
}

func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	summaries, err := h.chatService.ListConversations(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Decorate with live presence of each counterpart.
	type conversationView struct {
		*service.ConversationSummary
		Online bool `json:"online"`
	}
	views := make([]conversationView, 0, len(summaries))
	for _, s := range summaries {
		views = append(views, conversationView{
			ConversationSummary: s,
			Online:              h.presence.IsOnline(s.RecipientID),
		})
	}

	writeJSON(w, http.StatusOK, response{Message: "Conversations retrieved successfully", Data: views})
}

func (h *ChatHandler) GetOrCreateConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	recipientID := mux.Vars(r)["recipientID"]
	conv, err := h.chatService.ResolveConversation(r.Context(), userID, recipientID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Message: "Conversation retrieved successfully", Data: conv})
}

// GetMessages serves paged history. Reading history marks the caller's
// unread messages in the conversation as read first, like opening the
// conversation in a client would.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	conversationID := mux.Vars(r)["conversationID"]

	conv, err := h.chatService.GetConversation(r.Context(), conversationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !conv.HasParticipant(userID) {
		writeError(w, http.StatusForbidden, "you are not a participant in this conversation")
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)

	if _, err := h.chatService.MarkConversationRead(r.Context(), conversationID, userID); err != nil {
		writeServiceError(w, err)
		return
	}

	messages, err := h.chatService.GetMessages(r.Context(), conversationID, page, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Message: "Messages retrieved successfully", Data: messages})
}

func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	messageID := mux.Vars(r)["messageID"]
	if err := h.chatService.DeleteMessage(r.Context(), messageID, userID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Message: "Message deleted successfully"})
}

type response struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Message: message})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, common.ErrSelfConversation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
