package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"pickYourSocksAPI/internal/types/message"
	"pickYourSocksAPI/services"
)

type MessageHandler struct {
	messageService *services.MessageService
}

func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// GET /api/v1/messages/{friendId}?limit=
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	friendID, ok := pathUUID(w, r, "friendId", "friend ID")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := h.messageService.Conversation(ctx, sess, friendID, limit)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, messages)
}

// POST /api/v1/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req message.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.messageService.Send(ctx, sess, &req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, m)
}
