package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"admissionbot/models"

	"github.com/gorilla/mux"
)

type ChatHandler struct {
	commands      *CommandRouter
	conversations ConversationAdmin
}

func NewChatHandler(commands *CommandRouter, conversations ConversationAdmin) *ChatHandler {
	return &ChatHandler{commands: commands, conversations: conversations}
}

func (h *ChatHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/chat", h.Chat).Methods("POST")
	router.HandleFunc("/users/{userID}/history", h.GetHistory).Methods("GET")
	router.HandleFunc("/users/{userID}/history", h.ClearHistory).Methods("DELETE")
	router.HandleFunc("/users/{userID}", h.RemoveUser).Methods("DELETE")
	router.HandleFunc("/stats", h.GetStats).Methods("GET")
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode chat request JSON: %v", err)
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		log.Printf("[ERROR] Chat request without user_id")
		writeErrorResponse(w, http.StatusBadRequest, "user_id is required")
		return
	}

	log.Printf("[INFO] Received chat message from user %s", req.UserID)
	reply := h.commands.Respond(r.Context(), req.UserID, req.Text)
	writeJSONResponse(w, http.StatusOK, models.ChatResponse{Reply: reply})
}

func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	turns, err := h.conversations.Turns(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] Failed to read history for user %s: %v", userID, err)
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to read history")
		return
	}

	writeJSONResponse(w, http.StatusOK, models.HistoryResponse{UserID: userID, Turns: turns})
}

func (h *ChatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	resp := models.ClearHistoryResponse{Message: nothingToClear}
	if h.conversations.Clear(r.Context(), userID) {
		resp = models.ClearHistoryResponse{Cleared: true, Message: clearedMessage}
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// RemoveUser forgets the user entirely, unlike ClearHistory which keeps an
// empty conversation.
func (h *ChatHandler) RemoveUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	resp := models.RemoveUserResponse{Message: unknownUser}
	if h.conversations.Remove(userID) {
		log.Printf("[INFO] Removed user %s", userID)
		resp = models.RemoveUserResponse{Removed: true, Message: userRemoved}
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *ChatHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, h.conversations.Stats())
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, map[string]string{"error": message})
}
