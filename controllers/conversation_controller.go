package controllers

import (
	"encoding/json"
	"net/http"

	"creerlio_server/models"
	"creerlio_server/services"
)

// ConversationController struct
type ConversationController struct {
	ConversationService *services.ConversationService
}

// NewConversationController initializes the controller
func NewConversationController(service *services.ConversationService) *ConversationController {
	return &ConversationController{ConversationService: service}
}

// HandleEnsureConversation - lazily create (or fetch) the pair's conversation
func (c *ConversationController) HandleEnsureConversation(w http.ResponseWriter, r *http.Request) {
	var request struct {
		TalentID   string `json:"talentId"`
		BusinessID string `json:"businessId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}
	if request.TalentID == "" || request.BusinessID == "" {
		http.Error(w, `{"error": "talentId and businessId are required"}`, http.StatusBadRequest)
		return
	}

	conv, err := c.ConversationService.EnsureConversation(r.Context(), request.TalentID, request.BusinessID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// HandleSendMessage - append a message, gated on an accepted connection
func (c *ConversationController) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ConversationID string `json:"conversationId"`
		SenderRole     string `json:"senderRole"`
		Body           string `json:"body"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	sender, err := models.ParseRole(request.SenderRole)
	if err != nil {
		http.Error(w, `{"error": "senderRole must be talent or business"}`, http.StatusBadRequest)
		return
	}

	msg, err := c.ConversationService.PostMessage(r.Context(), request.ConversationID, sender, request.Body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// HandleGetMessages - fetch a conversation's messages, oldest first
func (c *ConversationController) HandleGetMessages(w http.ResponseWriter, r *http.Request) {
	conversationID := r.URL.Query().Get("conversationId")
	if conversationID == "" {
		http.Error(w, `{"error": "conversationId is required"}`, http.StatusBadRequest)
		return
	}

	messages, err := c.ConversationService.ListMessages(r.Context(), conversationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// HandleGetSummaries - list one party's conversations with latest message
func (c *ConversationController) HandleGetSummaries(w http.ResponseWriter, r *http.Request) {
	role, err := models.ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		http.Error(w, `{"error": "role must be talent or business"}`, http.StatusBadRequest)
		return
	}
	partyID := r.URL.Query().Get("id")
	if partyID == "" {
		http.Error(w, `{"error": "id is required"}`, http.StatusBadRequest)
		return
	}

	summaries, err := c.ConversationService.Summaries(r.Context(), role, partyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}
