package controllers

import (
	"encoding/json"
	"net/http"

	"creerlio_server/models"
	"creerlio_server/services"
)

// ConnectionController struct
type ConnectionController struct {
	ConnectionService *services.ConnectionService
}

// NewConnectionController initializes the controller
func NewConnectionController(service *services.ConnectionService) *ConnectionController {
	return &ConnectionController{ConnectionService: service}
}

// HandleRequestConnection - either party requests a new connection
func (c *ConnectionController) HandleRequestConnection(w http.ResponseWriter, r *http.Request) {
	var request struct {
		TalentID         string   `json:"talentId"`
		BusinessID       string   `json:"businessId"`
		InitiatedBy      string   `json:"initiatedBy"`
		SelectedSections []string `json:"selectedSections"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	initiator, err := models.ParseRole(request.InitiatedBy)
	if err != nil {
		http.Error(w, `{"error": "initiatedBy must be talent or business"}`, http.StatusBadRequest)
		return
	}

	rec, err := c.ConnectionService.RequestConnection(r.Context(), request.TalentID, request.BusinessID, initiator, request.SelectedSections)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// HandleRespond - the counterparty accepts or declines a pending request
func (c *ConnectionController) HandleRespond(w http.ResponseWriter, r *http.Request) {
	var request struct {
		RequestID     string `json:"requestId"`
		ResponderRole string `json:"responderRole"`
		Decision      string `json:"decision"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	responder, err := models.ParseRole(request.ResponderRole)
	if err != nil {
		http.Error(w, `{"error": "responderRole must be talent or business"}`, http.StatusBadRequest)
		return
	}
	decision, err := models.ParseDecision(request.Decision)
	if err != nil {
		http.Error(w, `{"error": "decision must be accept or decline"}`, http.StatusBadRequest)
		return
	}

	rec, err := c.ConnectionService.Respond(r.Context(), request.RequestID, responder, decision)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleDiscontinue - either party ends an accepted connection
func (c *ConnectionController) HandleDiscontinue(w http.ResponseWriter, r *http.Request) {
	var request struct {
		RequestID string `json:"requestId"`
		ActorRole string `json:"actorRole"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	actor, err := models.ParseRole(request.ActorRole)
	if err != nil {
		http.Error(w, `{"error": "actorRole must be talent or business"}`, http.StatusBadRequest)
		return
	}

	rec, err := c.ConnectionService.Discontinue(r.Context(), request.RequestID, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleRequestReconnect - either party asks to re-establish a discontinued connection
func (c *ConnectionController) HandleRequestReconnect(w http.ResponseWriter, r *http.Request) {
	var request struct {
		RequestID     string `json:"requestId"`
		RequesterRole string `json:"requesterRole"`
		Message       string `json:"message,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	requester, err := models.ParseRole(request.RequesterRole)
	if err != nil {
		http.Error(w, `{"error": "requesterRole must be talent or business"}`, http.StatusBadRequest)
		return
	}

	rec, err := c.ConnectionService.RequestReconnection(r.Context(), request.RequestID, requester, request.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleRespondReconnect - the counterparty accepts or declines a pending reconnection
func (c *ConnectionController) HandleRespondReconnect(w http.ResponseWriter, r *http.Request) {
	var request struct {
		RequestID     string `json:"requestId"`
		ResponderRole string `json:"responderRole"`
		Decision      string `json:"decision"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	responder, err := models.ParseRole(request.ResponderRole)
	if err != nil {
		http.Error(w, `{"error": "responderRole must be talent or business"}`, http.StatusBadRequest)
		return
	}
	decision, err := models.ParseDecision(request.Decision)
	if err != nil {
		http.Error(w, `{"error": "decision must be accept or decline"}`, http.StatusBadRequest)
		return
	}

	rec, err := c.ConnectionService.RespondToReconnection(r.Context(), request.RequestID, responder, decision)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleListConnections - list all connection requests for one party
func (c *ConnectionController) HandleListConnections(w http.ResponseWriter, r *http.Request) {
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

	recs, err := c.ConnectionService.ConnectionsFor(r.Context(), role, partyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if recs == nil {
		recs = []models.ConnectionRequest{}
	}
	writeJSON(w, http.StatusOK, recs)
}
