package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"creerlio_server/models"

	"github.com/google/uuid"
)

// ReconsiderationWindow is how long a declined request keeps blocking the
// pair. After it, a fresh request may reclaim the pair whether or not the
// sweeper has physically removed the old row.
const ReconsiderationWindow = 30 * 24 * time.Hour

// ConnectionService owns every state transition of a connection request.
// It never caches state across calls; each decision re-reads the current
// record and commits through a conditional write.
type ConnectionService struct {
	Store      ConnectionRecordStore
	Dispatcher NotificationDispatcher

	// Now is overridable in tests; nil means time.Now.
	Now func() time.Time
}

func (s *ConnectionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ConnectionService) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *ConnectionService) reclaimCutoff() string {
	return s.now().Add(-ReconsiderationWindow).UTC().Format(time.RFC3339)
}

// RequestConnection creates a new pending record for the pair. A live record
// (pending, accepted, or discontinued) blocks it with ErrDuplicateRequest;
// re-establishing a discontinued connection goes through RequestReconnection
// instead, which is what preserves tenure. A declined record blocks only
// until its reconsideration window has passed.
func (s *ConnectionService) RequestConnection(ctx context.Context, talentID, businessID string, initiator models.Role, selectedSections []string) (*models.ConnectionRequest, error) {
	if talentID == "" || businessID == "" {
		return nil, fmt.Errorf("%w: talentId and businessId are required", ErrValidation)
	}

	// Business-initiated requests start with no data sharing until accepted.
	if initiator == models.RoleBusiness {
		selectedSections = []string{}
	}
	if selectedSections == nil {
		selectedSections = []string{}
	}

	cutoff := s.reclaimCutoff()

	// Pre-read for a precise error; the conditional Create below is what
	// actually guarantees the invariant under races.
	if existing, err := s.Store.GetByPair(ctx, talentID, businessID); err == nil {
		if existing.Status != models.StatusDeclined || existing.RespondedAt >= cutoff {
			log.Printf("Duplicate connection request for talent=%s business=%s (current status: %s)", talentID, businessID, existing.Status)
			return nil, ErrDuplicateRequest
		}
	}

	now := s.timestamp()
	rec := &models.ConnectionRequest{
		ID:               uuid.NewString(),
		TalentID:         talentID,
		BusinessID:       businessID,
		Status:           models.StatusPending,
		InitiatedBy:      initiator,
		SelectedSections: selectedSections,
		CreatedAt:        now,
	}

	if err := s.Store.Create(ctx, rec, cutoff); err != nil {
		return nil, err
	}
	log.Printf("Connection requested: talent=%s business=%s initiatedBy=%s", talentID, businessID, initiator)

	s.notify(ctx, models.NotificationIntent{
		Type:                models.NotifyConnectionRequested,
		ConnectionRequestID: rec.ID,
		TalentID:            talentID,
		BusinessID:          businessID,
	})
	return rec, nil
}

// Respond lets the counterparty accept or decline a pending first-cycle
// request. The initiator cannot respond to its own request.
func (s *ConnectionService) Respond(ctx context.Context, requestID string, responder models.Role, decision models.Decision) (*models.ConnectionRequest, error) {
	rec, err := s.Store.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if rec.ReconnectPending() {
		return nil, fmt.Errorf("%w: a reconnection is pending, respond to the reconnection instead", ErrInvalidTransition)
	}
	if rec.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: connection already %s", ErrInvalidTransition, rec.Status)
	}
	if responder == rec.InitiatedBy {
		return nil, ErrSelfResponseForbidden
	}

	next := models.StatusAccepted
	if decision == models.DecisionDecline {
		next = models.StatusDeclined
	}

	respondedAt := s.timestamp()
	if err := s.Store.UpdateStatus(ctx, rec, models.StatusPending, next, respondedAt); err != nil {
		return nil, err
	}
	log.Printf("Connection %s %s by %s", rec.ID, next, responder)

	rec.Status = next
	rec.RespondedAt = respondedAt
	return rec, nil
}

// Discontinue ends an accepted connection. Either party may call it. The
// conversation and its history are retained; only further writes are gated.
func (s *ConnectionService) Discontinue(ctx context.Context, requestID string, actor models.Role) (*models.ConnectionRequest, error) {
	rec, err := s.Store.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if rec.Status != models.StatusAccepted {
		return nil, fmt.Errorf("%w: only an accepted connection can be discontinued (current status: %s)", ErrInvalidTransition, rec.Status)
	}

	respondedAt := s.timestamp()
	if err := s.Store.UpdateStatus(ctx, rec, models.StatusAccepted, models.StatusDiscontinued, respondedAt); err != nil {
		return nil, err
	}
	log.Printf("Connection %s discontinued by %s", rec.ID, actor)

	rec.Status = models.StatusDiscontinued
	rec.RespondedAt = respondedAt
	return rec, nil
}

// RequestReconnection re-enters pending from discontinued, recording who
// asked and why. CreatedAt is untouched so tenure is preserved.
func (s *ConnectionService) RequestReconnection(ctx context.Context, requestID string, requester models.Role, message string) (*models.ConnectionRequest, error) {
	rec, err := s.Store.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if rec.Status != models.StatusDiscontinued {
		return nil, fmt.Errorf("%w: reconnection is only possible from a discontinued connection (current status: %s)", ErrInvalidTransition, rec.Status)
	}

	respondedAt := s.timestamp()
	if err := s.Store.SetReconnectPending(ctx, rec, requester, message, respondedAt); err != nil {
		return nil, err
	}
	log.Printf("Reconnection requested for %s by %s", rec.ID, requester)

	rec.Status = models.StatusPending
	rec.ReconnectRequestedBy = requester
	rec.ReconnectMessage = message
	rec.RespondedAt = respondedAt

	s.notify(ctx, models.NotificationIntent{
		Type:                models.NotifyReconnectRequested,
		ConnectionRequestID: rec.ID,
		TalentID:            rec.TalentID,
		BusinessID:          rec.BusinessID,
		Message:             message,
	})
	return rec, nil
}

// RespondToReconnection lets the counterparty of the reconnection requester
// accept (restoring full access with history intact) or decline (reverting
// to discontinued, not to declined). Either way the reconnection fields are
// cleared.
func (s *ConnectionService) RespondToReconnection(ctx context.Context, requestID string, responder models.Role, decision models.Decision) (*models.ConnectionRequest, error) {
	rec, err := s.Store.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if !rec.ReconnectPending() {
		return nil, fmt.Errorf("%w: no reconnection request is pending", ErrInvalidTransition)
	}
	if responder == rec.ReconnectRequestedBy {
		return nil, ErrSelfResponseForbidden
	}

	next := models.StatusAccepted
	if decision == models.DecisionDecline {
		next = models.StatusDiscontinued
	}

	respondedAt := s.timestamp()
	if err := s.Store.ResolveReconnect(ctx, rec, rec.ReconnectRequestedBy, next, respondedAt); err != nil {
		return nil, err
	}
	log.Printf("Reconnection for %s resolved to %s by %s", rec.ID, next, responder)

	rec.Status = next
	rec.ReconnectRequestedBy = ""
	rec.ReconnectMessage = ""
	rec.RespondedAt = respondedAt

	if next == models.StatusAccepted {
		s.notify(ctx, models.NotificationIntent{
			Type:                models.NotifyReconnectAccepted,
			ConnectionRequestID: rec.ID,
			TalentID:            rec.TalentID,
			BusinessID:          rec.BusinessID,
		})
	}
	return rec, nil
}

// Get fetches a connection request by id.
func (s *ConnectionService) Get(ctx context.Context, requestID string) (*models.ConnectionRequest, error) {
	return s.Store.GetByID(ctx, requestID)
}

// GetForPair fetches the pair's single record.
func (s *ConnectionService) GetForPair(ctx context.Context, talentID, businessID string) (*models.ConnectionRequest, error) {
	return s.Store.GetByPair(ctx, talentID, businessID)
}

// ConnectionsFor lists all connection requests involving one party.
func (s *ConnectionService) ConnectionsFor(ctx context.Context, role models.Role, partyID string) ([]models.ConnectionRequest, error) {
	if role == models.RoleTalent {
		return s.Store.ListForTalent(ctx, partyID)
	}
	return s.Store.ListForBusiness(ctx, partyID)
}

// notify dispatches fire-and-forget. A delivery failure never fails the
// transition that produced the intent.
func (s *ConnectionService) notify(ctx context.Context, intent models.NotificationIntent) {
	if s.Dispatcher == nil {
		return
	}
	if err := s.Dispatcher.Dispatch(ctx, intent); err != nil {
		log.Printf("Failed to dispatch %s notification for %s: %v", intent.Type, intent.ConnectionRequestID, err)
	}
}
