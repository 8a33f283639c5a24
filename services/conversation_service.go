package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"creerlio_server/models"

	"github.com/google/uuid"
)

// messageTimeFormat is fixed-width so the message sort key orders
// lexicographically by time.
const messageTimeFormat = "2006-01-02T15:04:05.000000000Z"

// ConversationService is the single choke point for conversation access. It
// consults the lifecycle engine for the pair's current status on every call
// rather than caching anything.
type ConversationService struct {
	Connections *ConnectionService
	Store       ConversationStore
	Profiles    ProfileDirectory
}

// EnsureConversation returns the pair's conversation, creating it lazily the
// first time. Precondition: the pair has a current or historical accepted
// connection. A conversation created once stays readable after
// discontinuation; only writes are blocked.
func (s *ConversationService) EnsureConversation(ctx context.Context, talentID, businessID string) (*models.Conversation, error) {
	rec, err := s.Connections.GetForPair(ctx, talentID, businessID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrConnectionNotAccepted
		}
		return nil, err
	}
	if !everAccepted(rec) {
		return nil, ErrConnectionNotAccepted
	}

	if conv, err := s.Store.GetByPair(ctx, talentID, businessID); err == nil {
		return conv, nil
	} else if !errors.Is(err, ErrConversationNotFound) {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	conv := &models.Conversation{
		ID:         uuid.NewString(),
		TalentID:   talentID,
		BusinessID: businessID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.Store.Create(ctx, conv)
	if errors.Is(err, ErrConversationExists) {
		// Lost the first-message race; the winning row is the conversation.
		return s.Store.GetByPair(ctx, talentID, businessID)
	}
	if err != nil {
		return nil, err
	}

	log.Printf("Conversation %s created for talent=%s business=%s", conv.ID, talentID, businessID)
	return conv, nil
}

// PostMessage appends an immutable message. The governing connection's status
// is re-read at write time: a connection discontinued between page-load and
// send must block the send.
func (s *ConversationService) PostMessage(ctx context.Context, conversationID string, sender models.Role, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: message body is required", ErrValidation)
	}

	conv, err := s.Store.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	rec, err := s.Connections.GetForPair(ctx, conv.TalentID, conv.BusinessID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrConnectionNotAccepted
		}
		return nil, err
	}
	if rec.Status != models.StatusAccepted {
		return nil, ErrConnectionNotAccepted
	}

	msg := &models.Message{
		ConversationID: conversationID,
		CreatedAt:      time.Now().UTC().Format(messageTimeFormat),
		MessageID:      uuid.NewString(),
		SenderType:     sender,
		Body:           body,
	}

	if err := s.Store.AppendMessage(ctx, conv, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages returns the conversation's messages in stable ascending
// createdAt order. History remains readable regardless of connection status.
func (s *ConversationService) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	if _, err := s.Store.GetByID(ctx, conversationID); err != nil {
		return nil, err
	}
	return s.Store.ListMessages(ctx, conversationID)
}

// Summaries lists one party's conversations with the latest message and the
// counterparty's display name. Name lookup is best-effort; an empty name is
// normal and never an error.
func (s *ConversationService) Summaries(ctx context.Context, role models.Role, partyID string) ([]models.ConversationSummary, error) {
	var convs []models.Conversation
	var err error
	if role == models.RoleTalent {
		convs, err = s.Store.ListForTalent(ctx, partyID)
	} else {
		convs, err = s.Store.ListForBusiness(ctx, partyID)
	}
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		summary := models.ConversationSummary{Conversation: conv}

		latest, err := s.Store.LatestMessage(ctx, conv.ID)
		if err != nil {
			log.Printf("Failed to fetch latest message for conversation %s: %v", conv.ID, err)
		} else {
			summary.Latest = latest
		}

		if s.Profiles != nil {
			counterpart := role.Counterpart()
			counterpartID := conv.TalentID
			if counterpart == models.RoleBusiness {
				counterpartID = conv.BusinessID
			}
			summary.DisplayName = s.Profiles.DisplayName(ctx, counterpart, counterpartID)
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// everAccepted reports whether the pair's connection is, or once was,
// accepted. A discontinued record and a pending reconnection cycle both imply
// a prior acceptance.
func everAccepted(rec *models.ConnectionRequest) bool {
	switch rec.Status {
	case models.StatusAccepted, models.StatusDiscontinued:
		return true
	case models.StatusPending:
		return rec.ReconnectRequestedBy != ""
	}
	return false
}
