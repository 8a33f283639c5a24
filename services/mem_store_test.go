package services

import (
	"context"
	"sort"
	"sync"

	"creerlio_server/models"
)

// In-memory store fakes for engine and gate tests. They reproduce the
// conditional-write semantics of the DynamoDB stores under a mutex, so the
// concurrency properties can be exercised with real goroutines.

func pairKeyOf(talentID, businessID string) string {
	return talentID + "|" + businessID
}

type memConnectionStore struct {
	mu   sync.Mutex
	rows map[string]*models.ConnectionRequest
}

func newMemConnectionStore() *memConnectionStore {
	return &memConnectionStore{rows: make(map[string]*models.ConnectionRequest)}
}

func copyRec(rec *models.ConnectionRequest) *models.ConnectionRequest {
	out := *rec
	out.SelectedSections = append([]string(nil), rec.SelectedSections...)
	return &out
}

func (s *memConnectionStore) Create(_ context.Context, rec *models.ConnectionRequest, reclaimCutoff string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKeyOf(rec.TalentID, rec.BusinessID)
	if existing, ok := s.rows[key]; ok {
		reclaimable := existing.Status == models.StatusDeclined && existing.RespondedAt < reclaimCutoff
		if !reclaimable {
			return ErrDuplicateRequest
		}
	}
	s.rows[key] = copyRec(rec)
	return nil
}

func (s *memConnectionStore) GetByID(_ context.Context, requestID string) (*models.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.rows {
		if rec.ID == requestID {
			return copyRec(rec), nil
		}
	}
	return nil, ErrRecordNotFound
}

func (s *memConnectionStore) GetByPair(_ context.Context, talentID, businessID string) (*models.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rows[pairKeyOf(talentID, businessID)]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return copyRec(rec), nil
}

func (s *memConnectionStore) UpdateStatus(_ context.Context, rec *models.ConnectionRequest, expected, next models.ConnectionStatus, respondedAt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[pairKeyOf(rec.TalentID, rec.BusinessID)]
	if !ok || row.ID != rec.ID || row.Status != expected || row.ReconnectRequestedBy != "" {
		return ErrStaleState
	}
	row.Status = next
	row.RespondedAt = respondedAt
	return nil
}

func (s *memConnectionStore) SetReconnectPending(_ context.Context, rec *models.ConnectionRequest, requestedBy models.Role, message, respondedAt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[pairKeyOf(rec.TalentID, rec.BusinessID)]
	if !ok || row.ID != rec.ID || row.Status != models.StatusDiscontinued {
		return ErrStaleState
	}
	row.Status = models.StatusPending
	row.ReconnectRequestedBy = requestedBy
	row.ReconnectMessage = message
	row.RespondedAt = respondedAt
	return nil
}

func (s *memConnectionStore) ResolveReconnect(_ context.Context, rec *models.ConnectionRequest, expectedRequestedBy models.Role, next models.ConnectionStatus, respondedAt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[pairKeyOf(rec.TalentID, rec.BusinessID)]
	if !ok || row.ID != rec.ID || row.Status != models.StatusPending || row.ReconnectRequestedBy != expectedRequestedBy {
		return ErrStaleState
	}
	row.Status = next
	row.ReconnectRequestedBy = ""
	row.ReconnectMessage = ""
	row.RespondedAt = respondedAt
	return nil
}

func (s *memConnectionStore) ListForTalent(_ context.Context, talentID string) ([]models.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var recs []models.ConnectionRequest
	for _, rec := range s.rows {
		if rec.TalentID == talentID {
			recs = append(recs, *copyRec(rec))
		}
	}
	return recs, nil
}

func (s *memConnectionStore) ListForBusiness(_ context.Context, businessID string) ([]models.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var recs []models.ConnectionRequest
	for _, rec := range s.rows {
		if rec.BusinessID == businessID {
			recs = append(recs, *copyRec(rec))
		}
	}
	return recs, nil
}

func (s *memConnectionStore) ListDeclined(_ context.Context) ([]models.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var recs []models.ConnectionRequest
	for _, rec := range s.rows {
		if rec.Status == models.StatusDeclined {
			recs = append(recs, *copyRec(rec))
		}
	}
	return recs, nil
}

func (s *memConnectionStore) DeleteDeclined(_ context.Context, rec *models.ConnectionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKeyOf(rec.TalentID, rec.BusinessID)
	row, ok := s.rows[key]
	if !ok || row.ID != rec.ID || row.Status != models.StatusDeclined {
		return ErrStaleState
	}
	delete(s.rows, key)
	return nil
}

type memConversationStore struct {
	mu       sync.Mutex
	rows     map[string]*models.Conversation
	messages map[string][]models.Message
}

func newMemConversationStore() *memConversationStore {
	return &memConversationStore{
		rows:     make(map[string]*models.Conversation),
		messages: make(map[string][]models.Message),
	}
}

func (s *memConversationStore) Create(_ context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKeyOf(conv.TalentID, conv.BusinessID)
	if _, ok := s.rows[key]; ok {
		return ErrConversationExists
	}
	out := *conv
	s.rows[key] = &out
	return nil
}

func (s *memConversationStore) GetByPair(_ context.Context, talentID, businessID string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.rows[pairKeyOf(talentID, businessID)]
	if !ok {
		return nil, ErrConversationNotFound
	}
	out := *conv
	return &out, nil
}

func (s *memConversationStore) GetByID(_ context.Context, conversationID string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, conv := range s.rows {
		if conv.ID == conversationID {
			out := *conv
			return &out, nil
		}
	}
	return nil, ErrConversationNotFound
}

func (s *memConversationStore) AppendMessage(_ context.Context, conv *models.Conversation, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], *msg)
	if row, ok := s.rows[pairKeyOf(conv.TalentID, conv.BusinessID)]; ok {
		row.UpdatedAt = msg.CreatedAt
	}
	return nil
}

func (s *memConversationStore) ListMessages(_ context.Context, conversationID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := append([]models.Message(nil), s.messages[conversationID]...)
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt < msgs[j].CreatedAt })
	return msgs, nil
}

func (s *memConversationStore) LatestMessage(_ context.Context, conversationID string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messages[conversationID]
	if len(msgs) == 0 {
		return nil, nil
	}
	latest := msgs[0]
	for _, msg := range msgs[1:] {
		if msg.CreatedAt > latest.CreatedAt {
			latest = msg
		}
	}
	return &latest, nil
}

func (s *memConversationStore) ListForTalent(_ context.Context, talentID string) ([]models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var convs []models.Conversation
	for _, conv := range s.rows {
		if conv.TalentID == talentID {
			convs = append(convs, *conv)
		}
	}
	return convs, nil
}

func (s *memConversationStore) ListForBusiness(_ context.Context, businessID string) ([]models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var convs []models.Conversation
	for _, conv := range s.rows {
		if conv.BusinessID == businessID {
			convs = append(convs, *conv)
		}
	}
	return convs, nil
}

// recordingDispatcher captures notification intents for assertions.
type recordingDispatcher struct {
	mu      sync.Mutex
	intents []models.NotificationIntent
}

func (d *recordingDispatcher) Dispatch(_ context.Context, intent models.NotificationIntent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.intents = append(d.intents, intent)
	return nil
}

func (d *recordingDispatcher) types() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, intent := range d.intents {
		out = append(out, intent.Type)
	}
	return out
}

// staticProfiles resolves names from a fixed map; misses return "".
type staticProfiles map[string]string

func (p staticProfiles) DisplayName(_ context.Context, role models.Role, partyID string) string {
	return p[string(role)+"#"+partyID]
}
