package services

import (
	"context"
	"sync"
	"testing"

	"creerlio_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T) (*ConversationService, *ConnectionService) {
	t.Helper()
	engine := &ConnectionService{Store: newMemConnectionStore(), Dispatcher: &recordingDispatcher{}}
	gate := &ConversationService{
		Connections: engine,
		Store:       newMemConversationStore(),
		Profiles: staticProfiles{
			"talent#talent-1": "Ada Lovelace",
			"business#biz-1":  "Acme Studios",
		},
	}
	return gate, engine
}

func acceptedConnection(t *testing.T, engine *ConnectionService, talentID, businessID string) *models.ConnectionRequest {
	t.Helper()
	ctx := context.Background()
	rec, err := engine.RequestConnection(ctx, talentID, businessID, models.RoleTalent, []string{"summary"})
	require.NoError(t, err)
	_, err = engine.Respond(ctx, rec.ID, models.RoleBusiness, models.DecisionAccept)
	require.NoError(t, err)
	return rec
}

func TestEnsureConversationRequiresAcceptedConnection(t *testing.T) {
	gate, engine := newTestGate(t)
	ctx := context.Background()

	// No connection at all.
	_, err := gate.EnsureConversation(ctx, "talent-1", "biz-1")
	assert.ErrorIs(t, err, ErrConnectionNotAccepted)

	// A first-cycle pending request is not enough.
	_, err = engine.RequestConnection(ctx, "talent-1", "biz-1", models.RoleTalent, nil)
	require.NoError(t, err)
	_, err = gate.EnsureConversation(ctx, "talent-1", "biz-1")
	assert.ErrorIs(t, err, ErrConnectionNotAccepted)
}

func TestEnsureConversationIsIdempotent(t *testing.T) {
	gate, engine := newTestGate(t)
	ctx := context.Background()
	acceptedConnection(t, engine, "talent-1", "biz-1")

	first, err := gate.EnsureConversation(ctx, "talent-1", "biz-1")
	require.NoError(t, err)
	second, err := gate.EnsureConversation(ctx, "talent-1", "biz-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestEnsureConversationConcurrentFirstMessages(t *testing.T) {
	gate, engine := newTestGate(t)
	ctx := context.Background()
	acceptedConnection(t, engine, "talent-1", "biz-1")

	const callers = 8
	ids := make([]string, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, err := gate.EnsureConversation(ctx, "talent-1", "biz-1")
			require.NoError(t, err)
			ids[i] = conv.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id, "all racers must observe the same conversation")
	}
}

func TestPostMessageGatedOnAcceptedConnection(t *testing.T) {
	gate, engine := newTestGate(t)
	ctx := context.Background()
	rec := acceptedConnection(t, engine, "talent-1", "biz-1")

	conv, err := gate.EnsureConversation(ctx, "talent-1", "biz-1")
	require.NoError(t, err)

	msg, err := gate.PostMessage(ctx, conv.ID, models.RoleBusiness, "Hi, we'd love to talk")
	require.NoError(t, err)
	assert.Equal(t, models.RoleBusiness, msg.SenderType)

	// Discontinued between page-load and send: the write must be blocked.
	_, err = engine.Discontinue(ctx, rec.ID, models.RoleTalent)
	require.NoError(t, err)

	_, err = gate.PostMessage(ctx, conv.ID, models.RoleTalent, "one more thing")
	assert.ErrorIs(t, err, ErrConnectionNotAccepted)
}

func TestPostMessageRejectsEmptyBody(t *testing.T) {
	gate, engine := newTestGate(t)
	ctx := context.Background()
	acceptedConnection(t, engine, "talent-1", "biz-1")

	conv, err := gate.EnsureConversation(ctx, "talent-1", "biz-1")
	require.NoError(t, err)

	_, err = gate.PostMessage(ctx, conv.ID, models.RoleTalent, "   ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPostMessageUnknownConversation(t *testing.T) {
	gate, _ := newTestGate(t)

	_, err := gate.PostMessage(context.Background(), "no-such-conversation", models.RoleTalent, "hello")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestHistorySurvivesDiscontinueAndReconnect(t *testing.T) {
	gate, engine := newTestGate(t)
	ctx := context.Background()
	rec := acceptedConnection(t, engine, "talent-1", "biz-1")

	conv, err := gate.EnsureConversation(ctx, "talent-1", "biz-1")
	require.NoError(t, err)
	_, err = gate.PostMessage(ctx, conv.ID, models.RoleBusiness, "first")
	require.NoError(t, err)
	_, err = gate.PostMessage(ctx, conv.ID, models.RoleTalent, "second")
	require.NoError(t, err)

	_, err = engine.Discontinue(ctx, rec.ID, models.RoleTalent)
	require.NoError(t, err)

	// History stays readable while discontinued; only writes are blocked.
	messages, err := gate.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	// Ensure still resolves the existing conversation (historical acceptance).
	again, err := gate.EnsureConversation(ctx, "talent-1", "biz-1")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)

	// Reconnect and confirm nothing was lost, in stable ascending order.
	_, err = engine.RequestReconnection(ctx, rec.ID, models.RoleBusiness, "come back")
	require.NoError(t, err)
	_, err = engine.RespondToReconnection(ctx, rec.ID, models.RoleTalent, models.DecisionAccept)
	require.NoError(t, err)

	_, err = gate.PostMessage(ctx, conv.ID, models.RoleBusiness, "third")
	require.NoError(t, err)

	messages, err = gate.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Body)
	assert.Equal(t, "second", messages[1].Body)
	assert.Equal(t, "third", messages[2].Body)
	for i := 1; i < len(messages); i++ {
		assert.LessOrEqual(t, messages[i-1].CreatedAt, messages[i].CreatedAt)
	}
}

func TestPostMessageBlockedForEveryNonAcceptedStatus(t *testing.T) {
	gate, engine := newTestGate(t)
	ctx := context.Background()
	rec := acceptedConnection(t, engine, "talent-1", "biz-1")

	conv, err := gate.EnsureConversation(ctx, "talent-1", "biz-1")
	require.NoError(t, err)

	// discontinued
	_, err = engine.Discontinue(ctx, rec.ID, models.RoleBusiness)
	require.NoError(t, err)
	_, err = gate.PostMessage(ctx, conv.ID, models.RoleTalent, "blocked")
	assert.ErrorIs(t, err, ErrConnectionNotAccepted)

	// pending reconnection
	_, err = engine.RequestReconnection(ctx, rec.ID, models.RoleTalent, "")
	require.NoError(t, err)
	_, err = gate.PostMessage(ctx, conv.ID, models.RoleTalent, "still blocked")
	assert.ErrorIs(t, err, ErrConnectionNotAccepted)

	// accepted again: writes resume
	_, err = engine.RespondToReconnection(ctx, rec.ID, models.RoleBusiness, models.DecisionAccept)
	require.NoError(t, err)
	_, err = gate.PostMessage(ctx, conv.ID, models.RoleTalent, "unblocked")
	assert.NoError(t, err)
}

func TestSummaries(t *testing.T) {
	gate, engine := newTestGate(t)
	ctx := context.Background()
	acceptedConnection(t, engine, "talent-1", "biz-1")

	conv, err := gate.EnsureConversation(ctx, "talent-1", "biz-1")
	require.NoError(t, err)
	_, err = gate.PostMessage(ctx, conv.ID, models.RoleBusiness, "older")
	require.NoError(t, err)
	latest, err := gate.PostMessage(ctx, conv.ID, models.RoleTalent, "newest")
	require.NoError(t, err)

	// Talent's view names the business.
	summaries, err := gate.Summaries(ctx, models.RoleTalent, "talent-1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, conv.ID, summaries[0].Conversation.ID)
	assert.Equal(t, "Acme Studios", summaries[0].DisplayName)
	require.NotNil(t, summaries[0].Latest)
	assert.Equal(t, latest.MessageID, summaries[0].Latest.MessageID)

	// Business's view names the talent; a missing profile would be "".
	summaries, err = gate.Summaries(ctx, models.RoleBusiness, "biz-1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Ada Lovelace", summaries[0].DisplayName)
}
