package services

import (
	"context"
	"errors"
	"fmt"

	"creerlio_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ConversationStore is the durable storage leaf for conversations and
// messages, keyed by the (talent, business) pair.
type ConversationStore interface {
	// Create inserts the conversation, failing with ErrConversationExists if
	// the pair already has one. Callers tolerate the conflict: creation is
	// idempotent at the gate level.
	Create(ctx context.Context, conv *models.Conversation) error
	GetByPair(ctx context.Context, talentID, businessID string) (*models.Conversation, error)
	GetByID(ctx context.Context, conversationID string) (*models.Conversation, error)
	// AppendMessage writes the immutable message and bumps the conversation's
	// updatedAt.
	AppendMessage(ctx context.Context, conv *models.Conversation, msg *models.Message) error
	// ListMessages returns all messages ordered by createdAt ascending.
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	// LatestMessage returns the newest message, or nil for an empty conversation.
	LatestMessage(ctx context.Context, conversationID string) (*models.Message, error)
	ListForTalent(ctx context.Context, talentID string) ([]models.Conversation, error)
	ListForBusiness(ctx context.Context, businessID string) ([]models.Conversation, error)
}

// DynamoConversationStore implements ConversationStore on DynamoDB.
type DynamoConversationStore struct {
	Dynamo *DynamoService
}

func (s *DynamoConversationStore) pairKey(talentID, businessID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: models.TalentPK(talentID)},
		"SK": &types.AttributeValueMemberS{Value: models.BusinessSK(businessID)},
	}
}

func (s *DynamoConversationStore) Create(ctx context.Context, conv *models.Conversation) error {
	conv.PK = models.TalentPK(conv.TalentID)
	conv.SK = models.BusinessSK(conv.BusinessID)

	err := s.Dynamo.PutItemConditional(ctx, models.ConversationsTable, conv,
		"attribute_not_exists(PK)", nil, nil)
	if errors.Is(err, ErrConditionFailed) {
		return ErrConversationExists
	}
	return err
}

func (s *DynamoConversationStore) GetByPair(ctx context.Context, talentID, businessID string) (*models.Conversation, error) {
	item, err := s.Dynamo.GetItem(ctx, models.ConversationsTable, s.pairKey(talentID, businessID))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrConversationNotFound
	}

	var conv models.Conversation
	if err := attributevalue.UnmarshalMap(item, &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	return &conv, nil
}

func (s *DynamoConversationStore) GetByID(ctx context.Context, conversationID string) (*models.Conversation, error) {
	keyCondition := "conversationId = :id"
	expressionValues := map[string]types.AttributeValue{
		":id": &types.AttributeValueMemberS{Value: conversationID},
	}

	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.ConversationsTable, models.ConversationIDIndex, keyCondition, expressionValues, nil, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversation %s: %w", conversationID, err)
	}
	if len(items) == 0 {
		return nil, ErrConversationNotFound
	}

	var conv models.Conversation
	if err := attributevalue.UnmarshalMap(items[0], &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	return &conv, nil
}

func (s *DynamoConversationStore) AppendMessage(ctx context.Context, conv *models.Conversation, msg *models.Message) error {
	if err := s.Dynamo.PutItem(ctx, models.MessagesTable, msg); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}

	// Best-effort touch; the message row is already durable.
	_, err := s.Dynamo.UpdateItemConditional(ctx, models.ConversationsTable,
		s.pairKey(conv.TalentID, conv.BusinessID),
		"SET updatedAt = :updatedAt",
		"",
		map[string]types.AttributeValue{
			":updatedAt": &types.AttributeValueMemberS{Value: msg.CreatedAt},
		},
		nil,
	)
	return err
}

func (s *DynamoConversationStore) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	keyCondition := "conversationId = :id"
	expressionValues := map[string]types.AttributeValue{
		":id": &types.AttributeValueMemberS{Value: conversationID},
	}

	items, err := s.Dynamo.QueryItemsWithOptions(ctx, models.MessagesTable, keyCondition, expressionValues, nil, 0, false)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	var messages []models.Message
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	return messages, nil
}

func (s *DynamoConversationStore) LatestMessage(ctx context.Context, conversationID string) (*models.Message, error) {
	keyCondition := "conversationId = :id"
	expressionValues := map[string]types.AttributeValue{
		":id": &types.AttributeValueMemberS{Value: conversationID},
	}

	items, err := s.Dynamo.QueryItemsWithOptions(ctx, models.MessagesTable, keyCondition, expressionValues, nil, 1, true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest message: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	var msg models.Message
	if err := attributevalue.UnmarshalMap(items[0], &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return &msg, nil
}

func (s *DynamoConversationStore) ListForTalent(ctx context.Context, talentID string) ([]models.Conversation, error) {
	keyCondition := "PK = :pk"
	expressionValues := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: models.TalentPK(talentID)},
	}

	items, err := s.Dynamo.QueryItemsWithOptions(ctx, models.ConversationsTable, keyCondition, expressionValues, nil, 0, false)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversations for talent %s: %w", talentID, err)
	}

	var convs []models.Conversation
	if err := attributevalue.UnmarshalListOfMaps(items, &convs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversations: %w", err)
	}
	return convs, nil
}

func (s *DynamoConversationStore) ListForBusiness(ctx context.Context, businessID string) ([]models.Conversation, error) {
	keyCondition := "businessId = :businessId"
	expressionValues := map[string]types.AttributeValue{
		":businessId": &types.AttributeValueMemberS{Value: businessID},
	}

	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.ConversationsTable, models.BusinessIDIndex, keyCondition, expressionValues, nil, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversations for business %s: %w", businessID, err)
	}

	var convs []models.Conversation
	if err := attributevalue.UnmarshalListOfMaps(items, &convs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversations: %w", err)
	}
	return convs, nil
}
