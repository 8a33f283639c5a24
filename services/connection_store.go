package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"creerlio_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ConnectionRecordStore is the durable storage leaf for connection requests.
// Every mutating method is a single conditional write keyed on the record's
// current state, so concurrent writers resolve to exactly one winner.
type ConnectionRecordStore interface {
	// Create inserts the pending record. The pair may be reclaimed from a
	// declined record whose respondedAt is older than reclaimCutoff; any other
	// existing row fails with ErrDuplicateRequest.
	Create(ctx context.Context, rec *models.ConnectionRequest, reclaimCutoff string) error
	GetByID(ctx context.Context, requestID string) (*models.ConnectionRequest, error)
	GetByPair(ctx context.Context, talentID, businessID string) (*models.ConnectionRequest, error)
	// UpdateStatus transitions expected -> next, requiring that no reconnection
	// cycle is pending. A lost race fails with ErrStaleState.
	UpdateStatus(ctx context.Context, rec *models.ConnectionRequest, expected, next models.ConnectionStatus, respondedAt string) error
	// SetReconnectPending re-enters pending from discontinued with provenance.
	SetReconnectPending(ctx context.Context, rec *models.ConnectionRequest, requestedBy models.Role, message, respondedAt string) error
	// ResolveReconnect finishes a pending reconnection cycle (accept or
	// re-decline) and clears the reconnection fields.
	ResolveReconnect(ctx context.Context, rec *models.ConnectionRequest, expectedRequestedBy models.Role, next models.ConnectionStatus, respondedAt string) error
	ListForTalent(ctx context.Context, talentID string) ([]models.ConnectionRequest, error)
	ListForBusiness(ctx context.Context, businessID string) ([]models.ConnectionRequest, error)
	ListDeclined(ctx context.Context) ([]models.ConnectionRequest, error)
	// DeleteDeclined removes a declined record, failing with ErrStaleState if
	// the row is no longer declined (a fresh request already reclaimed it).
	DeleteDeclined(ctx context.Context, rec *models.ConnectionRequest) error
}

// DynamoConnectionStore implements ConnectionRecordStore on DynamoDB.
type DynamoConnectionStore struct {
	Dynamo *DynamoService
}

func (s *DynamoConnectionStore) pairKey(talentID, businessID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: models.TalentPK(talentID)},
		"SK": &types.AttributeValueMemberS{Value: models.BusinessSK(businessID)},
	}
}

func (s *DynamoConnectionStore) Create(ctx context.Context, rec *models.ConnectionRequest, reclaimCutoff string) error {
	rec.PK = models.TalentPK(rec.TalentID)
	rec.SK = models.BusinessSK(rec.BusinessID)

	// The pair is free when no row exists, or when the old row is a declined
	// request past its reconsideration window. The window is enforced here at
	// write time, not only by the sweeper.
	condition := "attribute_not_exists(PK) OR (#status = :declined AND respondedAt < :cutoff)"
	err := s.Dynamo.PutItemConditional(ctx, models.ConnectionRequestsTable, rec,
		condition,
		map[string]types.AttributeValue{
			":declined": &types.AttributeValueMemberS{Value: string(models.StatusDeclined)},
			":cutoff":   &types.AttributeValueMemberS{Value: reclaimCutoff},
		},
		map[string]string{"#status": "status"},
	)
	if errors.Is(err, ErrConditionFailed) {
		return ErrDuplicateRequest
	}
	return err
}

func (s *DynamoConnectionStore) GetByID(ctx context.Context, requestID string) (*models.ConnectionRequest, error) {
	keyCondition := "requestId = :id"
	expressionValues := map[string]types.AttributeValue{
		":id": &types.AttributeValueMemberS{Value: requestID},
	}

	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.ConnectionRequestsTable, models.RequestIDIndex, keyCondition, expressionValues, nil, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch connection request %s: %w", requestID, err)
	}
	if len(items) == 0 {
		return nil, ErrRecordNotFound
	}

	var rec models.ConnectionRequest
	if err := attributevalue.UnmarshalMap(items[0], &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connection request: %w", err)
	}
	return &rec, nil
}

func (s *DynamoConnectionStore) GetByPair(ctx context.Context, talentID, businessID string) (*models.ConnectionRequest, error) {
	item, err := s.Dynamo.GetItem(ctx, models.ConnectionRequestsTable, s.pairKey(talentID, businessID))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrRecordNotFound
	}

	var rec models.ConnectionRequest
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connection request: %w", err)
	}
	return &rec, nil
}

func (s *DynamoConnectionStore) UpdateStatus(ctx context.Context, rec *models.ConnectionRequest, expected, next models.ConnectionStatus, respondedAt string) error {
	updateExpression := "SET #status = :next, respondedAt = :respondedAt"
	// The same-id guard closes the gap where a declined row was reclaimed by a
	// brand-new request between the caller's read and this write.
	condition := "requestId = :id AND #status = :expected AND attribute_not_exists(reconnectRequestedBy)"

	_, err := s.Dynamo.UpdateItemConditional(ctx, models.ConnectionRequestsTable,
		s.pairKey(rec.TalentID, rec.BusinessID),
		updateExpression,
		condition,
		map[string]types.AttributeValue{
			":id":          &types.AttributeValueMemberS{Value: rec.ID},
			":next":        &types.AttributeValueMemberS{Value: string(next)},
			":expected":    &types.AttributeValueMemberS{Value: string(expected)},
			":respondedAt": &types.AttributeValueMemberS{Value: respondedAt},
		},
		map[string]string{"#status": "status"},
	)
	if errors.Is(err, ErrConditionFailed) {
		return ErrStaleState
	}
	return err
}

func (s *DynamoConnectionStore) SetReconnectPending(ctx context.Context, rec *models.ConnectionRequest, requestedBy models.Role, message, respondedAt string) error {
	updateExpression := "SET #status = :pending, reconnectRequestedBy = :requestedBy, reconnectMessage = :message, respondedAt = :respondedAt"
	condition := "requestId = :id AND #status = :discontinued"

	_, err := s.Dynamo.UpdateItemConditional(ctx, models.ConnectionRequestsTable,
		s.pairKey(rec.TalentID, rec.BusinessID),
		updateExpression,
		condition,
		map[string]types.AttributeValue{
			":id":           &types.AttributeValueMemberS{Value: rec.ID},
			":pending":      &types.AttributeValueMemberS{Value: string(models.StatusPending)},
			":discontinued": &types.AttributeValueMemberS{Value: string(models.StatusDiscontinued)},
			":requestedBy":  &types.AttributeValueMemberS{Value: string(requestedBy)},
			":message":      &types.AttributeValueMemberS{Value: message},
			":respondedAt":  &types.AttributeValueMemberS{Value: respondedAt},
		},
		map[string]string{"#status": "status"},
	)
	if errors.Is(err, ErrConditionFailed) {
		return ErrStaleState
	}
	return err
}

func (s *DynamoConnectionStore) ResolveReconnect(ctx context.Context, rec *models.ConnectionRequest, expectedRequestedBy models.Role, next models.ConnectionStatus, respondedAt string) error {
	updateExpression := "SET #status = :next, respondedAt = :respondedAt REMOVE reconnectRequestedBy, reconnectMessage"
	condition := "requestId = :id AND #status = :pending AND reconnectRequestedBy = :requestedBy"

	_, err := s.Dynamo.UpdateItemConditional(ctx, models.ConnectionRequestsTable,
		s.pairKey(rec.TalentID, rec.BusinessID),
		updateExpression,
		condition,
		map[string]types.AttributeValue{
			":id":          &types.AttributeValueMemberS{Value: rec.ID},
			":next":        &types.AttributeValueMemberS{Value: string(next)},
			":pending":     &types.AttributeValueMemberS{Value: string(models.StatusPending)},
			":requestedBy": &types.AttributeValueMemberS{Value: string(expectedRequestedBy)},
			":respondedAt": &types.AttributeValueMemberS{Value: respondedAt},
		},
		map[string]string{"#status": "status"},
	)
	if errors.Is(err, ErrConditionFailed) {
		return ErrStaleState
	}
	return err
}

func (s *DynamoConnectionStore) ListForTalent(ctx context.Context, talentID string) ([]models.ConnectionRequest, error) {
	keyCondition := "PK = :pk"
	expressionValues := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: models.TalentPK(talentID)},
	}

	items, err := s.Dynamo.QueryItemsWithOptions(ctx, models.ConnectionRequestsTable, keyCondition, expressionValues, nil, 0, false)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch connections for talent %s: %w", talentID, err)
	}

	var recs []models.ConnectionRequest
	if err := attributevalue.UnmarshalListOfMaps(items, &recs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connection requests: %w", err)
	}
	return recs, nil
}

func (s *DynamoConnectionStore) ListForBusiness(ctx context.Context, businessID string) ([]models.ConnectionRequest, error) {
	keyCondition := "businessId = :businessId"
	expressionValues := map[string]types.AttributeValue{
		":businessId": &types.AttributeValueMemberS{Value: businessID},
	}

	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.ConnectionRequestsTable, models.BusinessIDIndex, keyCondition, expressionValues, nil, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch connections for business %s: %w", businessID, err)
	}

	var recs []models.ConnectionRequest
	if err := attributevalue.UnmarshalListOfMaps(items, &recs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connection requests: %w", err)
	}
	return recs, nil
}

func (s *DynamoConnectionStore) ListDeclined(ctx context.Context) ([]models.ConnectionRequest, error) {
	var recs []models.ConnectionRequest
	err := s.Dynamo.ScanWithFilter(ctx, models.ConnectionRequestsTable,
		"#status = :declined",
		map[string]types.AttributeValue{
			":declined": &types.AttributeValueMemberS{Value: string(models.StatusDeclined)},
		},
		map[string]string{"#status": "status"},
		&recs,
	)
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *DynamoConnectionStore) DeleteDeclined(ctx context.Context, rec *models.ConnectionRequest) error {
	condition := "requestId = :id AND #status = :declined"
	err := s.Dynamo.DeleteItemConditional(ctx, models.ConnectionRequestsTable,
		s.pairKey(rec.TalentID, rec.BusinessID),
		condition,
		map[string]types.AttributeValue{
			":id":       &types.AttributeValueMemberS{Value: rec.ID},
			":declined": &types.AttributeValueMemberS{Value: string(models.StatusDeclined)},
		},
		map[string]string{"#status": "status"},
	)
	if errors.Is(err, ErrConditionFailed) {
		log.Printf("Declined record %s was reclaimed before sweep, skipping", rec.ID)
		return ErrStaleState
	}
	return err
}
