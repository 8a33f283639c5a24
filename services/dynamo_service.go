package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type DynamoService struct {
	Client *dynamodb.Client
}

// InitializeDynamoDBClient initializes the DynamoDB client
func InitializeDynamoDBClient() *dynamodb.Client {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	return dynamodb.NewFromConfig(cfg)
}

// ErrConditionFailed marks a conditional write that found unexpected current
// state. Stores translate it into the typed engine error for the operation;
// it is never retried.
var ErrConditionFailed = errors.New("conditional check failed")

const (
	maxRetries     = 3
	retryBaseDelay = 100 * time.Millisecond
)

// withRetry runs a storage call with bounded exponential backoff. Conditional
// check failures and context cancellation are surfaced immediately; exhausted
// retries wrap ErrStorageUnavailable.
func withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConditionFailed
		}
		if ctx.Err() != nil {
			// Abandoned call: nothing can be assumed committed, the caller
			// must re-query before retrying.
			return ctx.Err()
		}

		log.Printf("⚠️ %s failed (attempt %d/%d): %v", op, attempt+1, maxRetries, err)
		select {
		case <-time.After(retryBaseDelay << attempt):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}

// PutItem inserts an item unconditionally.
func (ds *DynamoService) PutItem(ctx context.Context, tableName string, item interface{}) error {
	return ds.PutItemConditional(ctx, tableName, item, "", nil, nil)
}

// PutItemConditional inserts an item guarded by a ConditionExpression.
// A failed condition returns ErrConditionFailed.
func (ds *DynamoService) PutItemConditional(
	ctx context.Context,
	tableName string,
	item interface{},
	conditionExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
) error {
	marshaledItem, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item for table '%s': %w", tableName, err)
	}

	input := &dynamodb.PutItemInput{
		TableName: &tableName,
		Item:      marshaledItem,
	}
	if conditionExpression != "" {
		input.ConditionExpression = aws.String(conditionExpression)
		input.ExpressionAttributeValues = expressionAttributeValues
		input.ExpressionAttributeNames = expressionAttributeNames
	}

	return withRetry(ctx, "PutItem "+tableName, func() error {
		_, err := ds.Client.PutItem(ctx, input)
		return err
	})
}

// GetItem retrieves an item from DynamoDB. A missing item returns (nil, nil).
func (ds *DynamoService) GetItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	var item map[string]types.AttributeValue
	err := withRetry(ctx, "GetItem "+tableName, func() error {
		output, err := ds.Client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: &tableName,
			Key:       key,
		})
		if err != nil {
			return err
		}
		item = output.Item
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from table '%s': %w", tableName, err)
	}
	return item, nil
}

// UpdateItemConditional applies an UpdateExpression guarded by a
// ConditionExpression and returns the new attributes. A failed condition
// returns ErrConditionFailed; that is how every state transition detects a
// lost compare-and-set race.
func (ds *DynamoService) UpdateItemConditional(
	ctx context.Context,
	tableName string,
	key map[string]types.AttributeValue,
	updateExpression string,
	conditionExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
) (map[string]types.AttributeValue, error) {
	if len(key) == 0 {
		return nil, errors.New("update failed: key cannot be empty")
	}
	if updateExpression == "" {
		return nil, errors.New("update failed: updateExpression cannot be empty")
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                &tableName,
		Key:                      key,
		UpdateExpression:         &updateExpression,
		ExpressionAttributeNames: expressionAttributeNames,
		ReturnValues:             types.ReturnValueAllNew,
	}
	if len(expressionAttributeValues) > 0 {
		input.ExpressionAttributeValues = expressionAttributeValues
	}
	if conditionExpression != "" {
		input.ConditionExpression = aws.String(conditionExpression)
	}

	var attrs map[string]types.AttributeValue
	err := withRetry(ctx, "UpdateItem "+tableName, func() error {
		output, err := ds.Client.UpdateItem(ctx, input)
		if err != nil {
			return err
		}
		attrs = output.Attributes
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update item in table '%s': %w", tableName, err)
	}
	return attrs, nil
}

// DeleteItemConditional removes an item guarded by a ConditionExpression.
func (ds *DynamoService) DeleteItemConditional(
	ctx context.Context,
	tableName string,
	key map[string]types.AttributeValue,
	conditionExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
) error {
	input := &dynamodb.DeleteItemInput{
		TableName: &tableName,
		Key:       key,
	}
	if conditionExpression != "" {
		input.ConditionExpression = aws.String(conditionExpression)
		input.ExpressionAttributeValues = expressionAttributeValues
		input.ExpressionAttributeNames = expressionAttributeNames
	}
	err := withRetry(ctx, "DeleteItem "+tableName, func() error {
		_, err := ds.Client.DeleteItem(ctx, input)
		return err
	})
	if err != nil && !errors.Is(err, ErrConditionFailed) {
		return fmt.Errorf("failed to delete item from table '%s': %w", tableName, err)
	}
	return err
}

// QueryItemsWithIndex queries items from DynamoDB using a Global Secondary Index (GSI)
func (ds *DynamoService) QueryItemsWithIndex(
	ctx context.Context,
	tableName string,
	indexName string,
	keyConditionExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
	limit int32,
) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	err := withRetry(ctx, "Query "+tableName+"/"+indexName, func() error {
		output, err := ds.Client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 &tableName,
			IndexName:                 &indexName,
			KeyConditionExpression:    &keyConditionExpression,
			ExpressionAttributeValues: expressionAttributeValues,
			ExpressionAttributeNames:  expressionAttributeNames,
			Limit:                     &limit,
		})
		if err != nil {
			return err
		}
		items = output.Items
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query GSI '%s': %w", indexName, err)
	}
	return items, nil
}

// QueryItemsWithOptions queries DynamoDB with sorting and limit options.
// latestFirst=true returns descending sort-key order (newest item first).
func (ds *DynamoService) QueryItemsWithOptions(
	ctx context.Context,
	tableName string,
	keyConditionExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
	limit int32,
	latestFirst bool,
) ([]map[string]types.AttributeValue, error) {
	scanIndexForward := !latestFirst

	input := &dynamodb.QueryInput{
		TableName:                 &tableName,
		KeyConditionExpression:    &keyConditionExpression,
		ExpressionAttributeValues: expressionAttributeValues,
		ExpressionAttributeNames:  expressionAttributeNames,
		ScanIndexForward:          &scanIndexForward,
	}
	if limit > 0 {
		input.Limit = &limit
	}

	var items []map[string]types.AttributeValue
	err := withRetry(ctx, "Query "+tableName, func() error {
		output, err := ds.Client.Query(ctx, input)
		if err != nil {
			return err
		}
		items = output.Items
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query table '%s': %w", tableName, err)
	}
	return items, nil
}

// ScanWithFilter performs a full scan with a FilterExpression and unmarshals
// the matching items into result (a pointer to a slice of structs).
func (ds *DynamoService) ScanWithFilter(
	ctx context.Context,
	tableName string,
	filterExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
	result interface{},
) error {
	input := &dynamodb.ScanInput{
		TableName:                 &tableName,
		FilterExpression:          aws.String(filterExpression),
		ExpressionAttributeValues: expressionAttributeValues,
		ExpressionAttributeNames:  expressionAttributeNames,
	}

	var items []map[string]types.AttributeValue
	err := withRetry(ctx, "Scan "+tableName, func() error {
		output, err := ds.Client.Scan(ctx, input)
		if err != nil {
			return err
		}
		items = output.Items
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan table '%s': %w", tableName, err)
	}

	if err := attributevalue.UnmarshalListOfMaps(items, result); err != nil {
		return fmt.Errorf("failed to unmarshal scan result: %w", err)
	}
	return nil
}
