package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrConcurrentModification is returned when a concurrent write is detected.
var ErrConcurrentModification = errors.New("s3: concurrent modification detected")

type commitLog struct {
	client  DDBClient
	table   string
	baseURI string
}

type commitEntry struct {
	version   uint64
	objectKey string
}

// latest queries the newest committed version; version 0 means none.
func (l *commitLog) latest(ctx context.Context) (commitEntry, error) {
	resp, err := l.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(l.table),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: l.baseURI},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return commitEntry{}, fmt.Errorf("s3: query commit log: %w", err)
	}
	if len(resp.Items) == 0 {
		return commitEntry{}, nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return commitEntry{}, errors.New("s3: invalid version attribute in commit log")
	}
	keyAttr, ok := item["object_key"].(*types.AttributeValueMemberS)
	if !ok {
		return commitEntry{}, errors.New("s3: invalid object_key attribute in commit log")
	}
	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return commitEntry{}, fmt.Errorf("s3: parse commit version: %w", err)
	}
	return commitEntry{version: version, objectKey: keyAttr.Value}, nil
}

// commit records version with a conditional write so only one writer wins.
func (l *commitLog) commit(ctx context.Context, version uint64, objectKey string) error {
	_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.table),
		Item: map[string]types.AttributeValue{
			"base_uri":   &types.AttributeValueMemberS{Value: l.baseURI},
			"version":    &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
			"object_key": &types.AttributeValueMemberS{Value: objectKey},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("%w: version %d already committed", ErrConcurrentModification, version)
		}
		return fmt.Errorf("s3: write commit log: %w", err)
	}
	return nil
}
