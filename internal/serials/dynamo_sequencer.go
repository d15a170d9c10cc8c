package serials

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type CounterTable interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoSequencer keeps each counter in one item and advances it with an
// atomic ADD, so concurrent webhooks can never be handed the same value.
type DynamoSequencer struct {
	ddb   CounterTable
	table string
	seed  *int64
}

// NewDynamoSequencer returns a sequencer over table. With a non-nil seed a
// counter that does not exist yet starts at *seed; otherwise a missing
// counter is ErrCounterMissing.
func NewDynamoSequencer(ddb CounterTable, table string, seed *int64) *DynamoSequencer {
	return &DynamoSequencer{ddb: ddb, table: strings.TrimSpace(table), seed: seed}
}

type counterItem struct {
	PK        string `dynamodbav:"PK"`
	NextValue int64  `dynamodbav:"NextValue"`
}

func counterPK(c Counter) string {
	return "COUNTER#" + c.String()
}

func (s *DynamoSequencer) key(c Counter) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		"PK": &ddbtypes.AttributeValueMemberS{Value: counterPK(c)},
	}
}

func (s *DynamoSequencer) NextSerial(ctx context.Context, c Counter) (Reservation, error) {
	if s.table == "" {
		return Reservation{}, fmt.Errorf("missing COUNTERS_TABLE")
	}

	// A lost seeding race falls through to a second increment.
	for attempt := 0; attempt < 2; attempt++ {
		v, err := s.increment(ctx, c)
		if err == nil {
			return Reservation{Value: v}, nil
		}
		if !isConditionFailed(err) {
			return Reservation{}, fmt.Errorf("increment %s: %w", c, err)
		}
		if s.seed == nil {
			return Reservation{}, fmt.Errorf("%s: %w", c, ErrCounterMissing)
		}

		seeded, err := s.create(ctx, c, *s.seed)
		if err != nil {
			return Reservation{}, fmt.Errorf("seed %s: %w", c, err)
		}
		if seeded {
			return Reservation{Value: *s.seed}, nil
		}
	}
	return Reservation{}, fmt.Errorf("%s: counter contention", c)
}

func (s *DynamoSequencer) increment(ctx context.Context, c Counter) (int64, error) {
	out, err := s.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.table),
		Key:                 s.key(c),
		UpdateExpression:    aws.String("ADD #n :one"),
		ConditionExpression: aws.String("attribute_exists(#n)"),
		ExpressionAttributeNames: map[string]string{
			"#n": "NextValue",
		},
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":one": &ddbtypes.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: ddbtypes.ReturnValueUpdatedOld,
	})
	if err != nil {
		return 0, err
	}

	var item counterItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return 0, fmt.Errorf("decode counter: %w", err)
	}
	return item.NextValue, nil
}

// create stores seed+1, having handed out seed. Returns false when another
// writer created the counter first.
func (s *DynamoSequencer) create(ctx context.Context, c Counter, seed int64) (bool, error) {
	item, err := attributevalue.MarshalMap(counterItem{PK: counterPK(c), NextValue: seed + 1})
	if err != nil {
		return false, err
	}
	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *DynamoSequencer) Current(ctx context.Context, c Counter) (int64, error) {
	if s.table == "" {
		return 0, fmt.Errorf("missing COUNTERS_TABLE")
	}
	out, err := s.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.key(c),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", c, err)
	}
	if len(out.Item) == 0 {
		if s.seed != nil {
			return *s.seed, nil
		}
		return 0, fmt.Errorf("%s: %w", c, ErrCounterMissing)
	}

	var item counterItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return 0, fmt.Errorf("decode counter: %w", err)
	}
	return item.NextValue, nil
}

func isConditionFailed(err error) bool {
	var cfe *ddbtypes.ConditionalCheckFailedException
	return errors.As(err, &cfe)
}

// ParseSeed reads COUNTER_SEED style values; empty means no seed policy.
func ParseSeed(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid counter seed %q: %w", raw, err)
	}
	return &n, nil
}
