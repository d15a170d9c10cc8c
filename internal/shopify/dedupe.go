package shopify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type DedupeClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DedupeTTL is how long a delivery id is remembered.
const DedupeTTL = 7 * 24 * time.Hour

// ClaimWebhook records a webhook delivery id. Returns (isDuplicate, error);
// on a duplicate the caller should answer 200 without doing any work, since
// the platform delivers at least once and retries on timeouts.
func ClaimWebhook(ctx context.Context, ddb DedupeClient, table, webhookID, shopDomain, topic string) (bool, error) {
	table = strings.TrimSpace(table)
	webhookID = strings.TrimSpace(webhookID)
	if table == "" || webhookID == "" {
		return false, nil
	}

	now := time.Now().UTC()

	_, err := ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item: map[string]types.AttributeValue{
			"PK":        &types.AttributeValueMemberS{Value: fmt.Sprintf("WH#%s", webhookID)},
			"Shop":      &types.AttributeValueMemberS{Value: shopDomain},
			"Topic":     &types.AttributeValueMemberS{Value: topic},
			"CreatedAt": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			"ExpiresAt": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Add(DedupeTTL).Unix())},
		},
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}
