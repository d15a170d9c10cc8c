package db

import (
	"os"
	"strings"
)

func CountersTableName() string {
	return strings.TrimSpace(os.Getenv("COUNTERS_TABLE"))
}

func WebhookDedupeTableName() string {
	return strings.TrimSpace(os.Getenv("SHOPIFY_WEBHOOK_DEDUPE_TABLE"))
}
