package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/linearclockworks/shopify-serial--webhook/internal/config"
	"github.com/linearclockworks/shopify-serial--webhook/internal/logging"
	"github.com/linearclockworks/shopify-serial--webhook/internal/tracking"
)

// Scheduled after archive writes so new dt=/family= partitions become
// queryable.
func main() {
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}

	logger, err := logging.New(config.LogLevel())
	if err != nil {
		log.Fatalf("%v", err)
	}

	a := config.LoadAthena()
	r, err := tracking.NewRepairer(athena.NewFromConfig(cfg), a.Database, a.Table, a.Workgroup, a.Output, logger)
	if err != nil {
		logger.Fatal("invalid archive repair config", zap.Error(err))
	}

	lambda.Start(func(ctx context.Context) (tracking.RepairResult, error) {
		return r.Repair(ctx)
	})
}
