package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"github.com/linearclockworks/shopify-serial--webhook/internal/app"
	"github.com/linearclockworks/shopify-serial--webhook/internal/config"
	"github.com/linearclockworks/shopify-serial--webhook/internal/handlers"
	"github.com/linearclockworks/shopify-serial--webhook/internal/logging"
)

// Consumes orders/create webhooks delivered through the platform's
// EventBridge partner source and an SQS queue.
func main() {
	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}

	cfg, err := config.Load(ctx, ssm.NewFromConfig(awsCfg))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = logger.Sync() }()

	opts, err := app.Build(ctx, cfg, awsCfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	lambda.Start(handlers.NewWorker(opts).Handle)
}
