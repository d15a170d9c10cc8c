// Package app wires configuration and AWS clients into the handler options
// shared by the webhook router and the orders worker.
package app

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"

	"github.com/linearclockworks/shopify-serial--webhook/internal/alerts"
	"github.com/linearclockworks/shopify-serial--webhook/internal/catalog"
	"github.com/linearclockworks/shopify-serial--webhook/internal/config"
	"github.com/linearclockworks/shopify-serial--webhook/internal/db"
	"github.com/linearclockworks/shopify-serial--webhook/internal/handlers"
	"github.com/linearclockworks/shopify-serial--webhook/internal/orders"
	"github.com/linearclockworks/shopify-serial--webhook/internal/pipeline"
	"github.com/linearclockworks/shopify-serial--webhook/internal/serials"
	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
	"github.com/linearclockworks/shopify-serial--webhook/internal/tracking"
)

// Build creates every client once, at cold start.
func Build(ctx context.Context, cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) (handlers.Options, error) {
	client := shopify.NewClient(cfg.ShopDomain, cfg.APIVersion, cfg.AccessToken, cfg.HTTPTimeout)
	ddb := db.NewDynamoClient(awsCfg)

	var seq serials.Sequencer
	switch cfg.CounterBackend {
	case config.CounterBackendMetafield:
		logger.Warn("metafield counter backend: concurrent orders can receive the same serial")
		seq = serials.NewMetafieldSequencer(client, cfg.CounterSeed)
	default:
		seq = serials.NewDynamoSequencer(ddb, cfg.CountersTable, cfg.CounterSeed)
	}

	var sheets tracking.SheetsAPI
	if cfg.GoogleCredentials != "" {
		gs, err := tracking.NewGoogleSheets(ctx, cfg.GoogleCredentials)
		if err != nil {
			return handlers.Options{}, err
		}
		sheets = gs
	} else {
		logger.Warn("GOOGLE_CREDENTIALS not set: tracking rows will not be written")
	}

	var archive pipeline.RowArchiver
	if cfg.ArchiveBucket != "" {
		archive = tracking.NewArchive(s3.NewFromConfig(awsCfg), cfg.ArchiveBucket, cfg.ArchivePrefix)
	}

	proc, err := pipeline.New(pipeline.Deps{
		Families:  cfg.Families,
		Allocator: serials.NewAllocator(seq),
		Mutator:   orders.NewMutator(client),
		Orders:    client,
		Products:  client,
		Resolver:  catalog.NewResolver(client, cfg.CatalogPageSize, cfg.CatalogMaxPages),
		Cloner:    catalog.NewCloner(client, cfg.ClonePublications, logger),
		Swapper:   catalog.NewSwapper(client, logger),
		Tracking:  tracking.NewWriter(sheets, cfg.SheetIDs, cfg.HTTPTimeout, logger),
		Archive:   archive,
		Alerts:    alerts.NewNotifier(sns.NewFromConfig(awsCfg), cfg.AlertsTopicArn, logger),
		AdminURL:  client.AdminURL,
		Log:       logger,
	})
	if err != nil {
		return handlers.Options{}, err
	}

	opts := handlers.Options{
		Pipeline:      proc,
		WebhookSecret: cfg.APISecret,
		Presence:      cfg.Presence,
		Log:           logger,
	}
	if cfg.DedupeTable != "" {
		opts.Dedupe = ddb
		opts.DedupeTable = cfg.DedupeTable
	}
	return opts, nil
}
