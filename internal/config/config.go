package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/linearclockworks/shopify-serial--webhook/internal/db"
	"github.com/linearclockworks/shopify-serial--webhook/internal/serials"
	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
)

const (
	CounterBackendDynamo    = "dynamodb"
	CounterBackendMetafield = "metafield"
)

type Athena struct {
	Database  string
	Table     string
	Workgroup string
	Output    string
}

type Config struct {
	ShopDomain  string
	APIVersion  string
	AccessToken string
	APISecret   string
	HTTPTimeout time.Duration

	GoogleCredentials string
	// SheetIDs maps family name to spreadsheet id; families without a
	// configured sheet are absent.
	SheetIDs map[string]string

	Families serials.Families

	CounterBackend string
	CountersTable  string
	CounterSeed    *int64

	DedupeTable    string
	AlertsTopicArn string

	ArchiveBucket string
	ArchivePrefix string
	Athena        Athena

	CatalogMaxPages   int
	CatalogPageSize   int
	ClonePublications []string

	LogLevel string
}

func LogLevel() string { return env("LOG_LEVEL") }

// LoadAthena reads the archive-repair target. It needs none of the shop
// settings Load requires.
func LoadAthena() Athena {
	return Athena{
		Database:  env("ATHENA_DATABASE"),
		Table:     envDefault("ATHENA_TABLE", "tracking_rows"),
		Workgroup: envDefault("ATHENA_WORKGROUP", "primary"),
		Output:    env("ATHENA_OUTPUT"),
	}
}

// Load reads the environment once at cold start. params may be nil when no
// *_SSM_PARAM keys are used.
func Load(ctx context.Context, params ParamStore) (*Config, error) {
	cfg := &Config{
		ShopDomain:        shopify.NormalizeShopDomain(env("SHOPIFY_SHOP_NAME")),
		APIVersion:        envDefault("SHOPIFY_API_VERSION", shopify.DefaultAPIVersion),
		APISecret:         env("SHOPIFY_API_SECRET"),
		HTTPTimeout:       envDuration("SHOPIFY_HTTP_TIMEOUT", 30*time.Second),
		SheetIDs:          map[string]string{},
		CounterBackend:    strings.ToLower(envDefault("COUNTER_BACKEND", CounterBackendDynamo)),
		CountersTable:     db.CountersTableName(),
		DedupeTable:       db.WebhookDedupeTableName(),
		AlertsTopicArn:    env("ALERTS_TOPIC_ARN"),
		ArchiveBucket:     env("TRACKING_ARCHIVE_BUCKET"),
		ArchivePrefix:     envDefault("TRACKING_ARCHIVE_PREFIX", "tracking/"),
		CatalogMaxPages:   envInt("CATALOG_MAX_PAGES", 20),
		CatalogPageSize:   envInt("CATALOG_PAGE_SIZE", 250),
		ClonePublications: envList("CLONE_PUBLICATIONS"),
		LogLevel:          LogLevel(),
		Athena:            LoadAthena(),
	}

	if cfg.ShopDomain == "" {
		return nil, fmt.Errorf("missing SHOPIFY_SHOP_NAME")
	}
	switch cfg.CounterBackend {
	case CounterBackendDynamo:
		if cfg.CountersTable == "" {
			return nil, fmt.Errorf("missing COUNTERS_TABLE")
		}
	case CounterBackendMetafield:
	default:
		return nil, fmt.Errorf("unknown COUNTER_BACKEND %q", cfg.CounterBackend)
	}

	seed, err := serials.ParseSeed(env("COUNTER_SEED"))
	if err != nil {
		return nil, err
	}
	cfg.CounterSeed = seed

	if cfg.AccessToken, err = secret(ctx, params, "SHOPIFY_ACCESS_TOKEN"); err != nil {
		return nil, err
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("missing SHOPIFY_ACCESS_TOKEN")
	}
	if cfg.GoogleCredentials, err = secret(ctx, params, "GOOGLE_CREDENTIALS"); err != nil {
		return nil, err
	}

	if cfg.Families, err = LoadFamilies(); err != nil {
		return nil, err
	}
	for _, f := range cfg.Families {
		if f.Sheet.IDEnv == "" {
			continue
		}
		if id := env(f.Sheet.IDEnv); id != "" {
			cfg.SheetIDs[f.Name] = id
		}
	}
	return cfg, nil
}

// Presence reports which settings are configured, never their values.
func (c *Config) Presence() map[string]any {
	families := make([]string, 0, len(c.Families))
	for _, f := range c.Families {
		families = append(families, f.Name)
	}
	sheets := map[string]bool{}
	for _, f := range c.Families {
		sheets[f.Name] = c.SheetIDs[f.Name] != ""
	}
	return map[string]any{
		"shop":                c.ShopDomain,
		"api_version":         c.APIVersion,
		"access_token_set":    c.AccessToken != "",
		"webhook_secret_set":  c.APISecret != "",
		"google_credentials":  c.GoogleCredentials != "",
		"sheets":              sheets,
		"families":            families,
		"counter_backend":     c.CounterBackend,
		"counter_seed_policy": c.CounterSeed != nil,
		"dedupe_enabled":      c.DedupeTable != "",
		"alerts_enabled":      c.AlertsTopicArn != "",
		"archive_enabled":     c.ArchiveBucket != "",
	}
}
