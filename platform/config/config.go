// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	IsDatabaseEnabled() bool
}

// AmoConfig provides settings for the AmoCRM API client.
type AmoConfig interface {
	GetAmoSubdomain() string
	GetAmoClientID() string
	GetAmoClientSecret() string
	GetAmoRedirectURL() string
	GetAmoAccessToken() string
	GetAmoRefreshToken() string
	GetAmoAuthCode() string
	GetAmoEnvFile() string
	GetAmoTimeout() time.Duration
	GetAmoMinInterval() time.Duration
	GetAmoMaxRetries() int
	GetAmoPageLimit() int
}

// FieldsConfig provides the CRM custom-field and catalog identifiers.
// Field IDs are meaningful only within the external CRM's schema.
type FieldsConfig interface {
	GetFieldShipmentAt() int64
	GetFieldAttestedAt() int64
	GetFieldCleanPrice() int64
	GetFieldBonusBalance() int64
	GetFieldOrderID() int64
	GetFieldContactPhone() int64
	GetLedgerCatalogID() int64
	GetProductCatalogID() int64
	GetShippedPipelineID() int64
	GetShippedStatusID() int64
	GetOrderPipelineID() int64
	GetOrderStatusID() int64
	GetOrderTagID() int64
	GetResponsibleUserID() int64
}

// TelegramConfig provides settings for the operator notification channel.
type TelegramConfig interface {
	GetTelegramBotToken() string
	GetOperatorChatID() int64
}

// SheetsConfig provides settings for the spreadsheet export sink.
type SheetsConfig interface {
	GetSheetsWebhookURL() string
	GetSheetsToken() string
	IsSheetsEnabled() bool
}

// MarketConfig provides settings for the marketplace order source.
type MarketConfig interface {
	GetMarketBaseURL() string
	GetMarketAPIKey() string
	GetMarketCampaignID() string
	GetMarketSKUMap() map[string]int64
	IsMarketEnabled() bool
}

// SchedulerConfig provides settings for background task dispatch.
type SchedulerConfig interface {
	GetRedisURL() string
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	IsSchedulerEnabled() bool
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	AmoSubdomain    string
	AmoClientID     string
	AmoClientSecret string
	AmoRedirectURL  string
	AmoAccessToken  string
	AmoRefreshToken string
	AmoAuthCode     string
	AmoEnvFile      string
	AmoTimeout      time.Duration
	AmoMinInterval  time.Duration
	AmoMaxRetries   int
	AmoPageLimit    int

	FieldShipmentAt   int64
	FieldAttestedAt   int64
	FieldCleanPrice   int64
	FieldBonusBalance int64
	FieldOrderID      int64
	FieldContactPhone int64
	LedgerCatalogID   int64
	ProductCatalogID  int64
	ShippedPipelineID int64
	ShippedStatusID   int64
	OrderPipelineID   int64
	OrderStatusID     int64
	OrderTagID        int64
	ResponsibleUserID int64

	TelegramBotToken string
	OperatorChatID   int64

	SheetsWebhookURL string
	SheetsToken      string

	MarketBaseURL    string
	MarketAPIKey     string
	MarketCampaignID string
	MarketSKUMap     map[string]int64

	RedisURL         string
	AsynqQueueName   string
	AsynqConcurrency int

	CORSAllowAll bool
	CORSOrigins  []string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string  { return c.DatabaseURL }
func (c *Config) IsDatabaseEnabled() bool { return c.DatabaseURL != "" }

// AmoConfig implementation
func (c *Config) GetAmoSubdomain() string           { return c.AmoSubdomain }
func (c *Config) GetAmoClientID() string            { return c.AmoClientID }
func (c *Config) GetAmoClientSecret() string        { return c.AmoClientSecret }
func (c *Config) GetAmoRedirectURL() string         { return c.AmoRedirectURL }
func (c *Config) GetAmoAccessToken() string         { return c.AmoAccessToken }
func (c *Config) GetAmoRefreshToken() string        { return c.AmoRefreshToken }
func (c *Config) GetAmoAuthCode() string            { return c.AmoAuthCode }
func (c *Config) GetAmoEnvFile() string             { return c.AmoEnvFile }
func (c *Config) GetAmoTimeout() time.Duration      { return c.AmoTimeout }
func (c *Config) GetAmoMinInterval() time.Duration  { return c.AmoMinInterval }
func (c *Config) GetAmoMaxRetries() int             { return c.AmoMaxRetries }
func (c *Config) GetAmoPageLimit() int              { return c.AmoPageLimit }

// FieldsConfig implementation
func (c *Config) GetFieldShipmentAt() int64   { return c.FieldShipmentAt }
func (c *Config) GetFieldAttestedAt() int64   { return c.FieldAttestedAt }
func (c *Config) GetFieldCleanPrice() int64   { return c.FieldCleanPrice }
func (c *Config) GetFieldBonusBalance() int64 { return c.FieldBonusBalance }
func (c *Config) GetFieldOrderID() int64      { return c.FieldOrderID }
func (c *Config) GetFieldContactPhone() int64 { return c.FieldContactPhone }
func (c *Config) GetLedgerCatalogID() int64   { return c.LedgerCatalogID }
func (c *Config) GetProductCatalogID() int64  { return c.ProductCatalogID }
func (c *Config) GetShippedPipelineID() int64 { return c.ShippedPipelineID }
func (c *Config) GetShippedStatusID() int64   { return c.ShippedStatusID }
func (c *Config) GetOrderPipelineID() int64   { return c.OrderPipelineID }
func (c *Config) GetOrderStatusID() int64     { return c.OrderStatusID }
func (c *Config) GetOrderTagID() int64        { return c.OrderTagID }
func (c *Config) GetResponsibleUserID() int64 { return c.ResponsibleUserID }

// TelegramConfig implementation
func (c *Config) GetTelegramBotToken() string { return c.TelegramBotToken }
func (c *Config) GetOperatorChatID() int64    { return c.OperatorChatID }

// SheetsConfig implementation
func (c *Config) GetSheetsWebhookURL() string { return c.SheetsWebhookURL }
func (c *Config) GetSheetsToken() string      { return c.SheetsToken }
func (c *Config) IsSheetsEnabled() bool       { return c.SheetsWebhookURL != "" }

// MarketConfig implementation
func (c *Config) GetMarketBaseURL() string    { return c.MarketBaseURL }
func (c *Config) GetMarketAPIKey() string     { return c.MarketAPIKey }
func (c *Config) GetMarketCampaignID() string         { return c.MarketCampaignID }
func (c *Config) GetMarketSKUMap() map[string]int64   { return c.MarketSKUMap }
func (c *Config) IsMarketEnabled() bool       { return c.MarketAPIKey != "" }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }
func (c *Config) IsSchedulerEnabled() bool  { return c.RedisURL != "" }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	envFile := getEnv("AMO_ENV_FILE", ".env")
	_ = godotenv.Load(envFile)

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", ""))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "true"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		AmoSubdomain:    getEnv("AMOCRM_SUBDOMAIN", ""),
		AmoClientID:     getEnv("AMOCRM_CLIENT_ID", ""),
		AmoClientSecret: getEnv("AMOCRM_CLIENT_SECRET", ""),
		AmoRedirectURL:  getEnv("AMOCRM_REDIRECT_URL", ""),
		AmoAccessToken:  getEnv("AMOCRM_ACCESS_TOKEN", ""),
		AmoRefreshToken: getEnv("AMOCRM_REFRESH_TOKEN", ""),
		AmoAuthCode:     getEnv("AMOCRM_SECRET", ""),
		AmoEnvFile:      envFile,
		AmoTimeout:      mustDuration(getEnv("AMOCRM_TIMEOUT", "30s")),
		AmoMinInterval:  mustDuration(getEnv("AMOCRM_MIN_INTERVAL", "400ms")),
		AmoMaxRetries:   mustInt(getEnv("AMOCRM_MAX_RETRIES", "2")),
		AmoPageLimit:    mustInt(getEnv("AMOCRM_PAGE_LIMIT", "250")),

		FieldShipmentAt:   mustInt64(getEnv("AMO_FIELD_SHIPMENT_AT", "935651")),
		FieldAttestedAt:   mustInt64(getEnv("AMO_FIELD_ATTESTED_AT", "1096322")),
		FieldCleanPrice:   mustInt64(getEnv("AMO_FIELD_CLEAN_PRICE", "1105022")),
		FieldBonusBalance: mustInt64(getEnv("AMO_FIELD_BONUS_BALANCE", "1105034")),
		FieldOrderID:      mustInt64(getEnv("AMO_FIELD_ORDER_ID", "1101072")),
		FieldContactPhone: mustInt64(getEnv("AMO_FIELD_CONTACT_PHONE", "671750")),
		LedgerCatalogID:   mustInt64(getEnv("AMO_LEDGER_CATALOG_ID", "2244")),
		ProductCatalogID:  mustInt64(getEnv("AMO_PRODUCT_CATALOG_ID", "1682")),
		ShippedPipelineID: mustInt64(getEnv("AMO_SHIPPED_PIPELINE_ID", "1628622")),
		ShippedStatusID:   mustInt64(getEnv("AMO_SHIPPED_STATUS_ID", "142")),
		OrderPipelineID:   mustInt64(getEnv("AMO_ORDER_PIPELINE_ID", "25020")),
		OrderStatusID:     mustInt64(getEnv("AMO_ORDER_STATUS_ID", "17566048")),
		OrderTagID:        mustInt64(getEnv("AMO_ORDER_TAG_ID", "563936")),
		ResponsibleUserID: mustInt64(getEnv("AMO_RESPONSIBLE_USER_ID", "11047749")),

		TelegramBotToken: getEnv("BOT_TOKEN", ""),
		OperatorChatID:   mustInt64(getEnv("ADMIN_CHAT_ID", "0")),

		SheetsWebhookURL: getEnv("SHEETS_WEBHOOK_URL", ""),
		SheetsToken:      getEnv("SHEETS_TOKEN", ""),

		MarketBaseURL:    getEnv("MARKET_BASE_URL", "https://api.partner.market.yandex.ru"),
		MarketAPIKey:     getEnv("MARKET_API_KEY", ""),
		MarketCampaignID: getEnv("MARKET_CAMPAIGN_ID", ""),
		MarketSKUMap:     parseSKUMap(getEnv("MARKET_SKU_MAP", "")),

		RedisURL:         getEnv("REDIS_URL", ""),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),

		CORSAllowAll: corsAllowAll,
		CORSOrigins:  corsOrigins,
	}

	if cfg.AmoSubdomain == "" {
		return nil, fmt.Errorf("AMOCRM_SUBDOMAIN is required")
	}
	if cfg.AmoClientID == "" || cfg.AmoClientSecret == "" {
		return nil, fmt.Errorf("AMOCRM_CLIENT_ID and AMOCRM_CLIENT_SECRET are required")
	}
	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.OperatorChatID == 0 {
		return nil, fmt.Errorf("ADMIN_CHAT_ID is required")
	}
	if cfg.IsMarketEnabled() && cfg.MarketCampaignID == "" {
		return nil, fmt.Errorf("MARKET_CAMPAIGN_ID is required when MARKET_API_KEY is set")
	}
	if cfg.AmoMinInterval <= 0 {
		return nil, fmt.Errorf("AMOCRM_MIN_INTERVAL must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

// parseSKUMap reads "sku=elementID,sku=elementID" pairs. Malformed pairs
// are skipped so a typo disables one product, not the whole service.
func parseSKUMap(value string) map[string]int64 {
	result := make(map[string]int64)
	for _, pair := range splitCSV(value) {
		sku, raw, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || id == 0 {
			continue
		}
		result[strings.TrimSpace(sku)] = id
	}
	return result
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
