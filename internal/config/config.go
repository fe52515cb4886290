package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// The api server and the agent share this struct; each reads the sections
// it cares about.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	DynamoTables DynamoTables

	IconBucket  string
	IconObject  string
	UpstreamURL string // public match-data API the proxy forwards to

	AllowedOrigins []string // CORS allowed origins

	// Agent section.
	AgentPort       string        // localhost popup API port
	SyncAPIURL      string        // base URL of the sync server
	AgentDataDir    string        // where the identity file lives
	DisplayTimezone string        // IANA zone for human-readable times
	StoreTimeout    time.Duration // per-call timeout on store requests
	RefreshPeriod   time.Duration // match-data refresh heartbeat
	ResyncPeriod    time.Duration // cleanup/resync heartbeat
	AlertTopicARN   string        // optional SNS topic for reminder alerts
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	NotificationSets string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DynamoTables: DynamoTables{
			NotificationSets: getEnv("DYNAMO_TABLE_NOTIFICATION_SETS", "notification_sets"),
		},

		IconBucket:  getEnv("S3_ICON_BUCKET", "valmatch-icons"),
		IconObject:  getEnv("S3_ICON_OBJECT", "tournament_icons.json"),
		UpstreamURL: getEnv("UPSTREAM_MATCH_API_URL", "https://vlrggapi.vercel.app"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		AgentPort:       getEnv("AGENT_PORT", "7600"),
		SyncAPIURL:      getEnv("SYNC_API_URL", "http://localhost:3000"),
		AgentDataDir:    getEnv("AGENT_DATA_DIR", "./data"),
		DisplayTimezone: getEnv("DISPLAY_TIMEZONE", "Asia/Kolkata"),
		StoreTimeout:    time.Duration(getEnvInt("STORE_TIMEOUT_SECONDS", 5)) * time.Second,
		RefreshPeriod:   time.Duration(getEnvInt("REFRESH_PERIOD_MINUTES", 1)) * time.Minute,
		ResyncPeriod:    time.Duration(getEnvInt("RESYNC_PERIOD_MINUTES", 15)) * time.Minute,
		AlertTopicARN:   getEnv("ALERT_TOPIC_ARN", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
