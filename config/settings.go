package config

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds everything the service reads from the environment.
// Secrets have no defaults: an empty JWT secret fails token issuance.
type Settings struct {
	GoEnv    string
	ApiPort  string
	GrpcPort string

	JwtAccessSecret          string
	JwtRefreshSecret         string
	AccessTokenHourLifespan  int
	RefreshTokenHourLifespan int
	IdentityURL              string
	IdentityTimeout          time.Duration
	GraphqlIntrospection     bool
	TrashRetentionDays       int
	TrashSweepInterval       time.Duration
	TrashSweepDisabled       bool
	UploadBucket             string
	InventoryEventsTopic     string
	CorsAllowedOrigins       string
	RateLimitEnabled         bool
	RateLimitMaxRequests     int
	RateLimitWindow          time.Duration
	MaxUploadSizeBytes       int64
	ImportInsertBatchSize    int
	SkipMigrations           bool
}

const (
	minTrashRetentionDays = 30
	defaultApiPort        = "8080"
)

var (
	settings     *Settings
	settingsOnce sync.Once
)

func init() {
	// Load env from .env
	godotenv.Load()
}

// GetSettings reads the environment once; later calls return the same value.
func GetSettings() *Settings {
	settingsOnce.Do(func() {
		settings = LoadSettings()
	})
	return settings
}

// SetSettings replaces the process-wide settings. Used by tests and the CLI.
func SetSettings(s *Settings) {
	settingsOnce.Do(func() {})
	settings = s
}

func LoadSettings() *Settings {
	apiPort := strings.TrimSpace(os.Getenv("API_PORT"))
	if apiPort == "" {
		// Cloud Run standard env var.
		apiPort = strings.TrimSpace(os.Getenv("PORT"))
	}
	if apiPort == "" {
		apiPort = defaultApiPort
	}
	grpcPort := strings.TrimSpace(os.Getenv("GRPC_PORT"))
	if grpcPort == "" {
		grpcPort = "50051"
	}
	identityURL := strings.TrimRight(strings.TrimSpace(os.Getenv("AUTH_IDENTITY_URL")), "/")
	if identityURL == "" {
		identityURL = "http://127.0.0.1:" + apiPort
	}

	retention := intFromEnv("TRASH_RETENTION_DAYS", minTrashRetentionDays)
	if retention < minTrashRetentionDays {
		retention = minTrashRetentionDays
	}

	return &Settings{
		GoEnv:                    strings.TrimSpace(os.Getenv("GO_ENV")),
		ApiPort:                  apiPort,
		GrpcPort:                 grpcPort,
		JwtAccessSecret:          os.Getenv("JWT_ACCESS_SECRET"),
		JwtRefreshSecret:         os.Getenv("JWT_REFRESH_SECRET"),
		AccessTokenHourLifespan:  intFromEnv("ACCESS_TOKEN_HOUR_LIFESPAN", 24),
		RefreshTokenHourLifespan: intFromEnv("REFRESH_TOKEN_HOUR_LIFESPAN", 168),
		IdentityURL:              identityURL,
		IdentityTimeout:          time.Duration(intFromEnv("AUTH_IDENTITY_TIMEOUT_MS", 3000)) * time.Millisecond,
		GraphqlIntrospection:     boolFromEnv("GRAPHQL_INTROSPECTION"),
		TrashRetentionDays:       retention,
		TrashSweepInterval:       time.Duration(intFromEnv("TRASH_SWEEP_MINUTES", 10)) * time.Minute,
		TrashSweepDisabled:       boolFromEnv("TRASH_SWEEP_DISABLED"),
		UploadBucket:             strings.TrimSpace(os.Getenv("GCS_UPLOAD_BUCKET")),
		InventoryEventsTopic:     strings.TrimSpace(os.Getenv("INVENTORY_EVENTS_TOPIC")),
		CorsAllowedOrigins:       strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")),
		RateLimitEnabled:         boolFromEnv("RATE_LIMIT_ENABLED"),
		RateLimitMaxRequests:     intFromEnv("RATE_LIMIT_MAX_REQUESTS", 600),
		RateLimitWindow:          time.Duration(intFromEnv("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		MaxUploadSizeBytes:       int64(intFromEnv("MAX_UPLOAD_SIZE_MB", 10)) << 20,
		ImportInsertBatchSize:    intFromEnv("IMPORT_INSERT_BATCH_SIZE", 200),
		SkipMigrations:           boolFromEnv("SKIP_MIGRATIONS"),
	}
}

func (s *Settings) IsProduction() bool {
	return strings.EqualFold(s.GoEnv, "production")
}

// TrashRetention is the minimum age of a trashed row before the reaper removes it.
func (s *Settings) TrashRetention() time.Duration {
	days := s.TrashRetentionDays
	if days < minTrashRetentionDays {
		days = minTrashRetentionDays
	}
	return time.Duration(days) * 24 * time.Hour
}

func (s *Settings) AccessTokenLifespan() time.Duration {
	return time.Duration(s.AccessTokenHourLifespan) * time.Hour
}

func (s *Settings) RefreshTokenLifespan() time.Duration {
	return time.Duration(s.RefreshTokenHourLifespan) * time.Hour
}

func boolFromEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
