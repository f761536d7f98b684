package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type R2 struct {
	AccountID     string
	AccessKey     string
	SecretKey     string
	BucketName    string
	PublicBaseURL string
	// Endpoint overrides the account-derived R2 endpoint (S3-compatible test servers).
	Endpoint string
}

type LLM struct {
	APIKey  string
	Model   string
	BaseURL string
}

type Meta struct {
	AppID        string
	AppSecret    string
	RedirectURI  string
	AuthURL      string
	GraphBaseURL string
}

type Schedule struct {
	PipelineSpec     string
	TokenRefreshSpec string
	StaleRunSpec     string
	StaleRunAfter    time.Duration
}

type Config struct {
	Port           string
	PostgresURI    string
	RedisURI       string
	ServiceRoleKey string
	JWTSecret      string
	SecretKey      string
	LogLevel       string
	LLM            LLM
	Meta           Meta
	R2             R2
	Schedule       Schedule
}

// MissingEnvError lists every required variable that was not set.
type MissingEnvError struct {
	Keys []string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Keys, ", "))
}

// LoadConfig reads the process environment once. The returned value is not
// mutated afterwards and is handed to constructors by value.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var missing []string
	required := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &Config{
		Port:           getEnv("PORT", "3000"),
		PostgresURI:    required("POSTGRES_URI"),
		RedisURI:       getEnv("REDIS_URI", "localhost:6379"),
		ServiceRoleKey: required("SERVICE_ROLE_KEY"),
		JWTSecret:      required("JWT_SECRET"),
		SecretKey:      required("SECRET_KEY"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LLM: LLM{
			APIKey:  required("LLM_API_KEY"),
			Model:   required("LLM_MODEL"),
			BaseURL: strings.TrimRight(getEnv("LLM_BASE_URL", "https://api.openai.com/v1"), "/"),
		},
		Meta: Meta{
			AppID:        required("META_APP_ID"),
			AppSecret:    required("META_APP_SECRET"),
			RedirectURI:  required("META_REDIRECT_URI"),
			AuthURL:      getEnv("META_AUTH_URL", "https://www.facebook.com/v21.0/dialog/oauth"),
			GraphBaseURL: strings.TrimRight(getEnv("GRAPH_API_BASE_URL", "https://graph.facebook.com/v21.0"), "/"),
		},
		R2: R2{
			AccountID:     required("R2_ACCOUNT_ID"),
			AccessKey:     required("R2_ACCESS_KEY"),
			SecretKey:     required("R2_SECRET_KEY"),
			BucketName:    required("R2_BUCKET_NAME"),
			PublicBaseURL: strings.TrimRight(required("R2_PUBLIC_URL"), "/"),
			Endpoint:      getEnv("R2_ENDPOINT", ""),
		},
		Schedule: Schedule{
			PipelineSpec:     getEnv("PIPELINE_CRON", "@every 00h10m00s"),
			TokenRefreshSpec: getEnv("TOKEN_REFRESH_CRON", "@every 24h00m00s"),
			StaleRunSpec:     getEnv("STALE_RUN_CRON", "@every 00h30m00s"),
		},
	}

	staleAfter, err := time.ParseDuration(getEnv("PIPELINE_STALE_AFTER", "2h"))
	if err != nil {
		return nil, fmt.Errorf("invalid PIPELINE_STALE_AFTER: %w", err)
	}
	cfg.Schedule.StaleRunAfter = staleAfter

	if len(missing) > 0 {
		return nil, &MissingEnvError{Keys: missing}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
