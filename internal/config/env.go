package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	HTTPHost    string `envconfig:"API_HOST" default:""`
	HTTPPort    string `envconfig:"API_PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"debug"`
	APIKey      string `envconfig:"API_KEY"`
}

type GoogleCloudEnv struct {
	ProjectID       string `envconfig:"GOOGLE_CLOUD_PROJECT"`
	CredentialsFile string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	Region          string `envconfig:"REGION" default:"us-central1"`
	ServiceAccount  string `envconfig:"SERVICE_ACCOUNT_EMAIL"`
}

type BigQueryEnv struct {
	DatasetID string `envconfig:"BIGQUERY_DATASET_ID" default:"disaster_response"`
	TableID   string `envconfig:"BIGQUERY_TABLE_ID" default:"sensor_readings"`
	Location  string `envconfig:"BIGQUERY_LOCATION" default:"US"`
	UseMock   bool   `envconfig:"USE_MOCK_BIGQUERY" default:"false"`
}

type DetectionEnv struct {
	DataDir     string        `envconfig:"TEST_DATA_PATH" default:"simulated_data"`
	FilePattern string        `envconfig:"FILE_PATTERN" default:"*.json"`
	RunTimeout  time.Duration `envconfig:"TEST_TIMEOUT" default:"60s"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".disaster-response/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"disaster-response/"`
	S3Region string `envconfig:"S3_REGION" default:"us-east-1"`
}

type VAPIDEnv struct {
	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDContact    string `envconfig:"VAPID_CONTACT" default:"mailto:ops@example.com"`
}

type Env struct {
	BaseEnv
	GoogleCloudEnv
	BigQueryEnv
	DetectionEnv
	StorageEnv
	VAPIDEnv

	DescriptorPath string `envconfig:"AGENT_CONFIG_PATH" default:"agent_config.yaml"`
}

// LoadEnv reads configuration from the process environment. Variable
// names follow the deployment environment template, so no namespace
// prefix is applied.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

func (e *BaseEnv) IsLocal() bool {
	return e != nil && e.Environment == "development"
}

func VAPIDEnvFromEnv(env *Env) *VAPIDEnv {
	return &env.VAPIDEnv
}

func BigQueryEnvFromEnv(env *Env) *BigQueryEnv {
	return &env.BigQueryEnv
}
