package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/vnpy/datamanager/pkg/postgresql"
)

// Config represents the application configuration.
type Config struct {
	App      AppConfig         `envPrefix:"APP_"`
	Postgres postgresql.Config `envPrefix:"POSTGRES_"`
	CSV      CSVConfig         `envPrefix:"CSV_"`
	Datafeed DatafeedConfig    `envPrefix:"DATAFEED_"`
}

// AppConfig represents the application configuration.
type AppConfig struct {
	Name          string `env:"NAME" envDefault:"datamanager"`
	Environment   string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	MigrationDir  string `env:"MIGRATION_DIR" envDefault:"migrations"`
}

// CSVConfig holds defaults for CSV import.
type CSVConfig struct {
	DatetimeFormat string `env:"DATETIME_FORMAT" envDefault:"2006-01-02 15:04:05"`
	Timezone       string `env:"TIMEZONE" envDefault:"UTC"`
	BatchSize      int    `env:"BATCH_SIZE" envDefault:"1000"`
}

// DatafeedConfig holds the external history datafeed settings.
type DatafeedConfig struct {
	BaseURL string        `env:"BASE_URL"`
	APIKey  string        `env:"API_KEY"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// Load loads the configuration from the environment.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}
