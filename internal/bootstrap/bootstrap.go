package bootstrap

import (
	"github.com/vnpy/datamanager/internal/datafeed"
	"github.com/vnpy/datamanager/internal/domain/bar"
	"github.com/vnpy/datamanager/internal/overview"
	"github.com/vnpy/datamanager/internal/usecase/manager"
	"github.com/vnpy/datamanager/pkg/config"
	"github.com/vnpy/datamanager/pkg/errors"
	"github.com/vnpy/datamanager/pkg/logger"
	"github.com/vnpy/datamanager/pkg/postgresql"
)

// Bootstrap wires the data manager's components together.
type Bootstrap struct {
	Storage bar.Storage
	Index   *overview.Index
	Feed    datafeed.Datafeed
	Manager *manager.Manager
	Logger  logger.Interface

	Postgres postgresql.PostgreSQLClient
}

// BootstrapConfig is the config for the bootstrap.
type BootstrapConfig struct {
	Config *config.Config
	Logger logger.Interface

	// Postgres is injected when the postgres driver is selected. It stays
	// nil for the memory driver.
	Postgres postgresql.PostgreSQLClient
}

// Init initializes the bootstrap.
func (b *Bootstrap) Init(config BootstrapConfig) (Bootstrap, error) {
	b.Logger = config.Logger
	b.Postgres = config.Postgres

	if err := b.registerStorage(config); err != nil {
		return Bootstrap{}, err
	}
	b.registerDatafeed(config)
	b.registerUsecase(config)

	return *b, nil
}

func (b *Bootstrap) registerDatafeed(config BootstrapConfig) {
	if config.Config.Datafeed.BaseURL == "" {
		return
	}
	feed := config.Config.Datafeed
	b.Feed = datafeed.NewClient(feed.BaseURL, feed.APIKey, feed.Timeout)
}

func (b *Bootstrap) registerUsecase(config BootstrapConfig) {
	b.Index = overview.NewIndex(b.Storage, b.Logger)
	b.Manager = manager.New(b.Storage, b.Index, b.Feed, b.Logger, manager.Config{
		StorageTimeout: config.Config.Postgres.QueryTimeout,
		BatchSize:      config.Config.CSV.BatchSize,
	})
}

func unknownDriver(driver string) error {
	return errors.NewValidation("unknown storage driver: " + driver)
}
