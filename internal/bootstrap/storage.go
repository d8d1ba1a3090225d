package bootstrap

import (
	memoryInfra "github.com/vnpy/datamanager/internal/infrastructure/memory/bar"
	pgInfra "github.com/vnpy/datamanager/internal/infrastructure/postgresql/bar"
)

// Storage driver names accepted by APP_STORAGE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// registerStorage selects the bar storage backend from config.
func (b *Bootstrap) registerStorage(config BootstrapConfig) error {
	switch config.Config.App.StorageDriver {
	case DriverPostgres:
		b.Storage = pgInfra.NewRepository(b.Postgres, b.Logger)
	case DriverMemory:
		b.Storage = memoryInfra.NewStorage()
	default:
		return unknownDriver(config.Config.App.StorageDriver)
	}
	return nil
}
