package config

import (
	"github.com/garyjia/mmg-procurement/internal/infrastructure/persistence/sqldb"
	"github.com/garyjia/mmg-procurement/pkg/logger"
)

// SQLConfig converts the database section to the connection settings sqldb.Open expects
func (c *Config) SQLConfig() sqldb.Config {
	return sqldb.Config{
		Driver:          sqldb.Dialect(c.Database.Driver),
		Path:            c.Database.Path,
		DSN:             c.Database.DSN,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		BusyTimeout:     c.Database.BusyTimeout,
	}
}

// LoggerSettings converts the logger section for pkg/logger
func (c *Config) LoggerSettings() logger.Config {
	return logger.Config{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
	}
}
