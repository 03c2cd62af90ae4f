package config

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the database selected by cfg.DB.
func InitDB(cfg *Config, log *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DB.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DB.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DB.DSN)
	default:
		return nil, errors.Errorf("unsupported db driver %q", cfg.DB.Driver)
	}

	level := logger.Warn
	if log != nil && log.IsLevelEnabled(logrus.DebugLevel) {
		level = logger.Info
	}

	gormLogger := logger.Default
	if log != nil {
		gormLogger = logger.New(log, logger.Config{LogLevel: level, IgnoreRecordNotFoundError: true})
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger.LogMode(level)})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", cfg.DB.Driver)
	}

	if cfg.DB.Driver == "sqlite" {
		// sqlite serialises writers; one connection also keeps :memory: databases shared.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "sqlite handle")
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}
