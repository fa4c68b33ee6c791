package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Ponloe/cinemesh-catalog/internal/apperr"
	"github.com/Ponloe/cinemesh-catalog/internal/config"
)

// NowUTC is used as gorm's clock so timestamps compare the same way in every driver.
func NowUTC() time.Time { return time.Now().UTC() }

func Connect(cfg config.Database, log *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s dbname=%s port=%s sslmode=%s password=%s TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Name, cfg.Port, cfg.SSLMode, cfg.Password)
		dialector = postgres.Open(dsn)
		log.WithFields(logrus.Fields{
			"host": cfg.Host, "db": cfg.Name, "user": cfg.User, "port": cfg.Port, "sslmode": cfg.SSLMode,
		}).Info("connecting to database")
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
		log.WithField("path", cfg.Path).Info("opening sqlite database")
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}

	level := logger.Warn
	if cfg.LogQueries {
		level = logger.Info
	}
	gormLogger := logger.New(log, logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})

	db, err := Open(dialector, gormLogger)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB(): %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}

	log.Info("database connection established")
	return db, nil
}

// Open applies the settings every connection needs, independent of driver.
func Open(dialector gorm.Dialector, l logger.Interface) (*gorm.DB, error) {
	if l == nil {
		l = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         l,
		NowFunc:        NowUTC,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("gorm open: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB, models ...interface{}) error {
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Translate converts a gorm error into an apperr kind. Missing rows become
// NotFound for entity/id, duplicate keys become Conflict, everything else is
// a dependency failure of op.
func Translate(err error, op, entity string, id any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(entity, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflict("%s already exists", entity)
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrForbidden), errors.Is(err, apperr.ErrConflict),
		errors.Is(err, apperr.ErrDependency):
		return err
	default:
		return apperr.Dependency(op, err)
	}
}

// OpenMemory opens a private in-memory SQLite database. The pool is pinned to
// one connection because every new connection to ":memory:" is a fresh database.
func OpenMemory(models ...interface{}) (*gorm.DB, error) {
	db, err := Open(sqlite.Open(":memory:"), nil)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB(): %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db, models...); err != nil {
		return nil, err
	}
	return db, nil
}
