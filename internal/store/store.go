// Package store is the gorm-backed Record Store. It enforces the uniqueness
// and foreign-key invariants at the storage layer and reports failures with
// the domain error taxonomy.
package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type Config struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type Store struct {
	db *gorm.DB
}

var _ core.RecordStore = (*Store)(nil)

// Open connects to the configured database. It does not migrate.
func Open(cfg Config) (*Store, error) {
	var dial gorm.Dialector
	switch cfg.Driver {
	case "", DriverSQLite:
		dial = sqlite.Open(withForeignKeys(cfg.DSN))
	case DriverMySQL:
		dial = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	if cfg.Driver == DriverMySQL {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		// sqlite serializes writers; one connection keeps :memory: databases shared.
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info().Str("module", "store").Str("driver", dial.Name()).Msg("database opened")
	return &Store{db: db}, nil
}

func (s *Store) Migrate() error {
	err := s.db.AutoMigrate(
		&domain.User{},
		&domain.Car{},
		&domain.Seat{},
		&domain.Call{},
		&domain.Message{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func withForeignKeys(dsn string) string {
	if dsn == "" {
		dsn = "relay.db"
	}
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

// classify maps driver errors onto the domain taxonomy.
func classify(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	case errors.Is(err, gorm.ErrForeignKeyViolated), isForeignKeyViolation(err):
		return fmt.Errorf("%s: referenced record missing: %w", op, domain.ErrNotFound)
	default:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreFailure, err)
	}
}

// sqlite without translation and mysql 1452 both surface as plain driver errors.
func isForeignKeyViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint") || strings.Contains(msg, "1452")
}
