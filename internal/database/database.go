// Package database opens and prepares the gorm connections used by the
// SQL storage backends.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gridironlab/playbook/internal/model"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Manager handles database connections and operations.
type Manager struct {
	DB             *gorm.DB
	SqlDB          *sql.DB
	InMemory       bool
	SqliteFilePath string
	Logger         zerolog.Logger
}

// NewManager creates a new database manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{Logger: log}
}

// ConnectPostgres opens and validates a postgres connection from the db.*
// configuration keys.
func (m *Manager) ConnectPostgres() error {
	m.Logger.Debug().
		Str("host", viper.GetString("db.host")).
		Str("port", viper.GetString("db.port")).
		Str("database", viper.GetString("db.database")).
		Msg("Connecting to Postgres DB")

	db, err := OpenPostgres(PostgresDSN())
	if err != nil {
		return fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := m.validate(db); err != nil {
		return err
	}
	m.SqlDB.SetMaxOpenConns(10)
	m.Logger.Info().Msg("Connected to database")
	return nil
}

// ConnectSqlite opens a SQLite database at path. An empty path opens a
// private in-memory database that can be dumped with DumpMemoryToDisk.
func (m *Manager) ConnectSqlite(path string) error {
	db, err := OpenSqlite(path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite: %w", err)
	}
	if err := m.validate(db); err != nil {
		return err
	}

	m.InMemory = path == ""
	if m.InMemory {
		// every connection must see the same in-memory database
		m.SqlDB.SetMaxOpenConns(1)
		m.Logger.Info().Msg("Using local SQLite DB in memory with periodic disk dump")
	} else {
		m.Logger.Info().Str("path", path).Msg("Using local SQLite DB")
	}
	return nil
}

func (m *Manager) validate(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	m.DB = db
	m.SqlDB = sqlDB
	return nil
}

// Setup migrates the schema.
func (m *Manager) Setup() error {
	if m.DB == nil {
		return fmt.Errorf("database not connected")
	}
	m.Logger.Info().Msg("Migrating schema")
	if err := Migrate(m.DB); err != nil {
		return err
	}
	m.Logger.Info().Msg("Database setup complete")
	return nil
}

// DumpMemoryToDisk vacuums the in-memory database to SqliteFilePath.
func (m *Manager) DumpMemoryToDisk() error {
	start := time.Now()
	if err := DumpMemoryDBToDisk(m.DB, m.SqliteFilePath); err != nil {
		return err
	}
	m.Logger.Debug().Dur("duration", time.Since(start)).Msg("Dumped memory DB to disk")
	return nil
}

// Close closes the underlying connection pool.
func (m *Manager) Close() error {
	if m.SqlDB == nil {
		return nil
	}
	return m.SqlDB.Close()
}

// PostgresDSN builds a DSN from the db.* configuration keys.
func PostgresDSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		viper.GetString("db.host"),
		viper.GetString("db.port"),
		viper.GetString("db.username"),
		viper.GetString("db.password"),
		viper.GetString("db.database"),
	)
}

// OpenPostgres returns a connection to the Postgres database.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        1000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

var memoryDBSeq atomic.Uint64

// OpenSqlite returns a connection to a SQLite database.
// If path is empty, a uniquely named in-memory database is used.
func OpenSqlite(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = fmt.Sprintf("file:playbook-%d?mode=memory&cache=shared", memoryDBSeq.Add(1))
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA cache_size = -32000;",
		"PRAGMA temp_store = MEMORY;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}
	return db, nil
}

// Migrate creates or updates the tables for every database model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// DumpMemoryDBToDisk vacuums the in-memory database to a disk file.
func DumpMemoryDBToDisk(db *gorm.DB, sqliteFilePath string) error {
	if sqliteFilePath == "" {
		return fmt.Errorf("sqlite file path not set")
	}

	// VACUUM INTO refuses to overwrite
	if _, err := os.Stat(sqliteFilePath); err == nil {
		if err := os.Remove(sqliteFilePath); err != nil {
			return fmt.Errorf("error removing existing DB file: %w", err)
		}
	}

	if err := db.Exec("VACUUM INTO ?", sqliteFilePath).Error; err != nil {
		return fmt.Errorf("error dumping memory DB to disk: %w", err)
	}
	return nil
}
