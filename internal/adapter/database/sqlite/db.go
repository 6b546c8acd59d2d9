package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"go.opentelemetry.io/otel"

	_ "github.com/mattn/go-sqlite3"

	"taskmanager/db"
)

type DB struct {
	*sql.DB
	QueryBuilder *squirrel.StatementBuilderType
}

type Config struct {
	Path       string
	LogQueries bool
}

// Open runs the embedded migrations and returns a traced, logged pool.
func Open(config Config) (*sql.DB, error) {
	path := config.Path

	if path == "" {
		path = "database.db"
	}

	migrationDB, err := sql.Open("sqlite3", path)

	if err != nil {
		return nil, err
	}

	if err := RunMigrations(migrationDB); err != nil {
		migrationDB.Close()
		return nil, err
	}

	migrationDB.Close()

	dsn := path

	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on"
	}

	sqlDB, err := otelsql.Open("sqlite3", dsn,
		otelsql.WithDBSystem("sqlite"),
		otelsql.WithDBName("taskmanager"),
		otelsql.WithTracerProvider(otel.GetTracerProvider()),
	)

	if err != nil {
		return nil, err
	}

	level := zerolog.InfoLevel

	if config.LogQueries {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("component", "sqlite").Logger()

	logged := sqldblogger.OpenDriver(dsn, sqlDB.Driver(), zerologadapter.New(logger),
		sqldblogger.WithMinimumLevel(sqldblogger.LevelDebug),
	)

	// sqlite allows a single writer at a time
	logged.SetMaxOpenConns(4)
	logged.SetMaxIdleConns(4)
	logged.SetConnMaxLifetime(5 * time.Minute)

	return logged, nil
}

func NewDB(config Config) (*DB, error) {
	sqlDB, err := Open(config)

	if err != nil {
		return nil, err
	}

	return Wrap(sqlDB), nil
}

// Wrap attaches the sqlite query builder to an already opened handle.
func Wrap(sqlDB *sql.DB) *DB {
	queryBuilder := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

	return &DB{
		DB:           sqlDB,
		QueryBuilder: &queryBuilder,
	}
}

// RunMigrations applies the embedded schema. The migrate instance is not
// closed because that would close db as well.
func RunMigrations(sqlDB *sql.DB) error {
	source, err := iofs.New(db.SQLiteMigrations, db.SQLiteMigrationsDir)

	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	driver, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{})

	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)

	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
