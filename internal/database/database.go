package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/bakery/internal/config"
)

// Connect opens the backend selected by cfg.DBDriver.
func Connect(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.DBDriver {
	case "mongo", "mongodb":
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return ConnectMongo(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
	case "postgres", "sqlite":
		conn, err := OpenSQL(cfg.DBDriver, cfg.DatabaseURL, logger.Warn)
		if err != nil {
			return nil, err
		}
		return NewSQLStore(conn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (supported: mongo, postgres, sqlite)", cfg.DBDriver)
	}
}

// OpenSQL opens a gorm connection for driver. For postgres the target
// database is created first when it does not exist.
func OpenSQL(driver, dsn string, level logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		if err := ensureDatabase(dsn); err != nil {
			return nil, fmt.Errorf("ensure database: %w", err)
		}
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// a single connection keeps in-memory databases shared and serializes writers
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return conn, nil
}

func ensureDatabase(dsn string) error {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return err
	}

	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		return nil
	}

	parsed.Path = "/postgres"
	masterDSN := parsed.String()

	sqlDB, err := sql.Open("postgres", masterDSN)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	return createDatabase(sqlDB, dbName)
}

// createDatabase creates dbName on the server behind sqlDB unless it exists.
func createDatabase(sqlDB *sql.DB, dbName string) error {
	var exists bool
	if err := sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists); err != nil {
		return err
	}

	if exists {
		return nil
	}

	log.Printf("[Database] creating database %s", dbName)
	_, err := sqlDB.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbName))
	return err
}
