package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/migrations"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type persistenceConfig struct {
	driver string
	dsn    string
	debug  bool
}

func (c persistenceConfig) GetDebug() bool                { return c.debug }
func (c persistenceConfig) GetDriver() string             { return c.driver }
func (c persistenceConfig) GetServer() string             { return c.dsn }
func (c persistenceConfig) GetPingTimeout() time.Duration { return 5 * time.Second }
func (c persistenceConfig) GetOtelIdentifier() string     { return "normalizer" }

// openDatabase opens the configured database and registers the embedded
// migrations for its dialect. Migrations are not applied here.
func openDatabase(ctx context.Context, cfg core.DatabaseConfig, debug bool) (*persistence.Client, error) {
	driver := strings.TrimSpace(strings.ToLower(cfg.Driver))
	dialectName, err := migrations.DialectForDriver(driver)
	if err != nil {
		return nil, err
	}
	if dialectName == migrations.DialectSQLite {
		driver = "sqlite3"
	} else {
		driver = "postgres"
	}

	sqlDB, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	settings := persistenceConfig{driver: driver, dsn: cfg.DSN, debug: debug}
	var client *persistence.Client
	if dialectName == migrations.DialectSQLite {
		sqlDB.SetMaxOpenConns(1)
		client, err = persistence.New(settings, sqlDB, sqlitedialect.New())
	} else {
		client, err = persistence.New(settings, sqlDB, pgdialect.New())
	}
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect %s database: %w", driver, err)
	}
	if err := migrations.RegisterDialect(ctx, func(fsys fs.FS) {
		client.RegisterSQLMigrations(fsys)
	}, dialectName); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
