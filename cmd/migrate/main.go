package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/valisyam/shub/internal/config"
	"github.com/valisyam/shub/internal/database"
	"github.com/valisyam/shub/internal/logger"
	"github.com/valisyam/shub/migrations"
	"go.uber.org/zap"
)

const usage = "usage: migrate [-dir path] up|up-to VERSION|down|redo|reset|status|version|create NAME"

// gooseLogger routes goose output through zap
type gooseLogger struct {
	*zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.Infof(format, v...)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dir := flag.String("dir", "", "read migrations from this directory instead of the embedded set")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	args := flag.Args()
	if len(args) == 0 {
		return fmt.Errorf(usage)
	}
	command, arguments := args[0], args[1:]

	// The SQL files target PostgreSQL; a sqlite database gets the gorm schema instead
	if cfg.Database.Driver == "sqlite" {
		if command != "up" {
			return fmt.Errorf("sqlite databases only support \"up\"")
		}
		db, err := database.NewDatabase(&cfg.Database, log)
		if err != nil {
			return err
		}
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
		log.Info("sqlite schema migrated", zap.String("path", cfg.Database.SQLitePath))
		return nil
	}

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	goose.SetLogger(gooseLogger{log.Sugar()})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	migrationsDir := *dir
	if migrationsDir == "" {
		goose.SetBaseFS(migrations.FS)
		migrationsDir = "."
	}

	switch command {
	case "up":
		err = goose.Up(db, migrationsDir)
	case "up-to":
		if len(arguments) == 0 {
			return fmt.Errorf("up-to requires a version")
		}
		var version int64
		if _, err := fmt.Sscan(arguments[0], &version); err != nil {
			return fmt.Errorf("invalid version %q: %w", arguments[0], err)
		}
		err = goose.UpTo(db, migrationsDir, version)
	case "down":
		err = goose.Down(db, migrationsDir)
	case "redo":
		err = goose.Redo(db, migrationsDir)
	case "reset":
		err = goose.Reset(db, migrationsDir)
	case "status":
		err = goose.Status(db, migrationsDir)
	case "version":
		err = goose.Version(db, migrationsDir)
	case "create":
		if len(arguments) == 0 {
			return fmt.Errorf("create requires a migration name")
		}
		if *dir == "" {
			return fmt.Errorf("create needs -dir pointing at the migrations directory")
		}
		err = goose.Create(db, migrationsDir, arguments[0], "sql")
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", command, err)
	}

	log.Info("migration command finished", zap.String("command", command))
	return nil
}
