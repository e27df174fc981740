package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/mmg-procurement/internal/config"
	"github.com/garyjia/mmg-procurement/internal/infrastructure/persistence/sqldb"
	"github.com/garyjia/mmg-procurement/pkg/logger"
)

func main() {
	os.Exit(realMain())
}

// realMain returns the exit code so deferred cleanup runs before the process exits
func realMain() int {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	steps := flag.Int("steps", 1, "number of migrations to roll back with the down command")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] up|down|version\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	log, err := logger.New(cfg.LoggerSettings())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	if err := run(command, *steps, cfg, log); err != nil {
		log.Error("Migration command failed", zap.String("command", command), zap.Error(err))
		return 1
	}
	return 0
}

func run(command string, steps int, cfg *config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sqldb.Open(ctx, cfg.SQLConfig(), log)
	if err != nil {
		return err
	}
	defer db.Close()

	migrator := sqldb.NewMigrator(db, log)

	switch command {
	case "up":
		return migrator.Up()
	case "down":
		if steps <= 0 {
			return fmt.Errorf("steps must be positive, got %d", steps)
		}
		return migrator.Down(steps)
	case "version":
		version, dirty, err := migrator.Version()
		if err != nil {
			return err
		}
		log.Info("Database schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}
