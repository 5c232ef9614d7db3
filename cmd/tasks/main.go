// Command tasks runs directory maintenance work outside the server:
// newsletter sync, search (un)indexing, the stale account reaper and
// credential management.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/mozillians/backend/internal/bootstrap"
	"github.com/mozillians/backend/internal/infrastructure/config"
	"github.com/mozillians/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

type command struct {
	usage string
	run   func(ctx context.Context, app *bootstrap.App, args []string) error
}

var commands = map[string]command{
	"sync":         {"sync <profile-id>...", runSync},
	"unsubscribe":  {"unsubscribe -email <address> [-token <basket-token>]", runUnsubscribe},
	"index":        {"index -type profile|group [-public] <id>...", runIndex},
	"unindex":      {"unindex -type profile|group [-public] <id>...", runUnindex},
	"reap":         {"reap [-days N]", runReap},
	"resave":       {"resave <profile-id>...", runResave},
	"create-app":   {"create-app -name <name> -level <privacy level>", runCreateApp},
	"issue-token":  {"issue-token -subject <name> -level <privacy level> [-ttl 24h]", runIssueToken},
	"revoke-token": {"revoke-token <token>", runRevokeToken},
}

func main() {
	var (
		logLevel string
		timeout  time.Duration
	)
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.DurationVar(&timeout, "timeout", 30*time.Minute, "Give up waiting for queued tasks after this long")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if err := run(log, args[0], cmd, args[1:], timeout); err != nil {
		log.Error("Task failed", zap.String("command", args[0]), zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
}

func run(log *zap.Logger, name string, cmd command, args []string, timeout time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			log.Warn("Error during shutdown", zap.Error(err))
		}
	}()
	if err := app.Start(ctx); err != nil {
		return err
	}

	log.Info("Running task", zap.String("command", name))
	if err := cmd.run(ctx, app, args); err != nil {
		return err
	}

	drainCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := app.Drain(drainCtx); err != nil {
		return fmt.Errorf("queued tasks did not finish: %w", err)
	}
	log.Info("Task finished", zap.String("command", name))
	return nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: tasks [-log-level level] [-timeout d] <command> [arguments]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Configuration is read from config.toml, .env and MOZ_* variables.")
}
