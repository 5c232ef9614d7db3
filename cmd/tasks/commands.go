package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/application/indexing"
	"github.com/mozillians/backend/internal/application/newsletter"
	"github.com/mozillians/backend/internal/bootstrap"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/infrastructure/scheduler"
	"github.com/mozillians/backend/internal/infrastructure/search"
	"go.uber.org/zap"
)

var stdout io.Writer = os.Stdout

func parseIDs(args []string) ([]uuid.UUID, error) {
	if len(args) == 0 {
		return nil, errors.New("at least one id is required")
	}
	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		id, err := uuid.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", arg, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func submitAll(app *bootstrap.App, jobs ...*scheduler.Job) error {
	for _, job := range jobs {
		if err := app.Scheduler.Submit(job); err != nil {
			return fmt.Errorf("failed to queue %s: %w", job.Kind, err)
		}
	}
	return nil
}

func runSync(_ context.Context, app *bootstrap.App, args []string) error {
	if !app.Newsletter.Enabled() {
		return errors.New("newsletter sync is not configured")
	}
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	jobs := make([]*scheduler.Job, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, newsletter.NewSyncJob(app.Config.Basket, id))
	}
	return submitAll(app, jobs...)
}

func runUnsubscribe(_ context.Context, app *bootstrap.App, args []string) error {
	fs := flag.NewFlagSet("unsubscribe", flag.ContinueOnError)
	email := fs.String("email", "", "Address to unsubscribe")
	token := fs.String("token", "", "Basket token, looked up when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}
	if !app.Newsletter.Enabled() {
		return errors.New("newsletter sync is not configured")
	}
	return submitAll(app, newsletter.NewUnsubscribeJob(app.Config.Basket, *email, *token))
}

type indexArgs struct {
	mapping search.MappingType
	ids     []uuid.UUID
	public  bool
}

func parseIndexArgs(name string, args []string) (indexArgs, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	kind := fs.String("type", string(search.MappingProfile), "profile or group")
	public := fs.Bool("public", false, "Target the public index")
	if err := fs.Parse(args); err != nil {
		return indexArgs{}, err
	}
	mapping, err := search.ParseMappingType(*kind)
	if err != nil {
		return indexArgs{}, err
	}
	ids, err := parseIDs(fs.Args())
	if err != nil {
		return indexArgs{}, err
	}
	return indexArgs{mapping: mapping, ids: ids, public: *public}, nil
}

func runIndex(_ context.Context, app *bootstrap.App, args []string) error {
	a, err := parseIndexArgs("index", args)
	if err != nil {
		return err
	}
	return submitAll(app, indexing.NewIndexJob(a.mapping, a.ids, a.public))
}

func runUnindex(_ context.Context, app *bootstrap.App, args []string) error {
	a, err := parseIndexArgs("unindex", args)
	if err != nil {
		return err
	}
	return submitAll(app, indexing.NewUnindexJob(a.mapping, a.ids, a.public))
}

func runReap(ctx context.Context, app *bootstrap.App, args []string) error {
	fs := flag.NewFlagSet("reap", flag.ContinueOnError)
	days := fs.Int("days", app.Config.Reaper.MaxDays, "Remove incomplete accounts older than this many days")
	if err := fs.Parse(args); err != nil {
		return err
	}
	n, err := app.Reaper.RemoveIncompleteAccounts(ctx, *days)
	if err != nil {
		return err
	}
	app.Logger.Info("Reaper finished", zap.Int("removed", n))
	return nil
}

func runResave(ctx context.Context, app *bootstrap.App, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := app.Writer.Resave(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func parseLevelFlag(fs *flag.FlagSet, args []string, required ...string) (directory.PrivacyLevel, error) {
	level := fs.String("level", "", "Privacy level: Public, Mozillians, Employees or Privileged")
	if err := fs.Parse(args); err != nil {
		return directory.PrivacyUnknown, err
	}
	for _, name := range required {
		if f := fs.Lookup(name); f == nil || f.Value.String() == "" {
			return directory.PrivacyUnknown, fmt.Errorf("-%s is required", name)
		}
	}
	return directory.ParsePrivacyLevel(*level)
}

func runCreateApp(ctx context.Context, app *bootstrap.App, args []string) error {
	fs := flag.NewFlagSet("create-app", flag.ContinueOnError)
	name := fs.String("name", "", "Application name")
	level, err := parseLevelFlag(fs, args, "name", "level")
	if err != nil {
		return err
	}
	apiApp, key, err := directory.NewAPIApp(*name, level)
	if err != nil {
		return err
	}
	if err := app.Apps.Save(ctx, apiApp); err != nil {
		return fmt.Errorf("failed to save app: %w", err)
	}
	return writeJSON(map[string]any{
		"id":            apiApp.ID,
		"name":          apiApp.Name,
		"privacy_level": apiApp.PrivacyLevel.Label(),
		"api_key":       key,
	})
}

func runIssueToken(_ context.Context, app *bootstrap.App, args []string) error {
	fs := flag.NewFlagSet("issue-token", flag.ContinueOnError)
	subject := fs.String("subject", "", "Consumer the token is issued to")
	ttl := fs.Duration("ttl", 0, "Token lifetime, the configured default when zero")
	level, err := parseLevelFlag(fs, args, "subject", "level")
	if err != nil {
		return err
	}
	issued, err := app.Tokens.Issue(*subject, level, *ttl)
	if err != nil {
		return err
	}
	return writeJSON(issued)
}

func runRevokeToken(ctx context.Context, app *bootstrap.App, args []string) error {
	if len(args) != 1 {
		return errors.New("exactly one token is required")
	}
	claims, err := app.Tokens.Revoke(ctx, args[0])
	if err != nil {
		return err
	}
	return writeJSON(map[string]any{
		"jti":        claims.ID,
		"subject":    claims.Subject,
		"revoked_at": time.Now().UTC(),
	})
}

func writeJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
