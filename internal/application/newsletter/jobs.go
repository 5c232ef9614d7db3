package newsletter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/shared"
	"github.com/mozillians/backend/internal/infrastructure/config"
	"github.com/mozillians/backend/internal/infrastructure/mail"
	"github.com/mozillians/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// Job kinds served by this package
const (
	JobKindSync        scheduler.JobKind = "newsletter.sync"
	JobKindUnsubscribe scheduler.JobKind = "newsletter.unsubscribe"
)

// SyncPayload identifies the profile to sync
type SyncPayload struct {
	ProfileID uuid.UUID
}

// UnsubscribePayload carries what is known about a deleted subscriber
type UnsubscribePayload struct {
	Email string
	Token string
}

// NewSyncJob creates a sync job with the configured retry policy
func NewSyncJob(cfg config.BasketConfig, profileID uuid.UUID) *scheduler.Job {
	return scheduler.NewJob(JobKindSync, SyncPayload{ProfileID: profileID}).
		WithRetry(cfg.MaxRetries, cfg.RetryDelay)
}

// NewUnsubscribeJob creates an unsubscribe job with the configured retry policy
func NewUnsubscribeJob(cfg config.BasketConfig, email, token string) *scheduler.Job {
	return scheduler.NewJob(JobKindUnsubscribe, UnsubscribePayload{Email: email, Token: token}).
		WithRetry(cfg.MaxRetries, cfg.RetryDelay)
}

// Notifier mails the newsletter managers about exhausted jobs
type Notifier struct {
	sender   mail.Sender
	from     string
	managers []string
	logger   *zap.Logger
}

// NewNotifier creates a Notifier. Without managers nothing is sent.
func NewNotifier(sender mail.Sender, from string, managers []string, logger *zap.Logger) *Notifier {
	return &Notifier{sender: sender, from: from, managers: managers, logger: logger}
}

// Subject returns the operator mail subject for action on subject
func Subject(action, subject string) string {
	const prefix = "[Mozillians - ET] "
	switch action {
	case ActionSubscribe:
		return prefix + "Failed to subscribe or update user " + subject
	case ActionUnsubscribe:
		return prefix + "Failed to unsubscribe user " + subject
	case ActionUpdatePhoneBook:
		return prefix + "Failed to update phone book for user " + subject
	}
	return fmt.Sprintf("%sFailed to %s user %s", prefix, action, subject)
}

// Body returns the operator mail body
func Body(action, subject, message string) string {
	return fmt.Sprintf("Something terrible happened while trying to %s user %s from Basket.\n\nHere is the error message:\n\n%s\n",
		action, subject, message)
}

// Notify reports a step that kept failing
func (n *Notifier) Notify(ctx context.Context, step *StepError) {
	if len(n.managers) == 0 {
		return
	}
	msg := mail.Message{
		From:    n.from,
		To:      n.managers,
		Subject: Subject(step.Action, step.Subject),
		Body:    Body(step.Action, step.Subject, step.Err.Error()),
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.logger.Error("Failed to mail newsletter managers",
			zap.String("action", step.Action),
			zap.String("managers", strings.Join(n.managers, ",")),
			zap.Error(err),
		)
	}
}

// report mails the managers when err is a newsletter step failure; other
// failures are only logged.
func report(ctx context.Context, n *Notifier, logger *zap.Logger, job *scheduler.Job, err error) {
	var step *StepError
	if !errors.As(err, &step) {
		logger.Error("Newsletter job exhausted without a reportable step",
			zap.String("job_id", job.ID),
			zap.String("kind", string(job.Kind)),
			zap.Error(err),
		)
		return
	}
	n.Notify(ctx, step)
}

// SyncExecutor runs newsletter sync jobs
type SyncExecutor struct {
	svc      *Service
	notifier *Notifier
	logger   *zap.Logger
}

var (
	_ scheduler.Executor         = (*SyncExecutor)(nil)
	_ scheduler.ExhaustedHandler = (*SyncExecutor)(nil)
)

// NewSyncExecutor creates a SyncExecutor
func NewSyncExecutor(svc *Service, notifier *Notifier, logger *zap.Logger) *SyncExecutor {
	return &SyncExecutor{svc: svc, notifier: notifier, logger: logger}
}

// Execute implements scheduler.Executor
func (e *SyncExecutor) Execute(ctx context.Context, job *scheduler.Job) error {
	payload, ok := job.Payload.(SyncPayload)
	if !ok {
		return scheduler.Permanent(fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Kind))
	}
	err := e.svc.Sync(ctx, payload.ProfileID)
	if errors.Is(err, shared.ErrNotFound) {
		// the profile was deleted before the job ran
		return scheduler.Permanent(err)
	}
	return err
}

// OnExhausted implements scheduler.ExhaustedHandler
func (e *SyncExecutor) OnExhausted(ctx context.Context, job *scheduler.Job, err error) {
	report(ctx, e.notifier, e.logger, job, err)
}

// UnsubscribeExecutor runs newsletter unsubscribe jobs
type UnsubscribeExecutor struct {
	svc      *Service
	notifier *Notifier
	logger   *zap.Logger
}

var (
	_ scheduler.Executor         = (*UnsubscribeExecutor)(nil)
	_ scheduler.ExhaustedHandler = (*UnsubscribeExecutor)(nil)
)

// NewUnsubscribeExecutor creates an UnsubscribeExecutor
func NewUnsubscribeExecutor(svc *Service, notifier *Notifier, logger *zap.Logger) *UnsubscribeExecutor {
	return &UnsubscribeExecutor{svc: svc, notifier: notifier, logger: logger}
}

// Execute implements scheduler.Executor
func (e *UnsubscribeExecutor) Execute(ctx context.Context, job *scheduler.Job) error {
	payload, ok := job.Payload.(UnsubscribePayload)
	if !ok {
		return scheduler.Permanent(fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Kind))
	}
	return e.svc.Unsubscribe(ctx, payload.Email, payload.Token)
}

// OnExhausted implements scheduler.ExhaustedHandler
func (e *UnsubscribeExecutor) OnExhausted(ctx context.Context, job *scheduler.Job, err error) {
	report(ctx, e.notifier, e.logger, job, err)
}
