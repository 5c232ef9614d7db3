// Package newsletter keeps newsletter subscriptions in step with profiles.
//
// Sync and unsubscribe run as scheduler jobs with a fixed retry policy.
// Failures are never returned to the code that triggered the job; once the
// retry budget is spent the operators are mailed instead.
package newsletter

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/infrastructure/basket"
	"github.com/mozillians/backend/internal/infrastructure/config"
	"github.com/mozillians/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Actions reported to operators when a step keeps failing
const (
	ActionSubscribe       = "subscribe"
	ActionUnsubscribe     = "unsubscribe"
	ActionUpdatePhoneBook = "update_phone_book"
	// ActionLookupToken has no dedicated subject; operators get the
	// generic "Failed to update_phonebook user <token>" line.
	ActionLookupToken = "update_phonebook"
)

// PhoneBookEndpoint receives the per-subscriber attributes
const PhoneBookEndpoint = "custom_update_phonebook"

// Client is the subset of the Basket API used by the tasks
type Client interface {
	Subscribe(ctx context.Context, email string, newsletters []string, opts basket.SubscribeOptions) (string, error)
	LookupUserByToken(ctx context.Context, token string) (*basket.User, error)
	LookupUserByEmail(ctx context.Context, email string) (*basket.User, error)
	Unsubscribe(ctx context.Context, token, email string, newsletters []string, optout bool) error
	Post(ctx context.Context, endpoint, token string, data map[string]string) error
}

// StepError is a failed external call, tagged with the action and the
// subject (an address or a token) the operator mail refers to.
type StepError struct {
	Action  string
	Subject string
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("newsletter %s for %s: %v", e.Action, e.Subject, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func stepError(action, subject string, err error) error {
	return &StepError{Action: action, Subject: subject, Err: err}
}

// Service performs newsletter sync and unsubscribe
type Service struct {
	cfg      config.BasketConfig
	client   Client
	profiles directory.ProfileRepository
	groups   directory.GroupRepository
	logger   *zap.Logger
}

// NewService creates a Service. client may be nil when the integration is disabled.
func NewService(
	cfg config.BasketConfig,
	client Client,
	profiles directory.ProfileRepository,
	groups directory.GroupRepository,
	logger *zap.Logger,
) *Service {
	return &Service{cfg: cfg, client: client, profiles: profiles, groups: groups, logger: logger}
}

// Enabled reports whether sync does anything
func (s *Service) Enabled() bool {
	return s.cfg.Enabled() && s.client != nil
}

func (s *Service) newsletters() []string {
	return []string{s.cfg.Newsletter}
}

func (s *Service) subscribe(ctx context.Context, email string) (string, error) {
	token, err := s.client.Subscribe(ctx, email, s.newsletters(), basket.SubscribeOptions{Sync: true, TriggerWelcome: false})
	if err == nil && token == "" {
		err = fmt.Errorf("%w: no subscriber token", basket.ErrBasketUnavailable)
	}
	return token, err
}

// Sync subscribes a vouched profile and pushes its phone book attributes.
// A profile without a token is subscribed first; a profile whose address
// changed is moved to the new address before the push.
func (s *Service) Sync(ctx context.Context, profileID uuid.UUID) error {
	if !s.Enabled() {
		return nil
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "newsletter", "sync",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrJobKind, string(JobKindSync)),
		telemetry.WithAttribute(telemetry.SpanAttrProfileID, profileID.String()))
	defer span.End()

	p, err := s.profiles.FindByID(ctx, profileID)
	if err != nil {
		return fmt.Errorf("failed to load profile %s: %w", profileID, err)
	}
	if !p.IsVouched {
		return nil
	}

	token, err := s.ensureToken(ctx, p)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	data, err := s.phoneBook(ctx, p)
	if err != nil {
		return err
	}
	if err := s.client.Post(ctx, PhoneBookEndpoint, token, data); err != nil {
		telemetry.RecordError(span, err)
		return stepError(ActionUpdatePhoneBook, p.Email, err)
	}
	telemetry.SetOK(span)
	s.logger.Debug("Newsletter phone book updated",
		zap.String("profile_id", p.ID.String()),
		zap.Int("attributes", len(data)),
	)
	return nil
}

// ensureToken returns the subscriber token of p, subscribing or moving the
// subscription when needed. New tokens are written without raising a save.
func (s *Service) ensureToken(ctx context.Context, p *directory.Profile) (string, error) {
	if p.BasketToken == "" {
		token, err := s.subscribe(ctx, p.Email)
		if err != nil {
			return "", stepError(ActionSubscribe, p.Email, err)
		}
		return token, s.storeToken(ctx, p, token)
	}

	user, err := s.client.LookupUserByToken(ctx, p.BasketToken)
	if err != nil {
		return "", stepError(ActionLookupToken, p.BasketToken, err)
	}
	if user.Email == p.Email {
		return p.BasketToken, nil
	}

	// Subscribe the new address before dropping the old one so a failure
	// leaves the profile subscribed.
	token, err := s.subscribe(ctx, p.Email)
	if err != nil {
		return "", stepError(ActionSubscribe, p.Email, err)
	}
	if err := s.client.Unsubscribe(ctx, p.BasketToken, user.Email, s.newsletters(), true); err != nil {
		return "", stepError(ActionSubscribe, p.Email, err)
	}
	s.logger.Info("Newsletter subscription moved to new address",
		zap.String("profile_id", p.ID.String()),
	)
	return token, s.storeToken(ctx, p, token)
}

func (s *Service) storeToken(ctx context.Context, p *directory.Profile, token string) error {
	if err := s.profiles.UpdateBasketToken(ctx, p.ID, token); err != nil {
		return fmt.Errorf("failed to store newsletter token of %s: %w", p.ID, err)
	}
	p.BasketToken = token
	return nil
}

// phoneBook builds the attribute set: Y/N per functional area plus the
// known location.
func (s *Service) phoneBook(ctx context.Context, p *directory.Profile) (map[string]string, error) {
	areas, err := s.groups.FindFunctionalAreas(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load functional areas: %w", err)
	}
	memberOf, err := s.profiles.ActiveGroupIDs(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups of %s: %w", p.ID, err)
	}
	active := make(map[uuid.UUID]struct{}, len(memberOf))
	for _, id := range memberOf {
		active[id] = struct{}{}
	}

	data := make(map[string]string, len(areas)+2)
	for _, g := range areas {
		v := "N"
		if _, ok := active[g.ID]; ok {
			v = "Y"
		}
		data[g.NewsletterKey()] = v
	}
	if p.Country != nil {
		data["country"] = p.Country.Code
	}
	if p.City != nil {
		data["city"] = p.City.Name
	}
	return data, nil
}

// Unsubscribe removes an address from the newsletter. It works from the
// values captured at deletion time since the profile may be gone.
func (s *Service) Unsubscribe(ctx context.Context, email, token string) error {
	if !s.Enabled() {
		return nil
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "newsletter", "unsubscribe",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrJobKind, string(JobKindUnsubscribe)))
	defer span.End()

	if token == "" {
		user, err := s.client.LookupUserByEmail(ctx, email)
		if err != nil {
			telemetry.RecordError(span, err)
			return stepError(ActionUnsubscribe, email, err)
		}
		token = user.Token
	}
	if err := s.client.Unsubscribe(ctx, token, email, s.newsletters(), false); err != nil {
		telemetry.RecordError(span, err)
		return stepError(ActionUnsubscribe, email, err)
	}
	telemetry.SetOK(span)
	return nil
}
