package newsletter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/directory/directorytest"
	"github.com/mozillians/backend/internal/domain/shared"
	"github.com/mozillians/backend/internal/infrastructure/basket"
	"github.com/mozillians/backend/internal/infrastructure/config"
	"github.com/mozillians/backend/internal/infrastructure/mail"
	"github.com/mozillians/backend/internal/infrastructure/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// MockClient is a mock implementation of Client
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Subscribe(ctx context.Context, email string, newsletters []string, opts basket.SubscribeOptions) (string, error) {
	args := m.Called(ctx, email, newsletters, opts)
	return args.String(0), args.Error(1)
}

func (m *MockClient) LookupUserByToken(ctx context.Context, token string) (*basket.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*basket.User), args.Error(1)
}

func (m *MockClient) LookupUserByEmail(ctx context.Context, email string) (*basket.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*basket.User), args.Error(1)
}

func (m *MockClient) Unsubscribe(ctx context.Context, token, email string, newsletters []string, optout bool) error {
	return m.Called(ctx, token, email, newsletters, optout).Error(0)
}

func (m *MockClient) Post(ctx context.Context, endpoint, token string, data map[string]string) error {
	return m.Called(ctx, endpoint, token, data).Error(0)
}

// recordingSender captures sent mail
type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func (s *recordingSender) messages() []mail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mail.Message(nil), s.sent...)
}

var (
	testNewsletters = []string{"mozilla-phone"}
	syncOpts        = basket.SubscribeOptions{Sync: true, TriggerWelcome: false}
)

func testBasketConfig() config.BasketConfig {
	return config.BasketConfig{
		URL:        "https://basket.test",
		Newsletter: "mozilla-phone",
		APIKey:     "secret",
		RetryDelay: 10 * time.Millisecond,
		MaxRetries: 2,
		Managers:   []string{"ops@example.com"},
	}
}

type fixture struct {
	client   *MockClient
	profiles *directorytest.MockProfileRepository
	groups   *directorytest.MockGroupRepository
	svc      *Service
}

func newFixture(t *testing.T, cfg config.BasketConfig) *fixture {
	f := &fixture{
		client:   new(MockClient),
		profiles: new(directorytest.MockProfileRepository),
		groups:   new(directorytest.MockGroupRepository),
	}
	f.svc = NewService(cfg, f.client, f.profiles, f.groups, zaptest.NewLogger(t))
	return f
}

func vouchedProfile(t *testing.T) *directory.Profile {
	p := directorytest.NewCompleteProfile("alice")
	require.NoError(t, p.Vouch(uuid.New(), time.Now()))
	return p
}

// expectPhoneBook sets up one functional area the profile belongs to and one it does not
func (f *fixture) expectPhoneBook(p *directory.Profile) map[string]string {
	webdev, _ := directory.NewGroup("Web Dev")
	qa, _ := directory.NewGroup("QA")
	f.groups.On("FindFunctionalAreas", mock.Anything).Return([]*directory.Group{webdev, qa}, nil)
	f.profiles.On("ActiveGroupIDs", mock.Anything, p.ID).Return([]uuid.UUID{webdev.ID}, nil)
	return map[string]string{"WEB_DEV": "Y", "QA": "N"}
}

func TestSync_DisabledOrUnvouchedIsNoop(t *testing.T) {
	cfg := testBasketConfig()
	cfg.APIKey = ""
	f := newFixture(t, cfg)
	require.NoError(t, f.svc.Sync(context.Background(), uuid.New()))
	f.profiles.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)

	f = newFixture(t, testBasketConfig())
	p := directorytest.NewCompleteProfile("bob")
	f.profiles.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	require.NoError(t, f.svc.Sync(context.Background(), p.ID))
	f.client.AssertNotCalled(t, "Subscribe", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSync_SubscribesWithoutToken(t *testing.T) {
	f := newFixture(t, testBasketConfig())
	p := vouchedProfile(t)
	p.SetLocation(&directory.Country{Code: "de", Name: "Germany"}, nil, &directory.City{Name: "Berlin"})
	data := f.expectPhoneBook(p)
	data["country"] = "de"
	data["city"] = "Berlin"

	f.profiles.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.client.On("Subscribe", mock.Anything, p.Email, testNewsletters, syncOpts).Return("tok-1", nil)
	f.profiles.On("UpdateBasketToken", mock.Anything, p.ID, "tok-1").Return(nil)
	f.client.On("Post", mock.Anything, PhoneBookEndpoint, "tok-1", data).Return(nil)

	require.NoError(t, f.svc.Sync(context.Background(), p.ID))
	f.client.AssertExpectations(t)
	f.profiles.AssertExpectations(t)
	f.profiles.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSync_ExistingTokenSameEmail(t *testing.T) {
	f := newFixture(t, testBasketConfig())
	p := vouchedProfile(t)
	p.BasketToken = "tok-1"
	data := f.expectPhoneBook(p)

	f.profiles.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.client.On("LookupUserByToken", mock.Anything, "tok-1").Return(&basket.User{Email: p.Email, Token: "tok-1"}, nil)
	f.client.On("Post", mock.Anything, PhoneBookEndpoint, "tok-1", data).Return(nil)

	require.NoError(t, f.svc.Sync(context.Background(), p.ID))
	f.client.AssertNotCalled(t, "Subscribe", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.profiles.AssertNotCalled(t, "UpdateBasketToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestSync_EmailChangeMovesSubscription(t *testing.T) {
	f := newFixture(t, testBasketConfig())
	p := vouchedProfile(t)
	p.BasketToken = "old-tok"
	data := f.expectPhoneBook(p)

	var order []string
	f.profiles.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.client.On("LookupUserByToken", mock.Anything, "old-tok").Return(&basket.User{Email: "old@example.com", Token: "old-tok"}, nil)
	f.client.On("Subscribe", mock.Anything, p.Email, testNewsletters, syncOpts).Return("new-tok", nil).
		Run(func(mock.Arguments) { order = append(order, "subscribe") })
	f.client.On("Unsubscribe", mock.Anything, "old-tok", "old@example.com", testNewsletters, true).Return(nil).
		Run(func(mock.Arguments) { order = append(order, "unsubscribe") })
	f.profiles.On("UpdateBasketToken", mock.Anything, p.ID, "new-tok").Return(nil).
		Run(func(mock.Arguments) { order = append(order, "store") })
	f.client.On("Post", mock.Anything, PhoneBookEndpoint, "new-tok", data).Return(nil).
		Run(func(mock.Arguments) { order = append(order, "post") })

	require.NoError(t, f.svc.Sync(context.Background(), p.ID))
	assert.Equal(t, []string{"subscribe", "unsubscribe", "store", "post"}, order)
}

func TestSync_EmailChangeSubscribeFailureKeepsOldSubscription(t *testing.T) {
	f := newFixture(t, testBasketConfig())
	p := vouchedProfile(t)
	p.BasketToken = "old-tok"
	f.profiles.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.client.On("LookupUserByToken", mock.Anything, "old-tok").Return(&basket.User{Email: "old@example.com", Token: "old-tok"}, nil)
	f.client.On("Subscribe", mock.Anything, p.Email, testNewsletters, syncOpts).Return("", basket.ErrBasketUnavailable)

	err := f.svc.Sync(context.Background(), p.ID)
	var step *StepError
	require.ErrorAs(t, err, &step)
	assert.Equal(t, ActionSubscribe, step.Action)
	assert.ErrorIs(t, err, basket.ErrBasketUnavailable)

	f.client.AssertNotCalled(t, "Unsubscribe", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.profiles.AssertNotCalled(t, "UpdateBasketToken", mock.Anything, mock.Anything, mock.Anything)
	f.client.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, "old-tok", p.BasketToken)
}

func TestSync_EmailChangeUnsubscribeFailureKeepsToken(t *testing.T) {
	f := newFixture(t, testBasketConfig())
	p := vouchedProfile(t)
	p.BasketToken = "old-tok"
	f.profiles.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.client.On("LookupUserByToken", mock.Anything, "old-tok").Return(&basket.User{Email: "old@example.com", Token: "old-tok"}, nil)
	f.client.On("Subscribe", mock.Anything, p.Email, testNewsletters, syncOpts).Return("new-tok", nil)
	f.client.On("Unsubscribe", mock.Anything, "old-tok", "old@example.com", testNewsletters, true).Return(basket.ErrBasketUnavailable)

	err := f.svc.Sync(context.Background(), p.ID)
	var step *StepError
	require.ErrorAs(t, err, &step)
	assert.Equal(t, ActionSubscribe, step.Action)

	f.profiles.AssertNotCalled(t, "UpdateBasketToken", mock.Anything, mock.Anything, mock.Anything)
	f.client.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, "old-tok", p.BasketToken)
}

func TestSync_EmptySubscriberTokenIsRetryable(t *testing.T) {
	f := newFixture(t, testBasketConfig())
	p := vouchedProfile(t)
	f.profiles.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.client.On("Subscribe", mock.Anything, p.Email, testNewsletters, syncOpts).Return("", nil)

	err := f.svc.Sync(context.Background(), p.ID)
	var step *StepError
	require.ErrorAs(t, err, &step)
	assert.Equal(t, ActionSubscribe, step.Action)
	assert.ErrorIs(t, err, basket.ErrBasketUnavailable)

	f.profiles.AssertNotCalled(t, "UpdateBasketToken", mock.Anything, mock.Anything, mock.Anything)
	f.client.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSync_StepErrors(t *testing.T) {
	boom := &basket.APIError{StatusCode: 500, Desc: "boom"}

	t.Run("subscribe", func(t *testing.T) {
		f := newFixture(t, testBasketConfig())
		p := vouchedProfile(t)
		f.profiles.On("FindByID", mock.Anything, p.ID).Return(p, nil)
		f.client.On("Subscribe", mock.Anything, p.Email, testNewsletters, syncOpts).Return("", boom)

		err := f.svc.Sync(context.Background(), p.ID)
		var step *StepError
		require.ErrorAs(t, err, &step)
		assert.Equal(t, ActionSubscribe, step.Action)
		assert.Equal(t, p.Email, step.Subject)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("lookup reports the token", func(t *testing.T) {
		f := newFixture(t, testBasketConfig())
		p := vouchedProfile(t)
		p.BasketToken = "tok-1"
		f.profiles.On("FindByID", mock.Anything, p.ID).Return(p, nil)
		f.client.On("LookupUserByToken", mock.Anything, "tok-1").Return(nil, basket.ErrBasketUnavailable)

		err := f.svc.Sync(context.Background(), p.ID)
		var step *StepError
		require.ErrorAs(t, err, &step)
		assert.Equal(t, ActionLookupToken, step.Action)
		assert.Equal(t, "tok-1", step.Subject)
		assert.Equal(t, "[Mozillians - ET] Failed to update_phonebook user tok-1", Subject(step.Action, step.Subject))
	})

	t.Run("phone book push", func(t *testing.T) {
		f := newFixture(t, testBasketConfig())
		p := vouchedProfile(t)
		p.BasketToken = "tok-1"
		data := f.expectPhoneBook(p)
		f.profiles.On("FindByID", mock.Anything, p.ID).Return(p, nil)
		f.client.On("LookupUserByToken", mock.Anything, "tok-1").Return(&basket.User{Email: p.Email}, nil)
		f.client.On("Post", mock.Anything, PhoneBookEndpoint, "tok-1", data).Return(boom)

		err := f.svc.Sync(context.Background(), p.ID)
		var step *StepError
		require.ErrorAs(t, err, &step)
		assert.Equal(t, ActionUpdatePhoneBook, step.Action)
		assert.Equal(t, p.Email, step.Subject)
	})
}

func TestUnsubscribe(t *testing.T) {
	t.Run("known token", func(t *testing.T) {
		f := newFixture(t, testBasketConfig())
		f.client.On("Unsubscribe", mock.Anything, "tok-1", "a@example.com", testNewsletters, false).Return(nil)
		require.NoError(t, f.svc.Unsubscribe(context.Background(), "a@example.com", "tok-1"))
		f.client.AssertNotCalled(t, "LookupUserByEmail", mock.Anything, mock.Anything)
	})

	t.Run("missing token is looked up by email", func(t *testing.T) {
		f := newFixture(t, testBasketConfig())
		f.client.On("LookupUserByEmail", mock.Anything, "a@example.com").Return(&basket.User{Token: "tok-2"}, nil)
		f.client.On("Unsubscribe", mock.Anything, "tok-2", "a@example.com", testNewsletters, false).Return(nil)
		require.NoError(t, f.svc.Unsubscribe(context.Background(), "a@example.com", ""))
		f.client.AssertExpectations(t)
	})

	t.Run("lookup failure", func(t *testing.T) {
		f := newFixture(t, testBasketConfig())
		f.client.On("LookupUserByEmail", mock.Anything, "a@example.com").Return(nil, basket.ErrBasketUnavailable)
		err := f.svc.Unsubscribe(context.Background(), "a@example.com", "")
		var step *StepError
		require.ErrorAs(t, err, &step)
		assert.Equal(t, ActionUnsubscribe, step.Action)
	})
}

func TestSubjectAndBody(t *testing.T) {
	assert.Equal(t, "[Mozillians - ET] Failed to subscribe or update user a@b.c", Subject(ActionSubscribe, "a@b.c"))
	assert.Equal(t, "[Mozillians - ET] Failed to unsubscribe user a@b.c", Subject(ActionUnsubscribe, "a@b.c"))
	assert.Equal(t, "[Mozillians - ET] Failed to update phone book for user tok", Subject(ActionUpdatePhoneBook, "tok"))
	assert.Equal(t, "[Mozillians - ET] Failed to frobnicate user x", Subject("frobnicate", "x"))

	body := Body(ActionSubscribe, "a@b.c", "timeout")
	assert.Contains(t, body, "trying to subscribe user a@b.c from Basket")
	assert.Contains(t, body, "Here is the error message:\n\ntimeout")
}

func TestNotifier_NoManagers(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier(sender, "noreply@example.com", nil, zap.NewNop())
	n.Notify(context.Background(), &StepError{Action: ActionSubscribe, Subject: "x", Err: errors.New("e")})
	assert.Empty(t, sender.messages())
}

func TestSyncExecutor_NotFoundIsPermanent(t *testing.T) {
	f := newFixture(t, testBasketConfig())
	id := uuid.New()
	f.profiles.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)
	e := NewSyncExecutor(f.svc, NewNotifier(&recordingSender{}, "", nil, zap.NewNop()), zap.NewNop())

	err := e.Execute(context.Background(), NewSyncJob(testBasketConfig(), id))
	assert.True(t, scheduler.IsPermanent(err))

	err = e.Execute(context.Background(), scheduler.NewJob(JobKindSync, "wrong"))
	assert.True(t, scheduler.IsPermanent(err))
}

func TestSyncJob_RetriesThenMailsOnce(t *testing.T) {
	cfg := testBasketConfig()
	f := newFixture(t, cfg)
	p := vouchedProfile(t)
	f.profiles.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.client.On("Subscribe", mock.Anything, p.Email, testNewsletters, syncOpts).Return("", basket.ErrBasketUnavailable)

	sender := &recordingSender{}
	logger := zaptest.NewLogger(t)
	s, err := scheduler.NewScheduler(scheduler.Config{MaxConcurrentJobs: 1, QueueSize: 10, JobTimeout: time.Second}, logger)
	require.NoError(t, err)
	s.Register(JobKindSync, NewSyncExecutor(f.svc, NewNotifier(sender, "noreply@example.com", cfg.Managers, logger), logger))
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	require.NoError(t, s.Submit(NewSyncJob(cfg, p.ID)))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))

	f.client.AssertNumberOfCalls(t, "Subscribe", 3)
	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"ops@example.com"}, msgs[0].To)
	assert.Equal(t, "[Mozillians - ET] Failed to subscribe or update user "+p.Email, msgs[0].Subject)
	assert.Contains(t, msgs[0].Body, basket.ErrBasketUnavailable.Error())
	f.profiles.AssertNotCalled(t, "UpdateBasketToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestUnsubscribeJob_ExhaustedMailsOnce(t *testing.T) {
	cfg := testBasketConfig()
	cfg.MaxRetries = 0
	f := newFixture(t, cfg)
	f.client.On("Unsubscribe", mock.Anything, "tok", "gone@example.com", testNewsletters, false).Return(basket.ErrBasketUnavailable)

	sender := &recordingSender{}
	e := NewUnsubscribeExecutor(f.svc, NewNotifier(sender, "", cfg.Managers, zap.NewNop()), zap.NewNop())
	job := NewUnsubscribeJob(cfg, "gone@example.com", "tok")
	err := e.Execute(context.Background(), job)
	require.Error(t, err)
	e.OnExhausted(context.Background(), job, err)

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "[Mozillians - ET] Failed to unsubscribe user gone@example.com", msgs[0].Subject)

	// non-step failures are logged, not mailed
	e.OnExhausted(context.Background(), job, errors.New("db down"))
	assert.Len(t, sender.messages(), 1)
}
