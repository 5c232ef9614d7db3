package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mozillians/backend/internal/application/indexing"
	"github.com/mozillians/backend/internal/application/newsletter"
	"github.com/mozillians/backend/internal/application/photo"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/directory/directorytest"
	"github.com/mozillians/backend/internal/infrastructure/cache"
	"github.com/mozillians/backend/internal/infrastructure/config"
	infraevent "github.com/mozillians/backend/internal/infrastructure/event"
	"github.com/mozillians/backend/internal/infrastructure/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSubmitter struct {
	mu   sync.Mutex
	jobs []*scheduler.Job
	err  error
}

func (r *recordingSubmitter) Submit(job *scheduler.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.jobs = append(r.jobs, job)
	return nil
}

func (r *recordingSubmitter) kinds() []scheduler.JobKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]scheduler.JobKind, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j.Kind)
	}
	return out
}

var enabledBasket = config.BasketConfig{
	URL:        "https://basket.test",
	Newsletter: "mozilla-phone",
	APIKey:     "key",
	MaxRetries: 2,
	RetryDelay: 120 * time.Second,
}

func TestProfileSavedHandler_PublicProfile(t *testing.T) {
	jobs := &recordingSubmitter{}
	h := NewProfileSavedHandler(jobs, enabledBasket, zap.NewNop())

	p := directorytest.NewCompleteProfile("alice")
	p.Privacy.FullName = directory.PrivacyPublic
	p.PrepareSave()
	require.NoError(t, h.Handle(context.Background(), p.GetDomainEvents()[0]))

	require.Len(t, jobs.jobs, 3)
	private := jobs.jobs[0].Payload.(indexing.Payload)
	assert.Equal(t, indexing.JobKindIndex, jobs.jobs[0].Kind)
	assert.False(t, private.Public)
	public := jobs.jobs[1].Payload.(indexing.Payload)
	assert.Equal(t, indexing.JobKindIndex, jobs.jobs[1].Kind)
	assert.True(t, public.Public)

	syncJob := jobs.jobs[2]
	assert.Equal(t, newsletter.JobKindSync, syncJob.Kind)
	assert.Equal(t, 2, syncJob.MaxRetries)
	assert.Equal(t, 120*time.Second, syncJob.RetryDelay)
	assert.Equal(t, p.ID, syncJob.Payload.(newsletter.SyncPayload).ProfileID)
}

func TestProfileSavedHandler_PrivateProfileWithoutBasket(t *testing.T) {
	jobs := &recordingSubmitter{}
	h := NewProfileSavedHandler(jobs, config.BasketConfig{}, zap.NewNop())

	p := directorytest.NewCompleteProfile("bob")
	p.PrepareSave()
	require.NoError(t, h.Handle(context.Background(), p.GetDomainEvents()[0]))

	assert.Equal(t, []scheduler.JobKind{indexing.JobKindIndex, indexing.JobKindUnindex}, jobs.kinds())
	assert.True(t, jobs.jobs[1].Payload.(indexing.Payload).Public)
}

func TestProfileDeletedHandler(t *testing.T) {
	jobs := &recordingSubmitter{}
	h := NewProfileDeletedHandler(jobs, enabledBasket, zap.NewNop())

	p := directorytest.NewCompleteProfile("carol")
	p.BasketToken = "tok"
	p.MarkDeleted()
	require.NoError(t, h.Handle(context.Background(), p.GetDomainEvents()[0]))

	assert.Equal(t, []scheduler.JobKind{indexing.JobKindUnindex, indexing.JobKindUnindex, newsletter.JobKindUnsubscribe}, jobs.kinds())
	assert.Equal(t, newsletter.UnsubscribePayload{Email: "carol@example.com", Token: "tok"}, jobs.jobs[2].Payload)
}

func TestPhotoChangedHandler(t *testing.T) {
	jobs := &recordingSubmitter{}
	h := NewPhotoChangedHandler(jobs, zap.NewNop())

	p := directorytest.NewCompleteProfile("dave")
	p.SetPhoto("photos/dave.png")
	require.NoError(t, h.Handle(context.Background(), p.GetDomainEvents()[0]))

	require.Len(t, jobs.jobs, 1)
	assert.Equal(t, photo.JobKindThumbnails, jobs.jobs[0].Kind)
	assert.Equal(t, photo.Payload{Key: "photos/dave.png"}, jobs.jobs[0].Payload)
}

func TestHandlers_RejectOtherEvents(t *testing.T) {
	jobs := &recordingSubmitter{}
	p := directorytest.NewCompleteProfile("erin")
	p.MarkDeleted()
	deleted := p.GetDomainEvents()[0]

	assert.Error(t, NewProfileSavedHandler(jobs, enabledBasket, zap.NewNop()).Handle(context.Background(), deleted))
	assert.Error(t, NewPhotoChangedHandler(jobs, zap.NewNop()).Handle(context.Background(), deleted))
	assert.Empty(t, jobs.jobs)
}

func TestHandlers_SubmitErrorsAreJoined(t *testing.T) {
	jobs := &recordingSubmitter{err: scheduler.ErrJobQueueFull}
	p := directorytest.NewCompleteProfile("frank")
	p.PrepareSave()

	err := NewProfileSavedHandler(jobs, enabledBasket, zap.NewNop()).Handle(context.Background(), p.GetDomainEvents()[0])
	assert.True(t, errors.Is(err, scheduler.ErrJobQueueFull))
}

func TestRegister_DeduplicatesRedeliveredEvents(t *testing.T) {
	bus := infraevent.NewInMemoryEventBus(zap.NewNop())
	jobs := &recordingSubmitter{}
	dedup := cache.NewInMemoryDedupStore(time.Minute)
	t.Cleanup(func() { _ = dedup.Close() })

	Register(bus, jobs, config.BasketConfig{}, dedup, zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))

	p := directorytest.NewCompleteProfile("gina")
	p.SetPhoto("photos/gina.jpg")
	events := p.GetDomainEvents()
	require.NoError(t, bus.Publish(context.Background(), events...))
	require.NoError(t, bus.Publish(context.Background(), events...))

	assert.Equal(t, []scheduler.JobKind{photo.JobKindThumbnails}, jobs.kinds())
}
