package indexing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/infrastructure/scheduler"
	"github.com/mozillians/backend/internal/infrastructure/search"
)

// Job kinds served by this package
const (
	JobKindIndex   scheduler.JobKind = "search.index"
	JobKindUnindex scheduler.JobKind = "search.unindex"
)

// Payload selects the records and the index a job works on
type Payload struct {
	Type   search.MappingType
	IDs    []uuid.UUID
	Public bool
}

// NewIndexJob creates an index job
func NewIndexJob(t search.MappingType, ids []uuid.UUID, public bool) *scheduler.Job {
	return scheduler.NewJob(JobKindIndex, Payload{Type: t, IDs: ids, Public: public})
}

// NewUnindexJob creates an unindex job
func NewUnindexJob(t search.MappingType, ids []uuid.UUID, public bool) *scheduler.Job {
	return scheduler.NewJob(JobKindUnindex, Payload{Type: t, IDs: ids, Public: public})
}

func payloadOf(job *scheduler.Job) (Payload, error) {
	p, ok := job.Payload.(Payload)
	if !ok {
		return Payload{}, scheduler.Permanent(fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Kind))
	}
	return p, nil
}

// IndexExecutor returns the executor of index jobs
func (s *Service) IndexExecutor() scheduler.Executor {
	return scheduler.ExecutorFunc(func(ctx context.Context, job *scheduler.Job) error {
		p, err := payloadOf(job)
		if err != nil {
			return err
		}
		return s.IndexObjects(ctx, p.Type, p.IDs, p.Public)
	})
}

// UnindexExecutor returns the executor of unindex jobs
func (s *Service) UnindexExecutor() scheduler.Executor {
	return scheduler.ExecutorFunc(func(ctx context.Context, job *scheduler.Job) error {
		p, err := payloadOf(job)
		if err != nil {
			return err
		}
		return s.UnindexObjects(ctx, p.Type, p.IDs, p.Public)
	})
}
