// Package indexing copies profiles and groups into the search indexes.
package indexing

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/infrastructure/config"
	"github.com/mozillians/backend/internal/infrastructure/search"
	"github.com/mozillians/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultChunkSize  = 100
	maxParallelChunks = 4
)

// Service indexes and unindexes records. Each mapping type has a private
// index holding every field and a public one restricted to public rows
// and public fields.
type Service struct {
	cfg      config.SearchConfig
	store    search.Store
	profiles directory.ProfileRepository
	groups   directory.GroupRepository
	logger   *zap.Logger
}

// NewService creates a Service
func NewService(
	cfg config.SearchConfig,
	store search.Store,
	profiles directory.ProfileRepository,
	groups directory.GroupRepository,
	logger *zap.Logger,
) *Service {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	return &Service{cfg: cfg, store: store, profiles: profiles, groups: groups, logger: logger}
}

// Enabled reports whether indexing does anything
func (s *Service) Enabled() bool {
	return !s.cfg.Disabled && s.store != nil
}

// IndexObjects loads ids in chunks and writes their documents. Ids that
// do not exist, or are not public when public is set, are skipped.
func (s *Service) IndexObjects(ctx context.Context, t search.MappingType, ids []uuid.UUID, public bool) error {
	if !s.Enabled() || len(ids) == 0 {
		return nil
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "indexing", "index_objects",
		telemetry.WithAttribute(telemetry.SpanAttrMappingType, string(t)),
		telemetry.WithAttribute(telemetry.SpanAttrObjectCount, len(ids)))
	defer span.End()

	index := search.IndexName(t, public)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelChunks)
	for chunk := range slices.Chunk(ids, s.cfg.ChunkSize) {
		g.Go(func() error {
			docs, err := s.documents(ctx, t, chunk, public)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				return nil
			}
			if err := s.store.BulkIndex(ctx, index, docs); err != nil {
				return fmt.Errorf("failed to index %d documents into %s: %w", len(docs), index, err)
			}
			telemetry.AddEvent(span, "chunk_indexed",
				telemetry.SpanAttrMappingType, string(t),
				telemetry.SpanAttrObjectCount, len(docs))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.logger.Debug("Objects indexed",
		zap.String("index", index),
		zap.Int("requested", len(ids)),
	)
	return nil
}

func (s *Service) documents(ctx context.Context, t search.MappingType, ids []uuid.UUID, public bool) ([]search.Document, error) {
	switch t {
	case search.MappingProfile:
		profiles, err := s.profiles.FindByIDs(ctx, ids, public)
		if err != nil {
			return nil, fmt.Errorf("failed to load profiles: %w", err)
		}
		docs := make([]search.Document, 0, len(profiles))
		for _, p := range profiles {
			docs = append(docs, ProfileDocument(p, public))
		}
		return docs, nil
	case search.MappingGroup:
		groups, err := s.groups.FindByIDs(ctx, ids, public)
		if err != nil {
			return nil, fmt.Errorf("failed to load groups: %w", err)
		}
		docs := make([]search.Document, 0, len(groups))
		for _, g := range groups {
			docs = append(docs, GroupDocument(g))
		}
		return docs, nil
	}
	return nil, fmt.Errorf("unknown mapping type %q", t)
}

// UnindexObjects removes ids from the private or public index
func (s *Service) UnindexObjects(ctx context.Context, t search.MappingType, ids []uuid.UUID, public bool) error {
	if !s.Enabled() {
		return nil
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "indexing", "unindex_objects",
		telemetry.WithAttribute(telemetry.SpanAttrMappingType, string(t)),
		telemetry.WithAttribute(telemetry.SpanAttrObjectCount, len(ids)))
	defer span.End()

	index := search.IndexName(t, public)
	for _, id := range ids {
		if err := s.store.Unindex(ctx, index, id.String()); err != nil {
			telemetry.RecordError(span, err)
			return fmt.Errorf("failed to unindex %s from %s: %w", id, index, err)
		}
	}
	return nil
}

// ProfileDocument extracts the search document of p. Private documents
// carry every indexed field with its privacy level so searches can filter
// by requester; public documents only carry public fields.
func ProfileDocument(p *directory.Profile, public bool) search.Document {
	doc := search.Document{
		search.IDField: p.ID.String(),
		"username":     p.Username,
		"is_vouched":   p.IsVouched,
		"date_joined":  p.DateJoined.UTC(),
	}
	for _, f := range directory.ProfileIndexFields {
		minLevel := f.MinLevel(p)
		if public && !directory.PrivacyPublic.Allows(minLevel) {
			continue
		}
		doc[f.Name] = indexValue(f.Name, p)
		if !public {
			doc["privacy_"+f.Name] = int(minLevel)
		}
	}
	return doc
}

func indexValue(name string, p *directory.Profile) any {
	switch name {
	case "full_name":
		return p.FullName
	case "email":
		return p.Email
	case "bio":
		return p.Bio
	case "ircname":
		return p.IRCName
	case "country":
		if p.Country != nil {
			return p.Country.Name
		}
	case "region":
		if p.Region != nil {
			return p.Region.Name
		}
	case "city":
		if p.City != nil {
			return p.City.Name
		}
	case "timezone":
		return p.Timezone
	case "title":
		return p.Title
	case "languages":
		codes := make([]string, 0, len(p.Languages))
		for _, l := range p.Languages {
			codes = append(codes, l.Code)
		}
		return codes
	}
	return ""
}

// GroupDocument extracts the search document of g
func GroupDocument(g *directory.Group) search.Document {
	return search.Document{
		search.IDField:    g.ID.String(),
		"name":            g.Name,
		"description":     g.Description,
		"functional_area": g.FunctionalArea,
		"member_count":    g.MemberCount,
	}
}
