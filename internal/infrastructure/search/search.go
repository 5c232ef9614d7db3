package search

import (
	"context"
	"errors"
	"fmt"
)

// MappingType is the kind of record an index holds
type MappingType string

const (
	MappingProfile MappingType = "profile"
	MappingGroup   MappingType = "group"
)

// ParseMappingType accepts "profile" or "group"
func ParseMappingType(s string) (MappingType, error) {
	switch MappingType(s) {
	case MappingProfile, MappingGroup:
		return MappingType(s), nil
	}
	return "", fmt.Errorf("unknown mapping type %q", s)
}

// IndexName returns the index of a mapping type, public or private
func IndexName(t MappingType, public bool) string {
	name := string(t) + "s"
	if public {
		name += "_public"
	}
	return name
}

// ErrDocumentNotFound is returned by Get for an unknown id
var ErrDocumentNotFound = errors.New("search: document not found")

// Document is one indexed record; it must carry its id under the store's id field
type Document map[string]any

// IDField is the document key holding the record id
const IDField = "id"

// Store is a document store keyed by index name and document id
type Store interface {
	// BulkIndex writes or replaces the documents in index
	BulkIndex(ctx context.Context, index string, docs []Document) error
	// Unindex removes a document; unknown ids are not an error
	Unindex(ctx context.Context, index, id string) error
	// Get loads a document
	Get(ctx context.Context, index, id string) (Document, error)
	// Count returns the number of documents in index
	Count(ctx context.Context, index string) (int64, error)
}

func documentID(doc Document) (string, error) {
	switch id := doc[IDField].(type) {
	case string:
		if id != "" {
			return id, nil
		}
	case fmt.Stringer:
		return id.String(), nil
	}
	return "", fmt.Errorf("search: document without %q", IDField)
}
