package directory

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/shared"
	"github.com/mozillians/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const accountPrefix = "account_"

// FirstQueryParam returns the first key/value pair of a raw query string
// in the order the client sent it. ok is false for an empty query.
func FirstQueryParam(rawQuery string) (key, value string, ok bool) {
	for rawQuery != "" {
		var pair string
		pair, rawQuery, _ = strings.Cut(rawQuery, "&")
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		k, err := url.QueryUnescape(k)
		if err != nil {
			continue
		}
		v, err = url.QueryUnescape(v)
		if err != nil {
			continue
		}
		return k, v, true
	}
	return "", "", false
}

// ParseLookupKey maps a lookup parameter name to criteria. Supported keys
// are username, email and account_<type>.
func ParseLookupKey(key, value string, level directory.PrivacyLevel) (directory.LookupCriteria, bool) {
	c := directory.LookupCriteria{Value: value, Level: level}
	switch {
	case key == string(directory.LookupUsername):
		c.Field = directory.LookupUsername
	case key == string(directory.LookupEmail):
		c.Field = directory.LookupEmail
	case strings.HasPrefix(key, accountPrefix):
		t, ok := directory.ParseAccountType(strings.TrimPrefix(key, accountPrefix))
		if !ok {
			return directory.LookupCriteria{}, false
		}
		c.Field = directory.LookupAccount
		c.AccountType = t
	default:
		return directory.LookupCriteria{}, false
	}
	return c, true
}

// Lookup resolves exactly one profile by an external identity. Only the
// first parameter of rawQuery is considered. An unsupported key, no match
// and an ambiguous match all yield NotFound.
func (s *ReadModel) Lookup(ctx context.Context, level directory.PrivacyLevel, rawQuery string) (*directory.Profile, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "directory", "lookup_user",
		telemetry.WithAttribute(telemetry.SpanAttrPrivacyLevel, level.Label()))
	defer span.End()

	if err := checkLevel(level); err != nil {
		return nil, err
	}
	key, value, ok := FirstQueryParam(rawQuery)
	if !ok {
		return nil, shared.ErrNotFound
	}
	criteria, ok := ParseLookupKey(key, value, level)
	if !ok {
		s.logger.Debug("Unsupported lookup key", zap.String("key", key))
		return nil, shared.ErrNotFound
	}
	telemetry.SetAttribute(span, "lookup.field", string(criteria.Field))

	matches, err := s.profiles.FindMatching(ctx, directory.LookupScope(level), criteria, 2)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidParameter) {
			return nil, shared.ErrNotFound
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	if len(matches) != 1 {
		return nil, shared.ErrNotFound
	}
	return matches[0], nil
}
