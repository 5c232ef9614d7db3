package dto

import (
	"net/url"
	"strconv"
	"time"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Detail    string             `json:"detail"`
	Code      string             `json:"code"`
	RequestID string             `json:"request_id,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Errors    []ValidationDetail `json:"errors,omitempty"`
}

// ValidationDetail describes one rejected query value
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, detail, requestID string) ErrorResponse {
	return ErrorResponse{
		Detail:    detail,
		Code:      code,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationErrorResponse creates a 400 body listing each invalid field
func NewValidationErrorResponse(detail, requestID string, details []ValidationDetail) ErrorResponse {
	resp := NewErrorResponse(ErrCodeValidation, detail, requestID)
	resp.Errors = details
	return resp
}

// V1Meta is the pagination block of legacy list responses
type V1Meta struct {
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
	TotalCount int64   `json:"total_count"`
	Next       *string `json:"next"`
	Previous   *string `json:"previous"`
}

// V1List is the legacy list envelope
type V1List struct {
	Meta    V1Meta `json:"meta"`
	Objects any    `json:"objects"`
}

// NewV1List wraps objects with limit/offset links relative to path
func NewV1List(objects any, total int64, limit, offset int, path string, query url.Values) V1List {
	meta := V1Meta{Limit: limit, Offset: offset, TotalCount: total}
	if int64(offset+limit) < total {
		meta.Next = pageLink(path, query, map[string]int{"limit": limit, "offset": offset + limit})
	}
	if offset > 0 {
		meta.Previous = pageLink(path, query, map[string]int{"limit": limit, "offset": max(offset-limit, 0)})
	}
	return V1List{Meta: meta, Objects: objects}
}

// V2List is the paginated list envelope
type V2List struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// NewV2List wraps results with page-number links under base. The page
// size is only repeated in links when the client sent one.
func NewV2List(results any, total int64, page, totalPages int, base string, query url.Values) V2List {
	list := V2List{Count: total, Results: results}
	if page < totalPages {
		list.Next = pageLink(base, query, map[string]int{"page": page + 1})
	}
	if page > 1 {
		if page == 2 {
			q := cloneValues(query)
			q.Del("page")
			list.Previous = link(base, q)
		} else {
			list.Previous = pageLink(base, query, map[string]int{"page": page - 1})
		}
	}
	return list
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func pageLink(base string, query url.Values, set map[string]int) *string {
	q := cloneValues(query)
	for k, v := range set {
		q.Set(k, strconv.Itoa(v))
	}
	return link(base, q)
}

func link(base string, q url.Values) *string {
	s := base
	if len(q) > 0 {
		s += "?" + q.Encode()
	}
	return &s
}
