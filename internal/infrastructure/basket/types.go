package basket

import (
	"errors"
	"fmt"
)

// ErrBasketUnavailable indicates a transport failure or a server-side error
var ErrBasketUnavailable = errors.New("basket: service unavailable")

// ErrNotConfigured is returned when the client lacks a URL or API key
var ErrNotConfigured = errors.New("basket: not configured")

// APIError is an error response ({"status": "error"}) returned by Basket
type APIError struct {
	StatusCode int
	Code       int
	Desc       string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("basket: %s (code %d, HTTP %d)", e.Desc, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("basket: %s (HTTP %d)", e.Desc, e.StatusCode)
}

// SubscribeOptions are the flags of a subscribe call
type SubscribeOptions struct {
	// Sync waits for the subscription to complete so the token is returned
	Sync bool
	// TriggerWelcome sends the newsletter's welcome message
	TriggerWelcome bool
}

// User is the subscriber record returned by lookup-user
type User struct {
	Email       string   `json:"email"`
	Token       string   `json:"token"`
	Newsletters []string `json:"newsletters"`
}

// envelope is the common shape of Basket responses
type envelope struct {
	Status string `json:"status"`
	Desc   string `json:"desc"`
	Code   int    `json:"code"`
	Token  string `json:"token"`

	Email       string   `json:"email"`
	Newsletters []string `json:"newsletters"`
}

func yesNo(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}
