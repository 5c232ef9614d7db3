package directory

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// APIApp is a registered API consumer. Requests presenting its key are
// served at the app's privacy level.
type APIApp struct {
	ID           uuid.UUID
	Name         string
	KeyDigest    string
	PrivacyLevel PrivacyLevel
	Enabled      bool
	CreatedAt    time.Time
}

// DigestAPIKey returns the stored digest of a raw API key
func DigestAPIKey(key string) string {
	sum := blake2b.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// NewAPIApp registers a consumer served at level. The raw key is returned
// once; only its digest is kept.
func NewAPIApp(name string, level PrivacyLevel) (*APIApp, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", fmt.Errorf("app name is required")
	}
	if !level.IsValid() {
		return nil, "", fmt.Errorf("undefined privacy level %d", level)
	}
	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", fmt.Errorf("failed to generate api key: %w", err)
	}
	key := hex.EncodeToString(raw)
	return &APIApp{
		ID:           uuid.New(),
		Name:         name,
		KeyDigest:    DigestAPIKey(key),
		PrivacyLevel: level,
		Enabled:      true,
		CreatedAt:    time.Now().UTC(),
	}, key, nil
}
