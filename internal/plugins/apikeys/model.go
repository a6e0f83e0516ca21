// Package apikeys authenticates external clients (virtual tabletop hosts,
// sync scripts) with world-scoped API keys. Keys are stored bcrypt-hashed;
// the plaintext is shown exactly once at creation.
package apikeys

import "time"

// Permission represents an allowed operation for an API key.
type Permission string

const (
	PermRead  Permission = "read"
	PermWrite Permission = "write"
)

// APIKey represents a registered API key for external client access.
type APIKey struct {
	ID          int          `json:"id"`
	KeyHash     string       `json:"-"`          // Never exposed in JSON.
	KeyPrefix   string       `json:"key_prefix"` // First 8 chars for display.
	Name        string       `json:"name"`
	WorldID     string       `json:"world_id"`
	Permissions []Permission `json:"permissions"`
	RateLimit   int          `json:"rate_limit"` // Requests per minute.
	IsActive    bool         `json:"is_active"`
	LastUsedAt  *time.Time   `json:"last_used_at,omitempty"`
	LastUsedIP  *string      `json:"last_used_ip,omitempty"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsExpired returns true if the key has passed its expiry date.
func (k *APIKey) IsExpired() bool {
	if k.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*k.ExpiresAt)
}

// HasPermission checks if the key has a specific permission.
func (k *APIKey) HasPermission(perm Permission) bool {
	for _, p := range k.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// CreateKeyInput is the validated input for creating a new API key.
type CreateKeyInput struct {
	Name        string       `json:"name"`
	WorldID     string       `json:"world_id"`
	Permissions []Permission `json:"permissions"`
	RateLimit   int          `json:"rate_limit"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
}

// CreateKeyResult is returned after key creation, containing the plaintext
// key that is only shown once.
type CreateKeyResult struct {
	Key    *APIKey `json:"key"`
	RawKey string  `json:"raw_key"` // Plaintext key — shown once, never stored.
}
