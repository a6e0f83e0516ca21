package apikeys

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/keyxmakerx/timekeeper/internal/apperror"
)

// keyBytes is the number of random bytes in a generated API key.
const keyBytes = 32

// keyPrefixLen is the length of the prefix stored for key identification.
const keyPrefixLen = 8

// rawKeyPrefix marks Timekeeper keys so they are recognizable in configs.
const rawKeyPrefix = "tk_"

// KeyService handles API key lifecycle and authentication.
type KeyService interface {
	CreateKey(ctx context.Context, input CreateKeyInput) (*CreateKeyResult, error)
	GetKey(ctx context.Context, id int) (*APIKey, error)
	ListKeysByWorld(ctx context.Context, worldID string) ([]APIKey, error)
	ActivateKey(ctx context.Context, id int) error
	DeactivateKey(ctx context.Context, id int) error
	RevokeKey(ctx context.Context, id int) error

	// AuthenticateKey validates a raw key and records its use.
	AuthenticateKey(ctx context.Context, rawKey string) (*APIKey, error)
	UpdateKeyLastUsed(ctx context.Context, id int, ip string) error
}

// keyService implements KeyService.
type keyService struct {
	repo             KeyRepository
	defaultRateLimit int
}

// NewKeyService creates a new key service. defaultRateLimit applies to keys
// created without an explicit limit.
func NewKeyService(repo KeyRepository, defaultRateLimit int) KeyService {
	return &keyService{repo: repo, defaultRateLimit: defaultRateLimit}
}

// validPermissions enumerates allowed API key permissions.
var validPermissions = map[Permission]bool{
	PermRead:  true,
	PermWrite: true,
}

// CreateKey generates a new API key with bcrypt-hashed storage.
func (s *keyService) CreateKey(ctx context.Context, input CreateKeyInput) (*CreateKeyResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewBadRequest("key name is required")
	}
	if input.WorldID == "" {
		return nil, apperror.NewBadRequest("world ID is required")
	}
	if len(input.Permissions) == 0 {
		return nil, apperror.NewBadRequest("at least one permission is required")
	}
	for _, p := range input.Permissions {
		if !validPermissions[p] {
			return nil, apperror.NewBadRequest(fmt.Sprintf("invalid permission: %s", p))
		}
	}
	if input.RateLimit <= 0 {
		input.RateLimit = s.defaultRateLimit
	}
	if input.RateLimit > 1000 {
		return nil, apperror.NewBadRequest("rate limit cannot exceed 1000 requests per minute")
	}

	// Generate random key.
	raw := make([]byte, keyBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("generating key: %w", err))
	}
	rawKey := rawKeyPrefix + hex.EncodeToString(raw)
	prefix := rawKey[:keyPrefixLen]

	// Hash for storage.
	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing key: %w", err))
	}

	key := &APIKey{
		KeyHash:     string(hash),
		KeyPrefix:   prefix,
		Name:        name,
		WorldID:     input.WorldID,
		Permissions: input.Permissions,
		RateLimit:   input.RateLimit,
		IsActive:    true,
		ExpiresAt:   input.ExpiresAt,
	}

	if err := s.repo.CreateKey(ctx, key); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating key: %w", err))
	}

	slog.Info("api key created",
		slog.String("prefix", prefix),
		slog.String("world_id", input.WorldID),
	)

	return &CreateKeyResult{Key: key, RawKey: rawKey}, nil
}

// GetKey retrieves an API key by ID.
func (s *keyService) GetKey(ctx context.Context, id int) (*APIKey, error) {
	key, err := s.repo.FindKeyByID(ctx, id)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("loading key: %w", err))
	}
	if key == nil {
		return nil, apperror.NewNotFound("api key not found")
	}
	return key, nil
}

// ListKeysByWorld returns all keys scoped to a world.
func (s *keyService) ListKeysByWorld(ctx context.Context, worldID string) ([]APIKey, error) {
	return s.repo.ListKeysByWorld(ctx, worldID)
}

// ActivateKey enables an API key.
func (s *keyService) ActivateKey(ctx context.Context, id int) error {
	if err := s.repo.UpdateKeyActive(ctx, id, true); err != nil {
		return err
	}
	slog.Info("api key activated", slog.Int("id", id))
	return nil
}

// DeactivateKey disables an API key without deleting it.
func (s *keyService) DeactivateKey(ctx context.Context, id int) error {
	if err := s.repo.UpdateKeyActive(ctx, id, false); err != nil {
		return err
	}
	slog.Info("api key deactivated", slog.Int("id", id))
	return nil
}

// RevokeKey permanently deletes an API key.
func (s *keyService) RevokeKey(ctx context.Context, id int) error {
	if err := s.repo.DeleteKey(ctx, id); err != nil {
		return err
	}
	slog.Info("api key revoked", slog.Int("id", id))
	return nil
}

// AuthenticateKey validates a raw API key and returns the associated key
// record. It extracts the prefix, looks up the key, and verifies with bcrypt.
func (s *keyService) AuthenticateKey(ctx context.Context, rawKey string) (*APIKey, error) {
	if len(rawKey) < keyPrefixLen {
		return nil, apperror.NewBadRequest("invalid api key format")
	}

	prefix := rawKey[:keyPrefixLen]
	key, err := s.repo.FindKeyByPrefix(ctx, prefix)
	if err != nil || key == nil {
		return nil, apperror.NewForbidden("invalid api key")
	}

	// Verify the full key against the stored hash.
	if err := bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(rawKey)); err != nil {
		return nil, apperror.NewForbidden("invalid api key")
	}

	if !key.IsActive {
		return nil, apperror.NewForbidden("api key is deactivated")
	}
	if key.IsExpired() {
		return nil, apperror.NewForbidden("api key has expired")
	}

	return key, nil
}

// UpdateKeyLastUsed records when and from where a key last authenticated.
func (s *keyService) UpdateKeyLastUsed(ctx context.Context, id int, ip string) error {
	return s.repo.UpdateKeyLastUsed(ctx, id, ip)
}
