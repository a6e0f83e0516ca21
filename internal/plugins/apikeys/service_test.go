package apikeys

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/keyxmakerx/timekeeper/internal/apperror"
)

// --- Mock Repository ---

// mockKeyRepo implements KeyRepository for testing.
type mockKeyRepo struct {
	createKeyFn         func(ctx context.Context, key *APIKey) error
	findKeyByIDFn       func(ctx context.Context, id int) (*APIKey, error)
	findKeyByPrefixFn   func(ctx context.Context, prefix string) (*APIKey, error)
	listKeysByWorldFn   func(ctx context.Context, worldID string) ([]APIKey, error)
	updateKeyActiveFn   func(ctx context.Context, id int, active bool) error
	updateKeyLastUsedFn func(ctx context.Context, id int, ip string) error
	deleteKeyFn         func(ctx context.Context, id int) error
}

func (m *mockKeyRepo) CreateKey(ctx context.Context, key *APIKey) error {
	if m.createKeyFn != nil {
		return m.createKeyFn(ctx, key)
	}
	key.ID = 1
	return nil
}

func (m *mockKeyRepo) FindKeyByID(ctx context.Context, id int) (*APIKey, error) {
	if m.findKeyByIDFn != nil {
		return m.findKeyByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockKeyRepo) FindKeyByPrefix(ctx context.Context, prefix string) (*APIKey, error) {
	if m.findKeyByPrefixFn != nil {
		return m.findKeyByPrefixFn(ctx, prefix)
	}
	return nil, nil
}

func (m *mockKeyRepo) ListKeysByWorld(ctx context.Context, worldID string) ([]APIKey, error) {
	if m.listKeysByWorldFn != nil {
		return m.listKeysByWorldFn(ctx, worldID)
	}
	return nil, nil
}

func (m *mockKeyRepo) UpdateKeyActive(ctx context.Context, id int, active bool) error {
	if m.updateKeyActiveFn != nil {
		return m.updateKeyActiveFn(ctx, id, active)
	}
	return nil
}

func (m *mockKeyRepo) UpdateKeyLastUsed(ctx context.Context, id int, ip string) error {
	if m.updateKeyLastUsedFn != nil {
		return m.updateKeyLastUsedFn(ctx, id, ip)
	}
	return nil
}

func (m *mockKeyRepo) DeleteKey(ctx context.Context, id int) error {
	if m.deleteKeyFn != nil {
		return m.deleteKeyFn(ctx, id)
	}
	return nil
}

func assertAppErrorCode(t *testing.T, err error, code int) {
	t.Helper()
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != code {
		t.Fatalf("expected status %d, got %d (%s)", code, appErr.Code, appErr.Message)
	}
}

// --- Tests ---

func TestCreateKey(t *testing.T) {
	var stored *APIKey
	repo := &mockKeyRepo{
		createKeyFn: func(ctx context.Context, key *APIKey) error {
			key.ID = 42
			stored = key
			return nil
		},
	}
	svc := NewKeyService(repo, 120)

	result, err := svc.CreateKey(context.Background(), CreateKeyInput{
		Name:        "Foundry host",
		WorldID:     "w1",
		Permissions: []Permission{PermRead, PermWrite},
	})
	if err != nil {
		t.Fatalf("CreateKey: %v", err)
	}

	if !strings.HasPrefix(result.RawKey, "tk_") {
		t.Errorf("expected tk_ prefix, got %q", result.RawKey)
	}
	if result.Key.ID != 42 {
		t.Errorf("expected repo-assigned id, got %d", result.Key.ID)
	}
	if result.Key.KeyPrefix != result.RawKey[:8] {
		t.Errorf("prefix mismatch: %q vs %q", result.Key.KeyPrefix, result.RawKey[:8])
	}
	if stored.KeyHash == result.RawKey || stored.KeyHash == "" {
		t.Error("expected the stored hash to differ from the plaintext key")
	}
	if stored.RateLimit != 120 {
		t.Errorf("expected default rate limit 120, got %d", stored.RateLimit)
	}
	if !stored.IsActive {
		t.Error("expected new keys to be active")
	}
}

func TestCreateKey_Validation(t *testing.T) {
	svc := NewKeyService(&mockKeyRepo{}, 120)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateKeyInput
	}{
		{"missing name", CreateKeyInput{WorldID: "w1", Permissions: []Permission{PermRead}}},
		{"missing world", CreateKeyInput{Name: "k", Permissions: []Permission{PermRead}}},
		{"no permissions", CreateKeyInput{Name: "k", WorldID: "w1"}},
		{"invalid permission", CreateKeyInput{Name: "k", WorldID: "w1", Permissions: []Permission{"admin"}}},
		{"rate limit too high", CreateKeyInput{Name: "k", WorldID: "w1", Permissions: []Permission{PermRead}, RateLimit: 5000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateKey(ctx, tt.input)
			assertAppErrorCode(t, err, http.StatusBadRequest)
		})
	}
}

func TestAuthenticateKey(t *testing.T) {
	var created *CreateKeyResult
	repo := &mockKeyRepo{
		createKeyFn: func(ctx context.Context, key *APIKey) error {
			key.ID = 7
			return nil
		},
	}
	svc := NewKeyService(repo, 120)

	created, err := svc.CreateKey(context.Background(), CreateKeyInput{
		Name:        "sync",
		WorldID:     "w1",
		Permissions: []Permission{PermRead},
	})
	if err != nil {
		t.Fatalf("CreateKey: %v", err)
	}

	repo.findKeyByPrefixFn = func(ctx context.Context, prefix string) (*APIKey, error) {
		if prefix == created.Key.KeyPrefix {
			cp := *created.Key
			return &cp, nil
		}
		return nil, nil
	}

	key, err := svc.AuthenticateKey(context.Background(), created.RawKey)
	if err != nil {
		t.Fatalf("AuthenticateKey: %v", err)
	}
	if key.ID != 7 || key.WorldID != "w1" {
		t.Errorf("unexpected key %+v", key)
	}
}

func TestAuthenticateKey_Rejections(t *testing.T) {
	hashed := &APIKey{
		ID:        1,
		KeyPrefix: "tk_aaaaa",
		KeyHash:   "$2a$10$invalidhashinvalidhashinvalidhashinvalidhashinvalidha",
		IsActive:  true,
	}
	repo := &mockKeyRepo{
		findKeyByPrefixFn: func(ctx context.Context, prefix string) (*APIKey, error) {
			if prefix == hashed.KeyPrefix {
				cp := *hashed
				return &cp, nil
			}
			return nil, nil
		},
	}
	svc := NewKeyService(repo, 120)
	ctx := context.Background()

	// Too short to carry a prefix.
	_, err := svc.AuthenticateKey(ctx, "tk_")
	assertAppErrorCode(t, err, http.StatusBadRequest)

	// Unknown prefix.
	_, err = svc.AuthenticateKey(ctx, "tk_zzzzz"+strings.Repeat("0", 64))
	assertAppErrorCode(t, err, http.StatusForbidden)

	// Known prefix, wrong secret.
	_, err = svc.AuthenticateKey(ctx, "tk_aaaaa"+strings.Repeat("0", 64))
	assertAppErrorCode(t, err, http.StatusForbidden)
}

func TestAuthenticateKey_InactiveAndExpired(t *testing.T) {
	repo := &mockKeyRepo{
		createKeyFn: func(ctx context.Context, key *APIKey) error {
			key.ID = 1
			return nil
		},
	}
	svc := NewKeyService(repo, 120)

	created, err := svc.CreateKey(context.Background(), CreateKeyInput{
		Name:        "stale",
		WorldID:     "w1",
		Permissions: []Permission{PermRead},
	})
	if err != nil {
		t.Fatalf("CreateKey: %v", err)
	}

	t.Run("deactivated", func(t *testing.T) {
		cp := *created.Key
		cp.IsActive = false
		repo.findKeyByPrefixFn = func(ctx context.Context, prefix string) (*APIKey, error) {
			k := cp
			return &k, nil
		}
		_, err := svc.AuthenticateKey(context.Background(), created.RawKey)
		assertAppErrorCode(t, err, http.StatusForbidden)
	})

	t.Run("expired", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		cp := *created.Key
		cp.ExpiresAt = &past
		repo.findKeyByPrefixFn = func(ctx context.Context, prefix string) (*APIKey, error) {
			k := cp
			return &k, nil
		}
		_, err := svc.AuthenticateKey(context.Background(), created.RawKey)
		assertAppErrorCode(t, err, http.StatusForbidden)
	})
}

func TestGetKey_NotFound(t *testing.T) {
	svc := NewKeyService(&mockKeyRepo{}, 120)
	_, err := svc.GetKey(context.Background(), 99)
	assertAppErrorCode(t, err, http.StatusNotFound)
}
