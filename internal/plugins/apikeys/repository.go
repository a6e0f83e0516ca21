package apikeys

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// KeyRepository defines persistence operations for API keys.
type KeyRepository interface {
	CreateKey(ctx context.Context, key *APIKey) error
	FindKeyByID(ctx context.Context, id int) (*APIKey, error)
	FindKeyByPrefix(ctx context.Context, prefix string) (*APIKey, error)
	ListKeysByWorld(ctx context.Context, worldID string) ([]APIKey, error)
	UpdateKeyActive(ctx context.Context, id int, active bool) error
	UpdateKeyLastUsed(ctx context.Context, id int, ip string) error
	DeleteKey(ctx context.Context, id int) error
}

// keyRepo is the MariaDB implementation of KeyRepository.
type keyRepo struct {
	db *sql.DB
}

// NewKeyRepository creates a new MariaDB-backed key repository.
func NewKeyRepository(db *sql.DB) KeyRepository {
	return &keyRepo{db: db}
}

// keyCols is the column list for key queries.
const keyCols = `id, key_hash, key_prefix, name, world_id, permissions,
       rate_limit, is_active, last_used_at, last_used_ip, expires_at,
       created_at, updated_at`

// scanKey reads a row into an APIKey struct. Permissions are stored as a
// JSON array in a single column.
func scanKey(scanner interface{ Scan(...any) error }) (*APIKey, error) {
	key := &APIKey{}
	var perms []byte
	err := scanner.Scan(&key.ID, &key.KeyHash, &key.KeyPrefix, &key.Name, &key.WorldID,
		&perms, &key.RateLimit, &key.IsActive,
		&key.LastUsedAt, &key.LastUsedIP, &key.ExpiresAt,
		&key.CreatedAt, &key.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(perms, &key.Permissions); err != nil {
		return nil, fmt.Errorf("decoding key permissions: %w", err)
	}
	return key, nil
}

// CreateKey inserts a new API key and fills in the generated ID.
func (r *keyRepo) CreateKey(ctx context.Context, key *APIKey) error {
	perms, err := json.Marshal(key.Permissions)
	if err != nil {
		return fmt.Errorf("encoding key permissions: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, key_prefix, name, world_id, permissions,
		        rate_limit, is_active, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		key.KeyHash, key.KeyPrefix, key.Name, key.WorldID, perms,
		key.RateLimit, key.IsActive, key.ExpiresAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	key.ID = int(id)
	return nil
}

// FindKeyByID returns a key by its ID, or nil when absent.
func (r *keyRepo) FindKeyByID(ctx context.Context, id int) (*APIKey, error) {
	return scanKey(r.db.QueryRowContext(ctx,
		`SELECT `+keyCols+` FROM api_keys WHERE id = ?`, id))
}

// FindKeyByPrefix returns a key by its display prefix, or nil when absent.
func (r *keyRepo) FindKeyByPrefix(ctx context.Context, prefix string) (*APIKey, error) {
	return scanKey(r.db.QueryRowContext(ctx,
		`SELECT `+keyCols+` FROM api_keys WHERE key_prefix = ?`, prefix))
}

// ListKeysByWorld returns all keys scoped to a world.
func (r *keyRepo) ListKeysByWorld(ctx context.Context, worldID string) ([]APIKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+keyCols+` FROM api_keys WHERE world_id = ? ORDER BY created_at`, worldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		key, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, *key)
	}
	return keys, rows.Err()
}

// UpdateKeyActive enables or disables a key.
func (r *keyRepo) UpdateKeyActive(ctx context.Context, id int, active bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET is_active = ? WHERE id = ?`, active, id)
	return err
}

// UpdateKeyLastUsed records when and from where a key last authenticated.
func (r *keyRepo) UpdateKeyLastUsed(ctx context.Context, id int, ip string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), last_used_ip = ? WHERE id = ?`, ip, id)
	return err
}

// DeleteKey permanently removes a key.
func (r *keyRepo) DeleteKey(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	return err
}
