package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/swipe/internal/models"
)

const (
	accessTokenSuffix  = "_access_token"
	refreshTokenSuffix = "_refresh_token"
	expirySuffix       = "_token_expiry"
)

// credentialKeys returns the access, refresh and expiry keys for p.
func credentialKeys(p models.Provider) (access, refresh, expiry string) {
	prefix := p.String()
	return prefix + accessTokenSuffix, prefix + refreshTokenSuffix, prefix + expirySuffix
}

// CredentialRepository implements [models.TokenStore] on top of the credentials table.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection.
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Get returns the stored credential for p, or (nil, nil) when no access token is stored.
//
// A missing or unreadable expiry yields a zero Expiry, which callers treat as expired.
func (r *CredentialRepository) Get(ctx context.Context, p models.Provider) (*models.Credential, error) {
	accessKey, refreshKey, expiryKey := credentialKeys(p)

	rows, err := r.db.QueryContext(ctx,
		"SELECT key, value FROM credentials WHERE key IN (?, ?, ?)",
		accessKey, refreshKey, expiryKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, 3)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	access := values[accessKey]
	if access == "" {
		return nil, nil
	}

	cred := &models.Credential{AccessToken: access, RefreshToken: values[refreshKey]}
	if ms, err := strconv.ParseInt(values[expiryKey], 10, 64); err == nil {
		cred.Expiry = time.UnixMilli(ms)
	}
	return cred, nil
}

// Put replaces the stored credential for p in a single transaction.
//
// An empty RefreshToken removes any previously stored refresh token.
func (r *CredentialRepository) Put(ctx context.Context, p models.Provider, c *models.Credential) error {
	accessKey, refreshKey, expiryKey := credentialKeys(p)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	pairs := [][2]string{
		{accessKey, c.AccessToken},
		{expiryKey, strconv.FormatInt(c.Expiry.UnixMilli(), 10)},
	}
	if c.RefreshToken != "" {
		pairs = append(pairs, [2]string{refreshKey, c.RefreshToken})
	} else if _, err := tx.ExecContext(ctx, "DELETE FROM credentials WHERE key = ?", refreshKey); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	for _, kv := range pairs {
		if _, err := tx.ExecContext(ctx, upsert, kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to store %s: %w", kv[0], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit credentials: %w", err)
	}
	return nil
}

// Clear removes every key stored for p.
func (r *CredentialRepository) Clear(ctx context.Context, p models.Provider) error {
	accessKey, refreshKey, expiryKey := credentialKeys(p)

	_, err := r.db.ExecContext(ctx,
		"DELETE FROM credentials WHERE key IN (?, ?, ?)",
		accessKey, refreshKey, expiryKey,
	)
	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
