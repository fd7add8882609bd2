// Package store persists integration configs and sync statuses in Postgres.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hubsync/hubsync/internal/hub"
	"github.com/hubsync/hubsync/internal/secrets"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, errors.New("store pool is nil")
	}
	return &Store{pool: pool}, nil
}

// Connect opens a pool and verifies connectivity before returning it.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func (s *Store) SaveConfig(ctx context.Context, cfg hub.IntegrationConfig) error {
	settings, err := json.Marshal(cfg.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	var credentials []byte
	if cfg.Credentials != nil {
		credentials, err = json.Marshal(cfg.Credentials)
		if err != nil {
			return fmt.Errorf("encode credentials: %w", err)
		}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO integration_configs (id, name, type, enabled, settings, credentials, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			enabled = EXCLUDED.enabled,
			settings = EXCLUDED.settings,
			credentials = EXCLUDED.credentials,
			updated_at = now()
	`, cfg.ID, cfg.Name, string(cfg.Type), cfg.Enabled, settings, credentials)
	if err != nil {
		return fmt.Errorf("save integration %s: %w", cfg.ID, err)
	}
	return nil
}

func (s *Store) DeleteConfig(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM integration_configs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete integration %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListConfigs(ctx context.Context) ([]hub.IntegrationConfig, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, type, enabled, settings, credentials
		FROM integration_configs
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}
	defer rows.Close()

	var out []hub.IntegrationConfig
	for rows.Next() {
		var (
			cfg         hub.IntegrationConfig
			typ         string
			settings    []byte
			credentials []byte
		)
		if err := rows.Scan(&cfg.ID, &cfg.Name, &typ, &cfg.Enabled, &settings, &credentials); err != nil {
			return nil, fmt.Errorf("scan integration row: %w", err)
		}
		cfg.Type = hub.IntegrationType(typ)
		if len(settings) > 0 {
			if err := json.Unmarshal(settings, &cfg.Settings); err != nil {
				return nil, fmt.Errorf("decode settings for %s: %w", cfg.ID, err)
			}
		}
		if len(credentials) > 0 {
			var creds secrets.Credentials
			if err := json.Unmarshal(credentials, &creds); err != nil {
				return nil, fmt.Errorf("decode credentials for %s: %w", cfg.ID, err)
			}
			cfg.Credentials = &creds
		}
		out = append(out, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}
	return out, nil
}

func (s *Store) SaveStatus(ctx context.Context, st hub.IntegrationStatus) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO integration_statuses (integration_id, state, last_sync, last_error, checked_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (integration_id) DO UPDATE SET
			state = EXCLUDED.state,
			last_sync = EXCLUDED.last_sync,
			last_error = EXCLUDED.last_error,
			checked_at = EXCLUDED.checked_at
	`, st.IntegrationID, string(st.State), st.LastSync, nullableText(st.LastError), st.CheckedAt)
	if err != nil {
		return fmt.Errorf("save status for %s: %w", st.IntegrationID, err)
	}
	return nil
}

func (s *Store) DeleteStatus(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM integration_statuses WHERE integration_id = $1`, id); err != nil {
		return fmt.Errorf("delete status for %s: %w", id, err)
	}
	return nil
}

// GetStatus reads one persisted status row. Missing rows come back as
// (nil, nil) so callers can fall through to the unknown default.
func (s *Store) GetStatus(ctx context.Context, id string) (*hub.IntegrationStatus, error) {
	var (
		st        hub.IntegrationStatus
		state     string
		lastError *string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT integration_id, state, last_sync, last_error, checked_at
		FROM integration_statuses
		WHERE integration_id = $1
	`, id).Scan(&st.IntegrationID, &state, &st.LastSync, &lastError, &st.CheckedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get status for %s: %w", id, err)
	}
	st.State = hub.HealthState(state)
	if lastError != nil {
		st.LastError = *lastError
	}
	return &st, nil
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
