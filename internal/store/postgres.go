package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time interface checks.
var (
	_ Dictionary = (*Postgres)(nil)
	_ VoicePrefs = (*Postgres)(nil)
)

// schema holds the DDL applied by [NewPostgres] on startup. Statements are
// idempotent so repeated startups are safe.
const schema = `
CREATE TABLE IF NOT EXISTS dictionary_entries (
	guild_id TEXT NOT NULL,
	word     TEXT NOT NULL,
	read_as  TEXT NOT NULL,
	PRIMARY KEY (guild_id, word)
);

CREATE TABLE IF NOT EXISTS voice_preferences (
	guild_id  TEXT NOT NULL,
	user_id   TEXT NOT NULL,
	preset_id BIGINT NOT NULL,
	PRIMARY KEY (guild_id, user_id)
);
`

// Postgres implements [Dictionary] and [VoicePrefs] on a pgx connection
// pool. All operations are safe for concurrent use.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database at dsn, verifies connectivity, and
// ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Ping verifies database connectivity. Used as a readiness check.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases all pooled connections.
func (p *Postgres) Close() {
	p.pool.Close()
}

// GetAll implements [Dictionary].
func (p *Postgres) GetAll(ctx context.Context, guildID string) ([]Entry, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT word, read_as FROM dictionary_entries WHERE guild_id = $1 ORDER BY word`,
		guildID)
	if err != nil {
		return nil, fmt.Errorf("store: query dictionary: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Word, &e.ReadAs); err != nil {
			return nil, fmt.Errorf("store: scan dictionary row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: read dictionary rows: %w", err)
	}
	return entries, nil
}

// Insert implements [Dictionary].
func (p *Postgres) Insert(ctx context.Context, guildID, word, readAs string) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO dictionary_entries (guild_id, word, read_as) VALUES ($1, $2, $3)`,
		guildID, word, readAs)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrWordExists
		}
		return fmt.Errorf("store: insert dictionary entry: %w", err)
	}
	return nil
}

// Remove implements [Dictionary].
func (p *Postgres) Remove(ctx context.Context, guildID, word string) error {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM dictionary_entries WHERE guild_id = $1 AND word = $2`,
		guildID, word)
	if err != nil {
		return fmt.Errorf("store: remove dictionary entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWordMissing
	}
	return nil
}

// PreferredPreset implements [VoicePrefs].
func (p *Postgres) PreferredPreset(ctx context.Context, guildID, userID string) (int64, bool, error) {
	var presetID int64
	err := p.pool.QueryRow(ctx,
		`SELECT preset_id FROM voice_preferences WHERE guild_id = $1 AND user_id = $2`,
		guildID, userID).Scan(&presetID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("store: query voice preference: %w", err)
	}
	return presetID, true, nil
}

// SetPreferredPreset implements [VoicePrefs].
func (p *Postgres) SetPreferredPreset(ctx context.Context, guildID, userID string, presetID int64) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO voice_preferences (guild_id, user_id, preset_id) VALUES ($1, $2, $3)
		 ON CONFLICT (guild_id, user_id) DO UPDATE SET preset_id = EXCLUDED.preset_id`,
		guildID, userID, presetID)
	if err != nil {
		return fmt.Errorf("store: set voice preference: %w", err)
	}
	return nil
}

// ClearPreferredPreset implements [VoicePrefs].
func (p *Postgres) ClearPreferredPreset(ctx context.Context, guildID, userID string) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM voice_preferences WHERE guild_id = $1 AND user_id = $2`,
		guildID, userID)
	if err != nil {
		return fmt.Errorf("store: clear voice preference: %w", err)
	}
	return nil
}
