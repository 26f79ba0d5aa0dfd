// Package store defines persistence for per-guild dictionary entries and
// per-user voice preferences. The production implementation is PostgreSQL
// via pgx ([NewPostgres]); [MemStore] backs unit tests.
package store

import (
	"context"
	"errors"
)

// ErrWordExists is returned by [Dictionary.Insert] when the word is already
// registered for the guild.
var ErrWordExists = errors.New("store: word already registered")

// ErrWordMissing is returned by [Dictionary.Remove] when the word is not
// registered for the guild.
var ErrWordMissing = errors.New("store: word not registered")

// Entry is one dictionary rewrite rule: occurrences of Word in a message are
// spoken as ReadAs.
type Entry struct {
	Word   string
	ReadAs string
}

// Dictionary is the per-guild pronunciation dictionary.
//
// Implementations must be safe for concurrent use.
type Dictionary interface {
	// GetAll returns the guild's complete dictionary. Duplicate words cannot
	// occur (enforced by Insert); order is unspecified.
	GetAll(ctx context.Context, guildID string) ([]Entry, error)

	// Insert registers a new rewrite rule. Returns [ErrWordExists] if the
	// word is already present for the guild.
	Insert(ctx context.Context, guildID, word, readAs string) error

	// Remove deletes a rewrite rule. Returns [ErrWordMissing] if the word is
	// not present for the guild.
	Remove(ctx context.Context, guildID, word string) error
}

// VoicePrefs stores each user's preferred synthesis preset per guild.
//
// Implementations must be safe for concurrent use.
type VoicePrefs interface {
	// PreferredPreset returns the stored preset for the (guild, user) pair.
	// ok is false when no preference is stored.
	PreferredPreset(ctx context.Context, guildID, userID string) (presetID int64, ok bool, err error)

	// SetPreferredPreset stores or replaces the preference.
	SetPreferredPreset(ctx context.Context, guildID, userID string, presetID int64) error

	// ClearPreferredPreset removes the preference. Clearing an absent
	// preference is a no-op.
	ClearPreferredPreset(ctx context.Context, guildID, userID string) error
}
