package store

import (
	"context"
	"sort"
	"sync"
)

// Compile-time interface checks.
var (
	_ Dictionary = (*MemStore)(nil)
	_ VoicePrefs = (*MemStore)(nil)
)

// MemStore is an in-memory [Dictionary] and [VoicePrefs] used in tests and
// for running without a database. Safe for concurrent use.
type MemStore struct {
	mu    sync.RWMutex
	dict  map[string]map[string]string // guildID → word → readAs
	prefs map[string]map[string]int64  // guildID → userID → presetID
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		dict:  make(map[string]map[string]string),
		prefs: make(map[string]map[string]int64),
	}
}

// GetAll implements [Dictionary]. Entries are returned sorted by word for
// deterministic iteration.
func (m *MemStore) GetAll(_ context.Context, guildID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	words := m.dict[guildID]
	entries := make([]Entry, 0, len(words))
	for word, readAs := range words {
		entries = append(entries, Entry{Word: word, ReadAs: readAs})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Word < entries[j].Word })
	return entries, nil
}

// Insert implements [Dictionary].
func (m *MemStore) Insert(_ context.Context, guildID, word, readAs string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	words := m.dict[guildID]
	if words == nil {
		words = make(map[string]string)
		m.dict[guildID] = words
	}
	if _, exists := words[word]; exists {
		return ErrWordExists
	}
	words[word] = readAs
	return nil
}

// Remove implements [Dictionary].
func (m *MemStore) Remove(_ context.Context, guildID, word string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	words := m.dict[guildID]
	if _, exists := words[word]; !exists {
		return ErrWordMissing
	}
	delete(words, word)
	return nil
}

// PreferredPreset implements [VoicePrefs].
func (m *MemStore) PreferredPreset(_ context.Context, guildID, userID string) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	presetID, ok := m.prefs[guildID][userID]
	return presetID, ok, nil
}

// SetPreferredPreset implements [VoicePrefs].
func (m *MemStore) SetPreferredPreset(_ context.Context, guildID, userID string, presetID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := m.prefs[guildID]
	if users == nil {
		users = make(map[string]int64)
		m.prefs[guildID] = users
	}
	users[userID] = presetID
	return nil
}

// ClearPreferredPreset implements [VoicePrefs].
func (m *MemStore) ClearPreferredPreset(_ context.Context, guildID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.prefs[guildID], userID)
	return nil
}
