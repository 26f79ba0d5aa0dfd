// Package session holds the per-guild runtime state for kanade: which
// guilds are voice-connected and to which channels ([Store]), per-guild
// behaviour toggles ([Settings]), and hourly announcement configuration
// ([AnnounceStore]).
//
// All three types are constructed once at startup and passed explicitly to
// the components that need them; none of this state lives in package-level
// variables. Presence of a [GuildSession] in the [Store] is the core's sole
// authority for "this guild is voice-connected".
package session

import (
	"hash/fnv"
	"sync"
	"time"
)

// storeShards is the number of lock shards in a [Store]. Guilds hash onto
// shards so that mutations for different guilds rarely contend and never
// take a global lock.
const storeShards = 16

// SpokenMessage identifies the most recently spoken message in a guild.
// Used by the author-announcement continuity heuristic.
type SpokenMessage struct {
	AuthorID  string
	Timestamp time.Time
}

// GuildSession is the state of one voice-connected guild.
type GuildSession struct {
	// GuildID is the owning guild.
	GuildID string

	// BoundTextChannelID is the channel whose messages are read aloud.
	BoundTextChannelID string

	// JoinedVoiceChannelID is the connected voice channel. Empty until the
	// join has succeeded.
	JoinedVoiceChannelID string

	// LastSpoken references the most recently spoken message, or nil when
	// nothing has been spoken yet in this session.
	LastSpoken *SpokenMessage
}

// Store is a concurrent map from guild ID to [GuildSession] with per-shard
// locking. A snapshot of one shard never blocks mutations on other shards.
//
// All methods are safe for concurrent use.
type Store struct {
	shards [storeShards]storeShard
}

type storeShard struct {
	mu       sync.RWMutex
	sessions map[string]*GuildSession
}

// NewStore creates an empty Store.
func NewStore() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i].sessions = make(map[string]*GuildSession)
	}
	return s
}

func (s *Store) shard(guildID string) *storeShard {
	h := fnv.New32a()
	h.Write([]byte(guildID))
	return &s.shards[h.Sum32()%storeShards]
}

// Insert stores a session, replacing any existing entry for the guild.
// A copy is taken; the caller's value is not retained.
func (s *Store) Insert(sess GuildSession) {
	sh := s.shard(sess.GuildID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	cp := sess
	sh.sessions[sess.GuildID] = &cp
}

// Remove deletes the guild's session. Removing an absent guild is a no-op.
func (s *Store) Remove(guildID string) {
	sh := s.shard(guildID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.sessions, guildID)
}

// Get returns a copy of the guild's session. ok is false when the guild is
// not voice-connected.
func (s *Store) Get(guildID string) (GuildSession, bool) {
	sh := s.shard(guildID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	sess, ok := sh.sessions[guildID]
	if !ok {
		return GuildSession{}, false
	}
	return *sess, true
}

// Update applies fn to the guild's session under the shard's exclusive lock
// and reports whether the session existed. fn must not block on external
// calls; it receives the live entry and may mutate it in place.
func (s *Store) Update(guildID string, fn func(*GuildSession)) bool {
	sh := s.shard(guildID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sess, ok := sh.sessions[guildID]
	if !ok {
		return false
	}
	fn(sess)
	return true
}

// Snapshot returns copies of all sessions. Shards are locked one at a time,
// so concurrent inserts/removes on other shards proceed unblocked; the
// result is a point-in-time view per shard, not a global atomic snapshot.
func (s *Store) Snapshot() []GuildSession {
	var out []GuildSession
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for _, sess := range sh.sessions {
			out = append(out, *sess)
		}
		sh.mu.RUnlock()
	}
	return out
}

// Len returns the number of voice-connected guilds.
func (s *Store) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}
