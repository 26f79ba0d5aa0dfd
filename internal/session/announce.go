package session

import "sync"

// Chime is an optional pre-fetched audio payload played with the hourly
// announcement.
type Chime struct {
	// PCM is decoded 48 kHz stereo audio ready for the voice transport.
	PCM []byte

	// SourceURL records where the audio was fetched from.
	SourceURL string
}

// AnnouncementConfig is one guild's hourly announcement state. Announcements
// default to enabled; the config is created lazily on first access.
type AnnouncementConfig struct {
	Enabled bool
	Chime   *Chime

	// LastAnnouncedHour is the hour of day (0–23) of the most recent
	// successful announcement, or nil if none has fired since the last
	// toggle. It guards against repeat firing within the same hour.
	LastAnnouncedHour *int
}

// AnnounceStore owns every guild's [AnnouncementConfig]. It persists across
// voice disconnects; announcements simply stay dormant until the guild
// reconnects.
//
// Safe for concurrent use.
type AnnounceStore struct {
	mu     sync.RWMutex
	guilds map[string]*AnnouncementConfig
}

// NewAnnounceStore creates an empty AnnounceStore.
func NewAnnounceStore() *AnnounceStore {
	return &AnnounceStore{guilds: make(map[string]*AnnouncementConfig)}
}

func (a *AnnounceStore) guild(guildID string) *AnnouncementConfig {
	cfg, ok := a.guilds[guildID]
	if !ok {
		cfg = &AnnouncementConfig{Enabled: true}
		a.guilds[guildID] = cfg
	}
	return cfg
}

// Enabled reports whether announcements are on for the guild.
func (a *AnnounceStore) Enabled(guildID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	cfg, ok := a.guilds[guildID]
	return !ok || cfg.Enabled
}

// Toggle flips the enabled state and returns the new value. Every toggle
// clears LastAnnouncedHour so a re-enable within the same hour fires again.
func (a *AnnounceStore) Toggle(guildID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	cfg := a.guild(guildID)
	cfg.Enabled = !cfg.Enabled
	cfg.LastAnnouncedHour = nil
	return cfg.Enabled
}

// SetChime stores the guild's chime audio.
func (a *AnnounceStore) SetChime(guildID string, chime Chime) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := chime
	a.guild(guildID).Chime = &cp
}

// ClearChime removes the guild's chime audio.
func (a *AnnounceStore) ClearChime(guildID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.guild(guildID).Chime = nil
}

// ChimeFor returns a copy of the guild's chime, if configured.
func (a *AnnounceStore) ChimeFor(guildID string) (Chime, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	cfg, ok := a.guilds[guildID]
	if !ok || cfg.Chime == nil {
		return Chime{}, false
	}
	return *cfg.Chime, true
}

// Due reports whether the guild should announce for the given hour:
// announcements enabled and the hour not yet announced. Scheduler jitter or
// a restart within the same minute therefore cannot double-fire.
func (a *AnnounceStore) Due(guildID string, hour int) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	cfg, ok := a.guilds[guildID]
	if !ok {
		return true // default enabled, nothing announced yet
	}
	if !cfg.Enabled {
		return false
	}
	return cfg.LastAnnouncedHour == nil || *cfg.LastAnnouncedHour != hour
}

// MarkAnnounced records a successful announcement for the hour.
func (a *AnnounceStore) MarkAnnounced(guildID string, hour int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	h := hour
	a.guild(guildID).LastAnnouncedHour = &h
}
