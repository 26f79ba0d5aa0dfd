package session

import "sync"

// guildSettings holds the per-guild toggles that survive voice disconnects.
type guildSettings struct {
	autojoinDisabled bool // zero value keeps autojoin enabled by default
	defaultVoiceID   string
	defaultTextID    string
}

// Settings tracks per-guild behaviour configuration: the autojoin toggle and
// the default voice/text channels it targets. Defaults: autojoin enabled,
// no default channels.
//
// Safe for concurrent use.
type Settings struct {
	mu     sync.RWMutex
	guilds map[string]*guildSettings
}

// NewSettings creates a Settings with every guild at defaults.
func NewSettings() *Settings {
	return &Settings{guilds: make(map[string]*guildSettings)}
}

func (s *Settings) guild(guildID string) *guildSettings {
	g, ok := s.guilds[guildID]
	if !ok {
		g = &guildSettings{}
		s.guilds[guildID] = g
	}
	return g
}

// AutojoinEnabled reports whether autojoin is on for the guild.
func (s *Settings) AutojoinEnabled(guildID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.guilds[guildID]
	return !ok || !g.autojoinDisabled
}

// ToggleAutojoin flips the autojoin setting and returns the new value.
func (s *Settings) ToggleAutojoin(guildID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.guild(guildID)
	g.autojoinDisabled = !g.autojoinDisabled
	return !g.autojoinDisabled
}

// DefaultVoiceChannel returns the configured autojoin voice channel, if any.
func (s *Settings) DefaultVoiceChannel(guildID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.guilds[guildID]
	if !ok || g.defaultVoiceID == "" {
		return "", false
	}
	return g.defaultVoiceID, true
}

// SetDefaultVoiceChannel sets the voice channel autojoin watches.
func (s *Settings) SetDefaultVoiceChannel(guildID, channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guild(guildID).defaultVoiceID = channelID
}

// DefaultTextChannel returns the configured default text channel, if any.
// It is both the autojoin binding target and an always-eligible source of
// messages to read.
func (s *Settings) DefaultTextChannel(guildID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.guilds[guildID]
	if !ok || g.defaultTextID == "" {
		return "", false
	}
	return g.defaultTextID, true
}

// SetDefaultTextChannel sets the default text channel.
func (s *Settings) SetDefaultTextChannel(guildID, channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guild(guildID).defaultTextID = channelID
}
