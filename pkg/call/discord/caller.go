// Package discord implements [call.Caller] on top of bwmarrin/discordgo
// voice connections. Each connected guild gets a playback goroutine that
// Opus-encodes queued PCM tracks and writes them to the voice gateway.
//
// The bot joins self-deafened: kanade only speaks, it never listens.
package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/kanade-bot/kanade/pkg/call"
)

// Compile-time interface assertion.
var _ call.Caller = (*Caller)(nil)

// Caller implements [call.Caller] using a shared *discordgo.Session.
// It is safe for concurrent use.
type Caller struct {
	session *discordgo.Session

	mu      sync.Mutex
	players map[string]*player // guildID → active player
	conns   map[string]*discordgo.VoiceConnection
}

// New creates a Caller for the given session. The session must be opened by
// the bot layer before any voice operation is attempted.
func New(session *discordgo.Session) *Caller {
	return &Caller{
		session: session,
		players: make(map[string]*player),
		conns:   make(map[string]*discordgo.VoiceConnection),
	}
}

// IsConnected implements [call.Caller].
func (c *Caller) IsConnected(guildID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	vc, ok := c.conns[guildID]
	return ok && vc != nil
}

// JoinMuted implements [call.Caller]. mute=false (the bot sends audio),
// deaf=true (it never receives any).
func (c *Caller) JoinMuted(_ context.Context, guildID, channelID string) error {
	vc, err := c.session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return fmt.Errorf("call: join voice channel %q: %w", channelID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Rejoin within the same guild moves the connection; reuse the player.
	if old, ok := c.players[guildID]; ok {
		old.stop()
	}

	p, err := newPlayer(guildID, &voiceSink{vc: vc})
	if err != nil {
		_ = vc.Disconnect()
		return err
	}
	c.players[guildID] = p
	c.conns[guildID] = vc
	return nil
}

// Leave implements [call.Caller].
func (c *Caller) Leave(_ context.Context, guildID string) error {
	c.mu.Lock()
	p := c.players[guildID]
	vc := c.conns[guildID]
	delete(c.players, guildID)
	delete(c.conns, guildID)
	c.mu.Unlock()

	if p != nil {
		p.stop()
	}
	if vc == nil {
		return nil
	}
	if err := vc.Disconnect(); err != nil {
		return fmt.Errorf("call: disconnect guild %q: %w", guildID, err)
	}
	return nil
}

// Enqueue implements [call.Caller].
func (c *Caller) Enqueue(guildID string, pcm []byte) error {
	c.mu.Lock()
	p := c.players[guildID]
	c.mu.Unlock()

	if p == nil {
		return call.ErrNotConnected
	}
	if !p.enqueue(pcm) {
		return call.ErrQueueFull
	}
	return nil
}

// Skip implements [call.Caller].
func (c *Caller) Skip(guildID string) error {
	c.mu.Lock()
	p := c.players[guildID]
	c.mu.Unlock()

	if p == nil {
		return call.ErrNotConnected
	}
	p.requestSkip()
	return nil
}

// Close tears down all voice connections. Called during bot shutdown.
func (c *Caller) Close() {
	c.mu.Lock()
	players := c.players
	conns := c.conns
	c.players = make(map[string]*player)
	c.conns = make(map[string]*discordgo.VoiceConnection)
	c.mu.Unlock()

	for _, p := range players {
		p.stop()
	}
	for _, vc := range conns {
		_ = vc.Disconnect()
	}
}

// voiceSink adapts a *discordgo.VoiceConnection to the player's sink.
type voiceSink struct {
	vc *discordgo.VoiceConnection
}

func (s *voiceSink) SendOpus(packet []byte) bool {
	if !s.vc.Ready {
		return false
	}
	s.vc.OpusSend <- packet
	return true
}

func (s *voiceSink) SetSpeaking(speaking bool) {
	_ = s.vc.Speaking(speaking)
}
