// Package mock provides an in-memory implementation of [call.Caller] for
// unit tests. It records every method call so tests can assert on call
// counts and arguments, and exposes exported fields to control return values.
package mock

import (
	"context"
	"sync"

	"github.com/kanade-bot/kanade/pkg/call"
)

// Compile-time interface assertion.
var _ call.Caller = (*Caller)(nil)

// EnqueueCall records one Enqueue invocation.
type EnqueueCall struct {
	GuildID string
	PCM     []byte
}

// JoinCall records one JoinMuted invocation.
type JoinCall struct {
	GuildID   string
	ChannelID string
}

// Caller is a mock [call.Caller]. Connection state is tracked per guild:
// JoinMuted marks a guild connected, Leave disconnects it. Set the *Error
// fields to force failures.
type Caller struct {
	mu sync.Mutex

	// Connected holds the guilds currently treated as voice-connected.
	// JoinMuted and Leave mutate it; tests may pre-populate it.
	Connected map[string]bool

	// JoinError, LeaveError, EnqueueError, SkipError are returned by the
	// corresponding methods when non-nil.
	JoinError    error
	LeaveError   error
	EnqueueError error
	SkipError    error

	// JoinCalls, LeaveCalls, EnqueueCalls, SkipCalls record invocations in order.
	JoinCalls    []JoinCall
	LeaveCalls   []string
	EnqueueCalls []EnqueueCall
	SkipCalls    []string
}

// IsConnected implements [call.Caller].
func (c *Caller) IsConnected(guildID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Connected[guildID]
}

// JoinMuted implements [call.Caller].
func (c *Caller) JoinMuted(_ context.Context, guildID, channelID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.JoinCalls = append(c.JoinCalls, JoinCall{GuildID: guildID, ChannelID: channelID})
	if c.JoinError != nil {
		return c.JoinError
	}
	if c.Connected == nil {
		c.Connected = make(map[string]bool)
	}
	c.Connected[guildID] = true
	return nil
}

// Leave implements [call.Caller].
func (c *Caller) Leave(_ context.Context, guildID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LeaveCalls = append(c.LeaveCalls, guildID)
	if c.LeaveError != nil {
		return c.LeaveError
	}
	delete(c.Connected, guildID)
	return nil
}

// Enqueue implements [call.Caller].
func (c *Caller) Enqueue(guildID string, pcm []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.EnqueueCalls = append(c.EnqueueCalls, EnqueueCall{GuildID: guildID, PCM: pcm})
	return c.EnqueueError
}

// Skip implements [call.Caller].
func (c *Caller) Skip(guildID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SkipCalls = append(c.SkipCalls, guildID)
	return c.SkipError
}
