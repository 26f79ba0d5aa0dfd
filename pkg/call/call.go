// Package call defines the voice-transport abstraction for kanade: joining
// and leaving guild voice channels and queueing PCM audio for playback.
//
// The interface is intentionally narrow so the dispatch pipeline and the
// scheduler stay decoupled from the Discord SDK. The production
// implementation lives in call/discord; call/mock provides a recording fake
// for tests.
package call

import (
	"context"
	"errors"
)

// ErrNotConnected is returned by playback operations when the guild has no
// active voice connection.
var ErrNotConnected = errors.New("call: not connected to a voice channel")

// ErrQueueFull is returned by Enqueue when the guild's playback queue cannot
// accept more audio without blocking.
var ErrQueueFull = errors.New("call: playback queue is full")

// Caller manages voice connections and playback, one connection per guild.
//
// Implementations must be safe for concurrent use; dispatch tasks for
// different guilds call these methods simultaneously.
type Caller interface {
	// IsConnected reports whether the guild currently has a live voice
	// connection. This is the transport's own view and wins over any cached
	// session state on mismatch.
	IsConnected(guildID string) bool

	// JoinMuted connects to the given voice channel without listening to
	// incoming audio. Joining while already connected moves the connection.
	JoinMuted(ctx context.Context, guildID, channelID string) error

	// Leave disconnects from voice and discards any queued audio.
	// Leaving while not connected is a no-op.
	Leave(ctx context.Context, guildID string) error

	// Enqueue appends 48 kHz stereo int16 PCM to the guild's playback queue.
	// Tracks play in order; Enqueue returns before playback completes.
	Enqueue(guildID string, pcm []byte) error

	// Skip aborts the currently playing track, if any. Queued tracks are
	// unaffected.
	Skip(guildID string) error
}
