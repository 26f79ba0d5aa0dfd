// Package dispatch runs the per-message decision pipeline: filter, command
// routing, auto-join, channel scoping, text normalization, voice resolution,
// synthesis, and playback enqueue. One Dispatch call handles one inbound
// chat message; calls are independent across guilds.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kanade-bot/kanade/internal/observe"
	"github.com/kanade-bot/kanade/internal/readtext"
	"github.com/kanade-bot/kanade/internal/session"
	"github.com/kanade-bot/kanade/internal/store"
	"github.com/kanade-bot/kanade/internal/voice"
	"github.com/kanade-bot/kanade/pkg/call"
)

// Message is the transport-agnostic view of an inbound chat message.
type Message struct {
	GuildID   string
	ChannelID string
	AuthorID  string

	// AuthorName is the display name read aloud when the speaker changes.
	AuthorName string

	// AuthorBot marks messages from the bot itself or any other bot.
	AuthorBot bool

	Content   string
	Timestamp time.Time
}

// Speech synthesizes speakable PCM for a resolved voice.
type Speech interface {
	SpeakPreset(ctx context.Context, text string, presetID int64) ([]byte, error)
	SpeakStyle(ctx context.Context, text string, styleID int64) ([]byte, error)
}

// Presence answers voice-presence questions from gateway state.
type Presence interface {
	// VoiceChannelOf returns the voice channel the user currently
	// occupies, or false if they are not in voice.
	VoiceChannelOf(guildID, userID string) (string, bool)
}

// PrefixRouter recognizes and handles textual prefix commands. Handled
// messages are consumed before any speaking logic runs.
type PrefixRouter interface {
	// HandlePrefix returns true if the message was a command.
	HandlePrefix(ctx context.Context, msg Message) bool
}

// Resolver picks a synthesis voice for a speaking user.
type Resolver interface {
	Resolve(ctx context.Context, guildID, userID string) (voice.Selection, error)
}

// Dictionary is the read side of the guild word dictionary.
type Dictionary interface {
	GetAll(ctx context.Context, guildID string) ([]store.Entry, error)
}

// NameResolver looks up display names for mention tokens.
type NameResolver interface {
	MemberName(guildID, userID string) (string, bool)
	ChannelName(channelID string) (string, bool)
	RoleName(guildID, roleID string) (string, bool)
}

// Dispatcher wires the pipeline's collaborators together.
type Dispatcher struct {
	Sessions *session.Store
	Settings *session.Settings
	Caller   call.Caller
	Speech   Speech
	Voices   Resolver
	Dict     Dictionary
	Presence Presence
	Names    NameResolver

	// Prefix is optional; when nil no textual commands are recognized.
	Prefix PrefixRouter

	Metrics *observe.Metrics
	Log     *slog.Logger
}

// Dispatch processes one inbound message end to end. Drops are silent and
// return nil; collaborator failures are returned to the caller and leave the
// session's last-spoken marker untouched.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) error {
	log := d.logger().With("guild_id", msg.GuildID, "channel_id", msg.ChannelID)

	// Step 1: only human messages inside a guild are candidates.
	if msg.GuildID == "" || msg.AuthorBot {
		return nil
	}

	// Step 2: commands are evaluated regardless of voice state.
	if d.Prefix != nil && d.Prefix.HandlePrefix(ctx, msg) {
		return nil
	}

	// Step 3: session presence, reconciled against the transport, with
	// auto-join for authors already in voice.
	sess, ok := d.ensureSession(ctx, msg, log)
	if !ok {
		d.record(ctx, "dropped")
		return nil
	}

	// Step 4: speak only inside the session's logical room.
	if !d.channelInScope(msg, sess) {
		d.record(ctx, "dropped")
		return nil
	}

	// Step 5: build speakable text. Empty means nothing worth reading.
	text, err := d.buildText(ctx, msg, sess)
	if err != nil {
		d.record(ctx, "error")
		return err
	}
	if text == "" {
		d.record(ctx, "dropped")
		return nil
	}

	// Step 6: pick a voice.
	sel, err := d.Voices.Resolve(ctx, msg.GuildID, msg.AuthorID)
	if err != nil {
		d.record(ctx, "error")
		return fmt.Errorf("dispatch: resolve voice: %w", err)
	}

	// Steps 7–8: synthesize and enqueue.
	pcm, err := d.synthesize(ctx, text, sel)
	if err != nil {
		d.record(ctx, "error")
		return fmt.Errorf("dispatch: synthesize: %w", err)
	}
	if err := d.Caller.Enqueue(msg.GuildID, pcm); err != nil {
		if errors.Is(err, call.ErrNotConnected) {
			// The guild disconnected while synthesis was in flight.
			d.Sessions.Remove(msg.GuildID)
		}
		d.record(ctx, "error")
		return fmt.Errorf("dispatch: enqueue: %w", err)
	}

	// Step 9: only a spoken message advances the continuity marker.
	d.Sessions.Update(msg.GuildID, func(gs *session.GuildSession) {
		gs.LastSpoken = &session.SpokenMessage{AuthorID: msg.AuthorID, Timestamp: msg.Timestamp}
	})
	d.record(ctx, "spoken")
	log.Debug("message spoken", "author_id", msg.AuthorID, "text_len", len(text))
	return nil
}

// ensureSession returns the guild's session, self-healing disagreement with
// the transport and auto-joining when permitted.
func (d *Dispatcher) ensureSession(ctx context.Context, msg Message, log *slog.Logger) (session.GuildSession, bool) {
	sess, ok := d.Sessions.Get(msg.GuildID)
	if ok {
		if !d.Caller.IsConnected(msg.GuildID) {
			// The transport is the authority; drop the stale entry.
			log.Warn("session present but voice disconnected, healing")
			d.Sessions.Remove(msg.GuildID)
			if d.Metrics != nil {
				d.Metrics.ActiveSessions.Add(ctx, -1)
			}
			return session.GuildSession{}, false
		}
		return sess, true
	}

	if !d.Settings.AutojoinEnabled(msg.GuildID) {
		return session.GuildSession{}, false
	}
	voiceChannelID, inVoice := d.Presence.VoiceChannelOf(msg.GuildID, msg.AuthorID)
	if !inVoice {
		return session.GuildSession{}, false
	}

	if err := d.Caller.JoinMuted(ctx, msg.GuildID, voiceChannelID); err != nil {
		log.Error("autojoin failed", "err", err)
		return session.GuildSession{}, false
	}
	sess = session.GuildSession{
		GuildID:              msg.GuildID,
		BoundTextChannelID:   msg.ChannelID,
		JoinedVoiceChannelID: voiceChannelID,
	}
	d.Sessions.Insert(sess)
	if d.Metrics != nil {
		d.Metrics.ActiveSessions.Add(ctx, 1)
	}
	log.Info("autojoined voice channel", "voice_channel_id", voiceChannelID)
	return sess, true
}

// channelInScope reports whether the message belongs to the session's room:
// the bound text channel, the joined voice channel's text surface, or the
// configured default text channel.
func (d *Dispatcher) channelInScope(msg Message, sess session.GuildSession) bool {
	if msg.ChannelID == sess.BoundTextChannelID || msg.ChannelID == sess.JoinedVoiceChannelID {
		return true
	}
	if def, ok := d.Settings.DefaultTextChannel(msg.GuildID); ok && msg.ChannelID == def {
		return true
	}
	return false
}

func (d *Dispatcher) buildText(ctx context.Context, msg Message, sess session.GuildSession) (string, error) {
	dict, err := d.Dict.GetAll(ctx, msg.GuildID)
	if err != nil {
		return "", fmt.Errorf("dispatch: load dictionary: %w", err)
	}

	rc := readtext.Context{Dict: dict}
	if d.Names != nil {
		rc.ResolveMention = func(id string) (string, bool) { return d.Names.MemberName(msg.GuildID, id) }
		rc.ResolveChannel = d.Names.ChannelName
		rc.ResolveRole = func(id string) (string, bool) { return d.Names.RoleName(msg.GuildID, id) }
	}

	text := readtext.Build(msg.Content, rc)
	if text == "" {
		return "", nil
	}
	if readtext.ShouldAnnounceAuthor(msg.AuthorID, msg.Timestamp, sess.LastSpoken) && msg.AuthorName != "" {
		// The name prefix counts toward the speakable budget too.
		text = readtext.Truncate(msg.AuthorName + "、" + text)
	}
	return text, nil
}

func (d *Dispatcher) synthesize(ctx context.Context, text string, sel voice.Selection) ([]byte, error) {
	start := time.Now()
	var (
		pcm []byte
		err error
	)
	switch {
	case sel.PresetID != nil:
		pcm, err = d.Speech.SpeakPreset(ctx, text, *sel.PresetID)
	case sel.StyleID != nil:
		pcm, err = d.Speech.SpeakStyle(ctx, text, *sel.StyleID)
	default:
		return nil, errors.New("dispatch: empty voice selection")
	}
	if d.Metrics != nil && err == nil {
		d.Metrics.SynthesisDuration.Record(ctx, time.Since(start).Seconds())
	}
	return pcm, err
}

func (d *Dispatcher) record(ctx context.Context, status string) {
	if d.Metrics != nil {
		d.Metrics.RecordDispatch(ctx, status)
	}
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Log != nil {
		return d.Log
	}
	return slog.Default()
}
