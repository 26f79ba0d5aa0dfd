// Package timesignal runs the hourly announcement loop: a single background
// ticker that, at the top of each hour, posts a time signal to every
// voice-connected guild that has announcements enabled and at least one
// human listener.
package timesignal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kanade-bot/kanade/internal/observe"
	"github.com/kanade-bot/kanade/internal/session"
	"github.com/kanade-bot/kanade/pkg/call"
)

// ListenerChecker reports whether a voice channel currently has at least one
// non-bot member.
type ListenerChecker interface {
	HasListener(guildID, voiceChannelID string) bool
}

// Notifier posts the announcement text to a text channel.
type Notifier interface {
	PostAnnouncement(ctx context.Context, channelID, text string) error
}

// Scheduler fires hourly announcements. Time is always computed in the
// configured fixed location so firing is deterministic regardless of where
// the process runs.
type Scheduler struct {
	Sessions *session.Store
	Announce *session.AnnounceStore
	Caller   call.Caller
	Presence ListenerChecker
	Notifier Notifier

	// Loc is the reference timezone. Required.
	Loc *time.Location

	Metrics *observe.Metrics
	Log     *slog.Logger

	// interval and now are overridable for tests.
	interval time.Duration
	now      func() time.Time
}

// Run ticks once per minute until the context is cancelled. Always returns
// ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	interval := s.interval
	if interval == 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one minute tick. Only the top of the hour does any work.
func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now()
	if s.now != nil {
		now = s.now()
	}
	local := now.In(s.Loc)
	if local.Minute() != 0 {
		return
	}
	s.announceHour(ctx, local.Hour())
}

// announceHour fans the hour's announcement out to every qualifying guild.
// Guilds are processed concurrently; one slow or failing guild cannot delay
// the others.
func (s *Scheduler) announceHour(ctx context.Context, hour int) {
	var g errgroup.Group
	for _, sess := range s.Sessions.Snapshot() {
		if sess.JoinedVoiceChannelID == "" {
			continue
		}
		if !s.Announce.Due(sess.GuildID, hour) {
			continue
		}
		g.Go(func() error {
			if err := s.announceGuild(ctx, sess, hour); err != nil {
				s.logger().Error("announcement failed", "guild_id", sess.GuildID, "err", err)
			}
			return nil
		})
	}
	g.Wait()
}

func (s *Scheduler) announceGuild(ctx context.Context, sess session.GuildSession, hour int) error {
	// No listener, no announcement. The hour stays unmarked so a later
	// same-hour tick can still fire if someone joins.
	if !s.Presence.HasListener(sess.GuildID, sess.JoinedVoiceChannelID) {
		return nil
	}

	text := fmt.Sprintf("%d時をお知らせします", hour)
	if err := s.Notifier.PostAnnouncement(ctx, sess.BoundTextChannelID, text); err != nil {
		// The hour is not marked, though a retry within the same hour
		// only happens if another tick lands on minute zero.
		return fmt.Errorf("timesignal: post announcement: %w", err)
	}

	// The text post is the success signal; the chime is best-effort.
	if chime, ok := s.Announce.ChimeFor(sess.GuildID); ok {
		if err := s.Caller.Enqueue(sess.GuildID, chime.PCM); err != nil {
			s.logger().Warn("chime enqueue failed", "guild_id", sess.GuildID, "err", err)
		}
	}

	s.Announce.MarkAnnounced(sess.GuildID, hour)
	if s.Metrics != nil {
		s.Metrics.RecordAnnouncement(ctx)
	}
	s.logger().Info("hourly announcement posted", "guild_id", sess.GuildID, "hour", hour)
	return nil
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
