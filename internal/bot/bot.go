// Package bot provides the Discord layer: it owns the discordgo.Session
// lifecycle, routes gateway events into the dispatch pipeline, handles
// voice-presence driven autojoin, and routes slash command interactions to
// registered handlers.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/kanade-bot/kanade/internal/dispatch"
	"github.com/kanade-bot/kanade/internal/observe"
	"github.com/kanade-bot/kanade/internal/session"
	"github.com/kanade-bot/kanade/pkg/call"
	calldiscord "github.com/kanade-bot/kanade/pkg/call/discord"
)

// activityStatus is shown as the bot's "playing" status.
const activityStatus = "!v か /v でVCに参加"

// Options carries the bot's collaborators.
type Options struct {
	Token      string
	Dispatcher *dispatch.Dispatcher
	Sessions   *session.Store
	Settings   *session.Settings

	// Caller overrides the voice transport. When nil the bot builds a
	// [calldiscord.Caller] on its own session.
	Caller call.Caller

	Metrics *observe.Metrics
	Log     *slog.Logger
}

// Bot owns the Discord gateway connection.
type Bot struct {
	mu         sync.RWMutex
	session    *discordgo.Session
	router     *CommandRouter
	state      *GatewayState
	dispatcher *dispatch.Dispatcher
	sessions   *session.Store
	settings   *session.Settings
	caller     call.Caller
	metrics    *observe.Metrics
	log        *slog.Logger
	commands   []*discordgo.ApplicationCommand
	closeOnce  sync.Once
}

// New creates a Bot and registers the gateway handlers. The connection is
// opened by [Bot.Run].
func New(_ context.Context, opts Options) (*Bot, error) {
	s, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("bot: create session: %w", err)
	}

	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildVoiceStates

	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	caller := opts.Caller
	if caller == nil {
		caller = calldiscord.New(s)
	}

	b := &Bot{
		session:    s,
		router:     NewCommandRouter(),
		state:      NewGatewayState(s),
		dispatcher: opts.Dispatcher,
		sessions:   opts.Sessions,
		settings:   opts.Settings,
		caller:     caller,
		metrics:    opts.Metrics,
		log:        log,
	}

	s.AddHandler(b.onReady)
	s.AddHandler(b.onMessageCreate)
	s.AddHandler(b.onVoiceStateUpdate)
	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.router.Handle(s, i)
	})

	return b, nil
}

// Session returns the underlying discordgo session.
func (b *Bot) Session() *discordgo.Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session
}

// Caller returns the voice transport bound to this bot's session.
func (b *Bot) Caller() call.Caller {
	return b.caller
}

// Router returns the command router for registering handlers.
func (b *Bot) Router() *CommandRouter {
	return b.router
}

// State returns the gateway-state adapter used for presence and naming
// lookups.
func (b *Bot) State() *GatewayState {
	return b.state
}

// Run opens the gateway connection, registers slash commands with the
// Discord API, and blocks until ctx is cancelled. Collaborators that wrap
// the session must be wired before Run is called.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("bot: open session: %w", err)
	}

	b.mu.RLock()
	appID := b.session.State.User.ID
	b.mu.RUnlock()

	cmds := b.router.ApplicationCommands()
	if len(cmds) > 0 {
		registered, err := b.session.ApplicationCommandBulkOverwrite(appID, "", cmds)
		if err != nil {
			return fmt.Errorf("bot: register commands: %w", err)
		}
		b.mu.Lock()
		b.commands = registered
		b.mu.Unlock()
		b.log.Info("slash commands registered", "count", len(registered))
	}

	<-ctx.Done()
	return ctx.Err()
}

// Close disconnects from Discord and unregisters commands.
func (b *Bot) Close() error {
	var closeErr error
	b.closeOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if b.session != nil && len(b.commands) > 0 {
			appID := b.session.State.User.ID
			for _, cmd := range b.commands {
				if err := b.session.ApplicationCommandDelete(appID, "", cmd.ID); err != nil {
					b.log.Warn("failed to delete command", "name", cmd.Name, "err", err)
				}
			}
		}

		if b.session != nil {
			if err := b.session.Close(); err != nil {
				closeErr = fmt.Errorf("bot: close session: %w", err)
			}
		}

		b.log.Info("bot closed")
	})
	return closeErr
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("gateway ready", "user", r.User.Username, "guilds", len(r.Guilds))
	if err := s.UpdateGameStatus(0, activityStatus); err != nil {
		b.log.Warn("failed to set activity", "err", err)
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}

	msg := dispatch.Message{
		GuildID:    m.GuildID,
		ChannelID:  m.ChannelID,
		AuthorID:   m.Author.ID,
		AuthorName: b.authorName(m),
		AuthorBot:  m.Author.Bot,
		Content:    m.Content,
		Timestamp:  m.Timestamp,
	}

	// Each message is its own unit of work; a slow synthesis for one
	// guild must not block the gateway handler.
	go func() {
		if err := b.dispatcher.Dispatch(context.Background(), msg); err != nil {
			b.log.Error("dispatch failed", "guild_id", msg.GuildID, "err", err)
		}
	}()
}

// onVoiceStateUpdate drives presence-based autojoin and cleans up the
// session when the bot itself leaves voice.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	if vs.GuildID == "" {
		return
	}

	// The bot was disconnected (kicked, channel deleted, region move).
	if vs.UserID == s.State.User.ID {
		if vs.ChannelID == "" {
			if _, ok := b.sessions.Get(vs.GuildID); ok {
				b.sessions.Remove(vs.GuildID)
				if b.metrics != nil {
					b.metrics.ActiveSessions.Add(context.Background(), -1)
				}
				b.log.Info("voice disconnected, session removed", "guild_id", vs.GuildID)
			}
		}
		return
	}

	if vs.ChannelID == "" {
		return
	}
	if !b.settings.AutojoinEnabled(vs.GuildID) {
		return
	}
	defaultVC, ok := b.settings.DefaultVoiceChannel(vs.GuildID)
	if !ok || defaultVC != vs.ChannelID {
		return
	}
	if b.caller.IsConnected(vs.GuildID) {
		return
	}

	bindText, ok := b.settings.DefaultTextChannel(vs.GuildID)
	if !ok {
		if bindText, ok = b.state.SystemChannel(vs.GuildID); !ok {
			b.log.Warn("autojoin skipped, no text channel to bind", "guild_id", vs.GuildID)
			return
		}
	}

	ctx := context.Background()
	if err := b.caller.JoinMuted(ctx, vs.GuildID, vs.ChannelID); err != nil {
		b.log.Error("autojoin failed", "guild_id", vs.GuildID, "err", err)
		return
	}
	b.sessions.Insert(session.GuildSession{
		GuildID:              vs.GuildID,
		BoundTextChannelID:   bindText,
		JoinedVoiceChannelID: vs.ChannelID,
	})
	if b.metrics != nil {
		b.metrics.ActiveSessions.Add(ctx, 1)
	}
	b.log.Info("autojoined default voice channel",
		"guild_id", vs.GuildID,
		"voice_channel_id", vs.ChannelID,
		"text_channel_id", bindText,
	)
}

func (b *Bot) authorName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if name, ok := b.state.MemberName(m.GuildID, m.Author.ID); ok {
		return name
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}
