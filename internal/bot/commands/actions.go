// Package commands implements the bot's command surface. Slash interactions
// and "!" prefix messages share one Actions layer so both forms behave
// identically.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/antzucaro/matchr"

	"github.com/kanade-bot/kanade/internal/observe"
	"github.com/kanade-bot/kanade/internal/session"
	"github.com/kanade-bot/kanade/internal/store"
	"github.com/kanade-bot/kanade/internal/voice"
	"github.com/kanade-bot/kanade/pkg/audio"
	"github.com/kanade-bot/kanade/pkg/call"
)

// maxChimeBytes bounds the downloaded chime file.
const maxChimeBytes = 10 << 20

// suggestionDistance is the maximum Levenshtein distance for a "did you
// mean" hint on dict remove.
const suggestionDistance = 2

// VoiceToggleOutcome is the result of a /v invocation.
type VoiceToggleOutcome int

const (
	// VoiceJoined means the bot joined the caller's voice channel.
	VoiceJoined VoiceToggleOutcome = iota

	// VoiceLeft means the bot left the guild's voice channel.
	VoiceLeft

	// VoiceNoUserChannel means the caller is not in a voice channel.
	VoiceNoUserChannel
)

// Presence is the voice-presence lookup the actions need.
type Presence interface {
	VoiceChannelOf(guildID, userID string) (string, bool)
}

// Actions implements every command's behaviour against the bot's state and
// collaborators. It carries no Discord API types so it is directly testable.
type Actions struct {
	Sessions *session.Store
	Settings *session.Settings
	Announce *session.AnnounceStore
	Caller   call.Caller
	Dict     store.Dictionary
	Prefs    store.VoicePrefs
	Speech   voice.PresetLister
	Presence Presence

	// HTTPClient fetches chime audio for /time audio set. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	Metrics *observe.Metrics
	Log     *slog.Logger
}

// ToggleVoice joins the caller's voice channel (binding the invoking text
// channel) or leaves if already connected. Returns the joined voice channel
// ID on a join.
func (a *Actions) ToggleVoice(ctx context.Context, guildID, userID, bindTextChannelID string) (VoiceToggleOutcome, string, error) {
	if a.Caller.IsConnected(guildID) {
		if err := a.Caller.Leave(ctx, guildID); err != nil {
			return 0, "", fmt.Errorf("commands: leave voice: %w", err)
		}
		a.Sessions.Remove(guildID)
		if a.Metrics != nil {
			a.Metrics.ActiveSessions.Add(ctx, -1)
		}
		return VoiceLeft, "", nil
	}

	voiceChannelID, ok := a.Presence.VoiceChannelOf(guildID, userID)
	if !ok {
		return VoiceNoUserChannel, "", nil
	}
	if err := a.Caller.JoinMuted(ctx, guildID, voiceChannelID); err != nil {
		return 0, "", fmt.Errorf("commands: join voice: %w", err)
	}
	a.Sessions.Insert(session.GuildSession{
		GuildID:              guildID,
		BoundTextChannelID:   bindTextChannelID,
		JoinedVoiceChannelID: voiceChannelID,
	})
	if a.Metrics != nil {
		a.Metrics.ActiveSessions.Add(ctx, 1)
	}
	return VoiceJoined, voiceChannelID, nil
}

// Skip skips the current playback. Returns false when the guild is not
// voice-connected.
func (a *Actions) Skip(guildID string) (bool, error) {
	if !a.Caller.IsConnected(guildID) {
		return false, nil
	}
	if err := a.Caller.Skip(guildID); err != nil {
		return true, fmt.Errorf("commands: skip: %w", err)
	}
	return true, nil
}

// ToggleTime flips the hourly announcement and returns the new state.
func (a *Actions) ToggleTime(guildID string) bool {
	return a.Announce.Toggle(guildID)
}

// SetChimeFromURL downloads a WAV file, converts it to playable PCM, and
// stores it as the guild's announcement chime.
func (a *Actions) SetChimeFromURL(ctx context.Context, guildID, url string) error {
	client := a.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("commands: chime request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("commands: fetch chime: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("commands: fetch chime: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxChimeBytes+1))
	if err != nil {
		return fmt.Errorf("commands: read chime: %w", err)
	}
	if len(data) > maxChimeBytes {
		return errors.New("commands: chime file too large")
	}

	pcm, err := audio.DecodeWAV(data)
	if err != nil {
		return fmt.Errorf("commands: decode chime: %w", err)
	}
	a.Announce.SetChime(guildID, session.Chime{
		PCM:       pcm.ToDiscordFormat(),
		SourceURL: url,
	})
	return nil
}

// ClearChime removes the guild's announcement chime.
func (a *Actions) ClearChime(guildID string) {
	a.Announce.ClearChime(guildID)
}

// ToggleAutojoin flips the autojoin setting and returns the new state.
func (a *Actions) ToggleAutojoin(guildID string) bool {
	return a.Settings.ToggleAutojoin(guildID)
}

// SetDefaultVoiceChannel stores the channel autojoin watches.
func (a *Actions) SetDefaultVoiceChannel(guildID, channelID string) {
	a.Settings.SetDefaultVoiceChannel(guildID, channelID)
}

// SetDefaultTextChannel stores the channel announcements and autojoin bind.
func (a *Actions) SetDefaultTextChannel(guildID, channelID string) {
	a.Settings.SetDefaultTextChannel(guildID, channelID)
}

// DictAdd registers a new dictionary entry. Returns [store.ErrWordExists]
// when the word is already registered.
func (a *Actions) DictAdd(ctx context.Context, guildID, word, readAs string) error {
	return a.Dict.Insert(ctx, guildID, word, readAs)
}

// DictRemove deletes a dictionary entry. When the word is unknown it returns
// [store.ErrWordMissing] along with the closest registered word (or "" when
// nothing is close enough).
func (a *Actions) DictRemove(ctx context.Context, guildID, word string) (string, error) {
	err := a.Dict.Remove(ctx, guildID, word)
	if !errors.Is(err, store.ErrWordMissing) {
		return "", err
	}

	entries, listErr := a.Dict.GetAll(ctx, guildID)
	if listErr != nil {
		return "", err
	}
	best, bestDist := "", suggestionDistance+1
	for _, e := range entries {
		if d := matchr.Levenshtein(word, e.Word); d < bestDist {
			best, bestDist = e.Word, d
		}
	}
	return best, err
}

// DictList renders the guild's dictionary as pretty-printed JSON.
func (a *Actions) DictList(ctx context.Context, guildID string) (string, error) {
	entries, err := a.Dict.GetAll(ctx, guildID)
	if err != nil {
		return "", fmt.Errorf("commands: list dictionary: %w", err)
	}
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.Word] = e.ReadAs
	}
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("commands: encode dictionary: %w", err)
	}
	return string(out), nil
}

// DictWords returns registered words for remove autocompletion.
func (a *Actions) DictWords(ctx context.Context, guildID string) ([]string, error) {
	entries, err := a.Dict.GetAll(ctx, guildID)
	if err != nil {
		return nil, err
	}
	words := make([]string, len(entries))
	for i, e := range entries {
		words[i] = e.Word
	}
	return words, nil
}

// SetPreferredVoice stores the user's preset after validating it exists.
func (a *Actions) SetPreferredVoice(ctx context.Context, guildID, userID string, presetID int64) error {
	presets, err := a.Speech.ListPresets(ctx)
	if err != nil {
		return fmt.Errorf("commands: list presets: %w", err)
	}
	found := false
	for _, p := range presets {
		if p.ID == presetID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("commands: preset %d does not exist", presetID)
	}
	return a.Prefs.SetPreferredPreset(ctx, guildID, userID, presetID)
}

// ClearPreferredVoice removes the user's stored preset.
func (a *Actions) ClearPreferredVoice(ctx context.Context, guildID, userID string) error {
	return a.Prefs.ClearPreferredPreset(ctx, guildID, userID)
}

// VoicePresets lists available presets for /voice set feedback.
func (a *Actions) VoicePresets(ctx context.Context) ([]string, error) {
	presets, err := a.Speech.ListPresets(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = fmt.Sprintf("%d: %s", p.ID, p.Name)
	}
	return names, nil
}
