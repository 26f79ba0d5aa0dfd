package commands

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kanade-bot/kanade/internal/session"
	"github.com/kanade-bot/kanade/internal/store"
	"github.com/kanade-bot/kanade/internal/voice"
	callmock "github.com/kanade-bot/kanade/pkg/call/mock"
	"github.com/kanade-bot/kanade/pkg/voicevox"
)

type stubLister struct {
	presets []voicevox.Preset
	styles  []voicevox.Style
	err     error
}

var _ voice.PresetLister = (*stubLister)(nil)

func (s *stubLister) ListPresets(context.Context) ([]voicevox.Preset, error) {
	return s.presets, s.err
}

func (s *stubLister) ListStyles(context.Context) ([]voicevox.Style, error) {
	return s.styles, s.err
}

type stubPresence struct {
	channels map[string]string
}

func (s *stubPresence) VoiceChannelOf(_, userID string) (string, bool) {
	ch, ok := s.channels[userID]
	return ch, ok
}

func newActions(t *testing.T) (*Actions, *callmock.Caller) {
	t.Helper()
	caller := &callmock.Caller{Connected: map[string]bool{}}
	mem := store.NewMemStore()
	return &Actions{
		Sessions: session.NewStore(),
		Settings: session.NewSettings(),
		Announce: session.NewAnnounceStore(),
		Caller:   caller,
		Dict:     mem,
		Prefs:    mem,
		Speech:   &stubLister{presets: []voicevox.Preset{{ID: 3, Name: "ずんだもん", StyleID: 1}}},
		Presence: &stubPresence{channels: map[string]string{"u1": "v1"}},
	}, caller
}

func TestToggleVoiceJoins(t *testing.T) {
	t.Parallel()
	a, caller := newActions(t)

	outcome, channelID, err := a.ToggleVoice(context.Background(), "g1", "u1", "t1")
	if err != nil {
		t.Fatalf("ToggleVoice() error: %v", err)
	}
	if outcome != VoiceJoined || channelID != "v1" {
		t.Fatalf("outcome = %v, channel = %q", outcome, channelID)
	}
	if len(caller.JoinCalls) != 1 || caller.JoinCalls[0].ChannelID != "v1" {
		t.Errorf("JoinCalls = %+v", caller.JoinCalls)
	}
	sess, ok := a.Sessions.Get("g1")
	if !ok {
		t.Fatal("no session after join")
	}
	if sess.BoundTextChannelID != "t1" || sess.JoinedVoiceChannelID != "v1" {
		t.Errorf("session = %+v", sess)
	}
}

func TestToggleVoiceLeavesWhenConnected(t *testing.T) {
	t.Parallel()
	a, caller := newActions(t)
	caller.Connected["g1"] = true
	a.Sessions.Insert(session.GuildSession{GuildID: "g1", JoinedVoiceChannelID: "v1"})

	outcome, _, err := a.ToggleVoice(context.Background(), "g1", "u1", "t1")
	if err != nil {
		t.Fatalf("ToggleVoice() error: %v", err)
	}
	if outcome != VoiceLeft {
		t.Fatalf("outcome = %v, want VoiceLeft", outcome)
	}
	if len(caller.LeaveCalls) != 1 {
		t.Errorf("LeaveCalls = %v", caller.LeaveCalls)
	}
	if _, ok := a.Sessions.Get("g1"); ok {
		t.Error("session survived leave")
	}
}

func TestToggleVoiceUserNotInVoice(t *testing.T) {
	t.Parallel()
	a, caller := newActions(t)

	outcome, _, err := a.ToggleVoice(context.Background(), "g1", "lurker", "t1")
	if err != nil {
		t.Fatalf("ToggleVoice() error: %v", err)
	}
	if outcome != VoiceNoUserChannel {
		t.Errorf("outcome = %v, want VoiceNoUserChannel", outcome)
	}
	if len(caller.JoinCalls) != 0 {
		t.Error("joined despite user not being in voice")
	}
}

func TestSkip(t *testing.T) {
	t.Parallel()
	a, caller := newActions(t)

	if connected, _ := a.Skip("g1"); connected {
		t.Error("Skip reported connected for an unconnected guild")
	}

	caller.Connected["g1"] = true
	connected, err := a.Skip("g1")
	if err != nil || !connected {
		t.Fatalf("Skip() = %v, %v", connected, err)
	}
	if len(caller.SkipCalls) != 1 {
		t.Errorf("SkipCalls = %v", caller.SkipCalls)
	}
}

func TestSetChimeFromURL(t *testing.T) {
	t.Parallel()
	a, _ := newActions(t)

	wav := buildChimeWAV(make([]byte, 960), 48000, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(wav)
	}))
	defer srv.Close()

	if err := a.SetChimeFromURL(context.Background(), "g1", srv.URL); err != nil {
		t.Fatalf("SetChimeFromURL() error: %v", err)
	}
	chime, ok := a.Announce.ChimeFor("g1")
	if !ok {
		t.Fatal("no chime stored")
	}
	if chime.SourceURL != srv.URL {
		t.Errorf("SourceURL = %q, want %q", chime.SourceURL, srv.URL)
	}
	if len(chime.PCM) != 960 {
		t.Errorf("PCM length = %d, want 960", len(chime.PCM))
	}

	a.ClearChime("g1")
	if _, ok := a.Announce.ChimeFor("g1"); ok {
		t.Error("chime survived ClearChime")
	}
}

func TestSetChimeFromURLBadStatus(t *testing.T) {
	t.Parallel()
	a, _ := newActions(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	if err := a.SetChimeFromURL(context.Background(), "g1", srv.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
	if _, ok := a.Announce.ChimeFor("g1"); ok {
		t.Error("chime stored despite fetch failure")
	}
}

func TestSetChimeFromURLNotWAV(t *testing.T) {
	t.Parallel()
	a, _ := newActions(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("this is not audio"))
	}))
	defer srv.Close()

	if err := a.SetChimeFromURL(context.Background(), "g1", srv.URL); err == nil {
		t.Fatal("expected error for non-WAV payload")
	}
}

func TestDictRemoveSuggestsClosestWord(t *testing.T) {
	t.Parallel()
	a, _ := newActions(t)
	ctx := context.Background()

	for _, e := range []store.Entry{
		{Word: "mcserver", ReadAs: "マイクラサーバー"},
		{Word: "VC", ReadAs: "ブイシー"},
	} {
		if err := a.DictAdd(ctx, "g1", e.Word, e.ReadAs); err != nil {
			t.Fatal(err)
		}
	}

	suggestion, err := a.DictRemove(ctx, "g1", "mcservr")
	if !errors.Is(err, store.ErrWordMissing) {
		t.Fatalf("DictRemove() error = %v, want ErrWordMissing", err)
	}
	if suggestion != "mcserver" {
		t.Errorf("suggestion = %q, want %q", suggestion, "mcserver")
	}

	// Nothing within distance, no suggestion.
	suggestion, err = a.DictRemove(ctx, "g1", "completelydifferent")
	if !errors.Is(err, store.ErrWordMissing) {
		t.Fatalf("DictRemove() error = %v, want ErrWordMissing", err)
	}
	if suggestion != "" {
		t.Errorf("suggestion = %q, want none", suggestion)
	}
}

func TestDictList(t *testing.T) {
	t.Parallel()
	a, _ := newActions(t)
	ctx := context.Background()

	if err := a.DictAdd(ctx, "g1", "VC", "ブイシー"); err != nil {
		t.Fatal(err)
	}

	listing, err := a.DictList(ctx, "g1")
	if err != nil {
		t.Fatalf("DictList() error: %v", err)
	}
	var decoded map[string]string
	if err := json.Unmarshal([]byte(listing), &decoded); err != nil {
		t.Fatalf("listing is not valid JSON: %v", err)
	}
	if decoded["VC"] != "ブイシー" {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestSetPreferredVoiceValidatesPreset(t *testing.T) {
	t.Parallel()
	a, _ := newActions(t)
	ctx := context.Background()

	if err := a.SetPreferredVoice(ctx, "g1", "u1", 3); err != nil {
		t.Fatalf("SetPreferredVoice() error: %v", err)
	}
	id, ok, err := a.Prefs.PreferredPreset(ctx, "g1", "u1")
	if err != nil || !ok || id != 3 {
		t.Errorf("PreferredPreset() = %d, %v, %v", id, ok, err)
	}

	if err := a.SetPreferredVoice(ctx, "g1", "u1", 99); err == nil {
		t.Error("accepted a preset that does not exist")
	}

	if err := a.ClearPreferredVoice(ctx, "g1", "u1"); err != nil {
		t.Fatalf("ClearPreferredVoice() error: %v", err)
	}
	if _, ok, _ := a.Prefs.PreferredPreset(ctx, "g1", "u1"); ok {
		t.Error("preference survived ClearPreferredVoice")
	}
}

func TestVoicePresets(t *testing.T) {
	t.Parallel()
	a, _ := newActions(t)

	names, err := a.VoicePresets(context.Background())
	if err != nil {
		t.Fatalf("VoicePresets() error: %v", err)
	}
	if len(names) != 1 || !strings.Contains(names[0], "ずんだもん") {
		t.Errorf("names = %v", names)
	}
}

// buildChimeWAV constructs a minimal RIFF/WAVE byte slice around raw PCM.
func buildChimeWAV(pcm []byte, sampleRate, channels int) []byte {
	var buf []byte
	le := func(v uint32) []byte {
		return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	}
	le16 := func(v uint16) []byte {
		return []byte{byte(v), byte(v >> 8)}
	}

	buf = append(buf, "RIFF"...)
	buf = append(buf, le(uint32(36+len(pcm)))...)
	buf = append(buf, "WAVE"...)
	buf = append(buf, "fmt "...)
	buf = append(buf, le(16)...)
	buf = append(buf, le16(1)...)
	buf = append(buf, le16(uint16(channels))...)
	buf = append(buf, le(uint32(sampleRate))...)
	buf = append(buf, le(uint32(sampleRate*channels*2))...)
	buf = append(buf, le16(uint16(channels*2))...)
	buf = append(buf, le16(16)...)
	buf = append(buf, "data"...)
	buf = append(buf, le(uint32(len(pcm)))...)
	buf = append(buf, pcm...)
	return buf
}
