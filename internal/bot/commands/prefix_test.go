package commands

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/kanade-bot/kanade/internal/dispatch"
	"github.com/kanade-bot/kanade/internal/session"
	"github.com/kanade-bot/kanade/internal/store"
	callmock "github.com/kanade-bot/kanade/pkg/call/mock"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   Command
		wantOK bool
	}{
		{"!v", Command{Kind: KindVoiceToggle}, true},
		{"!s", Command{Kind: KindSkip}, true},
		{"!help", Command{Kind: KindHelp}, true},
		{"!time", Command{Kind: KindTimeToggle}, true},
		{"!time toggle", Command{Kind: KindTimeToggle}, true},
		{"!time audio set https://example.com/a.wav", Command{Kind: KindTimeAudioSet, URL: "https://example.com/a.wav"}, true},
		{"!time audio clear", Command{Kind: KindTimeAudioClear}, true},
		{"!time audio", Command{Kind: KindUnknown}, true},
		{"!autojoin", Command{Kind: KindAutojoinToggle}, true},
		{"!autojoin vc <#123>", Command{Kind: KindAutojoinVC, ChannelID: "123"}, true},
		{"!autojoin text 456", Command{Kind: KindAutojoinText, ChannelID: "456"}, true},
		{"!autojoin vc not-a-channel", Command{Kind: KindUnknown}, true},
		{"!dict add VC ブイシー", Command{Kind: KindDictAdd, Word: "VC", ReadAs: "ブイシー"}, true},
		{"!dict add gg グッド ゲーム", Command{Kind: KindDictAdd, Word: "gg", ReadAs: "グッド ゲーム"}, true},
		{"!dict remove VC", Command{Kind: KindDictRemove, Word: "VC"}, true},
		{"!dict list", Command{Kind: KindDictList}, true},
		{"!dict", Command{Kind: KindUnknown}, true},
		{"!voice set 7", Command{Kind: KindVoiceSet, PresetID: 7}, true},
		{"!voice set seven", Command{Kind: KindUnknown}, true},
		{"!voice reset", Command{Kind: KindVoiceReset}, true},
		{"こんにちは", Command{}, false},
		{"!", Command{}, false},
		{"!somethingelse", Command{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, ok := Parse(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

type fakeReplier struct {
	texts  []string
	embeds []*discordgo.MessageEmbed
}

func (f *fakeReplier) ReplyText(_ string, content string) error {
	f.texts = append(f.texts, content)
	return nil
}

func (f *fakeReplier) ReplyEmbed(_ string, embed *discordgo.MessageEmbed) error {
	f.embeds = append(f.embeds, embed)
	return nil
}

func prefixFixture(t *testing.T) (*Prefix, *fakeReplier, *callmock.Caller) {
	t.Helper()
	caller := &callmock.Caller{Connected: map[string]bool{}}
	mem := store.NewMemStore()
	replier := &fakeReplier{}
	p := &Prefix{
		Actions: &Actions{
			Sessions: session.NewStore(),
			Settings: session.NewSettings(),
			Announce: session.NewAnnounceStore(),
			Caller:   caller,
			Dict:     mem,
			Prefs:    mem,
			Speech:   &stubLister{},
			Presence: &stubPresence{channels: map[string]string{"u1": "v1"}},
		},
		Replier: replier,
	}
	return p, replier, caller
}

func prefixMsg(content string) dispatch.Message {
	return dispatch.Message{
		GuildID:   "g1",
		ChannelID: "t1",
		AuthorID:  "u1",
		Content:   content,
		Timestamp: time.Now(),
	}
}

func TestHandlePrefixNonCommandPassesThrough(t *testing.T) {
	t.Parallel()
	p, replier, _ := prefixFixture(t)

	if p.HandlePrefix(context.Background(), prefixMsg("ただのメッセージ")) {
		t.Fatal("plain message treated as a command")
	}
	if len(replier.texts) != 0 {
		t.Error("plain message produced a reply")
	}
}

func TestHandlePrefixVoiceToggle(t *testing.T) {
	t.Parallel()
	p, replier, caller := prefixFixture(t)

	if !p.HandlePrefix(context.Background(), prefixMsg("!v")) {
		t.Fatal("!v not recognized")
	}
	if len(caller.JoinCalls) != 1 {
		t.Fatal("!v did not join voice")
	}
	if sess, ok := p.Actions.Sessions.Get("g1"); !ok || sess.BoundTextChannelID != "t1" {
		t.Errorf("session after !v: %+v ok=%v", sess, ok)
	}

	// Second !v leaves.
	p.HandlePrefix(context.Background(), prefixMsg("!v"))
	if len(caller.LeaveCalls) != 1 {
		t.Error("second !v did not leave voice")
	}
	if _, ok := p.Actions.Sessions.Get("g1"); ok {
		t.Error("session survived leaving voice")
	}
	if len(replier.texts) != 2 {
		t.Errorf("replies = %v", replier.texts)
	}
}

func TestHandlePrefixDictRoundTrip(t *testing.T) {
	t.Parallel()
	p, replier, _ := prefixFixture(t)
	ctx := context.Background()

	p.HandlePrefix(ctx, prefixMsg("!dict add VC ブイシー"))
	p.HandlePrefix(ctx, prefixMsg("!dict add VC ブイシー"))

	entries, err := p.Actions.Dict.GetAll(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %+v", entries)
	}
	if replier.texts[1] != "すでに登録済みです。上書きする場合はいったん削除してください。" {
		t.Errorf("duplicate add reply = %q", replier.texts[1])
	}

	p.HandlePrefix(ctx, prefixMsg("!dict remove VC"))
	if entries, _ := p.Actions.Dict.GetAll(ctx, "g1"); len(entries) != 0 {
		t.Error("remove did not delete the entry")
	}
}

func TestHandlePrefixDictRemoveSuggestion(t *testing.T) {
	t.Parallel()
	p, replier, _ := prefixFixture(t)
	ctx := context.Background()

	p.HandlePrefix(ctx, prefixMsg("!dict add mcserver マイクラサーバー"))
	p.HandlePrefix(ctx, prefixMsg("!dict remove mcservr"))

	last := replier.texts[len(replier.texts)-1]
	if last != "指定された単語は登録されていません。もしかして: mcserver" {
		t.Errorf("suggestion reply = %q", last)
	}
}

func TestHandlePrefixHelp(t *testing.T) {
	t.Parallel()
	p, replier, _ := prefixFixture(t)

	p.HandlePrefix(context.Background(), prefixMsg("!help"))
	if len(replier.embeds) != 1 {
		t.Fatal("!help did not reply with an embed")
	}
	if replier.embeds[0].Title == "" {
		t.Error("help embed has no title")
	}
}

func TestHandlePrefixTimeToggle(t *testing.T) {
	t.Parallel()
	p, replier, _ := prefixFixture(t)

	p.HandlePrefix(context.Background(), prefixMsg("!time"))
	if p.Actions.Announce.Enabled("g1") {
		t.Error("!time did not disable announcements")
	}
	if replier.texts[0] != "時報をOFFに切り替えました。" {
		t.Errorf("reply = %q", replier.texts[0])
	}
}
