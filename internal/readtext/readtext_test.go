package readtext

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/kanade-bot/kanade/internal/session"
	"github.com/kanade-bot/kanade/internal/store"
)

func resolver(names map[string]string) func(id string) (string, bool) {
	return func(id string) (string, bool) {
		name, ok := names[id]
		return name, ok
	}
}

func TestBuildPipeline(t *testing.T) {
	t.Parallel()

	rc := Context{
		ResolveMention: resolver(map[string]string{"111": "かなで"}),
		ResolveChannel: resolver(map[string]string{"222": "雑談"}),
		ResolveRole:    resolver(map[string]string{"333": "モデレーター"}),
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text passes through", "こんにちは", "こんにちは"},
		{"resolved user mention", "<@111> おはよう", "かなで おはよう"},
		{"resolved nickname mention", "<@!111> おはよう", "かなで おはよう"},
		{"resolved channel mention", "<#222>を見て", "雑談を見て"},
		{"resolved role mention", "<@&333>集合", "モデレーター集合"},
		{"unresolved mention dropped", "<@999> おはよう", "おはよう"},
		{"markdown markers stripped", "**太字**と||ネタバレ||と`code`", "太字とネタバレとcode"},
		{"custom emoji becomes shortcode", "<:kanade_smile:123456> いいね", "kanade_smile いいね"},
		{"url collapsed", "これ見て https://example.com/very/long?path=1", "これ見て リンク省略"},
		{"shortcode emoji stripped", "やった:tada:", "やった"},
		{"xaero token rewritten", "xaero-waypoint:share:x:1:2:3", "ウェイポイント共有"},
		{"attachment words stripped", "画像を送った ファイルも", "を送った も"},
		{"handle stripped", "@everyone 集まれ", "集まれ"},
		{"brackets stripped", "それな（笑）", "それな笑"},
		{"katakana table", "hello みんな", "ハロー みんな"},
		{"phrase before word", "thank you!", "サンキュー!"},
		{"short latin kept", "lol それな", "lol それな"},
		{"long latin split", "github 見てる", "git、hub 見てる"},
		{"pure mention empty", "<@999>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Build(tt.in, rc); got != tt.want {
				t.Errorf("Build(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildDictionaryLongestMatch(t *testing.T) {
	t.Parallel()

	rc := Context{Dict: []store.Entry{
		{Word: "VC", ReadAs: "ブイシー"},
		{Word: "VCチャット", ReadAs: "ブイシーチャット"},
	}}

	if got := Build("VCチャットで話そう", rc); got != "ブイシーチャットで話そう" {
		t.Errorf("longest match lost: got %q", got)
	}
	if got := Build("VCおいで", rc); got != "ブイシーおいで" {
		t.Errorf("short match: got %q", got)
	}
}

// The dictionary rewrite is a single left-to-right pass, not a fixpoint: a
// produced reading is never looked up again within the same Build call, but
// feeding the output back through Build rewrites it once more. Chained entries
// (one entry's reading equals another entry's word) therefore diverge between
// one and two applications; callers must build from the raw message, never
// from an already-built string.
func TestBuildDictionaryRewriteNotIdempotent(t *testing.T) {
	t.Parallel()

	rc := Context{Dict: []store.Entry{
		{Word: "ねこ", ReadAs: "いぬ"},
		{Word: "いぬ", ReadAs: "とり"},
	}}

	once := Build("ねこがいる", rc)
	if once != "いぬがいる" {
		t.Fatalf("single pass = %q, want %q", once, "いぬがいる")
	}
	twice := Build(once, rc)
	if twice != "とりがいる" {
		t.Errorf("second pass = %q, want %q", twice, "とりがいる")
	}
}

func TestBuildDictionaryEmpty(t *testing.T) {
	t.Parallel()
	if got := Build("そのまま", Context{}); got != "そのまま" {
		t.Errorf("empty dictionary changed text: %q", got)
	}
}

func TestBuildTruncation(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("あ", 70)
	got := Build(long, Context{})

	if n := utf8.RuneCountInString(got); n != 60 {
		t.Errorf("truncated length = %d runes, want 60", n)
	}
	if !strings.HasSuffix(got, "、以下略") {
		t.Errorf("missing omission marker: %q", got)
	}
	if !strings.HasPrefix(got, strings.Repeat("あ", 56)) {
		t.Error("truncation did not keep the first 56 runes")
	}

	exact := strings.Repeat("い", 60)
	if got := Build(exact, Context{}); got != exact {
		t.Errorf("60-rune input should pass unchanged, got %d runes", utf8.RuneCountInString(got))
	}
}

func TestShouldAnnounceAuthor(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 20, 0, 30, 0, time.UTC)

	tests := []struct {
		name     string
		authorID string
		last     *session.SpokenMessage
		want     bool
	}{
		{"no previous message", "u1", nil, true},
		{"same author recent", "u1", &session.SpokenMessage{AuthorID: "u1", Timestamp: now.Add(-3 * time.Second)}, false},
		{"different author", "u2", &session.SpokenMessage{AuthorID: "u1", Timestamp: now.Add(-3 * time.Second)}, true},
		{"same author stale", "u1", &session.SpokenMessage{AuthorID: "u1", Timestamp: now.Add(-11 * time.Second)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ShouldAnnounceAuthor(tt.authorID, now, tt.last); got != tt.want {
				t.Errorf("ShouldAnnounceAuthor = %v, want %v", got, tt.want)
			}
		})
	}
}
