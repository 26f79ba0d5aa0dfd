package readtext

import "regexp"

// phoneticTable maps common short English words to katakana. Entries are
// applied in order, so multi-word phrases must come before their component
// words ("thank you" before "you"). Whole-word, case-insensitive.
var phoneticTable = buildPhoneticTable([]struct{ word, katakana string }{
	{"hello", "ハロー"},
	{"thanks", "サンクス"},
	{"thank you", "サンキュー"},
	{"yes", "イエス"},
	{"no", "ノー"},
	{"ok", "オーケー"},
	{"okay", "オーケー"},
	{"good", "グッド"},
	{"bad", "バッド"},
	{"nice", "ナイス"},
	{"cool", "クール"},
	{"wow", "ワオ"},
	{"sorry", "ソーリー"},
	{"please", "プリーズ"},
	{"welcome", "ウェルカム"},
	{"you", "ユー"},
	{"me", "ミー"},
	{"help", "ヘルプ"},
	{"stop", "ストップ"},
	{"start", "スタート"},
	{"go", "ゴー"},
	{"come", "カム"},
	{"minecraft", "マインクラフト"},
	{"discord", "ディスコード"},
	{"game", "ゲーム"},
	{"play", "プレイ"},
	{"player", "プレイヤー"},
	{"server", "サーバー"},
	{"world", "ワールド"},
	{"build", "ビルド"},
	{"craft", "クラフト"},
	{"mine", "マイン"},
})

type phoneticEntry struct {
	re       *regexp.Regexp
	katakana string
}

func buildPhoneticTable(entries []struct{ word, katakana string }) []phoneticEntry {
	table := make([]phoneticEntry, len(entries))
	for i, e := range entries {
		table[i] = phoneticEntry{
			re:       regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(e.word) + `\b`),
			katakana: e.katakana,
		}
	}
	return table
}
