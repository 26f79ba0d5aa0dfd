// Package readtext turns raw Discord chat messages into bounded speakable
// Japanese text. The pipeline is an ordered list of pure string transforms
// over a shared [Context]; order matters because later stages assume earlier
// cleanups (the dictionary rewrite, for example, must not see raw mention
// tokens).
package readtext

import (
	"regexp"
	"strings"
	"time"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"github.com/kanade-bot/kanade/internal/session"
	"github.com/kanade-bot/kanade/internal/store"
)

// Context carries the per-message lookups the pipeline needs. Resolver funcs
// return the display name for an ID; a false second return drops the token
// entirely rather than leaving a raw snowflake in the output.
type Context struct {
	ResolveMention func(id string) (string, bool)
	ResolveChannel func(id string) (string, bool)
	ResolveRole    func(id string) (string, bool)

	// Dict is the guild's dictionary snapshot, applied leftmost-longest.
	Dict []store.Entry
}

const (
	maxRunes        = 60
	omissionMarker  = "、以下略"
	urlPlaceholder  = "リンク省略"
	waypointPhrase  = "ウェイポイント共有"
	authorGapWindow = 10 * time.Second
)

var (
	userMentionRe    = regexp.MustCompile(`<@!?(\d+)>`)
	channelMentionRe = regexp.MustCompile(`<#(\d+)>`)
	roleMentionRe    = regexp.MustCompile(`<@&(\d+)>`)
	customEmojiRe    = regexp.MustCompile(`<a?:(\w+):\d+>`)
	urlRe            = regexp.MustCompile(`https?://\S+`)
	shortcodeRe      = regexp.MustCompile(`:[^:\s]{1,20}:`)
	waypointRe       = regexp.MustCompile(`\bxaero\S*`)
	attachmentWordRe = regexp.MustCompile(`画像ファイル|画像|ファイル`)
	handleRe         = regexp.MustCompile(`@\w+`)
	bracketRe        = regexp.MustCompile(`[（）()]`)
	latinRunRe       = regexp.MustCompile(`\b[A-Za-z]{2,}\b`)
	markdownMarkerRe = regexp.MustCompile("\\*\\*|\\*|__|~~|\\|\\||`{1,3}")
)

type stage func(text string, rc Context) string

var pipeline = []stage{
	resolveMentions,
	stripMarkdown,
	expandCustomEmojis,
	collapseURLs,
	stripEmojiTokens,
	rewriteSlang,
	stripAttachmentWords,
	stripBrackets,
	phoneticize,
	applyDictionary,
	truncate,
}

// Build runs the full pipeline. An empty result is valid and means the
// message should not be spoken.
func Build(text string, rc Context) string {
	for _, s := range pipeline {
		text = s(text, rc)
	}
	return strings.TrimSpace(text)
}

// ShouldAnnounceAuthor reports whether the author's name should be read
// before the message: the author changed, or more than ten seconds passed
// since the previous spoken message.
func ShouldAnnounceAuthor(authorID string, ts time.Time, last *session.SpokenMessage) bool {
	if last == nil {
		return true
	}
	return authorID != last.AuthorID || ts.Sub(last.Timestamp) > authorGapWindow
}

func resolveMentions(text string, rc Context) string {
	text = replaceIDs(text, userMentionRe, rc.ResolveMention)
	text = replaceIDs(text, channelMentionRe, rc.ResolveChannel)
	return replaceIDs(text, roleMentionRe, rc.ResolveRole)
}

func replaceIDs(text string, re *regexp.Regexp, resolve func(id string) (string, bool)) string {
	return re.ReplaceAllStringFunc(text, func(tok string) string {
		if resolve == nil {
			return ""
		}
		id := re.FindStringSubmatch(tok)[1]
		name, ok := resolve(id)
		if !ok {
			return ""
		}
		return name
	})
}

func stripMarkdown(text string, _ Context) string {
	return markdownMarkerRe.ReplaceAllString(text, "")
}

func expandCustomEmojis(text string, _ Context) string {
	return customEmojiRe.ReplaceAllString(text, "$1")
}

func collapseURLs(text string, _ Context) string {
	return urlRe.ReplaceAllString(text, urlPlaceholder)
}

func stripEmojiTokens(text string, _ Context) string {
	text = customEmojiRe.ReplaceAllString(text, "")
	return shortcodeRe.ReplaceAllString(text, "")
}

func rewriteSlang(text string, _ Context) string {
	return waypointRe.ReplaceAllString(text, waypointPhrase)
}

func stripAttachmentWords(text string, _ Context) string {
	text = attachmentWordRe.ReplaceAllString(text, "")
	return handleRe.ReplaceAllString(text, "")
}

func stripBrackets(text string, _ Context) string {
	return bracketRe.ReplaceAllString(text, "")
}

// phoneticize replaces common English words with katakana, then splits any
// remaining Latin run longer than four letters in half with a pause so the
// engine does not spell it letter by letter.
func phoneticize(text string, _ Context) string {
	for _, e := range phoneticTable {
		text = e.re.ReplaceAllString(text, e.katakana)
	}
	return latinRunRe.ReplaceAllStringFunc(text, func(word string) string {
		if len(word) <= 4 {
			return word
		}
		mid := len(word) / 2
		return word[:mid] + "、" + word[mid:]
	})
}

func applyDictionary(text string, rc Context) string {
	if len(rc.Dict) == 0 {
		return text
	}
	words := make([]string, len(rc.Dict))
	readings := make([]string, len(rc.Dict))
	for i, e := range rc.Dict {
		words[i] = e.Word
		readings[i] = e.ReadAs
	}
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		MatchKind: ahocorasick.LeftMostLongestMatch,
		DFA:       true,
	})
	ac := builder.Build(words)
	return ahocorasick.NewReplacer(ac).ReplaceAll(text, readings)
}

func truncate(text string, _ Context) string {
	return Truncate(text)
}

// Truncate enforces the speakable budget, replacing the overflow with the
// omission marker. Build applies it as its final stage; callers that
// prepend to a built string (the author-name announcement) re-apply it so
// the string handed to synthesis never exceeds the budget.
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes-4]) + omissionMarker
}
