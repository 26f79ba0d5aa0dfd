package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/kanade-bot/kanade/internal/dispatch"
	"github.com/kanade-bot/kanade/internal/store"
)

// Marker starts every prefix command.
const Marker = "!"

// Kind identifies a parsed prefix command.
type Kind int

const (
	KindUnknown Kind = iota
	KindVoiceToggle
	KindSkip
	KindTimeToggle
	KindTimeAudioSet
	KindTimeAudioClear
	KindAutojoinToggle
	KindAutojoinVC
	KindAutojoinText
	KindDictAdd
	KindDictRemove
	KindDictList
	KindVoiceSet
	KindVoiceReset
	KindHelp
)

// Command is one parsed prefix command with its arguments.
type Command struct {
	Kind Kind

	// Word and ReadAs carry dict arguments.
	Word   string
	ReadAs string

	// URL carries the time audio argument.
	URL string

	// ChannelID carries the autojoin vc/text argument.
	ChannelID string

	// PresetID carries the voice set argument.
	PresetID int64
}

var channelMentionRe = regexp.MustCompile(`^<#(\d+)>$`)

// Parse recognizes a prefix command in a raw message. The second return is
// false when the message is not a command at all; unknown subcommands still
// return true with [KindUnknown] so typos produce feedback instead of being
// read aloud.
func Parse(content string) (Command, bool) {
	if !strings.HasPrefix(content, Marker) {
		return Command{}, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, Marker))
	if len(fields) == 0 {
		return Command{}, false
	}

	switch fields[0] {
	case "v":
		return Command{Kind: KindVoiceToggle}, true
	case "s":
		return Command{Kind: KindSkip}, true
	case "help":
		return Command{Kind: KindHelp}, true
	case "time":
		return parseTime(fields[1:]), true
	case "autojoin":
		return parseAutojoin(fields[1:]), true
	case "dict":
		return parseDict(fields[1:]), true
	case "voice":
		return parseVoice(fields[1:]), true
	}
	return Command{}, false
}

func parseTime(args []string) Command {
	if len(args) == 0 || args[0] == "toggle" {
		return Command{Kind: KindTimeToggle}
	}
	if args[0] != "audio" || len(args) < 2 {
		return Command{Kind: KindUnknown}
	}
	switch args[1] {
	case "set":
		if len(args) < 3 {
			return Command{Kind: KindUnknown}
		}
		return Command{Kind: KindTimeAudioSet, URL: args[2]}
	case "clear":
		return Command{Kind: KindTimeAudioClear}
	}
	return Command{Kind: KindUnknown}
}

func parseAutojoin(args []string) Command {
	if len(args) == 0 || args[0] == "toggle" {
		return Command{Kind: KindAutojoinToggle}
	}
	if len(args) < 2 {
		return Command{Kind: KindUnknown}
	}
	channelID, ok := parseChannelRef(args[1])
	if !ok {
		return Command{Kind: KindUnknown}
	}
	switch args[0] {
	case "vc":
		return Command{Kind: KindAutojoinVC, ChannelID: channelID}
	case "text":
		return Command{Kind: KindAutojoinText, ChannelID: channelID}
	}
	return Command{Kind: KindUnknown}
}

func parseDict(args []string) Command {
	if len(args) == 0 {
		return Command{Kind: KindUnknown}
	}
	switch args[0] {
	case "add":
		if len(args) < 3 {
			return Command{Kind: KindUnknown}
		}
		// Readings may contain spaces; everything after the word is the reading.
		return Command{Kind: KindDictAdd, Word: args[1], ReadAs: strings.Join(args[2:], " ")}
	case "remove":
		if len(args) < 2 {
			return Command{Kind: KindUnknown}
		}
		return Command{Kind: KindDictRemove, Word: args[1]}
	case "list":
		return Command{Kind: KindDictList}
	}
	return Command{Kind: KindUnknown}
}

func parseVoice(args []string) Command {
	if len(args) == 0 {
		return Command{Kind: KindUnknown}
	}
	switch args[0] {
	case "set":
		if len(args) < 2 {
			return Command{Kind: KindUnknown}
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return Command{Kind: KindUnknown}
		}
		return Command{Kind: KindVoiceSet, PresetID: id}
	case "reset":
		return Command{Kind: KindVoiceReset}
	}
	return Command{Kind: KindUnknown}
}

// parseChannelRef accepts a <#id> mention or a bare snowflake.
func parseChannelRef(arg string) (string, bool) {
	if m := channelMentionRe.FindStringSubmatch(arg); m != nil {
		return m[1], true
	}
	if _, err := strconv.ParseUint(arg, 10, 64); err == nil {
		return arg, true
	}
	return "", false
}

// Replier posts command feedback to a text channel.
type Replier interface {
	ReplyText(channelID, content string) error
	ReplyEmbed(channelID string, embed *discordgo.MessageEmbed) error
}

// Prefix recognizes "!" commands in chat messages and executes them through
// the shared Actions layer. It implements the dispatcher's prefix router.
type Prefix struct {
	Actions *Actions
	Replier Replier
	Log     *slog.Logger
}

// HandlePrefix parses and executes a prefix command. It reports true when
// the message was a command, consumed or not.
func (p *Prefix) HandlePrefix(ctx context.Context, msg dispatch.Message) bool {
	cmd, ok := Parse(msg.Content)
	if !ok {
		return false
	}

	reply := func(content string) {
		if err := p.Replier.ReplyText(msg.ChannelID, content); err != nil {
			p.logger().Warn("prefix reply failed", "channel_id", msg.ChannelID, "err", err)
		}
	}

	switch cmd.Kind {
	case KindVoiceToggle:
		outcome, voiceChannelID, err := p.Actions.ToggleVoice(ctx, msg.GuildID, msg.AuthorID, msg.ChannelID)
		switch {
		case err != nil:
			reply(fmt.Sprintf("エラーが発生しました: %v", err))
		case outcome == VoiceJoined:
			reply(fmt.Sprintf("<#%s> に参加しました。", voiceChannelID))
		case outcome == VoiceLeft:
			reply("ボイスチャンネルから退出しました。")
		case outcome == VoiceNoUserChannel:
			reply("まずボイスチャンネルに参加してから実行してください。")
		}

	case KindSkip:
		connected, err := p.Actions.Skip(msg.GuildID)
		switch {
		case err != nil:
			reply(fmt.Sprintf("エラーが発生しました: %v", err))
		case !connected:
			reply("再生中の読み上げはありません。")
		default:
			reply("再生中の読み上げをスキップしました。")
		}

	case KindTimeToggle:
		reply(fmt.Sprintf("時報を%sに切り替えました。", onOff(p.Actions.ToggleTime(msg.GuildID))))

	case KindTimeAudioSet:
		if err := p.Actions.SetChimeFromURL(ctx, msg.GuildID, cmd.URL); err != nil {
			reply(fmt.Sprintf("音声の設定に失敗しました: %v", err))
		} else {
			reply("時報の音声URLを更新しました。")
		}

	case KindTimeAudioClear:
		p.Actions.ClearChime(msg.GuildID)
		reply("時報の音声設定を削除しました。")

	case KindAutojoinToggle:
		reply(fmt.Sprintf("自動参加を%sに切り替えました。", onOff(p.Actions.ToggleAutojoin(msg.GuildID))))

	case KindAutojoinVC:
		p.Actions.SetDefaultVoiceChannel(msg.GuildID, cmd.ChannelID)
		reply(fmt.Sprintf("自動参加の対象を <#%s> に設定しました。", cmd.ChannelID))

	case KindAutojoinText:
		p.Actions.SetDefaultTextChannel(msg.GuildID, cmd.ChannelID)
		reply(fmt.Sprintf("読み上げ対象のテキストチャンネルを <#%s> に設定しました。", cmd.ChannelID))

	case KindDictAdd:
		err := p.Actions.DictAdd(ctx, msg.GuildID, cmd.Word, cmd.ReadAs)
		switch {
		case errors.Is(err, store.ErrWordExists):
			reply("すでに登録済みです。上書きする場合はいったん削除してください。")
		case err != nil:
			reply(fmt.Sprintf("エラーが発生しました: %v", err))
		default:
			reply(fmt.Sprintf("辞書に登録しました: %s → %s", cmd.Word, cmd.ReadAs))
		}

	case KindDictRemove:
		suggestion, err := p.Actions.DictRemove(ctx, msg.GuildID, cmd.Word)
		switch {
		case errors.Is(err, store.ErrWordMissing) && suggestion != "":
			reply(fmt.Sprintf("指定された単語は登録されていません。もしかして: %s", suggestion))
		case errors.Is(err, store.ErrWordMissing):
			reply("指定された単語は登録されていません。")
		case err != nil:
			reply(fmt.Sprintf("エラーが発生しました: %v", err))
		default:
			reply(fmt.Sprintf("辞書から削除しました: %s", cmd.Word))
		}

	case KindDictList:
		listing, err := p.Actions.DictList(ctx, msg.GuildID)
		switch {
		case err != nil:
			reply(fmt.Sprintf("エラーが発生しました: %v", err))
		case len(listing) > 1900:
			reply("件数が多すぎるため表示できません。登録内容を絞ってください。")
		default:
			reply(fmt.Sprintf("```json\n%s\n```", listing))
		}

	case KindVoiceSet:
		if err := p.Actions.SetPreferredVoice(ctx, msg.GuildID, msg.AuthorID, cmd.PresetID); err != nil {
			reply(fmt.Sprintf("声の設定に失敗しました: %v", err))
		} else {
			reply(fmt.Sprintf("あなたの声をプリセット %d に設定しました。", cmd.PresetID))
		}

	case KindVoiceReset:
		if err := p.Actions.ClearPreferredVoice(ctx, msg.GuildID, msg.AuthorID); err != nil {
			reply(fmt.Sprintf("エラーが発生しました: %v", err))
		} else {
			reply("声の設定をリセットしました。")
		}

	case KindHelp:
		if err := p.Replier.ReplyEmbed(msg.ChannelID, HelpEmbed()); err != nil {
			p.logger().Warn("help reply failed", "channel_id", msg.ChannelID, "err", err)
		}

	default:
		reply("未対応のコマンドです。`!help` で使い方を確認してください。")
	}
	return true
}

func (p *Prefix) logger() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}
