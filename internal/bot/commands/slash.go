package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/kanade-bot/kanade/internal/bot"
	"github.com/kanade-bot/kanade/internal/store"
)

// Slash wires the Actions layer to Discord slash interactions.
type Slash struct {
	actions *Actions
}

// NewSlash creates the slash command handler set.
func NewSlash(actions *Actions) *Slash {
	return &Slash{actions: actions}
}

// Register registers every command with the router.
func (sc *Slash) Register(router *bot.CommandRouter) {
	router.RegisterCommand("v", voiceDef(), sc.handleVoiceToggle)
	router.RegisterCommand("s", skipDef(), sc.handleSkip)
	router.RegisterCommand("help", helpDef(), sc.handleHelp)

	router.RegisterCommand("time", timeDef(), sc.handleTimeToggle)
	router.RegisterHandler("time/toggle", sc.handleTimeToggle)
	router.RegisterHandler("time/audio_set", sc.handleTimeAudioSet)
	router.RegisterHandler("time/audio_clear", sc.handleTimeAudioClear)

	router.RegisterCommand("autojoin", autojoinDef(), sc.handleAutojoinToggle)
	router.RegisterHandler("autojoin/toggle", sc.handleAutojoinToggle)
	router.RegisterHandler("autojoin/vc", sc.handleAutojoinVC)
	router.RegisterHandler("autojoin/text", sc.handleAutojoinText)

	router.RegisterCommand("dict", dictDef(), func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		bot.RespondText(s, i, "サブコマンドを指定してください: `/dict add`, `/dict remove`, `/dict list`")
	})
	router.RegisterHandler("dict/add", sc.handleDictAdd)
	router.RegisterHandler("dict/remove", sc.handleDictRemove)
	router.RegisterHandler("dict/list", sc.handleDictList)
	router.RegisterAutocomplete("dict/remove", sc.handleDictWordAutocomplete)

	router.RegisterCommand("voice", voicePrefDef(), func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		bot.RespondText(s, i, "サブコマンドを指定してください: `/voice set`, `/voice reset`")
	})
	router.RegisterHandler("voice/set", sc.handleVoiceSet)
	router.RegisterHandler("voice/reset", sc.handleVoiceReset)
}

func (sc *Slash) handleVoiceToggle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, userID, ok := interactionScope(i)
	if !ok {
		bot.RespondText(s, i, "このコマンドはサーバー内で使用してください。")
		return
	}

	outcome, voiceChannelID, err := sc.actions.ToggleVoice(context.Background(), guildID, userID, i.ChannelID)
	if err != nil {
		bot.RespondError(s, i, err)
		return
	}
	switch outcome {
	case VoiceJoined:
		bot.RespondText(s, i, fmt.Sprintf("<#%s> に参加しました。", voiceChannelID))
	case VoiceLeft:
		bot.RespondText(s, i, "ボイスチャンネルから退出しました。")
	case VoiceNoUserChannel:
		bot.RespondText(s, i, "まずボイスチャンネルに参加してから実行してください。")
	}
}

func (sc *Slash) handleSkip(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, _, ok := interactionScope(i)
	if !ok {
		bot.RespondText(s, i, "このコマンドはサーバー内で使用してください。")
		return
	}

	connected, err := sc.actions.Skip(guildID)
	if err != nil {
		bot.RespondError(s, i, err)
		return
	}
	if !connected {
		bot.RespondText(s, i, "再生中の読み上げはありません。")
		return
	}
	bot.RespondText(s, i, "再生中の読み上げをスキップしました。")
}

func (sc *Slash) handleTimeToggle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, _, ok := interactionScope(i)
	if !ok {
		bot.RespondText(s, i, "このコマンドはサーバー内で使用してください。")
		return
	}

	enabled := sc.actions.ToggleTime(guildID)
	bot.RespondText(s, i, fmt.Sprintf("時報を%sに切り替えました。", onOff(enabled)))
}

func (sc *Slash) handleTimeAudioSet(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, _, ok := interactionScope(i)
	if !ok {
		bot.RespondText(s, i, "このコマンドはサーバー内で使用してください。")
		return
	}
	url, ok := subOptionString(i, "url")
	if !ok {
		bot.RespondText(s, i, "URL を指定してください。")
		return
	}

	if err := sc.actions.SetChimeFromURL(context.Background(), guildID, url); err != nil {
		bot.RespondText(s, i, fmt.Sprintf("音声の設定に失敗しました: %v", err))
		return
	}
	bot.RespondText(s, i, "時報の音声URLを更新しました。")
}

func (sc *Slash) handleTimeAudioClear(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, _, ok := interactionScope(i)
	if !ok {
		bot.RespondText(s, i, "このコマンドはサーバー内で使用してください。")
		return
	}

	sc.actions.ClearChime(guildID)
	bot.RespondText(s, i, "時報の音声設定を削除しました。")
}

func (sc *Slash) handleAutojoinToggle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, _, ok := interactionScope(i)
	if !ok {
		bot.RespondText(s, i, "このコマンドはサーバー内で使用してください。")
		return
	}

	enabled := sc.actions.ToggleAutojoin(guildID)
	bot.RespondText(s, i, fmt.Sprintf("自動参加を%sに切り替えました。", onOff(enabled)))
}

func (sc *Slash) handleAutojoinVC(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, _, ok := interactionScope(i)
	if !ok {
		bot.RespondText(s, i, "このコマンドはサーバー内で使用してください。")
		return
	}
	channelID, ok := subOptionChannel(i, "channel")
	if !ok {
		bot.RespondText(s, i, "チャンネルを指定してください。")
		return
	}

	sc.actions.SetDefaultVoiceChannel(guildID, channelID)
	bot.RespondText(s, i, fmt.Sprintf("自動参加の対象を <#%s> に設定しました。", channelID))
}

func (sc *Slash) handleAutojoinText(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, _, ok := interactionScope(i)
	if !ok {
		bot.RespondText(s, i, "このコマンドはサーバー内で使用してください。")
		return
	}
	channelID, ok := subOptionChannel(i, "channel")
	if !ok {
		bot.RespondText(s, i, "チャンネルを指定してください。")
		return
	}

	sc.actions.SetDefaultTextChannel(guildID, channelID)
	bot.RespondText(s, i, fmt.Sprintf("読み上げ対象のテキストチャンネルを <#%s> に設定しました。", channelID))
}

func (sc *Slash) handleDictAdd(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, _, ok := interactionScope(i)
	if !ok {
		bot.RespondText(s, i, "このコマンドはサーバー内で使用してください。")
		return
	}
	word, ok1 := subOptionString(i, "word")
	readAs, ok2 := subOptionString(i, "read_as")
	if !ok1 || !ok2 {
		bot.RespondText(s, i, "単語と読みを指定してください。")
		return
	}

	err := sc.actions.DictAdd(context.Background(), guildID, word, readAs)
	switch {
	case errors.Is(err, store.ErrWordExists):
		bot.RespondText(s, i, "すでに登録済みです。上書きする場合はいったん削除してください。")
	case err != nil:
		bot.RespondError(s, i, err)
	default:
		bot.RespondText(s, i, fmt.Sprintf("辞書に登録しました: %s → %s", word, readAs))
	}
}

func (sc *Slash) handleDictRemove(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, _, ok := interactionScope(i)
	if !ok {
		bot.RespondText(s, i, "このコマンドはサーバー内で使用してください。")
		return
	}
	word, ok := subOptionString(i, "word")
	if !ok {
		bot.RespondText(s, i, "単語を指定してください。")
		return
	}

	suggestion, err := sc.actions.DictRemove(context.Background(), guildID, word)
	switch {
	case errors.Is(err, store.ErrWordMissing) && suggestion != "":
		bot.RespondText(s, i, fmt.Sprintf("指定された単語は登録されていません。もしかして: %s", suggestion))
	case errors.Is(err, store.ErrWordMissing):
		bot.RespondText(s, i, "指定された単語は登録されていません。")
	case err != nil:
		bot.RespondError(s, i, err)
	default:
		bot.RespondText(s, i, fmt.Sprintf("辞書から削除しました: %s", word))
	}
}

func (sc *Slash) handleDictList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, _, ok := interactionScope(i)
	if !ok {
		bot.RespondText(s, i, "このコマンドはサーバー内で使用してください。")
		return
	}

	listing, err := sc.actions.DictList(context.Background(), guildID)
	if err != nil {
		bot.RespondError(s, i, err)
		return
	}
	if len(listing) > 1900 {
		bot.RespondText(s, i, "件数が多すぎるため表示できません。登録内容を絞ってください。")
		return
	}
	bot.RespondText(s, i, fmt.Sprintf("```json\n%s\n```", listing))
}

func (sc *Slash) handleDictWordAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID := i.GuildID
	if guildID == "" {
		bot.RespondChoices(s, i, nil)
		return
	}

	query := strings.ToLower(focusedOptionValue(i))
	words, err := sc.actions.DictWords(context.Background(), guildID)
	if err != nil {
		words = nil
	}
	sort.Strings(words)

	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, w := range words {
		if query != "" && !strings.Contains(strings.ToLower(w), query) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: w, Value: w})
		if len(choices) == 25 {
			break
		}
	}
	bot.RespondChoices(s, i, choices)
}

func (sc *Slash) handleVoiceSet(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, userID, ok := interactionScope(i)
	if !ok {
		bot.RespondText(s, i, "このコマンドはサーバー内で使用してください。")
		return
	}
	presetID, ok := subOptionInt(i, "preset")
	if !ok {
		bot.RespondText(s, i, "プリセットIDを指定してください。")
		return
	}

	if err := sc.actions.SetPreferredVoice(context.Background(), guildID, userID, presetID); err != nil {
		bot.RespondText(s, i, fmt.Sprintf("声の設定に失敗しました: %v", err))
		return
	}
	bot.RespondText(s, i, fmt.Sprintf("あなたの声をプリセット %d に設定しました。", presetID))
}

func (sc *Slash) handleVoiceReset(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, userID, ok := interactionScope(i)
	if !ok {
		bot.RespondText(s, i, "このコマンドはサーバー内で使用してください。")
		return
	}

	if err := sc.actions.ClearPreferredVoice(context.Background(), guildID, userID); err != nil {
		bot.RespondError(s, i, err)
		return
	}
	bot.RespondText(s, i, "声の設定をリセットしました。")
}

func (sc *Slash) handleHelp(s *discordgo.Session, i *discordgo.InteractionCreate) {
	bot.RespondEmbed(s, i, HelpEmbed())
}

// interactionScope extracts the guild and invoking user.
func interactionScope(i *discordgo.InteractionCreate) (guildID, userID string, ok bool) {
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		return "", "", false
	}
	return i.GuildID, i.Member.User.ID, true
}

// subOptionString finds a string option nested under the invoked subcommand.
func subOptionString(i *discordgo.InteractionCreate, name string) (string, bool) {
	opt := findOption(i, name)
	if opt == nil || opt.Type != discordgo.ApplicationCommandOptionString {
		return "", false
	}
	return opt.StringValue(), true
}

func subOptionChannel(i *discordgo.InteractionCreate, name string) (string, bool) {
	opt := findOption(i, name)
	if opt == nil || opt.Type != discordgo.ApplicationCommandOptionChannel {
		return "", false
	}
	if v, ok := opt.Value.(string); ok {
		return v, true
	}
	return "", false
}

func subOptionInt(i *discordgo.InteractionCreate, name string) (int64, bool) {
	opt := findOption(i, name)
	if opt == nil || opt.Type != discordgo.ApplicationCommandOptionInteger {
		return 0, false
	}
	return opt.IntValue(), true
}

func findOption(i *discordgo.InteractionCreate, name string) *discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		opts = opts[0].Options
	}
	for _, opt := range opts {
		if opt.Name == name {
			return opt
		}
	}
	return nil
}

func focusedOptionValue(i *discordgo.InteractionCreate) string {
	return findFocused(i.ApplicationCommandData().Options)
}

func findFocused(opts []*discordgo.ApplicationCommandInteractionDataOption) string {
	for _, opt := range opts {
		if opt.Focused {
			if v, ok := opt.Value.(string); ok {
				return v
			}
			return ""
		}
		if v := findFocused(opt.Options); v != "" {
			return v
		}
	}
	return ""
}

func onOff(enabled bool) string {
	if enabled {
		return "ON"
	}
	return "OFF"
}
