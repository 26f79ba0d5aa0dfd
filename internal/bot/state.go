package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// GatewayState answers presence and naming questions from the discordgo
// state cache. It backs the dispatcher's mention resolution and voice
// presence checks as well as the scheduler's listener check.
type GatewayState struct {
	session *discordgo.Session
}

func NewGatewayState(session *discordgo.Session) *GatewayState {
	return &GatewayState{session: session}
}

// VoiceChannelOf returns the voice channel the user currently occupies.
func (g *GatewayState) VoiceChannelOf(guildID, userID string) (string, bool) {
	vs, err := g.session.State.VoiceState(guildID, userID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		return "", false
	}
	return vs.ChannelID, true
}

// HasListener reports whether the voice channel holds at least one non-bot
// member.
func (g *GatewayState) HasListener(guildID, voiceChannelID string) bool {
	guild, err := g.session.State.Guild(guildID)
	if err != nil {
		return false
	}
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != voiceChannelID {
			continue
		}
		member, err := g.session.State.Member(guildID, vs.UserID)
		if err != nil || member.User == nil {
			continue
		}
		if !member.User.Bot {
			return true
		}
	}
	return false
}

// MemberName returns the member's display name: nickname when set,
// otherwise the account's username.
func (g *GatewayState) MemberName(guildID, userID string) (string, bool) {
	member, err := g.session.State.Member(guildID, userID)
	if err != nil || member.User == nil {
		return "", false
	}
	if member.Nick != "" {
		return member.Nick, true
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName, true
	}
	return member.User.Username, true
}

// ChannelName returns the channel's name.
func (g *GatewayState) ChannelName(channelID string) (string, bool) {
	ch, err := g.session.State.Channel(channelID)
	if err != nil {
		return "", false
	}
	return ch.Name, true
}

// RoleName returns the role's name.
func (g *GatewayState) RoleName(guildID, roleID string) (string, bool) {
	role, err := g.session.State.Role(guildID, roleID)
	if err != nil {
		return "", false
	}
	return role.Name, true
}

// SystemChannel returns the guild's system channel, used as the bound text
// channel when autojoin fires without a configured default.
func (g *GatewayState) SystemChannel(guildID string) (string, bool) {
	guild, err := g.session.State.Guild(guildID)
	if err != nil || guild.SystemChannelID == "" {
		return "", false
	}
	return guild.SystemChannelID, true
}

// Notifier posts announcement text through the Discord REST API. It
// satisfies the scheduler's notifier dependency.
type Notifier struct {
	session *discordgo.Session
}

func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{session: session}
}

func (n *Notifier) PostAnnouncement(_ context.Context, channelID, text string) error {
	_, err := n.session.ChannelMessageSend(channelID, text)
	return err
}
