package bot

import "github.com/bwmarrin/discordgo"

// ChannelReplier posts prefix command feedback through the Discord REST API.
type ChannelReplier struct {
	session *discordgo.Session
}

func NewChannelReplier(session *discordgo.Session) *ChannelReplier {
	return &ChannelReplier{session: session}
}

func (r *ChannelReplier) ReplyText(channelID, content string) error {
	_, err := r.session.ChannelMessageSend(channelID, content)
	return err
}

func (r *ChannelReplier) ReplyEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	_, err := r.session.ChannelMessageSendEmbed(channelID, embed)
	return err
}
