package commands

import "github.com/bwmarrin/discordgo"

func voiceDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "v",
		Description: "ボイスチャンネルへの参加／退出を切り替えます。",
	}
}

func skipDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "s",
		Description: "現在再生中の読み上げをスキップします。",
	}
}

func helpDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "help",
		Description: "使い方のヘルプを表示します。",
	}
}

func timeDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "time",
		Description: "時報機能を設定します。",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "toggle",
				Description: "時報のON/OFFを切り替えます。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
			{
				Name:        "audio_set",
				Description: "時報で再生する音声ファイルのURLを設定します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "url",
						Description: "音声ファイルのURL (WAV)",
						Type:        discordgo.ApplicationCommandOptionString,
						Required:    true,
					},
				},
			},
			{
				Name:        "audio_clear",
				Description: "設定済みの時報音声を解除します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
		},
	}
}

func autojoinDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "autojoin",
		Description: "ユーザーのVC参加を検知してBotを自動参加させる機能を設定します。",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "toggle",
				Description: "自動参加のON/OFFを切り替えます。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
			{
				Name:        "vc",
				Description: "自動参加の対象となるボイスチャンネルを設定します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "channel",
						Description: "対象のボイスチャンネル",
						Type:        discordgo.ApplicationCommandOptionChannel,
						Required:    true,
						ChannelTypes: []discordgo.ChannelType{
							discordgo.ChannelTypeGuildVoice,
						},
					},
				},
			},
			{
				Name:        "text",
				Description: "読み上げ対象のテキストチャンネルを設定します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "channel",
						Description: "対象のテキストチャンネル",
						Type:        discordgo.ApplicationCommandOptionChannel,
						Required:    true,
						ChannelTypes: []discordgo.ChannelType{
							discordgo.ChannelTypeGuildText,
						},
					},
				},
			},
		},
	}
}

func dictDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "dict",
		Description: "読み替え辞書を管理します。",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "add",
				Description: "読み替えを追加します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "word",
						Description: "読み替え対象の単語",
						Type:        discordgo.ApplicationCommandOptionString,
						Required:    true,
					},
					{
						Name:        "read_as",
						Description: "読み上げる際の読み仮名",
						Type:        discordgo.ApplicationCommandOptionString,
						Required:    true,
					},
				},
			},
			{
				Name:        "remove",
				Description: "登録済みの読み替えを削除します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:         "word",
						Description:  "削除する単語",
						Type:         discordgo.ApplicationCommandOptionString,
						Required:     true,
						Autocomplete: true,
					},
				},
			},
			{
				Name:        "list",
				Description: "登録済みの読み替え一覧を表示します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
		},
	}
}

func voicePrefDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "voice",
		Description: "読み上げに使う声を設定します。",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "set",
				Description: "あなたの声をプリセットIDで設定します。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "preset",
						Description: "VOICEVOXプリセットID",
						Type:        discordgo.ApplicationCommandOptionInteger,
						Required:    true,
					},
				},
			},
			{
				Name:        "reset",
				Description: "声の設定をリセットします。",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
		},
	}
}
