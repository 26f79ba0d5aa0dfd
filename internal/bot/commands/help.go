package commands

import "github.com/bwmarrin/discordgo"

// HelpEmbed lists every command. Slash and prefix forms behave identically.
func HelpEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "読み上げBot コマンド一覧",
		Description: "スラッシュコマンドとプレフィックスコマンドは同様に動作します。",
		Color:       0x1abc9c,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "`/v`, `!v`",
				Value: "ボイスチャンネルへの参加／退出を切り替えます。",
			},
			{
				Name:  "`/s`, `!s`",
				Value: "現在再生中の読み上げ音声をスキップします。",
			},
			{
				Name:  "`/time`, `!time`",
				Value: "`toggle` で時報のON/OFFを切り替え、`audio set` で音声URL設定、`audio clear` で解除します。",
			},
			{
				Name:  "`/autojoin`, `!autojoin`",
				Value: "ユーザーのVC参加を検出してBotを自動参加させる機能を切り替えます。`vc` と `text` で対象チャンネルを設定します。",
			},
			{
				Name:  "`/dict add`, `!dict add`",
				Value: "読み替えを辞書に追加します。",
			},
			{
				Name:  "`/dict remove`, `!dict remove`",
				Value: "読み替えを削除します。スラッシュコマンドでは補完が利用できます。",
			},
			{
				Name:  "`/dict list`, `!dict list`",
				Value: "登録済みの読み替え一覧をJSON形式で表示します。",
			},
			{
				Name:  "`/voice set`, `!voice set`",
				Value: "あなたの読み上げに使う声をプリセットIDで設定します。`reset` で解除します。",
			},
			{
				Name:  "`/help`, `!help`",
				Value: "このヘルプを表示します。",
			},
		},
	}
}
