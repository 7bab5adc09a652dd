package handlers

import (
	"tft-leaderboard-bot/internal/service"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
)

func GetSubscribeCommand(botService *service.LeaderboardBotService) ext.Handler {
	return handlers.NewCommand("subscribe", func(b *gotgbot.Bot, ctx *ext.Context) error {
		return botService.HandleSubscribeCommand(b, ctx)
	})
}

func GetUnsubscribeCommand(botService *service.LeaderboardBotService) ext.Handler {
	return handlers.NewCommand("unsubscribe", func(b *gotgbot.Bot, ctx *ext.Context) error {
		return botService.HandleUnsubscribeCommand(b, ctx)
	})
}
