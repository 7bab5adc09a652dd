package handlers

import (
	"tft-leaderboard-bot/internal/service"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"
)

func GetLeaderboardCommand(botService *service.LeaderboardBotService) ext.Handler {
	return handlers.NewCommand("leaderboard", func(b *gotgbot.Bot, ctx *ext.Context) error {
		return botService.HandleLeaderboardCommand(b, ctx)
	})
}

func GetLeaderboardCallback(botService *service.LeaderboardBotService) ext.Handler {
	return handlers.NewCallback(callbackquery.Prefix("lb:"), func(b *gotgbot.Bot, ctx *ext.Context) error {
		return botService.HandleLeaderboardCallback(b, ctx)
	})
}

func GetRefreshCommand(botService *service.LeaderboardBotService) ext.Handler {
	return handlers.NewCommand("refresh", func(b *gotgbot.Bot, ctx *ext.Context) error {
		return botService.HandleRefreshCommand(b, ctx)
	})
}

func GetHelpCommand(botService *service.LeaderboardBotService) ext.Handler {
	return handlers.NewCommand("help", func(b *gotgbot.Bot, ctx *ext.Context) error {
		return botService.HandleHelpCommand(b, ctx)
	})
}
