package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	log "github.com/sirupsen/logrus"

	"tft-leaderboard-bot/internal/domain"
	"tft-leaderboard-bot/internal/repository"
	"tft-leaderboard-bot/internal/scheduler"
)

const manualRefreshTimeout = 2 * time.Minute

// SnapshotSource is the part of the scheduler the bot reads from.
type SnapshotSource interface {
	Latest() (domain.Snapshot, bool)
	Refresh(ctx context.Context) (domain.Snapshot, error)
}

type LeaderboardBotService struct {
	source        SnapshotSource
	subscriptions *repository.SubscriptionRepo
	auth          *AuthService
}

func NewLeaderboardBotService(source SnapshotSource, subscriptions *repository.SubscriptionRepo, auth *AuthService) *LeaderboardBotService {
	return &LeaderboardBotService{source: source, subscriptions: subscriptions, auth: auth}
}

func (s *LeaderboardBotService) HandleLeaderboardCommand(b *gotgbot.Bot, ctx *ext.Context) error {
	snap, ok := s.source.Latest()
	if !ok {
		_, _ = ctx.EffectiveMessage.Reply(b, "The leaderboard is still loading, try again in a moment.", &gotgbot.SendMessageOpts{})
		return nil
	}
	text, keyboard := FormatLeaderboard(snap, viewStandings, 0)
	_, _ = ctx.EffectiveMessage.Reply(b, text, &gotgbot.SendMessageOpts{
		ParseMode:   "HTML",
		ReplyMarkup: keyboard,
	})
	return nil
}

func (s *LeaderboardBotService) HandleLeaderboardCallback(b *gotgbot.Bot, ctx *ext.Context) error {
	cb := ctx.CallbackQuery
	view, page, ok := parseLeaderboardCallback(cb.Data)
	snap, have := s.source.Latest()
	if !ok || !have {
		cb.Answer(b, nil)
		return nil
	}

	text, keyboard := FormatLeaderboard(snap, view, page)
	_, _, _ = cb.Message.EditText(b, text, &gotgbot.EditMessageTextOpts{
		ParseMode:   "HTML",
		ReplyMarkup: keyboard,
	})
	cb.Answer(b, nil)
	return nil
}

func (s *LeaderboardBotService) HandleRefreshCommand(b *gotgbot.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	if !s.auth.CanManage(b, msg.Chat, msg.From.Id) {
		_, _ = msg.Reply(b, "Only chat admins can force a refresh.", &gotgbot.SendMessageOpts{})
		return nil
	}

	rctx, cancel := context.WithTimeout(context.Background(), manualRefreshTimeout)
	defer cancel()
	snap, err := s.source.Refresh(rctx)
	if errors.Is(err, scheduler.ErrRefreshInProgress) {
		_, _ = msg.Reply(b, "A refresh is already running.", &gotgbot.SendMessageOpts{})
		return nil
	}
	if errors.Is(err, scheduler.ErrStopped) {
		_, _ = msg.Reply(b, "The bot is shutting down, try again later.", &gotgbot.SendMessageOpts{})
		return nil
	}
	if err != nil {
		return err
	}

	text, keyboard := FormatLeaderboard(snap, viewStandings, 0)
	_, _ = msg.Reply(b, text, &gotgbot.SendMessageOpts{
		ParseMode:   "HTML",
		ReplyMarkup: keyboard,
	})
	return nil
}

// HandleSubscribeCommand subscribes the chat. "/subscribe all" posts after every refresh,
// the default posts only when the standings change.
func (s *LeaderboardBotService) HandleSubscribeCommand(b *gotgbot.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	if !s.auth.CanManage(b, msg.Chat, msg.From.Id) {
		_, _ = msg.Reply(b, "Only chat admins can manage subscriptions.", &gotgbot.SendMessageOpts{})
		return nil
	}

	onlyChanges := !strings.EqualFold(commandArg(msg.Text), "all")
	prev, existed, err := s.subscriptions.Get(msg.Chat.Id)
	if err != nil {
		return err
	}
	created, err := s.subscriptions.Subscribe(msg.Chat.Id, onlyChanges, time.Now())
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"chat_id": msg.Chat.Id, "only_changes": onlyChanges, "new": created}).Info("chat subscribed")

	_, _ = msg.Reply(b, subscribeReply(prev, existed, onlyChanges), &gotgbot.SendMessageOpts{})
	return nil
}

func subscribeReply(prev repository.Subscription, existed, onlyChanges bool) string {
	mode := subscriptionMode(onlyChanges)
	switch {
	case !existed:
		return fmt.Sprintf("Subscribed. The leaderboard will be posted here %s.", mode)
	case prev.OnlyChanges == onlyChanges:
		return fmt.Sprintf("Already subscribed. Posts go out %s.", mode)
	default:
		return fmt.Sprintf("Subscription updated. Posts now go out %s instead of %s.", mode, subscriptionMode(prev.OnlyChanges))
	}
}

func subscriptionMode(onlyChanges bool) string {
	if onlyChanges {
		return "when the standings change"
	}
	return "after every refresh"
}

func (s *LeaderboardBotService) HandleUnsubscribeCommand(b *gotgbot.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	if !s.auth.CanManage(b, msg.Chat, msg.From.Id) {
		_, _ = msg.Reply(b, "Only chat admins can manage subscriptions.", &gotgbot.SendMessageOpts{})
		return nil
	}

	removed, err := s.subscriptions.Unsubscribe(msg.Chat.Id)
	if err != nil {
		return err
	}
	text := "This chat was not subscribed."
	if removed {
		text = "Unsubscribed."
		log.WithField("chat_id", msg.Chat.Id).Info("chat unsubscribed")
	}
	_, _ = msg.Reply(b, text, &gotgbot.SendMessageOpts{})
	return nil
}

func (s *LeaderboardBotService) HandleHelpCommand(b *gotgbot.Bot, ctx *ext.Context) error {
	_, _ = ctx.EffectiveMessage.Reply(b, helpText, &gotgbot.SendMessageOpts{})
	return nil
}

const helpText = "🏆 Available commands:\n\n" +
	"/leaderboard - current standings\n" +
	"/refresh - fetch fresh data now\n" +
	"/subscribe - post here when the standings change\n" +
	"/subscribe all - post here after every refresh\n" +
	"/unsubscribe - stop posting here\n" +
	"/help - list commands"

// commandArg returns the text after the command word.
func commandArg(text string) string {
	_, arg, _ := strings.Cut(strings.TrimSpace(text), " ")
	return strings.TrimSpace(arg)
}
