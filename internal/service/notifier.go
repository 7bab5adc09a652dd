package service

import (
	"errors"
	"net/http"
	"sync"

	"github.com/PaulSonOfLars/gotgbot/v2"
	log "github.com/sirupsen/logrus"

	"tft-leaderboard-bot/internal/domain"
	"tft-leaderboard-bot/internal/repository"
)

// MessageSender is the slice of *gotgbot.Bot the notifier uses.
type MessageSender interface {
	SendMessage(chatId int64, text string, opts *gotgbot.SendMessageOpts) (*gotgbot.Message, error)
	DeleteMessage(chatId int64, messageId int64, opts *gotgbot.DeleteMessageOpts) (bool, error)
}

type Subscriptions interface {
	List() ([]repository.Subscription, error)
	Unsubscribe(chatId int64) (bool, error)
}

type NotifyResult struct {
	Sent    int
	Skipped int
	Failed  int
}

// Notifier posts refreshed leaderboards to subscribed chats. Each chat keeps only the
// latest post: the previous one is deleted once the new one is out.
type Notifier struct {
	sender MessageSender
	subs   Subscriptions
	posted sync.Map // map[int64]int64, chat id to message id
}

func NewNotifier(sender MessageSender, subs Subscriptions) *Notifier {
	return &Notifier{sender: sender, subs: subs}
}

func (n *Notifier) Notify(prev, next domain.Snapshot) NotifyResult {
	var result NotifyResult
	subs, err := n.subs.List()
	if err != nil {
		log.WithError(err).Error("failed to list subscriptions")
		return result
	}
	if len(subs) == 0 {
		return result
	}

	changed := prev.IsZero() || domain.StandingsChanged(prev.Leaderboard, next.Leaderboard)
	text, keyboard := FormatLeaderboard(next, viewStandings, 0)

	for _, sub := range subs {
		if sub.OnlyChanges && !changed {
			result.Skipped++
			continue
		}
		msg, err := n.sender.SendMessage(sub.ChatID, text, &gotgbot.SendMessageOpts{
			ParseMode:   "HTML",
			ReplyMarkup: keyboard,
		})
		if err != nil {
			result.Failed++
			n.handleSendError(sub.ChatID, err)
			continue
		}
		result.Sent++
		n.replacePost(sub.ChatID, msg.MessageId)
	}

	log.WithFields(log.Fields{
		"sent":    result.Sent,
		"skipped": result.Skipped,
		"failed":  result.Failed,
		"changed": changed,
	}).Debug("leaderboard notifications done")
	return result
}

func (n *Notifier) replacePost(chatId, messageId int64) {
	old, loaded := n.posted.Swap(chatId, messageId)
	if !loaded {
		return
	}
	if _, err := n.sender.DeleteMessage(chatId, old.(int64), nil); err != nil {
		log.WithError(err).WithField("chat_id", chatId).Debug("failed to delete previous leaderboard post")
	}
}

// handleSendError drops chats that removed or blocked the bot.
func (n *Notifier) handleSendError(chatId int64, err error) {
	logger := log.WithError(err).WithField("chat_id", chatId)
	var tgErr *gotgbot.TelegramError
	if errors.As(err, &tgErr) && tgErr.Code == http.StatusForbidden {
		n.posted.Delete(chatId)
		if _, uerr := n.subs.Unsubscribe(chatId); uerr != nil {
			logger.WithField("unsubscribe_error", uerr).Error("failed to drop unreachable chat")
			return
		}
		logger.Warn("bot lost access to chat, subscription removed")
		return
	}
	logger.Error("failed to post leaderboard")
}

// LastPost returns the id of the leaderboard message currently posted in the chat.
func (n *Notifier) LastPost(chatId int64) (int64, bool) {
	v, ok := n.posted.Load(chatId)
	if !ok {
		return 0, false
	}
	return v.(int64), true
}
