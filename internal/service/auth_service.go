package service

import (
	"github.com/PaulSonOfLars/gotgbot/v2"
)

// AuthService decides who may change chat subscriptions and trigger refreshes.
type AuthService struct {
	devIDs []int64
}

func NewAuthService(devIDs []int64) *AuthService {
	return &AuthService{devIDs: devIDs}
}

func (a *AuthService) IsDev(userId int64) bool {
	for _, id := range a.devIDs {
		if id == userId {
			return true
		}
	}
	return false
}

// CanManage is true for devs and in private chats. Groups require admin status.
func (a *AuthService) CanManage(b *gotgbot.Bot, chat gotgbot.Chat, userId int64) bool {
	if a.IsDev(userId) || chat.Type == "private" {
		return true
	}
	member, err := b.GetChatMember(chat.Id, userId, nil)
	if err != nil {
		return false
	}
	return isAdminStatus(member.GetStatus())
}

func isAdminStatus(status string) bool {
	return status == "creator" || status == "administrator"
}
