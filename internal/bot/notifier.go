package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"ucshop-bot/internal/domain"
)

// Notifier fans order and top-up events out to every configured admin.
// Delivery to each admin is attempted independently: one blocked admin
// never keeps the others (or the user-facing confirmation) from going out.
type Notifier struct {
	api      *tgbotapi.BotAPI
	adminIDs []int64
}

func NewNotifier(api *tgbotapi.BotAPI, adminIDs []int64) *Notifier {
	return &Notifier{api: api, adminIDs: adminIDs}
}

func (n *Notifier) OrderSubmitted(o domain.Order, u domain.UserAccount) {
	text := fmt.Sprintf(
		"🆕 Yangi buyurtma\n\n🆔 %s\n📦 %s: %s\n🎮 %s\n💰 %s so'm\n👤 %s (ID: %d)",
		o.ID, o.Family, o.ItemKey, o.DeliveryID, fmtSum(o.Price), displayName(u), u.ID,
	)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Tasdiqlash", Command{"confirm", "order", string(o.ID)}.String()),
			tgbotapi.NewInlineKeyboardButtonData("❌ Rad etish", Command{"reject", "order", string(o.ID)}.String()),
		),
	)
	n.fanOut(text, kb)
}

func (n *Notifier) TopUpSubmitted(t domain.TopUp, u domain.UserAccount) {
	text := fmt.Sprintf(
		"💳 Yangi to'lov so'rovi\n\n🆔 %s\n💰 %s so'm (%s)\n👤 %s (ID: %d)",
		t.ID, fmtSum(t.Amount), t.Card, displayName(u), u.ID,
	)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Tasdiqlash", Command{"confirm", "topup", string(t.ID)}.String()),
			tgbotapi.NewInlineKeyboardButtonData("❌ Rad etish", Command{"reject", "topup", string(t.ID)}.String()),
		),
	)
	n.fanOut(text, kb)
}

func (n *Notifier) fanOut(text string, kb tgbotapi.InlineKeyboardMarkup) {
	for _, adminID := range n.adminIDs {
		msg := tgbotapi.NewMessage(adminID, text)
		msg.ReplyMarkup = kb
		if _, err := n.api.Send(msg); err != nil {
			log.WithError(err).WithField("admin", adminID).Error("admin notify failed")
		}
	}
}

func displayName(u domain.UserAccount) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return fmt.Sprintf("%d", u.ID)
}
