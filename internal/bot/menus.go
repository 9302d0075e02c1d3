package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ucshop-bot/internal/domain"
	"ucshop-bot/internal/flow"
)

func backRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Orqaga", Command{Action: "back", Scope: "main"}.String()),
	)
}

func (b *Bot) sendMainMenu(chatID int64, userID domain.UserID) {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👤 Hisobim", Command{Action: "menu", Scope: "account"}.String()),
		),
	}
	for _, fam := range domain.Families {
		spec := flow.Spec(fam)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(spec.Title, Command{Action: "fam", Scope: string(fam)}.String()),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💳 Balansni to'ldirish", Command{Action: "topup", Scope: "start"}.String()),
			tgbotapi.NewInlineKeyboardButtonData("🎁 Promokod", Command{Action: "promo", Scope: "redeem"}.String()),
		),
	)
	if b.isAdmin(userID) {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👑 Admin panel", Command{Action: "admin", Scope: "panel"}.String()),
		))
	}
	u := b.users.Get(userID)
	greeting := "Assalomu alaykum"
	if u.FirstName != "" {
		greeting += ", " + u.FirstName
	}
	b.sendKB(chatID, greeting+"!\n\nBo'limni tanlang:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) sendFamilyMenu(chatID int64, family domain.ProductFamily) {
	spec := flow.Spec(family)
	if spec == nil {
		b.send(chatID, "Bunday bo'lim yo'q.")
		return
	}
	items := b.catalog.Items(family)
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(items)+1)
	for _, it := range items {
		label := fmt.Sprintf("%s %s — %s so'm", it.Label, spec.Unit, fmtSum(it.Price))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, Command{"buy", string(family), it.Key}.String()),
		))
	}
	rows = append(rows, backRow())
	b.sendKB(chatID, spec.Title+" — paketni tanlang:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) sendAccount(chatID int64, userID domain.UserID) {
	u := b.users.Get(userID)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💳 Balansni to'ldirish", Command{Action: "topup", Scope: "start"}.String()),
		),
		backRow(),
	)
	b.sendKB(chatID, fmt.Sprintf(
		"👤 Hisobim\n\n🆔 ID: %d\n💳 Balans: %s so'm", u.ID, fmtSum(u.Balance)), kb)
}
