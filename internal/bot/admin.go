package bot

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"ucshop-bot/internal/domain"
	"ucshop-bot/internal/session"
)

func (b *Bot) sendAdminPanel(chatID int64) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Statistika", Command{Action: "admin", Scope: "stats"}.String()),
			tgbotapi.NewInlineKeyboardButtonData("📢 Xabar yuborish", Command{Action: "admin", Scope: "broadcast"}.String()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔍 Foydalanuvchi", Command{Action: "admin", Scope: "find"}.String()),
			tgbotapi.NewInlineKeyboardButtonData("✏️ Narx o'zgartirish", Command{Action: "admin", Scope: "editprice"}.String()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎁 Yangi promokod", Command{Action: "admin", Scope: "newpromo"}.String()),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Promokodlarni tozalash", Command{Action: "admin", Scope: "clearpromo"}.String()),
		),
		backRow(),
	)
	b.sendKB(chatID, "👑 Admin panel", kb)
}

func (b *Bot) handleAdminCallback(cb *tgbotapi.CallbackQuery, chatID int64,
	userID domain.UserID, cmd Command) {

	if !b.isAdmin(userID) {
		b.answer(cb, "Ruxsat yo'q!")
		return
	}
	b.answer(cb, "")

	switch cmd.Scope {
	case "panel":
		b.sendAdminPanel(chatID)
	case "stats":
		b.sendStats(chatID)
	case "broadcast":
		b.sessions.Set(userID, session.Flow{Kind: session.FlowBroadcasting})
		b.send(chatID, "📢 Barcha foydalanuvchilarga yuboriladigan xabarni yozing:")
	case "find":
		b.sessions.Set(userID, session.Flow{Kind: session.FlowFindingUser})
		b.send(chatID, "🔍 Foydalanuvchi ID raqamini yuboring:")
	case "msg":
		target, err := strconv.ParseInt(cmd.Arg, 10, 64)
		if err != nil {
			b.send(chatID, "Noto'g'ri ID.")
			return
		}
		b.sessions.Set(userID, session.Flow{
			Kind: session.FlowMessagingUser, TargetUser: domain.UserID(target),
		})
		b.send(chatID, "✉️ Foydalanuvchiga yuboriladigan xabarni yozing:")
	case "adjust":
		target, err := strconv.ParseInt(cmd.Arg, 10, 64)
		if err != nil {
			b.send(chatID, "Noto'g'ri ID.")
			return
		}
		b.sessions.Set(userID, session.Flow{
			Kind: session.FlowAdjustingBalance, TargetUser: domain.UserID(target),
		})
		b.send(chatID, "💰 Summani kiriting (ayirish uchun minus bilan, masalan -5000):")
	case "editprice":
		b.sessions.Set(userID, session.Flow{Kind: session.FlowEditingPrice})
		b.send(chatID, "✏️ Formatda yuboring: <bo'lim> <paket> <narx>\n\nMasalan: uc 60 12500")
	case "newpromo":
		b.sessions.Set(userID, session.Flow{
			Kind: session.FlowCreatingPromo, PromoStep: session.PromoAwaitAmount,
		})
		b.send(chatID, "🎁 Promokod summasini kiriting (so'm):")
	case "clearpromo":
		n := b.promos.ClearAll()
		b.send(chatID, fmt.Sprintf("🗑 %d ta promokod o'chirildi.", n))
	default:
		b.send(chatID, "Bunday bo'lim yo'q.")
	}
}

func (b *Bot) sendStats(chatID int64) {
	stats := b.ledger.Stats()
	users := b.users.All()
	sort.Slice(users, func(i, j int) bool { return users[i].Balance > users[j].Balance })

	var top strings.Builder
	for i, u := range users {
		if i == 5 {
			break
		}
		fmt.Fprintf(&top, "%d. %s — %s so'm\n", i+1, displayName(u), fmtSum(u.Balance))
	}
	b.send(chatID, fmt.Sprintf(
		"📊 Statistika\n\n👥 Foydalanuvchilar: %d\n📦 Buyurtmalar: %d (⏳ %d, ✅ %d, ❌ %d)\n💳 To'lov so'rovlari: %d\n💰 Tushum: %s so'm\n🎁 Promokodlar: %d\n\n🏆 Eng ko'p balans:\n%s",
		len(users), stats.Orders, stats.Pending, stats.Completed, stats.Rejected,
		stats.TopUps, fmtSum(stats.Revenue), b.promos.Count(), top.String()))
}

// --- admin free-text flows; every entry point re-checks authorization ---

func (b *Bot) handleBroadcast(chatID int64, adminID domain.UserID, text string) {
	b.sessions.Clear(adminID)
	if !b.isAdmin(adminID) {
		b.send(chatID, "Ruxsat yo'q!")
		return
	}
	sent := 0
	for _, u := range b.users.All() {
		msg := tgbotapi.NewMessage(int64(u.ID), text)
		if _, err := b.api.Send(msg); err != nil {
			log.WithError(err).WithField("user", u.ID).Debug("broadcast delivery failed")
			continue
		}
		sent++
	}
	b.send(chatID, fmt.Sprintf("📢 Xabar %d ta foydalanuvchiga yuborildi.", sent))
}

func (b *Bot) handleFindUser(chatID int64, adminID domain.UserID, text string) {
	b.sessions.Clear(adminID)
	if !b.isAdmin(adminID) {
		b.send(chatID, "Ruxsat yo'q!")
		return
	}
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		b.send(chatID, "❌ Noto'g'ri ID.")
		return
	}
	u := b.users.Get(domain.UserID(id))
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✉️ Xabar yuborish", Command{"admin", "msg", text}.String()),
			tgbotapi.NewInlineKeyboardButtonData("💰 Balans o'zgartirish", Command{"admin", "adjust", text}.String()),
		),
		backRow(),
	)
	joined := "-"
	if !u.JoinDate.IsZero() {
		joined = u.JoinDate.Format("02.01.2006")
	}
	b.sendKB(chatID, fmt.Sprintf(
		"👤 %s\n🆔 %d\n💳 Balans: %s so'm\n📅 Qo'shilgan: %s",
		displayName(u), u.ID, fmtSum(u.Balance), joined), kb)
}

func (b *Bot) handleDirectMessage(chatID int64, adminID domain.UserID, f session.Flow, text string) {
	b.sessions.Clear(adminID)
	if !b.isAdmin(adminID) {
		b.send(chatID, "Ruxsat yo'q!")
		return
	}
	msg := tgbotapi.NewMessage(int64(f.TargetUser), text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("user", f.TargetUser).Warn("direct message failed")
		b.send(chatID, "❌ Xabar yetkazilmadi.")
		return
	}
	b.send(chatID, "✉️ Xabar yuborildi.")
}

func (b *Bot) handleBalanceAdjust(chatID int64, adminID domain.UserID, f session.Flow, text string) {
	b.sessions.Clear(adminID)
	if !b.isAdmin(adminID) {
		b.send(chatID, "Ruxsat yo'q!")
		return
	}
	delta, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || delta == 0 {
		b.send(chatID, "❌ Noto'g'ri summa.")
		return
	}
	newBal, err := b.ledger.Adjust(f.TargetUser, delta)
	if err != nil {
		b.send(chatID, fmt.Sprintf("❌ Balans yetarli emas (joriy: %s so'm).", fmtSum(newBal)))
		return
	}
	b.send(chatID, fmt.Sprintf("✅ Yangi balans: %s so'm", fmtSum(newBal)))
	b.notifyUser(f.TargetUser, fmt.Sprintf(
		"ℹ️ Balansingiz admin tomonidan o'zgartirildi.\n💳 Yangi balans: %s so'm", fmtSum(newBal)))
}

func (b *Bot) handlePriceEdit(chatID int64, adminID domain.UserID, text string) {
	b.sessions.Clear(adminID)
	if !b.isAdmin(adminID) {
		b.send(chatID, "Ruxsat yo'q!")
		return
	}
	parts := strings.Fields(text)
	if len(parts) != 3 {
		b.send(chatID, "❌ Format: <bo'lim> <paket> <narx>")
		return
	}
	price, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || price <= 0 {
		b.send(chatID, "❌ Noto'g'ri narx.")
		return
	}
	if err := b.catalog.SetPrice(domain.ProductFamily(parts[0]), parts[1], price); err != nil {
		b.send(chatID, "❌ Bunday bo'lim yo'q.")
		return
	}
	b.send(chatID, fmt.Sprintf("✅ %s %s narxi %s so'm qilib o'rnatildi.", parts[0], parts[1], fmtSum(price)))
}

func (b *Bot) handlePromoWizard(chatID int64, adminID domain.UserID, f session.Flow, text string) {
	if !b.isAdmin(adminID) {
		b.sessions.Clear(adminID)
		b.send(chatID, "Ruxsat yo'q!")
		return
	}
	switch f.PromoStep {
	case session.PromoAwaitAmount:
		amount, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil || amount <= 0 {
			b.send(chatID, "❌ Noto'g'ri summa. Qaytadan kiriting:")
			return
		}
		f.PromoAmount = amount
		f.PromoStep = session.PromoAwaitUses
		b.sessions.Set(adminID, f)
		b.send(chatID, "🔢 Necha marta ishlatilsin?")
	case session.PromoAwaitUses:
		uses, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || uses <= 0 {
			b.send(chatID, "❌ Noto'g'ri son. Qaytadan kiriting:")
			return
		}
		f.PromoUses = uses
		f.PromoStep = session.PromoAwaitExpiryDays
		b.sessions.Set(adminID, f)
		b.send(chatID, "📅 Necha kun amal qilsin?")
	case session.PromoAwaitExpiryDays:
		days, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || days <= 0 {
			b.send(chatID, "❌ Noto'g'ri son. Qaytadan kiriting:")
			return
		}
		b.sessions.Clear(adminID)
		p, err := b.promos.Create(f.PromoAmount, f.PromoUses, time.Duration(days)*24*time.Hour)
		if err != nil {
			b.send(chatID, "❌ Promokod yaratilmadi.")
			return
		}
		b.send(chatID, fmt.Sprintf(
			"✅ Promokod yaratildi!\n\n🎁 Kod: %s\n💰 Summa: %s so'm\n🔢 Limit: %d marta\n📅 Muddati: %d kun",
			p.Code, fmtSum(p.Amount), p.TotalUses, days))
	}
}
