package bot

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"ucshop-bot/internal/domain"
	"ucshop-bot/internal/flow"
	"ucshop-bot/internal/session"
	"ucshop-bot/internal/web"
)

func (b *Bot) handleMessage(m *tgbotapi.Message) {
	chatID := m.Chat.ID
	userID := domain.UserID(m.From.ID)
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return
	}

	if m.IsCommand() {
		switch m.Command() {
		case "start":
			// entering the menu drops whatever flow was in progress
			b.sessions.Clear(userID)
			b.sendMainMenu(chatID, userID)
		case "balance":
			b.sendAccount(chatID, userID)
		case "admin":
			if !b.isAdmin(userID) {
				b.send(chatID, "Ruxsat yo'q!")
				return
			}
			b.sendAdminPanel(chatID)
		default:
			b.send(chatID, "Bo'limni tanlash uchun /start ni bosing.")
		}
		return
	}

	// Free text belongs to exactly one active flow. No flow, no meaning.
	f := b.sessions.Get(userID)
	switch f.Kind {
	case session.FlowBuying:
		b.handleDeliveryID(chatID, userID, text)
	case session.FlowToppingUp:
		b.handleTopUpText(chatID, userID, f, text)
	case session.FlowRedeemingPromo:
		b.handlePromoRedeem(chatID, userID, text)
	case session.FlowCreatingPromo:
		b.handlePromoWizard(chatID, userID, f, text)
	case session.FlowBroadcasting:
		b.handleBroadcast(chatID, userID, text)
	case session.FlowFindingUser:
		b.handleFindUser(chatID, userID, text)
	case session.FlowMessagingUser:
		b.handleDirectMessage(chatID, userID, f, text)
	case session.FlowAdjustingBalance:
		b.handleBalanceAdjust(chatID, userID, f, text)
	case session.FlowEditingPrice:
		b.handlePriceEdit(chatID, userID, text)
	default:
		b.send(chatID, "Bo'limni tanlash uchun /start ni bosing.")
	}
}

func (b *Bot) handleDeliveryID(chatID int64, userID domain.UserID, text string) {
	order, err := b.engine.SubmitDeliveryID(userID, text)
	switch {
	case errors.Is(err, domain.ErrBadDeliveryID):
		// same step, user retries
		b.send(chatID, "❌ Iltimos, to'g'ri ID kiriting!")
	case errors.Is(err, domain.ErrInsufficientFunds):
		b.send(chatID, "❌ Mablag' yetarli emas. Balansingizni to'ldiring va qayta urinib ko'ring.")
	case err != nil:
		b.send(chatID, "Xatolik yuz berdi. /start ni bosing.")
	default:
		web.OrdersCreated.WithLabelValues(string(order.Family)).Inc()
		spec := flow.Spec(order.Family)
		b.send(chatID, fmt.Sprintf(
			"✅ Buyurtmangiz qabul qilindi!\n\n📦 %s: %s %s\n🎮 %s\n💰 %s so'm\n\nTez orada admin tasdiqlaydi.",
			spec.Title, order.ItemKey, spec.Unit, order.DeliveryID, fmtSum(order.Price)))
	}
}

func (b *Bot) handleTopUpText(chatID int64, userID domain.UserID, f session.Flow, text string) {
	if f.TopUpStep != session.TopUpAwaitAmount {
		b.send(chatID, "Iltimos, tugmalardan foydalaning.")
		return
	}
	amount, err := b.topup.SubmitAmount(userID, text)
	if err != nil {
		b.send(chatID, fmt.Sprintf(
			"❌ Noto'g'ri summa. Kamida %s so'm kiriting.", fmtSum(b.topup.Min())))
		return
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Uzcard", Command{"topup", "card", flow.CardUzcard}.String()),
			tgbotapi.NewInlineKeyboardButtonData("Humo", Command{"topup", "card", flow.CardHumo}.String()),
		),
		backRow(),
	)
	b.sendKB(chatID, fmt.Sprintf("💳 %s so'm. To'lov turini tanlang:", fmtSum(amount)), kb)
}

func (b *Bot) handlePromoRedeem(chatID int64, userID domain.UserID, text string) {
	b.sessions.Clear(userID)
	newBal, err := b.promos.Redeem(text, userID)
	switch {
	case errors.Is(err, domain.ErrPromoNotFound):
		web.PromoRedemptions.WithLabelValues("not_found").Inc()
		b.send(chatID, "❌ Bunday promokod topilmadi.")
	case errors.Is(err, domain.ErrPromoUsed):
		web.PromoRedemptions.WithLabelValues("already_used").Inc()
		b.send(chatID, "❌ Siz bu promokodni allaqachon ishlatgansiz.")
	case errors.Is(err, domain.ErrPromoExhausted):
		web.PromoRedemptions.WithLabelValues("exhausted").Inc()
		b.send(chatID, "❌ Promokod muddati tugagan yoki limiti tugab bo'lgan.")
	case err != nil:
		b.send(chatID, "Xatolik yuz berdi. Qaytadan urinib ko'ring.")
	default:
		web.PromoRedemptions.WithLabelValues("ok").Inc()
		b.send(chatID, fmt.Sprintf("✅ Promokod qabul qilindi!\n\n💳 Yangi balans: %s so'm", fmtSum(newBal)))
	}
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	cmd, err := ParseCommand(cb.Data)
	if err != nil {
		b.answer(cb, "Eskirgan tugma.")
		return
	}
	chatID := cb.From.ID
	if cb.Message != nil {
		chatID = cb.Message.Chat.ID
	}
	userID := domain.UserID(cb.From.ID)

	switch cmd.Action {
	case "menu":
		b.answer(cb, "")
		switch cmd.Scope {
		case "account":
			b.sendAccount(chatID, userID)
		default:
			b.sendMainMenu(chatID, userID)
		}
	case "back":
		b.answer(cb, "")
		b.sessions.Clear(userID)
		b.sendMainMenu(chatID, userID)
	case "fam":
		b.answer(cb, "")
		b.sendFamilyMenu(chatID, domain.ProductFamily(cmd.Scope))
	case "buy":
		b.handleBuy(cb, chatID, userID, domain.ProductFamily(cmd.Scope), cmd.Arg)
	case "topup":
		b.handleTopUpCallback(cb, chatID, userID, cmd)
	case "promo":
		b.answer(cb, "")
		b.sessions.Set(userID, session.Flow{Kind: session.FlowRedeemingPromo})
		b.send(chatID, "🎁 Promokodni kiriting:")
	case "confirm", "reject":
		b.handleResolution(cb, userID, cmd)
	case "admin":
		b.handleAdminCallback(cb, chatID, userID, cmd)
	default:
		b.answer(cb, "Ushbu bo'lim hozircha mavjud emas.")
	}
}

func (b *Bot) handleBuy(cb *tgbotapi.CallbackQuery, chatID int64, userID domain.UserID,
	family domain.ProductFamily, itemKey string) {

	sel, err := b.engine.SelectItem(userID, family, itemKey)
	switch {
	case errors.Is(err, domain.ErrUnknownItem):
		// stale keyboard
		b.answer(cb, "❌ Bunday paket topilmadi.")
	case errors.Is(err, domain.ErrInsufficientFunds):
		b.answer(cb, "")
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("💳 Balansni to'ldirish", Command{Action: "topup", Scope: "start"}.String()),
			),
			backRow(),
		)
		b.sendKB(chatID, fmt.Sprintf(
			"❌ Mablag' yetarli emas!\n\n💳 Balans: %s so'm\n💰 Kerak: %s so'm\n📉 Yetishmayapti: %s so'm",
			fmtSum(sel.Balance), fmtSum(sel.Price), fmtSum(sel.Shortfall)), kb)
	case err != nil:
		b.answer(cb, "Xatolik yuz berdi.")
	default:
		b.answer(cb, "")
		kb := tgbotapi.NewInlineKeyboardMarkup(backRow())
		b.sendKB(chatID, sel.Spec.Prompt, kb)
	}
}

func (b *Bot) handleTopUpCallback(cb *tgbotapi.CallbackQuery, chatID int64,
	userID domain.UserID, cmd Command) {

	switch cmd.Scope {
	case "start":
		b.answer(cb, "")
		b.topup.Start(userID)
		b.send(chatID, fmt.Sprintf(
			"💳 Qancha to'ldirmoqchisiz? Summani kiriting (kamida %s so'm):", fmtSum(b.topup.Min())))
	case "card":
		amount, err := b.topup.SelectCard(userID, cmd.Arg)
		if err != nil {
			b.answer(cb, "Eskirgan tugma. Qaytadan boshlang.")
			return
		}
		b.answer(cb, "")
		number, owner := b.cardDetails(cmd.Arg)
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ To'lov qildim", Command{Action: "topup", Scope: "paid"}.String()),
			),
			backRow(),
		)
		text := fmt.Sprintf("💳 Karta: %s", number)
		if owner != "" {
			text += fmt.Sprintf("\n👤 Egasi: %s", owner)
		}
		text += fmt.Sprintf("\n💰 Summa: %s so'm\n\nTo'lovni amalga oshirgach, tugmani bosing.", fmtSum(amount))
		b.sendKB(chatID, text, kb)
	case "paid":
		topup, err := b.topup.ConfirmPaid(userID)
		if err != nil {
			b.answer(cb, "Eskirgan tugma. Qaytadan boshlang.")
			return
		}
		b.answer(cb, "")
		b.send(chatID, fmt.Sprintf(
			"✅ So'rovingiz qabul qilindi!\n\n💰 %s so'm\n\nAdmin to'lovni tekshirib tasdiqlaydi.", fmtSum(topup.Amount)))
	default:
		b.answer(cb, "Eskirgan tugma.")
	}
}

func (b *Bot) cardDetails(card string) (number, owner string) {
	if card == flow.CardHumo {
		return b.cfg.HumoNumber, b.cfg.HumoOwner
	}
	return b.cfg.UzcardNumber, b.cfg.UzcardOwner
}

// handleResolution is the admin confirm/reject protocol for both orders and
// top-ups. The ledger enforces exactly-once; this handler only reports.
func (b *Bot) handleResolution(cb *tgbotapi.CallbackQuery, adminID domain.UserID, cmd Command) {
	if !b.isAdmin(adminID) {
		b.answer(cb, "Ruxsat yo'q!")
		return
	}
	switch cmd.Scope {
	case "order":
		b.resolveOrder(cb, adminID, cmd.Action, domain.OrderID(cmd.Arg))
	case "topup":
		b.resolveTopUp(cb, adminID, cmd.Action, domain.TopUpID(cmd.Arg))
	default:
		b.answer(cb, "Eskirgan tugma.")
	}
}

func (b *Bot) resolveOrder(cb *tgbotapi.CallbackQuery, adminID domain.UserID,
	action string, id domain.OrderID) {

	var (
		o   domain.Order
		err error
	)
	if action == "confirm" {
		o, err = b.ledger.ConfirmOrder(id, adminID)
	} else {
		o, err = b.ledger.RejectOrder(id, adminID)
	}

	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		b.answer(cb, "Buyurtma topilmadi!")
	case errors.Is(err, domain.ErrAlreadyResolved):
		b.answer(cb, "Allaqachon hal qilingan.")
	case errors.Is(err, domain.ErrInsufficientFunds):
		// order stays pending; the admin decides what happens next
		b.answer(cb, "Mablag' yetarli emas!")
		b.send(int64(adminID), fmt.Sprintf(
			"❌ Foydalanuvchida yetarli mablag' yo'q (buyurtma %s, kerak: %s so'm). Foydalanuvchi balans to'ldirsin yoki buyurtmani rad eting.",
			o.ID, fmtSum(o.Price)))
	case err != nil:
		log.WithError(err).WithField("order", id).Error("resolve order")
		b.answer(cb, "Xatolik yuz berdi.")
	default:
		spec := flow.Spec(o.Family)
		if action == "confirm" {
			web.OrdersResolved.WithLabelValues(string(domain.OrderCompleted)).Inc()
			b.answer(cb, "✅ Tasdiqlandi")
			b.markResolved(cb, "✅ Tasdiqlandi")
			b.notifyUser(o.UserID, fmt.Sprintf(
				"✅ Buyurtmangiz tasdiqlandi!\n\n📦 %s: %s %s tez orada %s ga tushiriladi.",
				spec.Title, o.ItemKey, spec.Unit, o.DeliveryID))
		} else {
			web.OrdersResolved.WithLabelValues(string(domain.OrderRejected)).Inc()
			b.answer(cb, "❌ Rad etildi")
			b.markResolved(cb, "❌ Rad etildi")
			text := fmt.Sprintf("❌ Buyurtmangiz rad etildi.\n\n📦 %s: %s %s", spec.Title, o.ItemKey, spec.Unit)
			if o.Debit == domain.DebitAtCreate {
				text += fmt.Sprintf("\n💳 %s so'm balansingizga qaytarildi.", fmtSum(o.Price))
			}
			b.notifyUser(o.UserID, text)
		}
	}
}

func (b *Bot) resolveTopUp(cb *tgbotapi.CallbackQuery, adminID domain.UserID,
	action string, id domain.TopUpID) {

	var (
		t   domain.TopUp
		err error
	)
	if action == "confirm" {
		t, err = b.ledger.ConfirmTopUp(id, adminID)
	} else {
		t, err = b.ledger.RejectTopUp(id, adminID)
	}

	switch {
	case errors.Is(err, domain.ErrTopUpNotFound):
		b.answer(cb, "So'rov topilmadi!")
	case errors.Is(err, domain.ErrAlreadyResolved):
		b.answer(cb, "Allaqachon hal qilingan.")
	case err != nil:
		log.WithError(err).WithField("topup", id).Error("resolve topup")
		b.answer(cb, "Xatolik yuz berdi.")
	default:
		if action == "confirm" {
			web.TopUpsResolved.WithLabelValues(string(domain.OrderCompleted)).Inc()
			b.answer(cb, "✅ Tasdiqlandi")
			b.markResolved(cb, "✅ Tasdiqlandi")
			b.notifyUser(t.UserID, fmt.Sprintf(
				"✅ Balansingiz %s so'mga to'ldirildi!\n\n💳 Yangi balans: %s so'm",
				fmtSum(t.Amount), fmtSum(b.users.Get(t.UserID).Balance)))
		} else {
			web.TopUpsResolved.WithLabelValues(string(domain.OrderRejected)).Inc()
			b.answer(cb, "❌ Rad etildi")
			b.markResolved(cb, "❌ Rad etildi")
			b.notifyUser(t.UserID, "❌ To'lov so'rovingiz rad etildi. To'lov topilmadi; admin bilan bog'laning.")
		}
	}
}
