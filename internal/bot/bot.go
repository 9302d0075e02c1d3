// Package bot is the Telegram boundary: the long-polling update loop, the
// typed callback dispatch, the user-facing flows and the admin panel.
// All financial state changes happen in internal/ledger; this package only
// renders and routes.
package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"ucshop-bot/internal/catalog"
	"ucshop-bot/internal/config"
	"ucshop-bot/internal/domain"
	"ucshop-bot/internal/flow"
	"ucshop-bot/internal/ledger"
	"ucshop-bot/internal/promo"
	"ucshop-bot/internal/session"
	"ucshop-bot/internal/storage"
	"ucshop-bot/internal/web"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      *config.Config
	users    *storage.UserStore
	sessions *session.Store
	catalog  *catalog.Catalog
	ledger   *ledger.Ledger
	promos   *promo.Store
	engine   *flow.Engine
	topup    *flow.TopUpFlow
	limiter  *rateLimiter
}

func New(api *tgbotapi.BotAPI, cfg *config.Config, users *storage.UserStore,
	sessions *session.Store, cat *catalog.Catalog, led *ledger.Ledger,
	promos *promo.Store, engine *flow.Engine, topup *flow.TopUpFlow) *Bot {
	return &Bot{
		api:      api,
		cfg:      cfg,
		users:    users,
		sessions: sessions,
		catalog:  cat,
		ledger:   led,
		promos:   promos,
		engine:   engine,
		topup:    topup,
		limiter:  newRateLimiter(2*time.Second, 3),
	}
}

// Run consumes updates until ctx is cancelled. Updates are handled one at a
// time; the stores still lock internally because handlers suspend on
// network I/O and the ledger must stay safe against re-entrant logic.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	log.WithField("account", b.api.Self.UserName).Info("bot running")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(update)
		}
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("recovered in update handler")
		}
	}()

	switch {
	case update.Message != nil:
		if update.Message.From == nil || update.Message.Chat == nil {
			return
		}
		userID := domain.UserID(update.Message.From.ID)
		if !b.limiter.allow(userID) {
			web.UpdatesDropped.Inc()
			return
		}
		b.refreshProfile(update.Message.From)
		b.handleMessage(update.Message)

	case update.CallbackQuery != nil:
		if update.CallbackQuery.From == nil {
			return
		}
		b.refreshProfile(update.CallbackQuery.From)
		b.handleCallback(update.CallbackQuery)
	}
}

// refreshProfile keeps the denormalized profile cache warm on every
// interaction.
func (b *Bot) refreshProfile(from *tgbotapi.User) {
	b.users.UpsertProfile(domain.UserID(from.ID), domain.Profile{
		Username:     from.UserName,
		FirstName:    from.FirstName,
		LastName:     from.LastName,
		LanguageCode: from.LanguageCode,
	})
}

func (b *Bot) isAdmin(id domain.UserID) bool {
	return b.cfg.IsAdmin(int64(id))
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat", chatID).Warn("send failed")
	}
}

func (b *Bot) sendKB(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat", chatID).Warn("send failed")
	}
}

// notifyUser is the fire-and-forget channel back to a customer after an
// admin resolution. A failure is logged, never propagated: the ledger
// mutation it reports already committed.
func (b *Bot) notifyUser(userID domain.UserID, text string) {
	b.send(int64(userID), text)
}

func (b *Bot) answer(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		log.WithError(err).Warn("answer callback failed")
	}
}

// markResolved appends the outcome to the admin's notification message so a
// second admin sees the order is already handled.
func (b *Bot) markResolved(cb *tgbotapi.CallbackQuery, outcome string) {
	if cb.Message == nil {
		return
	}
	edit := tgbotapi.NewEditMessageText(
		cb.Message.Chat.ID,
		cb.Message.MessageID,
		cb.Message.Text+"\n\n"+outcome,
	)
	if _, err := b.api.Send(edit); err != nil {
		log.WithError(err).Warn("edit admin message failed")
	}
}
