package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"ucshop-bot/internal/bot"
	"ucshop-bot/internal/catalog"
	"ucshop-bot/internal/config"
	"ucshop-bot/internal/flow"
	"ucshop-bot/internal/ledger"
	"ucshop-bot/internal/promo"
	"ucshop-bot/internal/session"
	"ucshop-bot/internal/storage"
	"ucshop-bot/internal/web"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stdout)

	if err := godotenv.Load(); err != nil {
		log.Warn("no .env file, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		// missing token or admin set: abort loudly rather than run broken
		log.WithError(err).Fatal("configuration")
	}
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.WithError(err).Fatal("telegram api")
	}

	users := storage.OpenUserStore(cfg.UsersFile)
	led := ledger.Open(users, cfg.OrdersFile)
	sessions := session.NewStore()
	cat := catalog.New()
	promos := promo.NewStore(led)

	notifier := bot.NewNotifier(api, cfg.AdminIDs)
	engine := flow.NewEngine(sessions, cat, led, users, notifier)
	topup := flow.NewTopUpFlow(engine, cfg.MinTopUp)

	go users.RunPeriodicFlush(ctx, cfg.FlushInterval)
	go web.NewServer(cfg.HTTPAddr).Run(ctx)

	b := bot.New(api, cfg, users, sessions, cat, led, promos, engine, topup)
	b.Run(ctx)

	// Run returned: signal received, flush the tail before exit.
	users.Flush()
	log.Info("shut down")
}
