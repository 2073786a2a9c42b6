package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	tele "gopkg.in/telebot.v4"

	"github.com/arenalabs/debatebot/internal/ai"
	"github.com/arenalabs/debatebot/internal/bot"
	"github.com/arenalabs/debatebot/internal/config"
	"github.com/arenalabs/debatebot/internal/db"
	"github.com/arenalabs/debatebot/internal/debate"
	"github.com/arenalabs/debatebot/internal/dialog"
	"github.com/arenalabs/debatebot/internal/httpapi"
	"github.com/arenalabs/debatebot/internal/keystore"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()
	if cfg.BotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is not set")
	}

	gdb := db.Connect(cfg.DBDSN, cfg.SQLitePath)

	cipher, err := keystore.NewCipher(cfg.EncryptionPassphrase)
	if err != nil {
		log.Fatalf("cipher init: %v", err)
	}
	keys := keystore.NewService(keystore.NewRepo(gdb), cipher)

	registry := ai.DefaultRegistry(cfg.GenerateTimeout)
	sessions := debate.NewStore(cfg.SessionIdleTTL)

	var dialogs dialog.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		dialogs = dialog.NewRedisStore(rdb, cfg.DialogTTL)
		log.Printf("dialog state in redis at %s", cfg.RedisAddr)
	} else {
		dialogs = dialog.NewMemoryStore()
	}

	pref := tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			// A second process polling the same token shows up as a 409.
			// Log it and stay alive.
			if strings.Contains(err.Error(), "409") || strings.Contains(err.Error(), "Conflict") {
				log.Printf("telegram conflict (another poller?): %v", err)
				return
			}
			log.Printf("telegram handler error: %v", err)
			if c != nil {
				_ = c.Send("Something went wrong, sorry. Please try again.")
			}
		},
	}

	tb, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("telegram bot init: %v", err)
	}

	botSvc := bot.New(tb, keys, registry, sessions, dialogs, cfg.GenerateTimeout)

	stopCleanup := make(chan struct{})
	go sessions.RunCleanup(time.Minute, stopCleanup)
	defer close(stopCleanup)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.WebhookURL != "" {
		runWebhook(ctx, tb, botSvc, cfg)
		return
	}

	log.Printf("bot started, long polling")
	go botSvc.Start()
	<-ctx.Done()
	log.Printf("shutting down")
	botSvc.Stop()
}

func runWebhook(ctx context.Context, tb *tele.Bot, botSvc *bot.Bot, cfg config.Config) {
	params := map[string]string{"url": cfg.WebhookURL}
	if cfg.WebhookSecret != "" {
		params["secret_token"] = cfg.WebhookSecret
	}
	if _, err := tb.Raw("setWebhook", params); err != nil {
		log.Fatalf("set webhook: %v", err)
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: httpapi.NewRouter(botSvc, cfg.WebhookSecret),
	}

	go func() {
		log.Printf("bot started, webhook on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("webhook server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(sctx)
}
