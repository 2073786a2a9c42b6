package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	BotToken string

	// DBDSN selects the database driver by its shape:
	// postgres://... or host=... -> postgres, user:pass@tcp(...) -> mysql.
	// Empty means the embedded sqlite file at SQLitePath.
	DBDSN      string
	SQLitePath string

	// Passphrase used to derive the AES key for credential-at-rest encryption.
	EncryptionPassphrase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Webhook mode is enabled when WebhookURL is set; long polling otherwise.
	WebhookURL    string
	WebhookSecret string
	ListenAddr    string

	DefaultQuota    int
	DefaultRounds   int
	GenerateTimeout time.Duration
	SessionIdleTTL  time.Duration
	DialogTTL       time.Duration
}

func Load() Config {
	sqlitePath := os.Getenv("SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = "debatebot.db"
	}

	passphrase := os.Getenv("ENCRYPTION_PASSPHRASE")
	if passphrase == "" {
		passphrase = "dev-passphrase-change-me"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	listenAddr := os.Getenv("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":8080"
	}

	defaultQuota := 20
	if v := os.Getenv("DEFAULT_KEY_QUOTA"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			defaultQuota = n
		}
	}

	defaultRounds := 3
	if v := os.Getenv("DEFAULT_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 2 {
			defaultRounds = n
		}
	}

	genTimeout := 30 * time.Second
	if v := os.Getenv("GENERATE_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			genTimeout = time.Duration(n) * time.Second
		}
	}

	sessionTTL := 30 * time.Minute
	if v := os.Getenv("SESSION_IDLE_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			sessionTTL = time.Duration(n) * time.Minute
		}
	}

	dialogTTL := 15 * time.Minute
	if v := os.Getenv("DIALOG_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			dialogTTL = time.Duration(n) * time.Minute
		}
	}

	return Config{
		BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		DBDSN:      os.Getenv("DB_DSN"),
		SQLitePath: sqlitePath,

		EncryptionPassphrase: passphrase,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		WebhookURL:    os.Getenv("WEBHOOK_URL"),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		ListenAddr:    listenAddr,

		DefaultQuota:    defaultQuota,
		DefaultRounds:   defaultRounds,
		GenerateTimeout: genTimeout,
		SessionIdleTTL:  sessionTTL,
		DialogTTL:       dialogTTL,
	}
}
