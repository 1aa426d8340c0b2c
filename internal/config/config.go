package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"campusstay_echo/internal/logger"
)

// Config holds every environment-driven setting used by the server and the worker.
type Config struct {
	Env    string
	AppURL string
	Port   string

	DatabaseURL string
	DBLogLevel  string
	RedisURL    string

	FirebaseCredentialsPath string
	FirebaseStorageBucket   string
	FirebaseAPIKey          string
	FirebaseAuthDomain      string
	FirebaseProjectID       string
	UploadDir               string

	PaystackSecretKey string
	PaystackPublicKey string
	PaystackBaseURL   string
	GatewayTimeout    time.Duration

	LevyFeePerRoom    decimal.Decimal
	LevyValidityDays  int
	Currency          string
	PaymentIntentTTL  time.Duration
	InviteTokenTTL    time.Duration
	FlashMessageTTL   time.Duration
	OwnerDocMaxBytes  int64
	AgreementMaxBytes int64

	SMTPHost       string
	SMTPPort       string
	SMTPUser       string
	SMTPPass       string
	EmailFrom      string
	SendgridAPIKey string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromPhone  string

	WahaBaseURL string
	WahaAPIKey  string

	WorkerSchedule string
}

// Load reads .env (if present) and the process environment into a Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Log.Info("No .env file found, using system environment")
	}

	return &Config{
		Env:    getEnv("ENV", "development"),
		AppURL: getEnv("APP_URL", "http://localhost:8080"),
		Port:   getEnv("PORT", "8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBLogLevel:  getEnv("DB_LOG_LEVEL", "warn"),
		RedisURL:    os.Getenv("REDIS_URL"),

		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase-service-account.json"),
		FirebaseStorageBucket:   os.Getenv("FIREBASE_STORAGE_BUCKET"),
		FirebaseAPIKey:          os.Getenv("FIREBASE_API_KEY"),
		FirebaseAuthDomain:      os.Getenv("FIREBASE_AUTH_DOMAIN"),
		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		UploadDir:               getEnv("UPLOAD_DIR", "./uploads"),

		PaystackSecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackPublicKey: os.Getenv("PAYSTACK_PUBLIC_KEY"),
		PaystackBaseURL:   getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		GatewayTimeout:    getDuration("GATEWAY_TIMEOUT", 10*time.Second),

		LevyFeePerRoom:    getDecimal("LEVY_FEE_PER_ROOM", decimal.NewFromInt(50)),
		LevyValidityDays:  getInt("LEVY_VALIDITY_DAYS", 365),
		Currency:          getEnv("CURRENCY", "GHS"),
		PaymentIntentTTL:  getDuration("PAYMENT_INTENT_TTL", 24*time.Hour),
		InviteTokenTTL:    getDuration("INVITE_TOKEN_TTL", 7*24*time.Hour),
		FlashMessageTTL:   getDuration("FLASH_MESSAGE_TTL", 5*time.Minute),
		OwnerDocMaxBytes:  int64(getInt("OWNER_DOC_MAX_BYTES", 5<<20)),
		AgreementMaxBytes: int64(getInt("AGREEMENT_MAX_BYTES", 10<<20)),

		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       os.Getenv("SMTP_PORT"),
		SMTPUser:       os.Getenv("SMTP_USER"),
		SMTPPass:       os.Getenv("SMTP_PASS"),
		EmailFrom:      os.Getenv("EMAIL_FROM"),
		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromPhone:  os.Getenv("TWILIO_FROM_PHONE"),

		WahaBaseURL: getEnv("WAHA_BASE_URL", "http://waha:3000"),
		WahaAPIKey:  os.Getenv("WAHA_API_KEY"),

		WorkerSchedule: getEnv("WORKER_SCHEDULE", "@every 5m"),
	}
}

// LevyValidity is the length of one paid levy period.
func (c *Config) LevyValidity() time.Duration {
	return time.Duration(c.LevyValidityDays) * 24 * time.Hour
}

// IsProduction reports whether cookies should be marked secure.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Log.Warnf("Invalid %s '%s', using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Log.Warnf("Invalid %s '%s', using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil || !d.IsPositive() {
		logger.Log.Warnf("Invalid %s '%s', using %s", key, v, fallback)
		return fallback
	}
	return d
}
