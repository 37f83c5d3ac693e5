package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv     string
	AppPort    string
	AppBaseURL string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	SecretKey  string
	SessionKey string

	MAIB MAIBConfig

	ReconcileInterval     time.Duration
	ReconcileStalledAfter time.Duration
	ReconcileBatchSize    int
	CloseDayInterval      time.Duration

	CheckoutSteps        []string
	AnonymousPermissions []string
}

// MAIBConfig holds the merchant credentials and behaviour of the MAIB gateway.
type MAIBConfig struct {
	MerchantURL  string
	ClientURL    string
	CertPath     string
	KeyPath      string
	PFXPath      string
	CertPassword string
	GatewayID    string
	GatewayIDs   []string
	Intent       string
	Language     string
	Timeout      time.Duration
}

const (
	defaultMerchantURL = "https://maib.ecommerce.md:21440/ecomm/MerchantHandler"
	defaultClientURL   = "https://maib.ecommerce.md:21443/ecomm/ClientHandler"
	defaultGatewayID   = "maib"
	defaultSteps       = "login,order_information,review,payment,complete"
)

func LoadConfig() *Config {
	_ = godotenv.Load()

	gatewayID := getEnv("MAIB_GATEWAY_ID", defaultGatewayID)

	cfg := &Config{
		AppEnv:     os.Getenv("APP_ENV"),
		AppPort:    getEnv("APP_PORT", "8080"),
		AppBaseURL: strings.TrimRight(os.Getenv("APP_BASE_URL"), "/"),

		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),

		SecretKey:  os.Getenv("SECRET_KEY"),
		SessionKey: os.Getenv("SESSION_KEY"),

		MAIB: MAIBConfig{
			MerchantURL:  getEnv("MAIB_MERCHANT_URL", defaultMerchantURL),
			ClientURL:    getEnv("MAIB_CLIENT_URL", defaultClientURL),
			CertPath:     os.Getenv("MAIB_CERT_PATH"),
			KeyPath:      os.Getenv("MAIB_KEY_PATH"),
			PFXPath:      os.Getenv("MAIB_PFX_PATH"),
			CertPassword: os.Getenv("MAIB_CERT_PASSWORD"),
			GatewayID:    gatewayID,
			GatewayIDs:   splitList(getEnv("MAIB_GATEWAY_IDS", gatewayID)),
			Intent:       getEnv("MAIB_INTENT", "capture"),
			Language:     getEnv("MAIB_LANGUAGE", "ro"),
			Timeout:      getDuration("MAIB_TIMEOUT", 30*time.Second),
		},

		ReconcileInterval:     getDuration("RECONCILE_INTERVAL", 5*time.Minute),
		ReconcileStalledAfter: getDuration("RECONCILE_STALLED_AFTER", 15*time.Minute),
		ReconcileBatchSize:    getInt("RECONCILE_BATCH_SIZE", 50),
		CloseDayInterval:      getDuration("CLOSE_DAY_INTERVAL", 24*time.Hour),

		CheckoutSteps:        splitList(getEnv("CHECKOUT_STEPS", defaultSteps)),
		AnonymousPermissions: splitList(getEnv("ANONYMOUS_PERMISSIONS", "access checkout")),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
