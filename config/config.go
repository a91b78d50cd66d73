package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Environment string

	// PublicBaseURL is the externally reachable origin used to build the
	// gateway callback URLs.
	PublicBaseURL string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Payment session configuration
	PaymentSessionTTL time.Duration

	// Gateway configuration
	GatewayTimeout     time.Duration
	SimulateGateways   bool
	PaymentResultPath  string
	MinTransactionRef  int
	Bkash              BkashConfig
	Nagad              NagadConfig

	// PubNub operational alerting
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	AlertChannel       string

	// Rate limiting
	PaymentRateLimit  int
	PaymentRateWindow time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

type BkashConfig struct {
	BaseURL   string
	AppKey    string
	AppSecret string
	Username  string
	Password  string
}

type NagadConfig struct {
	BaseURL            string
	MerchantID         string
	MerchantNumber     string
	PGPublicKey        string
	MerchantPrivateKey string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Environment:   getEnv("ENVIRONMENT", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8090"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Payment sessions
		PaymentSessionTTL: getEnvAsDuration("PAYMENT_SESSION_TTL", "30m"),

		// Gateways
		GatewayTimeout:    getEnvAsDuration("GATEWAY_TIMEOUT", "10s"),
		SimulateGateways:  getEnvAsBool("GATEWAY_SIMULATION", false),
		PaymentResultPath: getEnv("PAYMENT_RESULT_PATH", "/payment-result.html"),
		MinTransactionRef: getEnvAsInt("MIN_TRANSACTION_REF_LEN", 5),
		Bkash: BkashConfig{
			BaseURL:   getEnv("BKASH_BASE_URL", ""),
			AppKey:    getEnv("BKASH_APP_KEY", ""),
			AppSecret: getEnv("BKASH_APP_SECRET", ""),
			Username:  getEnv("BKASH_USERNAME", ""),
			Password:  getEnv("BKASH_PASSWORD", ""),
		},
		Nagad: NagadConfig{
			BaseURL:            getEnv("NAGAD_BASE_URL", ""),
			MerchantID:         getEnv("NAGAD_MERCHANT_ID", ""),
			MerchantNumber:     getEnv("NAGAD_MERCHANT_NUMBER", ""),
			PGPublicKey:        getEnv("NAGAD_PG_PUBLIC_KEY", ""),
			MerchantPrivateKey: getEnv("NAGAD_MERCHANT_PRIVATE_KEY", ""),
		},

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		AlertChannel:       getEnv("ALERT_CHANNEL", "payment-reconciliation"),

		// Rate limiting
		PaymentRateLimit:  getEnvAsInt("PAYMENT_RATE_LIMIT", 10),
		PaymentRateWindow: getEnvAsDuration("PAYMENT_RATE_WINDOW", "1m"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
