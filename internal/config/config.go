package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config carries the settings shared by the service binaries. Values come
// from an optional app.env file, overridden by environment variables.
type Config struct {
	AppName string `mapstructure:"APP_NAME"`
	Port    string `mapstructure:"PORT"`

	PostgresURL string `mapstructure:"POSTGRES_URL"`

	KafkaBrokers          string `mapstructure:"KAFKA_BROKERS"`
	OrderCreatedTopic     string `mapstructure:"ORDER_CREATED_TOPIC"`
	PaymentConfirmedTopic string `mapstructure:"PAYMENT_CONFIRMED_TOPIC"`

	CheckoutServiceURL string `mapstructure:"CHECKOUT_SERVICE_URL"`
	MomoServiceURL     string `mapstructure:"MOMO_SERVICE_URL"`
	NotifyServiceURL   string `mapstructure:"NOTIFY_SERVICE_URL"`

	OTELExporterEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	MomoSettleAfterPolls int    `mapstructure:"MOMO_SETTLE_AFTER_POLLS"`
	MomoRejectSuffix     string `mapstructure:"MOMO_REJECT_SUFFIX"`

	PollIntervalSeconds int    `mapstructure:"POLL_INTERVAL_SECONDS"`
	PollMaxAttempts     int    `mapstructure:"POLL_MAX_ATTEMPTS"`
	SessionPath         string `mapstructure:"SESSION_PATH"`
}

// Brokers splits the comma-separated broker list; empty input disables
// messaging.
func (c Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func Load(appName, defaultPort string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("APP_NAME", appName)
	v.SetDefault("PORT", defaultPort)
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("ORDER_CREATED_TOPIC", "order.created")
	v.SetDefault("PAYMENT_CONFIRMED_TOPIC", "payment.confirmed")
	v.SetDefault("CHECKOUT_SERVICE_URL", "http://localhost:8081")
	v.SetDefault("MOMO_SERVICE_URL", "http://localhost:8084")
	v.SetDefault("NOTIFY_SERVICE_URL", "http://localhost:8085")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("MOMO_SETTLE_AFTER_POLLS", 2)
	v.SetDefault("MOMO_REJECT_SUFFIX", "99")
	v.SetDefault("POLL_INTERVAL_SECONDS", 5)
	v.SetDefault("POLL_MAX_ATTEMPTS", 24)
	v.SetDefault("SESSION_PATH", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
