package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type OrderConfig struct {
	Env                string `yaml:"env" env-default:"local"`
	MetricsServer      `yaml:"metrics_server"`
	OrderDB            `yaml:"order_db"`
	LogConfig          `yaml:"log_config"`
	KafkaService       `yaml:"kafka-service"`
	SettlementService  `yaml:"settlement-service"`
	MarketplaceService `yaml:"marketplace-service"`
	WalletService      `yaml:"wallet-service"`
	TransferIndex      `yaml:"transfer_index"`
	TokenService       `yaml:"token_service"`
	Lifecycle          `yaml:"lifecycle"`
}

type MetricsServer struct {
	Host string `yaml:"host" env-default:"0.0.0.0"`
	Port string `yaml:"port" env-default:"9091"`
}

type OrderDB struct {
	Dsn            string `yaml:"dsn"`
	MigrationsPath string `yaml:"migrations_path"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env-default:"info"`
	LogFormat string `yaml:"log_format" env-default:"text"`
	LogOutput string `yaml:"log_output" env-default:"stdout"`
}

type KafkaService struct {
	Host  string `yaml:"host"`
	Port  string `yaml:"port"`
	Topic string `yaml:"topic" env-default:"order-events"`
}

type SettlementService struct {
	BaseURL string `yaml:"base_url"`
}

type MarketplaceService struct {
	BaseURL string `yaml:"base_url"`
}

type WalletService struct {
	BaseURL string `yaml:"base_url"`
}

type TransferIndex struct {
	Path string `yaml:"path" env-default:"./data/transfer-index"`
}

type TokenService struct {
	// AppSecrets maps application id to the shared secret its external-order
	// tokens are signed with.
	AppSecrets map[string]string `yaml:"app_secrets"`
}

type Lifecycle struct {
	OpenOrderTTL        time.Duration `yaml:"open_order_ttl" env-default:"10m"`
	IncomingTransferTTL time.Duration `yaml:"incoming_transfer_ttl" env-default:"45m"`
	ExpirySweepInterval time.Duration `yaml:"expiry_sweep_interval" env-default:"10m"`
	EarnAmountPerMinute int64         `yaml:"earn_amount_per_minute" env-default:"5000"`
	HistoryPageSize     int           `yaml:"history_page_size" env-default:"25"`
}

func MustLoad() *OrderConfig {

	// Processing env config variable and file
	configPath := os.Getenv("ORDER_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("ORDER_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("failed to find config file: %v\n", err)
	}

	// YAML to struct object
	var cfg OrderConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	return &cfg
}
