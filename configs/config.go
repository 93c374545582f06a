package configs

import (
	"errors"

	"github.com/gamemarket/rmt-marketplace/internal/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	JWT struct {
		Secret string `mapstructure:"secret"`
	} `mapstructure:"jwt"`
	Stripe struct {
		SecretKey     string `mapstructure:"secret-key"`
		WebhookSecret string `mapstructure:"webhook-secret"`
	} `mapstructure:"stripe"`
	Decay struct {
		Cron string `mapstructure:"cron"`
	} `mapstructure:"decay"`
	Frontend struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"frontend"`
}

var AppConfig Config

func LoadConfig() {
	viper.AddConfigPath("./configs")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("decay.cron", "0 0 * * *")
	viper.SetDefault("frontend.url", "http://localhost:5173")

	viper.AutomaticEnv()

	var fileLookupError viper.ConfigFileNotFoundError
	if err := viper.ReadInConfig(); err != nil {
		if errors.As(err, &fileLookupError) {
			logger.Log.Fatal("config file not found", zap.Error(err))
		}
		logger.Log.Fatal("failed to read config", zap.Error(err))
	}

	viper.Unmarshal(&AppConfig)
}
