package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DBConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

type CatalogConfig struct {
	// Backend is "postgres" or "postgrest".
	Backend string
	URL     string
	APIKey  string
	Timeout time.Duration
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

type Config struct {
	Telegram struct {
		Token string
	}
	DB      DBConfig
	Catalog CatalogConfig
	Redis   RedisConfig
	GPT     struct {
		APIKey string
		Model  string
	}
	Server struct {
		Port string
	}
	Planner struct {
		DefaultMealBudget float64
		Seed              int64
	}
	Log struct {
		Mode string
	}
	ShutdownTimeout time.Duration
}

var defaults = map[string]interface{}{
	"ShutdownTimeout":           10 * time.Second,
	"Server.Port":               "8080",
	"Log.Mode":                  "production",
	"DB.Host":                   "localhost",
	"DB.Port":                   "5432",
	"DB.User":                   "postgres",
	"DB.Password":               "postgres",
	"DB.DBName":                 "diet_planner",
	"DB.SSLMode":                "disable",
	"DB.MaxOpenConns":           20,
	"DB.MaxIdleConns":           2,
	"DB.ConnLifetime":           5 * time.Minute,
	"Catalog.Backend":           "postgres",
	"Catalog.URL":               "",
	"Catalog.APIKey":            "",
	"Catalog.Timeout":           10 * time.Second,
	"Redis.Addr":                "",
	"Redis.Password":            "",
	"Redis.DB":                  0,
	"Redis.KeyPrefix":           "dietplan:",
	"Redis.TTL":                 24 * time.Hour,
	"Telegram.Token":            "",
	"GPT.APIKey":                "",
	"GPT.Model":                 "gpt-4o-mini",
	"Planner.DefaultMealBudget": 1000.0,
	"Planner.Seed":              0,
}

// Load loads the configuration
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")
	v.AddConfigPath("$HOME/.diet-planner")

	// Every key needs a default so AutomaticEnv can see it during Unmarshal.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// DB.Host <- DB_HOST
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Process any ${ENV_VAR} syntax in the config values
	for _, key := range v.AllKeys() {
		value := v.GetString(key)
		if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
			envVar := strings.TrimPrefix(strings.TrimSuffix(value, "}"), "${")
			v.Set(key, os.Getenv(envVar))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}
