package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Database struct {
		DSN string
	} `mapstructure:"database"`

	Metrics struct {
		Enabled bool
		Addr    string
	} `mapstructure:"metrics"`

	JWT struct {
		Secret string
	} `mapstructure:"jwt"`
}

// Load reads config.yaml (if present) with APP_* env overrides
// (APP_DATABASE_DSN, APP_JWT_SECRET, ...). A local .env file is loaded
// first so compose-style setups keep working.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("app.timezone", "UTC")
	v.SetDefault("http.addr", ":3000")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("database.dsn", "")
	v.SetDefault("jwt.secret", "")

	var c Config
	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; env/defaults carry the rest.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
