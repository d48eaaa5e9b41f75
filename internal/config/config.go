package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config carries all process settings. Values come from defaults, an
// optional .env file and SURVEYUIN_* environment variables, in that
// precedence order.
type Config struct {
	v *viper.Viper
}

// New builds a Config instance. Unlike a package-level singleton, every
// caller (and every test) gets its own.
func New() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("addr", ":8080")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("jwt_secret", "surveyuin-dev-secret")
	v.SetDefault("backend_url", "")
	v.SetDefault("confirm_delay", 1500*time.Millisecond)

	// load .env if it exists (ignore if it does not)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Printf("config: load .env: %v", err)
		}
	}
	v.SetEnvPrefix("SURVEYUIN")
	v.AutomaticEnv()
	return &Config{v: v}
}

func (c *Config) Addr() string                { return c.v.GetString("addr") }
func (c *Config) SQLitePath() string          { return c.v.GetString("sqlite_path") }
func (c *Config) JWTSecret() string           { return c.v.GetString("jwt_secret") }
func (c *Config) BackendURL() string          { return c.v.GetString("backend_url") }
func (c *Config) ConfirmDelay() time.Duration { return c.v.GetDuration("confirm_delay") }
