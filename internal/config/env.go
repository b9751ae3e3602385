package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// DefaultDBPath is used when neither --db nor DB_PATH is set
const DefaultDBPath = "./taxiservice.db"

// Env holds process configuration read from the environment
type Env struct {
	Port        int
	Bind        string
	DBPath      string
	AllowSubnet string
	LogLevel    string
	LogFile     string
	Dev         bool
}

// LoadEnv reads configuration from the environment, loading an optional .env
// file from the working directory first. Variables already set win over .env.
func LoadEnv() Env {
	_ = godotenv.Load(".env")

	env := Env{}

	env.Port = cast.ToInt(getOrReturnDefault("PORT", 8000))
	env.Bind = cast.ToString(getOrReturnDefault("BIND", ""))
	env.DBPath = cast.ToString(getOrReturnDefault("DB_PATH", DefaultDBPath))
	env.AllowSubnet = cast.ToString(getOrReturnDefault("ALLOW_SUBNET", ""))
	env.LogLevel = cast.ToString(getOrReturnDefault("LOG_LEVEL", "info"))
	env.LogFile = cast.ToString(getOrReturnDefault("LOG_FILE", ""))
	env.Dev = cast.ToBool(getOrReturnDefault("DEV", false))

	return env
}

func getOrReturnDefault(key string, defaultValue any) any {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
