package utils

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadEnv preloads a .env file if present and makes environment
// variables visible to viper. Flag values bound by cmd take precedence
// over the environment.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️  No .env file found, continuing...")
	}
	viper.AutomaticEnv()
	viper.SetDefault("QUEL_MIGRATIONS_DIR", "migrations")
}

// DatabaseURL returns the connection string.
func DatabaseURL() (string, error) {
	url := viper.GetString("DATABASE_URL")
	if url == "" {
		return "", fmt.Errorf("DATABASE_URL not set (in .env or environment)")
	}
	return url, nil
}

// MigrationsDir returns the directory migration files live in.
func MigrationsDir() string {
	return viper.GetString("QUEL_MIGRATIONS_DIR")
}
