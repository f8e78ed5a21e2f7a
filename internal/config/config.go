package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress   string
	MongoURI        string
	MongoDB         string
	UploadDir       string
	MaxUploadSizeMB int64
}

func Load() *Config {
	// A missing .env is fine; the real environment wins either way.
	_ = godotenv.Load()

	return &Config{
		ServerAddress:   ":" + getEnv("PORT", "5000"),
		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDB:         getEnv("MONGO_DB", "inventory"),
		UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadSizeMB: 10,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
