package env

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

var Env map[string]string

func GetEnv(key, def string) string {
	// First check our loaded Env map
	if val, ok := Env[key]; ok {
		return val
	}
	// Fallback to OS environment variables (for Docker/tests)
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the first .env file found. Containers usually have no
// file and rely on the process environment, so a missing file is not fatal.
func SetupEnvFile() {
	envFiles := []string{
		".env",          // Current directory
		"../../.env",    // From cmd/payfox to project root
		"../../../.env", // Fallback for deeper nesting
	}

	for _, envFile := range envFiles {
		values, err := godotenv.Read(envFile)
		if err == nil {
			Env = values
			log.Infof("Loaded environment from %s", envFile)
			return
		}
	}

	Env = map[string]string{}
	log.Info("No .env file found, using process environment")
}

// Environ merges the process environment with the loaded .env values. File
// values win, matching GetEnv.
func Environ() map[string]string {
	merged := make(map[string]string, len(Env))
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			merged[k] = v
		}
	}
	for k, v := range Env {
		merged[k] = v
	}
	return merged
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
