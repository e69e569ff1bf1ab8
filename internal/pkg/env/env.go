package env

import (
	"os"
	"strconv"
	"time"

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

// GetBool parses a boolean variable; unparsable values return def.
func GetBool(key string, def bool) bool {
	v, err := strconv.ParseBool(GetEnv(key, strconv.FormatBool(def)))
	if err != nil {
		return def
	}
	return v
}

// GetInt parses an integer variable; unparsable values return def.
func GetInt(key string, def int) int {
	v, err := strconv.Atoi(GetEnv(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}

// GetDuration parses a Go duration ("72h", "30m"); unparsable values return def.
func GetDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(GetEnv(key, def.String()))
	if err != nil {
		return def
	}
	return v
}

// SetupEnvFile loads the first .env file found. It returns the loaded path, or
// "" when none exists and only the process environment is used.
func SetupEnvFile() string {
	// Look for .env file in project root
	envFiles := []string{
		".env",          // Current directory
		"../../.env",    // From cmd/tenantfox to project root
		"../../../.env", // Fallback for deeper nesting
	}

	for _, envFile := range envFiles {
		loaded, err := godotenv.Read(envFile)
		if err == nil {
			Env = loaded
			return envFile
		}
	}

	return ""
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
