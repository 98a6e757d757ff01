package settings

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Env reads settings from environment variables. The key "bucket_name"
// with prefix "ELAB_" is read from ELAB_BUCKET_NAME.
type Env struct {
	Prefix string
}

// Get looks up the environment variable for key
func (e Env) Get(key string) (string, bool) {
	return os.LookupEnv(e.Prefix + strings.ToUpper(key))
}

// LoadEnvFile loads a dotenv file into the process environment.
// Variables already set are left untouched.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}
