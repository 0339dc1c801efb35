// Package env reads process configuration from the environment, after
// loading .env and .env.<APP_ENV> with godotenv.
package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type EnvService struct {
	appEnv string
	loaded []string
	notes  []string
}

// NewEnvService loads .env, then overloads .env.<APP_ENV> (APP_ENV defaults
// to dev). Missing files are not errors; they are reported by Notes.
func NewEnvService() *EnvService {
	return NewEnvServiceIn(".")
}

// NewEnvServiceIn is NewEnvService rooted at dir.
func NewEnvServiceIn(dir string) *EnvService {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}
	e := &EnvService{appEnv: appEnv}

	base := filepath.Join(dir, ".env")
	if err := godotenv.Load(base); err != nil {
		e.notes = append(e.notes, fmt.Sprintf("no %s file with secrets found", base))
	} else {
		e.loaded = append(e.loaded, base)
	}

	envFile := filepath.Join(dir, ".env."+appEnv)
	if err := godotenv.Overload(envFile); err != nil {
		e.notes = append(e.notes, fmt.Sprintf("could not load %s: %v", envFile, err))
	} else {
		e.loaded = append(e.loaded, envFile)
	}
	return e
}

func (e *EnvService) AppEnv() string { return e.appEnv }

// Loaded lists the env files that were read.
func (e *EnvService) Loaded() []string { return e.loaded }

// Notes lists the files that could not be read.
func (e *EnvService) Notes() []string { return e.notes }

func (e *EnvService) Get(key string) string {
	return os.Getenv(key)
}

// GetDefault returns defaultValue when key is unset or blank.
func (e *EnvService) GetDefault(key, defaultValue string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultValue
}

func (e *EnvService) MustGet(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("ENV %s is missing", key)
	}
	return val, nil
}

func (e *EnvService) GetBool(key string, defaultValue bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func (e *EnvService) GetInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetDuration accepts Go durations ("1500ms") or bare milliseconds ("1500").
func (e *EnvService) GetDuration(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	if ms, err := strconv.Atoi(val); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}
