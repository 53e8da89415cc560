package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

func GetRandomUserAgent() string {
	return userAgents[time.Now().UnixNano()%int64(len(userAgents))]
}

func NewJobID() string {
	return uuid.New().String()
}

func ParseHeaderArgs(headers []string) map[string]string {
	result := make(map[string]string)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}

func SanitizeFilename(name string) string {
	return FilenameRegex.ReplaceAllString(name, "_")
}

// PrepareDestination creates dir when missing. An existing non-directory at that
// path is a configuration error.
func PrepareDestination(dir string) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return &ConfigError{Field: "destination", Msg: fmt.Sprintf("%s exists and is a file", dir)}
		}
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error checking destination: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating destination: %w", err)
	}
	return nil
}

// ReadBatchList loads a YAML list of batch entries. Every entry needs a link.
func ReadBatchList(filePath string) ([]BatchEntry, error) {
	log := GetLogger("config")
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading YAML file: %w", err)
	}
	var entries []BatchEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("error parsing YAML file: %w", err)
	}
	for i, entry := range entries {
		if entry.URL == "" {
			return nil, fmt.Errorf("missing link for entry %d", i+1)
		}
		if entry.Threads != nil && *entry.Threads < 0 {
			return nil, &ConfigError{Field: "threads", Msg: fmt.Sprintf("entry %d has a negative thread count", i+1)}
		}
	}
	log.Debug().Int("count", len(entries)).Msg("Entries loaded from YAML")
	return entries, nil
}

// LoadEnvDefaults reads envFile (if present) into the process environment and
// returns flag name -> value for every FUTLOAD_* variable that is set.
func LoadEnvDefaults(envFile string) (map[string]string, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading %s: %w", envFile, err)
	}
	defaults := make(map[string]string)
	for env, flag := range EnvFlagDefaults {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			defaults[flag] = v
		}
	}
	return defaults, nil
}
