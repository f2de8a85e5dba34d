package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// Scheduling engine tuning
	WindowDays int    // trailing analysis window in calendar days (default: 30)
	DayStart   string // scheduling day lower bound, HH:MM (default: 06:00)
	DayEnd     string // scheduling day upper bound, HH:MM (default: 22:00)

	// Phrase configuration (OpenAI-compatible protocol)
	// All providers (openai, deepseek, ollama) use the same config
	PhraseProvider string // Provider identifier: openai, deepseek, ollama, or any compatible endpoint
	PhraseAPIKey   string // Phrase API key
	PhraseBaseURL  string // Phrase base URL (optional, has default per provider)
	PhraseModel    string // Model name: deepseek-chat, gpt-4o-mini, etc.
	PhraseTimeout  int    // Phrase request timeout in seconds (default: 30)

	// Daily digest delivery
	DigestCron     string // cron spec for the digest job (default: 0 7 * * *)
	DigestUsers    string // comma-separated user IDs receiving the digest
	TelegramToken  string
	TelegramChatID int64

	// Other configurations
	Mode          string
	DSN           string
	Driver        string
	Version       string
	InstanceURL   string
	Addr          string
	Data          string
	Port          int
	PhraseEnabled bool
}

// Provider default configurations for the phrase service.
// Used when BLOCKWISE_PHRASE_BASE_URL or _MODEL is not explicitly set.
var phraseProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsPhraseEnabled returns true if reason rewriting is configured. Ollama
// runs locally without a key; every other provider needs one.
func (p *Profile) IsPhraseEnabled() bool {
	return p.PhraseAPIKey != "" || p.PhraseProvider == "ollama"
}

// DigestUserIDs returns the configured digest recipients.
func (p *Profile) DigestUserIDs() []string {
	var ids []string
	for _, id := range strings.Split(p.DigestUsers, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvOrDefaultInt64 returns environment variable value as int64 or default value.
func getEnvOrDefaultInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	// Engine tuning
	p.WindowDays = getEnvOrDefaultInt("BLOCKWISE_WINDOW_DAYS", 30)
	p.DayStart = getEnvOrDefault("BLOCKWISE_DAY_START", "06:00")
	p.DayEnd = getEnvOrDefault("BLOCKWISE_DAY_END", "22:00")

	// Phrase configuration
	p.PhraseProvider = getEnvOrDefault("BLOCKWISE_PHRASE_PROVIDER", "deepseek")
	p.PhraseAPIKey = getEnvOrDefault("BLOCKWISE_PHRASE_API_KEY", "")
	p.PhraseBaseURL = getEnvOrDefault("BLOCKWISE_PHRASE_BASE_URL", "")
	p.PhraseModel = getEnvOrDefault("BLOCKWISE_PHRASE_MODEL", "")
	p.PhraseTimeout = getEnvOrDefaultInt("BLOCKWISE_PHRASE_TIMEOUT_SECONDS", 30)

	p.PhraseEnabled = p.IsPhraseEnabled()

	// Apply provider defaults if not explicitly set
	if p.PhraseBaseURL == "" || p.PhraseModel == "" {
		if defaults, ok := phraseProviderDefaults[p.PhraseProvider]; ok {
			if p.PhraseBaseURL == "" {
				p.PhraseBaseURL = defaults.BaseURL
			}
			if p.PhraseModel == "" {
				p.PhraseModel = defaults.Model
			}
		} else {
			slog.Warn("Unknown phrase provider, defaults not applied", "provider", p.PhraseProvider)
		}
	}

	// Digest configuration
	p.DigestCron = getEnvOrDefault("BLOCKWISE_DIGEST_CRON", "0 7 * * *")
	p.DigestUsers = getEnvOrDefault("BLOCKWISE_DIGEST_USERS", "")
	p.TelegramToken = getEnvOrDefault("BLOCKWISE_TELEGRAM_TOKEN", "")
	p.TelegramChatID = getEnvOrDefaultInt64("BLOCKWISE_TELEGRAM_CHAT_ID", 0)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.WindowDays <= 0 {
		p.WindowDays = 30
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "blockwise")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/blockwise"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("blockwise_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
