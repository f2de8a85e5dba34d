package profile

import (
	"os"
	"reflect"
	"testing"
)

func TestFromEnvDefaults(t *testing.T) {
	clearBlockwiseEnvVars()

	profile := &Profile{}
	profile.FromEnv()

	tests := []struct {
		name     string
		expected string
		actual   string
	}{
		{"DayStart default", "06:00", profile.DayStart},
		{"DayEnd default", "22:00", profile.DayEnd},
		{"PhraseProvider default", "deepseek", profile.PhraseProvider},
		{"PhraseBaseURL from provider default", "https://api.deepseek.com", profile.PhraseBaseURL},
		{"PhraseModel from provider default", "deepseek-chat", profile.PhraseModel},
		{"DigestCron default", "0 7 * * *", profile.DigestCron},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, tt.actual)
			}
		})
	}

	if profile.WindowDays != 30 {
		t.Errorf("WindowDays: expected 30, got %d", profile.WindowDays)
	}
	if profile.PhraseTimeout != 30 {
		t.Errorf("PhraseTimeout: expected 30, got %d", profile.PhraseTimeout)
	}
	if profile.PhraseEnabled {
		t.Error("PhraseEnabled should be false without an API key")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		field    func(*Profile) string
		expected string
	}{
		{
			name:     "phrase provider",
			envVar:   "BLOCKWISE_PHRASE_PROVIDER",
			envValue: "openai",
			field:    func(p *Profile) string { return p.PhraseProvider },
			expected: "openai",
		},
		{
			name:     "phrase API key",
			envVar:   "BLOCKWISE_PHRASE_API_KEY",
			envValue: "test-key",
			field:    func(p *Profile) string { return p.PhraseAPIKey },
			expected: "test-key",
		},
		{
			name:     "phrase base URL wins over provider default",
			envVar:   "BLOCKWISE_PHRASE_BASE_URL",
			envValue: "http://proxy.internal/v1",
			field:    func(p *Profile) string { return p.PhraseBaseURL },
			expected: "http://proxy.internal/v1",
		},
		{
			name:     "day start",
			envVar:   "BLOCKWISE_DAY_START",
			envValue: "07:30",
			field:    func(p *Profile) string { return p.DayStart },
			expected: "07:30",
		},
		{
			name:     "digest cron",
			envVar:   "BLOCKWISE_DIGEST_CRON",
			envValue: "30 6 * * *",
			field:    func(p *Profile) string { return p.DigestCron },
			expected: "30 6 * * *",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearBlockwiseEnvVars()
			os.Setenv(tt.envVar, tt.envValue)
			defer os.Unsetenv(tt.envVar)

			profile := &Profile{}
			profile.FromEnv()

			if actual := tt.field(profile); actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, actual)
			}
		})
	}
}

func TestIsPhraseEnabled(t *testing.T) {
	tests := []struct {
		name           string
		setupProfile   func(*Profile)
		expectedResult bool
	}{
		{
			name:           "no API key returns false",
			setupProfile:   func(p *Profile) { p.PhraseProvider = "deepseek" },
			expectedResult: false,
		},
		{
			name: "API key returns true",
			setupProfile: func(p *Profile) {
				p.PhraseProvider = "deepseek"
				p.PhraseAPIKey = "test-key"
			},
			expectedResult: true,
		},
		{
			name:           "ollama needs no key",
			setupProfile:   func(p *Profile) { p.PhraseProvider = "ollama" },
			expectedResult: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &Profile{}
			tt.setupProfile(profile)

			if result := profile.IsPhraseEnabled(); result != tt.expectedResult {
				t.Errorf("IsPhraseEnabled(): expected %v, got %v", tt.expectedResult, result)
			}
		})
	}
}

func TestDigestUserIDs(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{"empty", "", nil},
		{"single", "alice", []string{"alice"}},
		{"multiple with spaces", "alice, bob ,carol", []string{"alice", "bob", "carol"}},
		{"trailing comma", "alice,", []string{"alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &Profile{DigestUsers: tt.raw}
			if got := profile.DigestUserIDs(); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("DigestUserIDs(): expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestValidateModeFallback(t *testing.T) {
	profile := &Profile{Mode: "staging", Data: t.TempDir(), Driver: "sqlite"}
	if err := profile.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if profile.Mode != "demo" {
		t.Errorf("unknown mode should fall back to demo, got %q", profile.Mode)
	}
}

func TestValidateSQLiteDefaultDSN(t *testing.T) {
	dataDir := t.TempDir()
	profile := &Profile{Mode: "dev", Data: dataDir, Driver: "sqlite"}
	if err := profile.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if profile.DSN == "" {
		t.Fatal("sqlite DSN should default to a file under the data dir")
	}
	if got, want := profile.DSN, dataDir; len(got) <= len(want) || got[:len(want)] != want {
		t.Errorf("DSN %q not under data dir %q", got, want)
	}
}

// clearBlockwiseEnvVars clears all BLOCKWISE_ environment variables used by FromEnv.
func clearBlockwiseEnvVars() {
	suffixes := []string{
		"WINDOW_DAYS",
		"DAY_START",
		"DAY_END",
		"PHRASE_PROVIDER",
		"PHRASE_API_KEY",
		"PHRASE_BASE_URL",
		"PHRASE_MODEL",
		"PHRASE_TIMEOUT_SECONDS",
		"DIGEST_CRON",
		"DIGEST_USERS",
		"TELEGRAM_TOKEN",
		"TELEGRAM_CHAT_ID",
	}
	for _, suffix := range suffixes {
		os.Unsetenv("BLOCKWISE_" + suffix)
	}
}
