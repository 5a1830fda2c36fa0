package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"matchbook/internal/engine"
)

// AppConfig holds the complete application configuration. Every recognized
// key has a default; unknown environment keys are ignored.
type AppConfig struct {
	DataPath string
	LogDir   string
	HTTPAddr string

	// Engine tick options
	BatchSize                    int
	MaxCandidates                int
	SmallPassTopK                int
	LargePassTopK                int
	GraphHops                    int
	MatchCooldownDays            int
	NegativeFeedbackCooldownDays int
	RecentMatchWindow            int
	ReliabilityWeight            float64
	MinAvailabilityMinutes       int
	MatchDomains                 []engine.Domain
	AutoScheduleMatches          bool
	RequireSameCity              bool
	RequireSharedInterests       bool
	ProcessFeedbackLimit         int

	// Cron orchestration
	MaxTicks            int
	MaxRunMS            int64
	LockMS              int64
	PriorityWindowHours int

	// LLM provider
	LLMMode   string
	LLMModel  string
	LLMAPIKey string

	// Optional scoring-weight overlay
	WeightsFile string
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory first, then fall back to
	// the working directory (useful for development/go run).
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 2. Resolve data paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = filepath.Join(exeDir, "data")
		} else {
			dataPath = "data"
		}
	}
	logDir := filepath.Join(dataPath, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	maxRunMS := getEnvInt64("MATCHING_CRON_MAX_MS", 240_000)

	cfg := &AppConfig{
		DataPath: dataPath,
		LogDir:   logDir,
		HTTPAddr: getEnv("MATCHING_HTTP_ADDR", ":8080"),

		BatchSize:                    getEnvInt("MATCHING_BATCH_SIZE", 25),
		MaxCandidates:                getEnvInt("MATCHING_MAX_CANDIDATES", 60),
		SmallPassTopK:                getEnvInt("MATCHING_SMALL_TOPK", 12),
		LargePassTopK:                getEnvInt("MATCHING_LARGE_TOPK", 6),
		GraphHops:                    getEnvInt("MATCHING_GRAPH_HOPS", 2),
		MatchCooldownDays:            getEnvInt("MATCHING_COOLDOWN_DAYS", 30),
		NegativeFeedbackCooldownDays: getEnvInt("MATCHING_NEG_FEEDBACK_COOLDOWN_DAYS", 0),
		RecentMatchWindow:            getEnvInt("MATCHING_RECENT_MATCH_WINDOW", 0),
		ReliabilityWeight:            getEnvFloat("MATCHING_RELIABILITY_WEIGHT", 1.0),
		MinAvailabilityMinutes:       getEnvInt("MATCHING_MIN_AVAIL_MIN", 120),
		MatchDomains:                 parseDomains(getEnv("MATCH_DOMAINS", "general")),
		AutoScheduleMatches:          getEnvBool("MATCHING_AUTO_SCHEDULE", false),
		RequireSameCity:              getEnvBool("MATCH_REQUIRE_SAME_CITY", true),
		RequireSharedInterests:       getEnvBool("MATCH_REQUIRE_SHARED_INTERESTS", true),
		ProcessFeedbackLimit:         getEnvInt("MATCHING_FEEDBACK_LIMIT", 50),

		MaxTicks:            getEnvInt("MATCHING_MAX_TICKS", 6),
		MaxRunMS:            maxRunMS,
		LockMS:              getEnvInt64("MATCHING_LOCK_MS", maxRunMS+60_000),
		PriorityWindowHours: getEnvInt("PRIORITY_MATCH_WINDOW_HOURS", 24),

		LLMMode:   getEnv("MATCHING_LLM_MODE", "none"),
		LLMModel:  getEnv("MATCHING_LLM_MODEL", ""),
		LLMAPIKey: getEnv("GEMINI_API_KEY", ""),

		WeightsFile: getEnv("MATCHING_WEIGHTS_FILE", ""),
	}

	return cfg, nil
}

// EngineOptions materializes the configured tick options at a reference time.
func (c *AppConfig) EngineOptions(now time.Time) engine.Options {
	return engine.Options{
		Now:                          now,
		BatchSize:                    c.BatchSize,
		MaxCandidates:                c.MaxCandidates,
		SmallPassTopK:                c.SmallPassTopK,
		LargePassTopK:                c.LargePassTopK,
		GraphHops:                    c.GraphHops,
		MatchCooldownDays:            c.MatchCooldownDays,
		NegativeFeedbackCooldownDays: c.NegativeFeedbackCooldownDays,
		RecentMatchWindow:            c.RecentMatchWindow,
		ReliabilityWeight:            c.ReliabilityWeight,
		MinAvailabilityMinutes:       c.MinAvailabilityMinutes,
		MatchDomains:                 append([]engine.Domain(nil), c.MatchDomains...),
		AutoScheduleMatches:          c.AutoScheduleMatches,
		RequireSameCity:              c.RequireSameCity,
		RequireSharedInterests:       c.RequireSharedInterests,
		ProcessFeedbackLimit:         c.ProcessFeedbackLimit,
	}
}

// Weights resolves the scoring weights, applying the optional YAML overlay.
func (c *AppConfig) Weights() engine.Weights {
	if c.WeightsFile == "" {
		return engine.DefaultWeights()
	}
	w, err := engine.LoadWeights(c.WeightsFile)
	if err != nil {
		log.Warn().Err(err).Str("path", c.WeightsFile).Msg("Falling back to default scoring weights")
	}
	return w
}

// parseDomains parses a CSV of domain tags, ignoring unknown entries.
func parseDomains(csv string) []engine.Domain {
	var out []engine.Domain
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, ok := engine.ParseDomain(strings.ToLower(part))
		if !ok {
			log.Warn().Str("domain", part).Msg("Ignoring unknown match domain")
			continue
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		out = []engine.Domain{engine.DomainGeneral}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return fallback
}
