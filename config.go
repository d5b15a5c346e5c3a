package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// AppConfig holds all game-master configuration.
// Priority (lowest → highest): defaults < .env file < env vars < JSON config file < CLI flags.
type AppConfig struct {
	// Game
	DB         string         `json:"db"         env:"DB"`         // transcript database connection string
	Dev        bool           `json:"dev"        env:"DEV"`        // dev mode: engine trace, db dumps on errors
	Script     string         `json:"script"     env:"SCRIPT"`     // JSON game script to play
	Transcript string         `json:"transcript" env:"TRANSCRIPT"` // where to write the JSON transcript; empty = skip
	Seed       uint64         `json:"seed"       env:"SEED"`       // random seed; 0 = seed from the clock
	RoleCounts map[string]int `json:"role_counts" env:"ROLE_COUNTS" envSeparator:"," envKeyValSeparator:":"`

	// Logging (extended diagnostics, off by default)
	LogOutputDir string `json:"log_output_dir" env:"LOG_OUTPUT_DIR"`
	LogDB        bool   `json:"log_db"         env:"LOG_DB"`
	LogEvents    bool   `json:"log_events"     env:"LOG_EVENTS"`
	LogDebug     bool   `json:"log_debug"      env:"LOG_DEBUG"`

	// AI Storyteller
	StorytellerProvider    string `json:"storyteller_provider"    env:"STORYTELLER_PROVIDER"`    // ollama | openai | claude | gemini | groq | openai-compatible
	StorytellerModel       string `json:"storyteller_model"       env:"STORYTELLER_MODEL"`       // model name
	StorytellerOllamaURL   string `json:"storyteller_ollama_url"  env:"STORYTELLER_OLLAMA_URL"`  // Ollama server URL
	StorytellerURL         string `json:"storyteller_url"         env:"STORYTELLER_URL"`         // base URL for openai-compatible
	StorytellerAPIKey      string `json:"storyteller_api_key"     env:"STORYTELLER_API_KEY"`     // API key for openai-compatible
	StorytellerTemperature string `json:"storyteller_temperature" env:"STORYTELLER_TEMPERATURE"` // float 0-1 as string
	StorytellerThinking    string `json:"storyteller_thinking"    env:"STORYTELLER_THINKING"`    // none | low | medium | high | auto
	GroqAPIKey             string `json:"groq_api_key"            env:"GROQ_API_KEY"`            // API key for groq provider
}

func (cfg AppConfig) toLogConfig() LogConfig {
	return LogConfig{
		OutputDir: cfg.LogOutputDir,
		LogDB:     cfg.LogDB,
		LogEvents: cfg.LogEvents,
		Debug:     cfg.LogDebug || cfg.Dev,
	}
}

func defaultConfig() AppConfig {
	return AppConfig{
		DB:                   "file::memory:?cache=shared",
		StorytellerOllamaURL: "http://localhost:11434",
	}
}

// loadConfig builds a config by layering: defaults → .env → env vars → JSON config file.
// CLI flag overrides are applied separately by flagValues.applyTo after parsing.
func loadConfig(configPath string) AppConfig {
	cfg := defaultConfig()

	// Layer 1: .env never overrides variables that are already exported
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Config: failed to load .env: %v", err)
	}

	// Layer 2: env vars; unset variables leave the defaults alone
	if err := env.Parse(&cfg); err != nil {
		log.Printf("Config: failed to parse environment: %v", err)
	}

	// Layer 3: JSON config file — only fields present in the file override env vars
	if data, err := os.ReadFile(configPath); err == nil {
		var overlay map[string]json.RawMessage
		if err := json.Unmarshal(data, &overlay); err != nil {
			log.Printf("Config: failed to parse %s: %v", configPath, err)
		} else {
			applyJSONOverlay(&cfg, overlay)
			log.Printf("Config: loaded from %s", configPath)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("Config: failed to read %s: %v", configPath, err)
	}

	return cfg
}

// applyJSONOverlay only sets fields that are explicitly present in the JSON map.
func applyJSONOverlay(cfg *AppConfig, m map[string]json.RawMessage) {
	set := func(key string, dst any) {
		if v, ok := m[key]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				log.Printf("Config: bad value for %q: %v", key, err)
			}
		}
	}
	set("db", &cfg.DB)
	set("dev", &cfg.Dev)
	set("script", &cfg.Script)
	set("transcript", &cfg.Transcript)
	set("seed", &cfg.Seed)
	if _, ok := m["role_counts"]; ok {
		var counts map[string]int
		set("role_counts", &counts)
		cfg.RoleCounts = counts
	}
	set("log_output_dir", &cfg.LogOutputDir)
	set("log_db", &cfg.LogDB)
	set("log_events", &cfg.LogEvents)
	set("log_debug", &cfg.LogDebug)
	set("storyteller_provider", &cfg.StorytellerProvider)
	set("storyteller_model", &cfg.StorytellerModel)
	set("storyteller_ollama_url", &cfg.StorytellerOllamaURL)
	set("storyteller_url", &cfg.StorytellerURL)
	set("storyteller_api_key", &cfg.StorytellerAPIKey)
	set("storyteller_temperature", &cfg.StorytellerTemperature)
	set("storyteller_thinking", &cfg.StorytellerThinking)
	set("groq_api_key", &cfg.GroqAPIKey)
}

// flagValues holds pointers to all registered CLI flags.
type flagValues struct {
	fs                     *flag.FlagSet
	configPath             *string
	db                     *string
	dev                    *bool
	script                 *string
	transcript             *string
	seed                   *string
	logOutputDir           *string
	logDB                  *bool
	logEvents              *bool
	logDebug               *bool
	storytellerProvider    *string
	storytellerModel       *string
	storytellerOllamaURL   *string
	storytellerURL         *string
	storytellerAPIKey      *string
	storytellerTemperature *string
	storytellerThinking    *string
	groqAPIKey             *string
}

// registerFlags registers all CLI flags on fs and returns pointers to their values.
// Call fs.Parse after this, then applyTo to layer them over the loaded config.
func registerFlags(fs *flag.FlagSet) flagValues {
	return flagValues{
		fs:                     fs,
		configPath:             fs.String("config", "config.json", "path to JSON config file"),
		db:                     fs.String("db", "", "transcript database connection string"),
		dev:                    fs.Bool("dev", false, "enable development mode (engine trace, db dumps on error)"),
		script:                 fs.String("script", "", "JSON game script to play"),
		transcript:             fs.String("transcript", "", "write the JSON transcript to this path"),
		seed:                   fs.String("seed", "", "random seed for role dealing and tie-breaks"),
		logOutputDir:           fs.String("log-output-dir", "", "directory for extended log files"),
		logDB:                  fs.Bool("log-db", false, "log database dumps"),
		logEvents:              fs.Bool("log-events", false, "log engine events"),
		logDebug:               fs.Bool("log-debug", false, "enable debug logging"),
		storytellerProvider:    fs.String("storyteller-provider", "", "AI storyteller provider (ollama|openai|claude|gemini|groq|openai-compatible)"),
		storytellerModel:       fs.String("storyteller-model", "", "AI storyteller model name"),
		storytellerOllamaURL:   fs.String("storyteller-ollama-url", "", "Ollama server URL"),
		storytellerURL:         fs.String("storyteller-url", "", "base URL for openai-compatible provider"),
		storytellerAPIKey:      fs.String("storyteller-api-key", "", "API key for storyteller provider"),
		storytellerTemperature: fs.String("storyteller-temperature", "", "sampling temperature 0-1"),
		storytellerThinking:    fs.String("storyteller-thinking", "", "thinking mode: none|low|medium|high|auto"),
		groqAPIKey:             fs.String("groq-api-key", "", "Groq API key"),
	}
}

// applyTo overlays any CLI flags that were explicitly set onto cfg.
// Flags that were not passed on the command line are ignored (env/JSON values win).
func (fv flagValues) applyTo(cfg *AppConfig) {
	fv.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.DB = *fv.db
		case "dev":
			cfg.Dev = *fv.dev
		case "script":
			cfg.Script = *fv.script
		case "transcript":
			cfg.Transcript = *fv.transcript
		case "seed":
			if v, err := strconv.ParseUint(*fv.seed, 10, 64); err == nil {
				cfg.Seed = v
			} else {
				log.Printf("Config: invalid -seed %q: %v", *fv.seed, err)
			}
		case "log-output-dir":
			cfg.LogOutputDir = *fv.logOutputDir
		case "log-db":
			cfg.LogDB = *fv.logDB
		case "log-events":
			cfg.LogEvents = *fv.logEvents
		case "log-debug":
			cfg.LogDebug = *fv.logDebug
		case "storyteller-provider":
			cfg.StorytellerProvider = *fv.storytellerProvider
		case "storyteller-model":
			cfg.StorytellerModel = *fv.storytellerModel
		case "storyteller-ollama-url":
			cfg.StorytellerOllamaURL = *fv.storytellerOllamaURL
		case "storyteller-url":
			cfg.StorytellerURL = *fv.storytellerURL
		case "storyteller-api-key":
			cfg.StorytellerAPIKey = *fv.storytellerAPIKey
		case "storyteller-temperature":
			cfg.StorytellerTemperature = *fv.storytellerTemperature
		case "storyteller-thinking":
			cfg.StorytellerThinking = *fv.storytellerThinking
		case "groq-api-key":
			cfg.GroqAPIKey = *fv.groqAPIKey
		}
	})
}
