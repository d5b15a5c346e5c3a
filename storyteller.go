package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const storytellerSystemPrompt = `You narrate a werewolf game for the game master. You are given the public history of the game: deaths, executions and votes. Describe the latest night or day in 2-3 atmospheric sentences. Never reveal a living player's role.`

// Storyteller narrates the latest phase of a game from its public history.
// onChunk is called with each text chunk as it streams in.
type Storyteller interface {
	Tell(ctx context.Context, history []string, onChunk func(string)) (string, error)
}

// globalStoryteller is nil when no provider is configured (feature disabled).
var globalStoryteller Storyteller

type llmStoryteller struct {
	llm          llms.Model
	systemPrompt string
	callOpts     []llms.CallOption
}

func (s *llmStoryteller) Tell(ctx context.Context, history []string, onChunk func(string)) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, s.systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman,
			"Game history so far:\n"+strings.Join(history, "\n")+
				"\n\nTell a short dramatic story (2-3 sentences) about the latest phase."),
	}

	var fullText strings.Builder
	opts := append(slices.Clip(s.callOpts), llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		text := string(chunk)
		fullText.WriteString(text)
		if onChunk != nil {
			onChunk(text)
		}
		return nil
	}))

	_, err := s.llm.GenerateContent(ctx, messages, opts...)
	return strings.TrimSpace(fullText.String()), err
}

var thinkingModes = map[string]llms.ThinkingMode{
	"none":   llms.ThinkingModeNone,
	"low":    llms.ThinkingModeLow,
	"medium": llms.ThinkingModeMedium,
	"high":   llms.ThinkingModeHigh,
	"auto":   llms.ThinkingModeAuto,
}

// buildCallOpts turns the sampling settings into call options. Bad values
// are logged and skipped.
func buildCallOpts(cfg AppConfig) []llms.CallOption {
	var opts []llms.CallOption
	if t := cfg.StorytellerTemperature; t != "" {
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			log.Printf("Storyteller: ignoring temperature %q: %v", t, err)
		} else {
			opts = append(opts, llms.WithTemperature(f))
		}
	}
	if th := cfg.StorytellerThinking; th != "" {
		mode, ok := thinkingModes[th]
		if !ok {
			log.Printf("Storyteller: ignoring thinking %q (want none, low, medium, high or auto)", th)
		} else {
			opts = append(opts, llms.WithThinkingMode(mode))
		}
	}
	return opts
}

// newModel opens the provider's model; where describes the endpoint for the log.
type newModel func(cfg AppConfig) (llm llms.Model, where string, err error)

const groqBaseURL = "https://api.groq.com/openai/v1"

var storytellerProviders = map[string]newModel{
	"ollama": func(cfg AppConfig) (llms.Model, string, error) {
		llm, err := ollama.New(ollama.WithModel(cfg.StorytellerModel), ollama.WithServerURL(cfg.StorytellerOllamaURL))
		return llm, cfg.StorytellerOllamaURL, err
	},
	"openai": func(cfg AppConfig) (llms.Model, string, error) {
		llm, err := openai.New(openai.WithModel(cfg.StorytellerModel))
		return llm, "api.openai.com", err
	},
	"claude": func(cfg AppConfig) (llms.Model, string, error) {
		llm, err := anthropic.New(anthropic.WithModel(cfg.StorytellerModel))
		return llm, "api.anthropic.com", err
	},
	"gemini": func(cfg AppConfig) (llms.Model, string, error) {
		llm, err := googleai.New(context.Background(), googleai.WithDefaultModel(cfg.StorytellerModel))
		return llm, "generativelanguage.googleapis.com", err
	},
	"groq": func(cfg AppConfig) (llms.Model, string, error) {
		llm, err := openai.New(openai.WithModel(cfg.StorytellerModel), openai.WithBaseURL(groqBaseURL), openai.WithToken(cfg.GroqAPIKey))
		return llm, groqBaseURL, err
	},
	"openai-compatible": func(cfg AppConfig) (llms.Model, string, error) {
		if cfg.StorytellerURL == "" {
			return nil, "", errors.New("storyteller_url is required")
		}
		opts := []openai.Option{openai.WithModel(cfg.StorytellerModel), openai.WithBaseURL(cfg.StorytellerURL)}
		if cfg.StorytellerAPIKey != "" {
			opts = append(opts, openai.WithToken(cfg.StorytellerAPIKey))
		}
		llm, err := openai.New(opts...)
		return llm, cfg.StorytellerURL, err
	},
}

// initStoryteller sets globalStoryteller from config. Narration stays off
// when no provider is named or the provider fails to start.
func initStoryteller(cfg AppConfig) {
	provider := cfg.StorytellerProvider
	if provider == "" {
		log.Printf("Storyteller: disabled (set storyteller_provider to enable)")
		return
	}
	open, ok := storytellerProviders[provider]
	if !ok {
		log.Printf("Storyteller: unknown provider %q, narration disabled", provider)
		return
	}
	llm, where, err := open(cfg)
	if err != nil {
		log.Printf("Storyteller: failed to init %s (%s): %v", provider, cfg.StorytellerModel, err)
		return
	}
	globalStoryteller = &llmStoryteller{llm: llm, systemPrompt: storytellerSystemPrompt, callOpts: buildCallOpts(cfg)}
	log.Printf("Storyteller: %s model=%s at %s", provider, cfg.StorytellerModel, where)
}

// tellStory narrates what just happened and stores the story in the game
// history. Storyteller failures are logged and never stop the game.
func tellStory(ctx context.Context, gameID string, round int, phase string, out io.Writer) {
	if globalStoryteller == nil {
		return
	}

	history, err := getGameHistory(gameID)
	if err != nil {
		logError("tellStory: fetch history", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	story, err := globalStoryteller.Tell(ctx, history, func(chunk string) {
		DebugLog("story chunk: %q", chunk)
	})
	if err != nil {
		log.Printf("tellStory: storyteller error: %v", err)
		return
	}
	if story == "" {
		return
	}

	if err := recordAction(GameAction{
		GameID: gameID, Round: round, Phase: phase, ActionType: ActionStory, Description: story,
	}); err != nil {
		logError("tellStory: record story", err)
		return
	}
	fmt.Fprintf(out, "\n%s\n", story)
	log.Printf("Storyteller: completed story for game %s round %d %s", gameID, round, phase)
}
