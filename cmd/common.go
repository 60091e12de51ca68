/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/valpere/csvtran/internal/config"
	"github.com/valpere/csvtran/internal/store"
	"github.com/valpere/csvtran/internal/translator"
)

// buildEngine constructs the translation engine selected by cfg.Provider.
// db may be nil; when set, its glossary is injected into LLM prompts. The
// returned close function releases the engine's client.
func buildEngine(ctx context.Context, cfg *config.Config, db *store.Store, logger *zap.Logger) (translator.Engine, func() error, error) {
	noop := func() error { return nil }

	llm := translator.LLMConfig{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Logger:      logger,
	}
	if db != nil {
		llm.Glossary = db
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		completer := translator.NewOpenAICompleter(cfg.APIKey, baseURL(cfg, translator.DefaultOpenAIBaseURL), cfg.RequestTimeout)
		return translator.NewLLMEngine("openai", completer, llm), noop, nil

	case config.ProviderOpenRouter:
		completer := translator.NewOpenAICompleter(cfg.APIKey, baseURL(cfg, translator.DefaultOpenRouterBaseURL), cfg.RequestTimeout)
		completer.SetHeader("HTTP-Referer", "https://csvtran.local")
		completer.SetHeader("X-Title", "csvtran")
		return translator.NewLLMEngine("openrouter", completer, llm), noop, nil

	case config.ProviderOllama:
		completer := translator.NewOpenAICompleter(cfg.APIKey, baseURL(cfg, translator.DefaultOllamaBaseURL), cfg.RequestTimeout)
		return translator.NewLLMEngine("ollama", completer, llm), noop, nil

	case config.ProviderGemini:
		completer, err := translator.NewGeminiCompleter(ctx, cfg.APIKey)
		if err != nil {
			return nil, nil, err
		}
		return translator.NewLLMEngine("gemini", completer, llm), noop, nil

	case config.ProviderGoogle:
		engine, err := translator.NewGoogleEngine(ctx, cfg.APIKey)
		if err != nil {
			return nil, nil, err
		}
		return engine, engine.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
}

func baseURL(cfg *config.Config, def string) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	return def
}

// openStore opens the sqlite database at path, creating its directory.
func openStore(path string) (*store.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return store.New(path)
}
