package translator

import (
	"context"
	"fmt"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleEngine translates batches with the Cloud Translation API. It takes
// the whole batch as a list, so no line protocol is involved.
type GoogleEngine struct {
	client *translate.Client
}

// NewGoogleEngine creates a client authenticated with apiKey, or with
// application default credentials when apiKey is empty.
func NewGoogleEngine(ctx context.Context, apiKey string) (*GoogleEngine, error) {
	var opts []option.ClientOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &GoogleEngine{client: client}, nil
}

func (g *GoogleEngine) Name() string {
	return "google"
}

func (g *GoogleEngine) TranslateBatch(ctx context.Context, req BatchRequest) ([]string, error) {
	target, err := language.Parse(req.TargetLang)
	if err != nil {
		return nil, fmt.Errorf("invalid target language: %w", err)
	}
	opts := &translate.Options{Format: translate.Text}
	if req.SourceLang != "" {
		source, err := language.Parse(req.SourceLang)
		if err != nil {
			return nil, fmt.Errorf("invalid source language: %w", err)
		}
		opts.Source = source
	}

	translations, err := g.client.Translate(ctx, req.Lines, target, opts)
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	out := make([]string, len(translations))
	for i, t := range translations {
		out[i] = t.Text
	}
	return out, nil
}

// Close releases the underlying client.
func (g *GoogleEngine) Close() error {
	return g.client.Close()
}
