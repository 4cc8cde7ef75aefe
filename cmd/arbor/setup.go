package main

import (
	"context"

	"github.com/go-go-golems/arbor/pkg/completion"
	"github.com/go-go-golems/arbor/pkg/events"
	"github.com/go-go-golems/arbor/pkg/persist"
	"github.com/go-go-golems/arbor/pkg/store"
	"github.com/spf13/viper"
)

func newBackend() (persist.Backend, error) {
	if dsn := viper.GetString("sqlite"); dsn != "" {
		return persist.NewSQLiteBackend(dsn)
	}
	return persist.NewFileBackend(viper.GetString("state-file")), nil
}

func newCompleter() completion.Completer {
	apiKey := viper.GetString("openai-api-key")
	if apiKey == "" || viper.GetBool("mock") {
		return completion.NewMockCompleter()
	}
	return completion.NewOpenAICompleter(apiKey, completion.WithModel(viper.GetString("model")))
}

func openStore(ctx context.Context, options ...store.Option) (*store.Store, error) {
	backend, err := newBackend()
	if err != nil {
		return nil, err
	}
	if d := viper.GetDuration("debounce"); d > 0 {
		options = append(options, store.WithDebounce(d))
	}
	return store.Open(ctx, backend, options...)
}

func newEventBus() *events.PublisherManager {
	return events.NewPublisherManager()
}
