// Package source supplies raw messages to the pipeline.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mikey/msg-spam-filter/internal/core"
)

var (
	// ErrInvalidMessage is returned for raw records that fail schema validation
	ErrInvalidMessage = errors.New("invalid raw message")
	// ErrNotConfigured is returned by the none source when monitoring is requested
	ErrNotConfigured = errors.New("no monitoring source configured")
)

const rawMessageSchema = `{
	"type": "object",
	"required": ["address", "body"],
	"properties": {
		"address": {"type": "string", "minLength": 1},
		"subject": {"type": "string"},
		"body": {"type": "string"},
		"timestamp": {"type": "integer", "minimum": 0},
		"source": {"enum": ["SMS", "EMAIL"]}
	}
}`

var rawSchema = jsonschema.MustCompileString("raw_message.json", rawMessageSchema)

// DecodeRawMessage validates data against the raw message schema and decodes it
func DecodeRawMessage(data []byte) (core.RawMessage, error) {
	var raw core.RawMessage

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return raw, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if err := rawSchema.Validate(instance); err != nil {
		return raw, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return raw, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	return raw, nil
}

// runLoop starts fn in a goroutine detached from the caller's cancellation and
// returns a disposer that cancels it and waits for it to exit
func runLoop(ctx context.Context, fn func(ctx context.Context)) func() {
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	go func() {
		defer close(done)
		fn(loopCtx)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

// None is the source used when monitoring is disabled
type None struct{}

// Name identifies the source in logs
func (None) Name() string { return "none" }

// Fetch never has pending messages
func (None) Fetch(context.Context, int) ([]core.RawMessage, error) {
	return nil, nil
}

// Subscribe always fails
func (None) Subscribe(context.Context, core.Handler) (func(), error) {
	return nil, ErrNotConfigured
}
