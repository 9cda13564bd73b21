// Package offline answers utterances locally when the cloud assistant is
// unreachable or offline mode is forced. It never fails outward: every
// request resolves to a reply, degrading from pattern handlers through local
// generation down to a fixed capability notice.
package offline

import (
	"context"
	"time"

	"github.com/mihovilk/jarvis-core/core/assistants"
	"go.opentelemetry.io/otel/codes"
)

const (
	limitedReply = "I'm afraid my offline capabilities are limited, sir. " +
		"I can tell the time, find nearby places, and control your music."
	generationFailedReply = "My apologies, sir, I couldn't quite think that one through while offline."
)

// Generator produces free-text replies locally when no pattern handler
// matches.
type Generator interface {
	Generate(ctx context.Context, text string) (string, error)
}

type Responder struct {
	generator  Generator
	dispatcher assistants.ActionDispatcher
	clock      func() time.Time
}

type ResponderOption func(*Responder)

func WithGenerator(generator Generator) ResponderOption {
	return func(r *Responder) { r.generator = generator }
}

func WithActionDispatcher(dispatcher assistants.ActionDispatcher) ResponderOption {
	return func(r *Responder) { r.dispatcher = dispatcher }
}

func WithClock(clock func() time.Time) ResponderOption {
	return func(r *Responder) { r.clock = clock }
}

func NewResponder(opts ...ResponderOption) *Responder {
	responder := &Responder{clock: time.Now}
	for _, opt := range opts {
		opt(responder)
	}
	return responder
}

// Respond resolves the utterance locally. Pattern handlers are tried in a
// fixed priority order and the first match wins; only when none matches is
// the generator consulted.
func (r *Responder) Respond(ctx context.Context, text string) *assistants.Reply {
	ctx, span := tracer.Start(ctx, "respond offline")
	defer span.End()

	for _, handle := range []patternHandler{
		(*Responder).handleTimeQuery,
		(*Responder).handlePlaceQuery,
		(*Responder).handleMusicQuery,
	} {
		if reply, handled := handle(r, text); handled {
			return reply
		}
	}

	if r.generator != nil {
		generated, err := r.generator.Generate(ctx, text)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Warn("offline generation failed", "error", err)
			return &assistants.Reply{Text: generationFailedReply}
		}
		return &assistants.Reply{Text: generated}
	}

	return &assistants.Reply{Text: limitedReply}
}

func (r *Responder) dispatch(kind assistants.ActionKind, payload string) {
	if r.dispatcher != nil {
		r.dispatcher.Dispatch(kind, payload)
	}
}
