// Package tools implements the tool dispatch layer: argument validation,
// upstream calls, aggregation and the uniform response envelope.
package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/thebtf/hogmind/internal/privacy"
)

// Call outcomes reported to the observer.
const (
	outcomeSuccess = "success"
	outcomeError   = "error"
	outcomeInvalid = "invalid"
)

// Dispatcher routes named tool calls. It holds no per-call state and is safe
// for concurrent use.
type Dispatcher struct {
	source  DataSource
	now     func() time.Time
	observe func(tool, outcome string, d time.Duration)
	tools   map[string]Tool
	order   []Tool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock overrides the clock used for relative dates and elapsed-time phrasing.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithObserver receives the tool name, outcome and duration of every call.
func WithObserver(fn func(tool, outcome string, d time.Duration)) Option {
	return func(d *Dispatcher) { d.observe = fn }
}

// NewDispatcher creates a dispatcher over source.
func NewDispatcher(source DataSource, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		source:  source,
		now:     time.Now,
		observe: func(string, string, time.Duration) {},
	}
	for _, opt := range opts {
		opt(d)
	}

	d.order = catalog()
	d.tools = make(map[string]Tool, len(d.order))
	for _, t := range d.order {
		d.tools[t.Name] = t
	}
	return d
}

// Tools returns the catalog in listing order.
func (d *Dispatcher) Tools() []Tool {
	out := make([]Tool, len(d.order))
	copy(out, d.order)
	return out
}

// Call validates args, runs the named tool and wraps the outcome.
// Validation, upstream and unexpected failures come back as a failed
// Response with a nil error; only an unknown name returns ErrUnknownTool.
func (d *Dispatcher) Call(ctx context.Context, name string, args json.RawMessage) (resp Response, err error) {
	tool, ok := d.tools[name]
	if !ok {
		return Response{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	start := time.Now()
	outcome := outcomeSuccess
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("tool", name).Interface("panic", r).Msg("Tool handler panicked")
			resp, err, outcome = Fail(fmt.Errorf("internal error in %s", name)), nil, outcomeError
		}
		d.observe(name, outcome, time.Since(start))
	}()

	data, message, callErr := tool.call(ctx, d, args)
	if callErr != nil {
		var verr *ValidationError
		if errors.As(callErr, &verr) {
			outcome = outcomeInvalid
			log.Debug().Str("error", privacy.RedactError(callErr)).Str("tool", name).Msg("Rejected tool arguments")
		} else {
			outcome = outcomeError
			log.Error().Str("error", privacy.RedactError(callErr)).Str("tool", name).Msg("Tool call failed")
		}
		return Fail(callErr), nil
	}
	return OK(data, message), nil
}
