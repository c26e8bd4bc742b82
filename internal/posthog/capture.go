package posthog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/thebtf/hogmind/pkg/models"
)

// captureMessage is one queued event in the batch ingestion format.
type captureMessage struct {
	Properties models.Properties `json:"properties,omitempty"`
	UUID       string            `json:"uuid"`
	Type       string            `json:"type"`
	Event      string            `json:"event"`
	DistinctID string            `json:"distinct_id"`
	Timestamp  string            `json:"timestamp"`
}

type batchRequest struct {
	APIKey string           `json:"api_key"`
	Batch  []captureMessage `json:"batch"`
}

// Tracker queues captured events and ships them to {host}/batch/ on Flush.
// It is a side channel: nothing in the query path depends on it.
type Tracker struct {
	now      func() time.Time
	client   *http.Client
	endpoint string
	apiKey   string
	queue    []captureMessage
	mu       sync.Mutex
}

// NewTracker creates a tracker posting to host with the project capture key.
func NewTracker(client *http.Client, host, apiKey string) *Tracker {
	return &Tracker{
		now:      time.Now,
		client:   client,
		endpoint: strings.TrimRight(host, "/") + "/batch/",
		apiKey:   apiKey,
	}
}

// Capture queues an event.
func (t *Tracker) Capture(distinctID, event string, props models.Properties) {
	msg := captureMessage{
		Properties: props,
		UUID:       uuid.NewString(),
		Type:       "capture",
		Event:      event,
		DistinctID: distinctID,
		Timestamp:  t.now().UTC().Format(time.RFC3339Nano),
	}
	t.mu.Lock()
	t.queue = append(t.queue, msg)
	t.mu.Unlock()
}

// Pending returns the number of queued, unsent events.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

// Flush sends all queued events. On failure the events are put back in front
// of the queue so a later Flush retries them.
func (t *Tracker) Flush(ctx context.Context) error {
	t.mu.Lock()
	batch := t.queue
	t.queue = nil
	t.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := t.send(ctx, batch); err != nil {
		t.mu.Lock()
		t.queue = append(batch, t.queue...)
		t.mu.Unlock()
		return err
	}
	log.Debug().Int("events", len(batch)).Msg("Flushed captured events")
	return nil
}

func (t *Tracker) send(ctx context.Context, batch []captureMessage) error {
	body, err := json.Marshal(batchRequest{APIKey: t.apiKey, Batch: batch})
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send batch to %s: %w", t.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return fmt.Errorf("capture API error (status=%d): %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

// TrackEvent captures one event and flushes it immediately.
// Failures are logged and returned; callers decide whether they matter.
func (c *Client) TrackEvent(ctx context.Context, distinctID, event string, props models.Properties) error {
	c.tracker.Capture(distinctID, event, props)
	if err := c.tracker.Flush(ctx); err != nil {
		log.Error().Err(err).Str("event", event).Str("distinctId", distinctID).Msg("Failed to track event")
		return fmt.Errorf("failed to track event: %w", err)
	}
	return nil
}
