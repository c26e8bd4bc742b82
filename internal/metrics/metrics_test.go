package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_IsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()

	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestObserveToolCall(t *testing.T) {
	before := testutil.ToFloat64(toolCallsTotal.WithLabelValues("get_events", OutcomeSuccess))
	beforeInvalid := testutil.ToFloat64(toolCallsTotal.WithLabelValues("get_events", OutcomeInvalid))

	ObserveToolCall("get_events", "", 20*time.Millisecond)
	ObserveToolCall("get_events", OutcomeInvalid, -time.Second)

	assert.Equal(t, before+1, testutil.ToFloat64(toolCallsTotal.WithLabelValues("get_events", OutcomeSuccess)))
	assert.Equal(t, beforeInvalid+1, testutil.ToFloat64(toolCallsTotal.WithLabelValues("get_events", OutcomeInvalid)))
}

func TestObserveResourceRead(t *testing.T) {
	uri := "posthog://events/recent"
	before := testutil.ToFloat64(resourceReadsTotal.WithLabelValues(uri, OutcomeError))

	ObserveResourceRead(uri, errors.New("boom"))

	assert.Equal(t, before+1, testutil.ToFloat64(resourceReadsTotal.WithLabelValues(uri, OutcomeError)))
}
