package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gikenye/givecaesar/internal/errs"
	"github.com/gikenye/givecaesar/internal/lifecycle"
	"github.com/gikenye/givecaesar/internal/recipients"
)

type fixedResolver struct {
	kind recipients.ResolutionKind
}

func (f fixedResolver) Resolve(_ context.Context, raw string) recipients.Resolution {
	return recipients.Resolution{Input: raw, Kind: f.kind}
}

func TestInstrumentResolverCountsByKind(t *testing.T) {
	m := New()

	resolved := m.InstrumentResolver(fixedResolver{kind: recipients.ResolutionResolved})
	invalid := m.InstrumentResolver(fixedResolver{kind: recipients.ResolutionInvalidSyntax})

	res := resolved.Resolve(context.Background(), "alice.eth")
	assert.Equal(t, "alice.eth", res.Input)
	resolved.Resolve(context.Background(), "bob.eth")
	invalid.Resolve(context.Background(), "0xABC")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.resolutions.WithLabelValues("resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolutions.WithLabelValues("invalid_syntax")))
}

func TestObserveTrackerCountsTerminalStates(t *testing.T) {
	m := New()
	tracker := lifecycle.NewTracker()
	stop := m.ObserveTracker(tracker)
	defer stop()

	require.NoError(t, tracker.Begin())
	require.NoError(t, tracker.Fail(errs.Signer("User rejected the request", nil)))

	require.NoError(t, tracker.Begin())
	require.NoError(t, tracker.Approve())
	require.NoError(t, tracker.Accept("0xabc"))
	require.NoError(t, tracker.Confirm(lifecycle.Receipt{}))

	require.NoError(t, tracker.Begin())
	require.NoError(t, tracker.Fail(errors.New("boom")))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("confirmed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissionErrors.WithLabelValues("signer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissionErrors.WithLabelValues("unknown")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.transitions.WithLabelValues("awaiting_signature")))
	// Two resets from a terminal state on the later Begin calls.
	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("idle")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObservePlan(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "caesar_plan_recipients_count 1"))
}
