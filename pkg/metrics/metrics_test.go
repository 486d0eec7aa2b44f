package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/aysa-runner/pkg/core"
	"github.com/devicelab-dev/aysa-runner/pkg/report"
)

func scrape(t *testing.T, r *Recorder, path string) (int, string) {
	t.Helper()
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestRecorder_Scenarios(t *testing.T) {
	r := New()
	r.ObserveScenario(report.Entry{Category: "melanoma", Status: core.StatusPass, DurationMs: 42000})
	r.ObserveScenario(report.Entry{
		Category:      "eczema",
		Status:        core.StatusFail,
		DurationMs:    15000,
		ErrorCategory: core.ErrCategoryAssertion.String(),
	})
	r.ObserveScenario(report.Entry{Category: "eczema", Status: core.StatusSkip})

	code, body := scrape(t, r, "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `aysa_scenarios_total{category="melanoma",status="PASS"} 1`)
	assert.Contains(t, body, `aysa_scenarios_total{category="eczema",status="FAIL"} 1`)
	assert.Contains(t, body, `aysa_scenarios_total{category="eczema",status="SKIP"} 1`)
	assert.Contains(t, body, `aysa_scenario_failures_total{error_category="assertion"} 1`)
	assert.Contains(t, body, `aysa_scenario_duration_seconds_count{category="eczema"} 1`)
}

func TestRecorder_Sessions(t *testing.T) {
	r := New()
	r.ObserveSession(2, nil)
	r.ObserveSession(3, errors.New("refused"))

	_, body := scrape(t, r, "/metrics")
	assert.Contains(t, body, "aysa_session_attempts_count 1")
	assert.Contains(t, body, "aysa_session_attempts_sum 2")
	assert.Contains(t, body, "aysa_session_errors_total 1")
}

func TestRecorder_Healthz(t *testing.T) {
	code, body := scrape(t, New(), "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)
}
