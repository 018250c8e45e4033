package metrics_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/complementos-api/internal/domain"
	"github.com/jhoicas/complementos-api/internal/observability/metrics"
)

func TestClassifyJobOutcome(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"éxito", nil, metrics.OutcomeSuccess},
		{"ya generado", fmt.Errorf("job: %w", domain.ErrComplementAlreadyGenerated), metrics.OutcomeAlreadyGenerated},
		{"en curso", domain.ErrJobInProgress, metrics.OutcomeInProgress},
		{"no encontrada", domain.ErrNotFound, metrics.OutcomeNotFound},
		{"timeout", &domain.ExternalServiceError{Message: "timeout", Timeout: true}, metrics.OutcomeTimeout},
		{"deadline", context.DeadlineExceeded, metrics.OutcomeTimeout},
		{"facturama", &domain.ExternalServiceError{Message: "bad payload", StatusCode: 500}, metrics.OutcomeExternalError},
		{"otro", errors.New("boom"), metrics.OutcomeError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, metrics.ClassifyJobOutcome(tc.err))
		})
	}
}

func TestMetrics_Contadores(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ArtifactResolved("pdf", metrics.SourceRemote)
	m.ArtifactResolved("pdf", metrics.SourceRemote)
	m.ArtifactResolved("xml", metrics.SourcePlaceholder)
	m.JobFinished(metrics.OutcomeSuccess, 2*time.Second)
	m.QueueDepth(3)
	m.HTTPRequest("GET", "/api/v1/invoices", 200)

	count, err := testutil.GatherAndCount(reg, "complementos_artifact_resolutions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "dos series: pdf/remote y xml/placeholder")

	count, err = testutil.GatherAndCount(reg, "complementos_complement_jobs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(reg, "complementos_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_NilNoHaceNada(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ArtifactResolved("pdf", metrics.SourceLocal)
		m.JobFinished(metrics.OutcomeError, time.Second)
		m.QueueDepth(1)
		m.HTTPRequest("GET", "/", 200)
	})
}
