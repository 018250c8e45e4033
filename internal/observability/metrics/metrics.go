// Package metrics contadores Prometheus de la resolución de artefactos, de los
// jobs de complemento y de las peticiones HTTP.
package metrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/complementos-api/internal/domain"
)

// Origen de un artefacto resuelto.
const (
	SourceLocal       = "local"
	SourceRemote      = "remote"
	SourcePlaceholder = "placeholder"
)

// Resultado de un job de complemento.
const (
	OutcomeSuccess          = "success"
	OutcomeAlreadyGenerated = "already_generated"
	OutcomeInProgress       = "in_progress"
	OutcomeNotFound         = "not_found"
	OutcomeTimeout          = "timeout"
	OutcomeExternalError    = "external_error"
	OutcomeError            = "error"
)

const namespace = "complementos"

// Metrics agrupa los colectores de la aplicación. Un *Metrics nil no registra nada.
type Metrics struct {
	artifactResolutions *prometheus.CounterVec
	complementJobs      *prometheus.CounterVec
	jobDuration         *prometheus.HistogramVec
	queueDepth          prometheus.Gauge
	httpRequests        *prometheus.CounterVec
}

// New crea y registra los colectores en reg (prometheus.DefaultRegisterer si es nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		artifactResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_resolutions_total",
			Help:      "Artefactos PDF/XML resueltos por origen (local, remote, placeholder).",
		}, []string{"kind", "source"}),
		complementJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "complement_jobs_total",
			Help:      "Ejecuciones del job de complemento de pago por resultado.",
		}, []string{"outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "complement_job_duration_seconds",
			Help:      "Duración del job de complemento de pago.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 180},
		}, []string{"outcome"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "complement_queue_depth",
			Help:      "Jobs de complemento en espera.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP por método, ruta y código.",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.artifactResolutions, m.complementJobs, m.jobDuration, m.queueDepth, m.httpRequests)
	return m
}

// ArtifactResolved cuenta una resolución de artefacto.
func (m *Metrics) ArtifactResolved(kind, source string) {
	if m == nil {
		return
	}
	m.artifactResolutions.WithLabelValues(kind, source).Inc()
}

// JobFinished cuenta un job terminado con su duración.
func (m *Metrics) JobFinished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.complementJobs.WithLabelValues(outcome).Inc()
	m.jobDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// QueueDepth fija el número de jobs pendientes.
func (m *Metrics) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// HTTPRequest cuenta una petición atendida.
func (m *Metrics) HTTPRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// ClassifyJobOutcome traduce el error de un job a la etiqueta outcome.
func ClassifyJobOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domain.ErrComplementAlreadyGenerated):
		return OutcomeAlreadyGenerated
	case errors.Is(err, domain.ErrJobInProgress):
		return OutcomeInProgress
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(err, domain.ErrExternalService):
		return OutcomeExternalError
	default:
		return OutcomeError
	}
}
