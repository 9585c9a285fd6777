package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/infra/config"
)

// Provider represents a telemetry provider handle.
type Provider struct {
	submissions *prometheus.CounterVec
}

// Attach configures telemetry collectors and returns a provider handle.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	submissions := promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accessmgr",
		Name:      "submissions_total",
		Help:      "Total number of access request submissions by outcome.",
	}, []string{"outcome"})

	return &Provider{
		submissions: submissions,
	}, nil
}

// CountSubmission records one submission outcome (dispatched or failed).
func (p *Provider) CountSubmission(outcome string) {
	if p == nil || p.submissions == nil {
		return
	}
	p.submissions.WithLabelValues(outcome).Inc()
}
