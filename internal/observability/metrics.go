// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/accounts/internal/auth"
)

// Metrics holds the accounts counters.
type Metrics struct {
	OperationsTotal *prometheus.CounterVec
	PrunedRowsTotal *prometheus.CounterVec
	PruneRunsTotal  *prometheus.CounterVec
}

// NewMetrics creates the accounts metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_operations_total",
				Help: "Credential and token operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		PrunedRowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_pruned_rows_total",
				Help: "Expired tokens removed by maintenance, by kind",
			},
			[]string{"kind"},
		),
		PruneRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_prune_runs_total",
				Help: "Maintenance prune runs by status",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(m.OperationsTotal, m.PrunedRowsTotal, m.PruneRunsTotal)
	return m
}

// RecordOutcome implements auth.Recorder.
func (m *Metrics) RecordOutcome(operation, outcome string) {
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordPrune counts one maintenance run. A nil err adds the pruned rows.
func (m *Metrics) RecordPrune(result auth.PruneResult, err error) {
	if err != nil {
		m.PruneRunsTotal.WithLabelValues("error").Inc()
		return
	}
	m.PruneRunsTotal.WithLabelValues("ok").Inc()
	m.PrunedRowsTotal.WithLabelValues("remembered_login").Add(float64(result.RememberedLogins))
	m.PrunedRowsTotal.WithLabelValues("reset_token").Add(float64(result.ResetTokens))
}

var _ auth.Recorder = (*Metrics)(nil)
