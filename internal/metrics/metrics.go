// Package metrics 业务指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eventbot"

// ==================== 报名/RSVP 指标 ====================

var (
	registrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Total registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	rsvpTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rsvp_total",
			Help:      "Total RSVP writes by transition",
		},
		[]string{"transition"},
	)
)

// ==================== 通知指标 ====================

var (
	broadcastBatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_batches_total",
			Help:      "Total broadcast batches",
		},
	)

	broadcastDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_deliveries_total",
			Help:      "Per-recipient delivery outcomes",
		},
		[]string{"status"},
	)
)

// IncRegistration 记录一次报名尝试
// outcome: ok / already / at_capacity / error
func IncRegistration(outcome string) {
	registrationsTotal.WithLabelValues(outcome).Inc()
}

// IncRsvp 记录一次 RSVP 写入
// transition: recorded / changed / unchanged / denied / error
func IncRsvp(transition string) {
	rsvpTotal.WithLabelValues(transition).Inc()
}

// IncBroadcastBatch 记录一次广播批次
func IncBroadcastBatch() {
	broadcastBatchesTotal.Inc()
}

// IncDelivery 记录单个收件人的投递结果
// status: sent / failed / unreachable
func IncDelivery(status string) {
	broadcastDeliveriesTotal.WithLabelValues(status).Inc()
}
