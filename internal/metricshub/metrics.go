// Copyright 2025 The colafs Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metricshub exposes in-process Prometheus metrics for colafs: COLA
// occupancy, free FAT blocks, and per-operation latency. The teacher wires
// its metrics through an OpenTelemetry-to-Prometheus bridge
// (go.opentelemetry.io/otel/exporters/prometheus); this filesystem has no
// otel collector pipeline to feed, so it talks to
// github.com/prometheus/client_golang directly, the library that bridge
// itself depends on and registers against.
package metricshub

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "colafs"

// Hub owns the registry and the gauges/histogram colafs reports through.
type Hub struct {
	registry *prometheus.Registry

	colaUsedSlots  prometheus.Gauge
	colaTotalSlots prometheus.Gauge
	fatFreeBlocks  prometheus.Gauge
	fatTotalBlocks prometheus.Gauge
	opLatency      *prometheus.HistogramVec
}

// New creates a Hub with every metric registered against a fresh registry.
func New() *Hub {
	reg := prometheus.NewRegistry()

	h := &Hub{
		registry: reg,
		colaUsedSlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cola",
			Name:      "used_slots",
			Help:      "Number of occupied COLA index slots.",
		}),
		colaTotalSlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cola",
			Name:      "total_slots",
			Help:      "Total COLA index slot capacity.",
		}),
		fatFreeBlocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fat",
			Name:      "free_blocks",
			Help:      "Number of unallocated data blocks.",
		}),
		fatTotalBlocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fat",
			Name:      "total_blocks",
			Help:      "Total data block capacity.",
		}),
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fs",
			Name:      "op_latency_seconds",
			Help:      "Latency of filesystem operations by op name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}

	reg.MustRegister(h.colaUsedSlots, h.colaTotalSlots, h.fatFreeBlocks, h.fatTotalBlocks, h.opLatency)
	return h
}

// SetColaOccupancy records the current used/total COLA slot counts.
func (h *Hub) SetColaOccupancy(used, total int) {
	h.colaUsedSlots.Set(float64(used))
	h.colaTotalSlots.Set(float64(total))
}

// SetFatOccupancy records the current free/total data block counts.
func (h *Hub) SetFatOccupancy(free, total int) {
	h.fatFreeBlocks.Set(float64(free))
	h.fatTotalBlocks.Set(float64(total))
}

// ObserveOpLatency records how long op took, in seconds.
func (h *Hub) ObserveOpLatency(op string, seconds float64) {
	h.opLatency.WithLabelValues(op).Observe(seconds)
}

// Handler returns the /metrics HTTP handler the registry serves.
func (h *Hub) Handler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing /metrics on addr. It runs until the
// listener fails or the process exits; callers typically invoke it in its
// own goroutine from cmd/colafs.
func (h *Hub) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h.Handler())
	return http.ListenAndServe(addr, mux)
}
