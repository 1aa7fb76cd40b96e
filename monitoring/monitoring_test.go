// SPDX-License-Identifier: EPL-2.0

package monitoring

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ik5/audgraph/config"
	"github.com/ik5/audgraph/graph"
	"github.com/ik5/audgraph/internal/audiotest"
	"github.com/ik5/audgraph/logger"
	"github.com/prometheus/client_golang/prometheus"
)

type fixedLoads uint64

func (f fixedLoads) Loads() uint64 { return uint64(f) }

func TestCollector(t *testing.T) {
	t.Parallel()

	g := graph.New(graph.Config{MaxBlock: 16}, logger.Nop())
	g.Add(audiotest.NewModule("osc", 0, 2, 0.1))
	for range 3 {
		g.Process(16)
	}
	_ = g.Send("ghost/cmd", nil)
	g.Process(16)

	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(g.Stats(), fixedLoads(7)))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	got := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			name := f.GetName()
			for _, l := range m.GetLabel() {
				name += "/" + l.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				got[name] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				got[name] = m.GetGauge().GetValue()
			}
		}
	}

	want := map[string]float64{
		"audgraph_cycles_total":                    4,
		"audgraph_modules_compiled_total":          1,
		"audgraph_modules_rejected_total":          0,
		"audgraph_messages_dropped_total":          1,
		"audgraph_pool_buffers":                    2,
		"audgraph_sample_loads_total":              7,
		"audgraph_skipped_drains_total/mailbox":    0,
		"audgraph_skipped_drains_total/insertions": 0,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s = %v, want %v", name, got[name], v)
		}
	}
}

func TestMonitoring_Handler(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(graph.New(graph.Config{}, logger.Nop()).Stats(), nil))

	tests := []struct {
		name string
		conf config.Monitoring
		path string
		code int
	}{
		{name: "metrics", conf: config.Monitoring{MetricEnabled: true}, path: "/metrics", code: http.StatusOK},
		{name: "metrics with prefix", conf: config.Monitoring{MetricEnabled: true, URLPrefix: "/audio"}, path: "/audio/metrics", code: http.StatusOK},
		{name: "metrics disabled", conf: config.Monitoring{ProfilingEnabled: true}, path: "/metrics", code: http.StatusNotFound},
		{name: "pprof", conf: config.Monitoring{ProfilingEnabled: true}, path: "/debug/pprof/", code: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := New(tt.conf, reg, logger.Nop())
			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.code {
				t.Fatalf("GET %s = %d, want %d", tt.path, rec.Code, tt.code)
			}
			if tt.conf.MetricEnabled && !strings.Contains(rec.Body.String(), "audgraph_cycles_total") {
				t.Errorf("metrics body misses audgraph_cycles_total:\n%s", rec.Body.String())
			}
		})
	}
}

func TestMonitoring_RunShutdown(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(graph.New(graph.Config{}, logger.Nop()).Stats(), nil))

	m := New(config.Monitoring{Port: 0, MetricEnabled: true}, reg, logger.Nop())
	if err := m.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	resp, err := http.Get("http://" + m.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "audgraph_pool_buffers") {
		t.Errorf("body misses audgraph_pool_buffers")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
