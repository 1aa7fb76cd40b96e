// SPDX-License-Identifier: EPL-2.0

// Package monitoring serves Prometheus metrics and pprof handlers for a
// running engine.
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/ik5/audgraph/config"
	"github.com/ik5/audgraph/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Monitoring struct {
	conf   config.Monitoring
	log    *logger.Logger
	server *http.Server
	ln     net.Listener
}

// New creates the monitoring server. Metrics are gathered from reg.
func New(conf config.Monitoring, reg prometheus.Gatherer, log *logger.Logger) *Monitoring {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Module("monitoring")

	h := http.NewServeMux()
	if conf.ProfilingEnabled {
		prefix := conf.URLPrefix + "/debug/pprof"
		log.Info().Str("path", prefix).Msg("profiling enabled")
		h.HandleFunc(prefix+"/", pprof.Index)
		h.HandleFunc(prefix+"/cmdline", pprof.Cmdline)
		h.HandleFunc(prefix+"/profile", pprof.Profile)
		h.HandleFunc(prefix+"/symbol", pprof.Symbol)
		h.HandleFunc(prefix+"/trace", pprof.Trace)
		for _, p := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
			h.Handle(prefix+"/"+p, pprof.Handler(p))
		}
	}
	if conf.MetricEnabled {
		path := conf.URLPrefix + "/metrics"
		log.Info().Str("path", path).Msg("prometheus metrics enabled")
		h.Handle(path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	return &Monitoring{
		conf:   conf,
		log:    log,
		server: &http.Server{Addr: fmt.Sprintf(":%d", conf.Port), Handler: h},
	}
}

// Handler exposes the mux, mostly for tests.
func (m *Monitoring) Handler() http.Handler { return m.server.Handler }

// Run binds the port and serves in the background.
func (m *Monitoring) Run() error {
	ln, err := net.Listen("tcp", m.server.Addr)
	if err != nil {
		return fmt.Errorf("monitoring listen: %w", err)
	}
	m.ln = ln
	m.log.Info().Str("addr", ln.Addr().String()).Msg("starting monitoring server")

	go func() {
		if err := m.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.Error().Err(err).Msg("monitoring server")
		}
	}()
	return nil
}

// Addr is the bound address once Run succeeded.
func (m *Monitoring) Addr() string {
	if m.ln == nil {
		return m.server.Addr
	}
	return m.ln.Addr().String()
}

func (m *Monitoring) Shutdown(ctx context.Context) error {
	m.log.Info().Msg("shutting down monitoring server")
	return m.server.Shutdown(ctx)
}

func (m *Monitoring) String() string {
	return fmt.Sprintf("monitoring::%s:%d", m.conf.URLPrefix, m.conf.Port)
}
