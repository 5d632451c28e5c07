/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Seednode/janken/tournament"
)

// Metrics tracks tournament activity across every session.
type Metrics struct {
	registry *prometheus.Registry

	sessions    prometheus.Gauge
	clients     prometheus.Gauge
	tournaments prometheus.Counter
	rounds      *prometheus.CounterVec
	eliminated  prometheus.Counter
	finished    prometheus.Counter
	dropped     prometheus.Counter
}

func newMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "janken",
			Name:      "sessions",
			Help:      "Game sessions currently held in memory.",
		}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "janken",
			Name:      "clients",
			Help:      "Connected websocket clients.",
		}),
		tournaments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "janken",
			Name:      "tournaments_started_total",
			Help:      "Tournaments started.",
		}),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "janken",
			Name:      "rounds_resolved_total",
			Help:      "Rounds resolved, by outcome kind.",
		}, []string{"outcome"}),
		eliminated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "janken",
			Name:      "participants_eliminated_total",
			Help:      "Participants eliminated.",
		}),
		finished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "janken",
			Name:      "tournaments_finished_total",
			Help:      "Tournaments that produced a winner.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "janken",
			Name:      "messages_dropped_total",
			Help:      "Client messages dropped by the rate limiter.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.sessions,
		m.clients,
		m.tournaments,
		m.rounds,
		m.eliminated,
		m.finished,
		m.dropped,
	)

	return m
}

// observe records the metrics for one controller update.
func (m *Metrics) observe(u tournament.Update) {
	switch u.Event {
	case tournament.EventTournamentStarted:
		m.tournaments.Inc()
	case tournament.EventResolved:
		if o := u.State.Round.Outcome; o != nil {
			m.rounds.WithLabelValues(string(o.Kind)).Inc()
			m.eliminated.Add(float64(len(o.Eliminated)))
		}
	case tournament.EventFinished:
		m.finished.Inc()
	}
}

func registerMetricsHandler(cfg *Config, m *Metrics, mux *httprouter.Router) {
	mux.Handler(http.MethodGet, cfg.prefix+"/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
