package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	solvesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "decipher_solves_started_total",
		Help: "Number of solve jobs started.",
	})

	solvesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "decipher_solves_completed_total",
		Help: "Number of solve jobs completed successfully.",
	})

	solvesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "decipher_solves_failed_total",
		Help: "Number of solve jobs that failed.",
	})

	solveIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "decipher_solve_iterations",
		Help:    "Cooling iterations per completed solve.",
		Buckets: prometheus.ExponentialBuckets(10, 2, 10),
	})

	finalEnergy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "decipher_last_solve_energy_bits",
		Help: "Final energy of the most recent completed solve.",
	})
)
