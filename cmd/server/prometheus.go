package main

import (
	"strconv"

	"github.com/Yuwon03/MLQ-Scheduler/simulator"
	"github.com/prometheus/client_golang/prometheus"
)

// schedulerMetrics mirrors the latest snapshot of the session being stepped.
type schedulerMetrics struct {
	tick          prometheus.Gauge
	runningJob    prometheus.Gauge
	pending       prometheus.Gauge
	queueLength   *prometheus.GaugeVec
	completedJobs prometheus.Gauge
	totalJobs     prometheus.Gauge
	avgTurnaround prometheus.Gauge
	avgWaiting    prometheus.Gauge
	avgResponse   prometheus.Gauge
	decisions     *prometheus.GaugeVec
}

func newSchedulerMetrics(reg prometheus.Registerer) *schedulerMetrics {
	m := &schedulerMetrics{
		tick: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mlq_tick",
			Help: "Current scheduler tick",
		}),
		runningJob: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mlq_running_job",
			Help: "Id of the job on the CPU (0 when idle)",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mlq_pending_jobs",
			Help: "Jobs whose arrival time has not been reached",
		}),
		queueLength: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mlq_queue_length",
			Help: "Ready jobs per priority level",
		}, []string{"level"}),
		completedJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mlq_completed_jobs",
			Help: "Jobs that ran to completion",
		}),
		totalJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mlq_total_jobs",
			Help: "Jobs in the workload",
		}),
		avgTurnaround: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mlq_avg_turnaround_ticks",
			Help: "Average turnaround time over completed jobs",
		}),
		avgWaiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mlq_avg_waiting_ticks",
			Help: "Average waiting time over completed jobs",
		}),
		avgResponse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mlq_avg_response_ticks",
			Help: "Average response time over completed jobs",
		}),
		decisions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mlq_decisions",
			Help: "Scheduling decisions taken in the current run, by kind",
		}, []string{"kind"}),
	}
	reg.MustRegister(
		m.tick,
		m.runningJob,
		m.pending,
		m.queueLength,
		m.completedJobs,
		m.totalJobs,
		m.avgTurnaround,
		m.avgWaiting,
		m.avgResponse,
		m.decisions,
	)
	return m
}

func (m *schedulerMetrics) update(snap simulator.Snapshot) {
	m.tick.Set(float64(snap.Tick))
	if snap.Running != nil {
		m.runningJob.Set(float64(snap.Running.ID))
	} else {
		m.runningJob.Set(0)
	}
	m.pending.Set(float64(snap.Arrivals))
	for level, ids := range snap.Levels {
		m.queueLength.WithLabelValues(strconv.Itoa(level)).Set(float64(len(ids)))
	}

	metrics := snap.Metrics
	m.completedJobs.Set(float64(metrics.CompletedJobs))
	m.totalJobs.Set(float64(metrics.TotalJobs))
	m.avgTurnaround.Set(metrics.AvgTurnaround)
	m.avgWaiting.Set(metrics.AvgWaiting)
	m.avgResponse.Set(metrics.AvgResponse)

	m.decisions.WithLabelValues("dispatch").Set(float64(metrics.Dispatches))
	m.decisions.WithLabelValues("preemption").Set(float64(metrics.Preemptions))
	m.decisions.WithLabelValues("demotion").Set(float64(metrics.Demotions))
	m.decisions.WithLabelValues("requeue").Set(float64(metrics.Requeues))
	m.decisions.WithLabelValues("promotion").Set(float64(metrics.Promotions))
	m.decisions.WithLabelValues("idle").Set(float64(metrics.IdleTicks))
}
