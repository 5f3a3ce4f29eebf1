package job

import "github.com/prometheus/client_golang/prometheus"

var runState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Name: "epx_job_run_state",
	Help: "Count of runs in a job currently in each lifecycle state.",
}, []string{"job_key", "state"})

// RegisterMetrics registers this package's run-state gauge with reg. A nil
// reg is a no-op.
func RegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		return
	}
	reg.MustRegister(runState)
}

// observeRunStates updates the run-state gauge for j from a fresh count of
// runs in each state, so a later reading reflects the current snapshot
// rather than an accumulating total.
func (j *Job) observeRunStates(counts map[string]int) {
	for _, state := range []string{"NOT STARTED", "RUNNING", "ERROR", "DONE"} {
		runState.WithLabelValues(j.Key, state).Set(float64(counts[state]))
	}
}
