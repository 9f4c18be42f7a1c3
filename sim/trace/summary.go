package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalTransitions int
	Logins           int
	Logouts          int
	UniqueProcesses  int
	PerProcess       map[int]int // process ID → count of transitions
	// MeanSession is the mean length of the up sessions that both
	// started and ended inside the trace; 0 if there are none.
	MeanSession float64
	Ticks       int
	MaxActive   int
	MeanActive  float64
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		PerProcess: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalTransitions = len(st.Transitions)
	loginAt := make(map[int]float64)
	sessions, sessionTotal := 0, 0.0
	for _, r := range st.Transitions {
		summary.PerProcess[r.ProcessID]++
		if r.Up {
			summary.Logins++
			loginAt[r.ProcessID] = r.Clock
			continue
		}
		summary.Logouts++
		if start, ok := loginAt[r.ProcessID]; ok {
			sessions++
			sessionTotal += r.Clock - start
			delete(loginAt, r.ProcessID)
		}
	}
	if sessions > 0 {
		summary.MeanSession = sessionTotal / float64(sessions)
	}
	summary.UniqueProcesses = len(summary.PerProcess)

	if len(st.Ticks) > 0 {
		totalActive := 0
		for _, t := range st.Ticks {
			totalActive += t.Active
			if t.Active > summary.MaxActive {
				summary.MaxActive = t.Active
			}
		}
		summary.Ticks = len(st.Ticks)
		summary.MeanActive = float64(totalActive) / float64(len(st.Ticks))
	}

	return summary
}
