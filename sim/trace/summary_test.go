package trace

import (
	"math"
	"testing"
)

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelFull})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalTransitions != 0 {
		t.Errorf("expected 0 transitions, got %d", summary.TotalTransitions)
	}
	if summary.Logins != 0 || summary.Logouts != 0 {
		t.Error("expected 0 logins and logouts")
	}
	if summary.UniqueProcesses != 0 || len(summary.PerProcess) != 0 {
		t.Error("expected no processes")
	}
	if summary.MeanSession != 0 || summary.MeanActive != 0 {
		t.Error("expected zero means")
	}
}

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary == nil || summary.PerProcess == nil {
		t.Fatal("expected a usable zero summary")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN two processes with interleaved transitions
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelTransitions})
	st.RecordTransition(TransitionRecord{Clock: 0, ProcessID: 0, Up: true})
	st.RecordTransition(TransitionRecord{Clock: 1, ProcessID: 1, Up: false})
	st.RecordTransition(TransitionRecord{Clock: 2, ProcessID: 0, Up: false})
	st.RecordTransition(TransitionRecord{Clock: 3, ProcessID: 1, Up: true})
	st.RecordTransition(TransitionRecord{Clock: 7, ProcessID: 1, Up: false})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.TotalTransitions != 5 {
		t.Errorf("expected 5 transitions, got %d", summary.TotalTransitions)
	}
	if summary.Logins != 2 || summary.Logouts != 3 {
		t.Errorf("expected 2 logins and 3 logouts, got %d and %d", summary.Logins, summary.Logouts)
	}
	if summary.UniqueProcesses != 2 || summary.PerProcess[1] != 3 {
		t.Errorf("unexpected per-process counts %v", summary.PerProcess)
	}

	// THEN the sessions [0, 2) and [3, 7) average 3; the logout at 1 has
	// no matching login
	if math.Abs(summary.MeanSession-3) > 1e-12 {
		t.Errorf("expected mean session 3, got %.4f", summary.MeanSession)
	}
}

func TestSummarize_TickStatistics_CorrectMeanAndMax(t *testing.T) {
	// GIVEN ticks with known active counts
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelFull})
	st.RecordTick(TickRecord{Clock: 0, Active: 1})
	st.RecordTick(TickRecord{Clock: 1, Active: 5})
	st.RecordTick(TickRecord{Clock: 2, Active: 3})

	// WHEN summarized
	summary := Summarize(st)

	// THEN mean active = 3 and max = 5
	if summary.Ticks != 3 {
		t.Errorf("expected 3 ticks, got %d", summary.Ticks)
	}
	if math.Abs(summary.MeanActive-3) > 1e-12 {
		t.Errorf("expected mean active 3, got %.4f", summary.MeanActive)
	}
	if summary.MaxActive != 5 {
		t.Errorf("expected max active 5, got %d", summary.MaxActive)
	}
}
