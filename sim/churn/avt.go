package churn

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/churn-sim/sim"
)

// AVTTraces holds availability traces decoded from an AVT file. Each
// trace is a flat, non-decreasing list of session boundaries
// [login, logout, login, logout, ...], logouts exclusive.
type AVTTraces struct {
	Traces map[string][]int64
	// End is the latest logout across all traces.
	End int64
}

// IDs returns the trace ids, sorted.
func (t *AVTTraces) IDs() []string {
	ids := make([]string, 0, len(t.Traces))
	for id := range t.Traces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadAVT decodes the AVT file at path. Sessions starting at or after
// cut are dropped; the session straddling it is truncated.
func LoadAVT(path string, cut int64) (*AVTTraces, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening AVT trace: %w", err)
	}
	defer f.Close()
	return DecodeAVT(f, cut)
}

// DecodeAVT parses AVT data. Each non-comment line has the form
//
//	<id> <n> <start_1> <end_1> ... <start_n> <end_n>
//
// with inclusive integer bounds. Lines starting with '#' are ignored.
// Touching sessions are merged.
func DecodeAVT(r io.Reader, cut int64) (*AVTTraces, error) {
	traces := &AVTTraces{
		Traces: make(map[string][]int64),
		End:    math.MinInt64,
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected trace id and event count", lineNum)
		}
		id := fields[0]
		if _, dup := traces.Traces[id]; dup {
			return nil, fmt.Errorf("line %d: duplicate trace id %q", lineNum, id)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid event count: %w", lineNum, err)
		}
		if len(fields) != 2+2*n {
			return nil, fmt.Errorf("line %d: trace %q declares %d sessions but has %d bounds", lineNum, id, n, len(fields)-2)
		}
		if n == 0 {
			logrus.Warnf("AVT trace %q has zero events", id)
		}

		events := make([]int64, 0, 2*n)
		for i := 0; i < n; i++ {
			start, err := strconv.ParseInt(fields[2+2*i], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: session %d start: %w", lineNum, i, err)
			}
			end, err := strconv.ParseInt(fields[3+2*i], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: session %d end: %w", lineNum, i, err)
			}
			if start < 0 || end < start {
				return nil, fmt.Errorf("line %d: trace %q has invalid session [%d, %d]", lineNum, id, start, end)
			}
			if start >= cut {
				break
			}

			logout := end + 1
			if logout > cut {
				logout = cut
			}
			if last := len(events) - 1; last >= 0 {
				if start < events[last] {
					return nil, fmt.Errorf("line %d: interval sequence for %q is not non-decreasing (%d > %d)", lineNum, id, events[last], start)
				}
				if start == events[last] {
					events[last] = logout
					traces.End = max(traces.End, logout)
					continue
				}
			}
			events = append(events, start, logout)
			traces.End = max(traces.End, logout)
		}
		traces.Traces[id] = events
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading AVT trace: %w", err)
	}
	if len(traces.Traces) == 0 {
		return nil, fmt.Errorf("AVT trace contains no nodes")
	}
	if traces.End == math.MinInt64 {
		traces.End = 0
	}
	return traces, nil
}

// Processes creates n processes replaying the traces. Trace ids are
// shuffled with the churn subsystem of rng and assigned round-robin.
// Times are multiplied by timescale. With loop set, each trace restarts
// every End time units; otherwise a process keeps its last state once its
// trace is exhausted.
func (t *AVTTraces) Processes(n int, timescale float64, loop bool, rng *sim.PartitionedRNG) []sim.Process {
	ids := t.IDs()
	rng.ForSubsystem(sim.SubsystemChurn).Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	period := 0.0
	if loop {
		period = float64(t.End) * timescale
	}

	processes := make([]sim.Process, n)
	for i := 0; i < n; i++ {
		raw := t.Traces[ids[i%len(ids)]]
		events := make([]float64, len(raw))
		for k, v := range raw {
			events[k] = float64(v) * timescale
		}
		replay := &traceReplay{events: events, period: period}

		initial := sim.Up
		if len(events) > 0 && events[0] == 0 {
			// Online at 0: the first transition is the login itself.
			initial = sim.Down
			replay.idx = 1
			if loop && raw[len(raw)-1] == t.End {
				// Up across the loop point: the sessions touching it merge.
				replay.events = events[1 : len(events)-1]
				replay.idx = 0
			}
		}
		processes[i] = sim.NewRenewalProcess(i, replay, replay, initial, nil)
	}
	return processes
}

// traceReplay serves both the up and the down distribution of a
// replayed process. The process alternates states, so consecutive
// samples walk consecutive session boundaries.
type traceReplay struct {
	events []float64
	period float64

	idx    int
	offset float64
	base   float64
}

func (r *traceReplay) boundary() (float64, bool) {
	if r.idx >= len(r.events) {
		if r.period <= 0 || len(r.events) == 0 {
			return 0, false
		}
		r.idx = 0
		r.offset += r.period
	}
	t := r.events[r.idx] + r.offset
	r.idx++
	return t, true
}

func (r *traceReplay) Sample(_ *rand.Rand) float64 {
	t, ok := r.boundary()
	if !ok {
		return math.Inf(1)
	}
	d := t - r.base
	r.base = t
	return d
}

// Expectation is undefined for trace replay.
func (r *traceReplay) Expectation() float64 { return math.NaN() }
