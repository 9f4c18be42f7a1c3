// Package testutil provides shared test infrastructure for the churn
// simulator packages: input fixtures written to temporary files and
// float assertions that understand NaN measurements.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to a file called name in a fresh temporary
// directory and returns its path. The directory is removed with the test.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", name, err)
	}
	return path
}

// MissingFile returns a path inside a temporary directory that does not exist.
func MissingFile(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
// Two NaNs are equal; a NaN and a number are not.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if math.IsNaN(want) || math.IsNaN(got) {
		if math.IsNaN(want) != math.IsNaN(got) {
			t.Errorf("%s: got %v, want %v", name, got, want)
		}
		return
	}
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
