package topology

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadEdgeList reads a graph from an edge-list file.
func LoadEdgeList(path string) (*Static, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening edge list: %w", err)
	}
	defer f.Close()
	return DecodeEdgeList(f)
}

// DecodeEdgeList parses one "u v" pair per line. Blank lines and lines
// starting with '#' are skipped. The vertex count is one more than the
// largest id seen.
func DecodeEdgeList(r io.Reader) (*Static, error) {
	var edges [][2]int
	n := 0
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected 2 vertex ids, got %d fields", lineNum, len(fields))
		}
		var e [2]int
		for k, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			if v < 0 {
				return nil, fmt.Errorf("line %d: negative vertex id %d", lineNum, v)
			}
			e[k] = v
			n = max(n, v+1)
		}
		edges = append(edges, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading edge list: %w", err)
	}
	return NewStatic(n, edges)
}
