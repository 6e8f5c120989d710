package graph

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

type edgeRecord struct {
	from, to int
	weight   int
}

// LoadEdgeList reads an edge list file; see ReadEdgeList.
func LoadEdgeList(filename string) (*Graph, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open graph file %s: %w", filename, err)
	}
	defer file.Close()

	return ReadEdgeList(file)
}

// ReadEdgeList parses lines of the form "from to [weight]" where from and to
// are integer vertex labels. Empty lines and lines starting with '#' are
// skipped. A line holding a single label declares an isolated vertex.
// Vertices are numbered by increasing label and keep their label.
func ReadEdgeList(r io.Reader) (*Graph, error) {
	var edges []edgeRecord
	labels := make(map[int]struct{})

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		from, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid vertex label %q: %w", lineNum, parts[0], err)
		}
		labels[from] = struct{}{}
		if len(parts) < 2 {
			continue
		}
		to, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid vertex label %q: %w", lineNum, parts[1], err)
		}
		labels[to] = struct{}{}

		weight := 1
		if len(parts) >= 3 {
			w, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid weight %q: %w", lineNum, parts[2], err)
			}
			weight = int(w + 0.5)
			if weight < 1 {
				weight = 1
			}
		}
		edges = append(edges, edgeRecord{from: from, to: to, weight: weight})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sorted := make([]int, 0, len(labels))
	for l := range labels {
		sorted = append(sorted, l)
	}
	sort.Ints(sorted)
	index := make(map[int]int, len(sorted))
	for i, l := range sorted {
		index[l] = i
	}

	b := NewBuilder(len(sorted))
	for i, l := range sorted {
		if err := b.SetLabel(i, l); err != nil {
			return nil, err
		}
	}
	for _, e := range edges {
		if err := b.AddEdge(index[e.from], index[e.to], e.weight); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
