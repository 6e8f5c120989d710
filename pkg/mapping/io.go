package mapping

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/gilchrisn/graph-mapping-service/pkg/arch"
	"github.com/gilchrisn/graph-mapping-service/pkg/graph"
)

// Write writes the mapping as a vertex count followed by one
// "label<TAB>terminal" line per vertex.
func (m *Mapping) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", m.Graph.VertNbr)
	for v := 0; v < m.Graph.VertNbr; v++ {
		num, err := m.Terminal(v)
		if err != nil {
			return fmt.Errorf("failed to write mapping: %w", err)
		}
		fmt.Fprintf(bw, "%d\t%d\n", m.Graph.Label(v), num)
	}
	return bw.Flush()
}

// Save writes the mapping to a file, gzip-compressed when the name ends in ".gz".
func (m *Mapping) Save(filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create mapping file %s: %w", filename, err)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	if !strings.HasSuffix(filename, ".gz") {
		return m.Write(file)
	}
	zw := gzip.NewWriter(file)
	if err := m.Write(zw); err != nil {
		return err
	}
	return zw.Close()
}

// Read reads a mapping of g onto a. Lines are matched to vertices through
// their labels, which must be unique.
func Read(r io.Reader, g *graph.Graph, a arch.Arch) (*Mapping, error) {
	byLabel := make(map[int]int, g.VertNbr)
	for v := 0; v < g.VertNbr; v++ {
		label := g.Label(v)
		if _, dup := byLabel[label]; dup {
			return nil, fmt.Errorf("%w: graph label %d is not unique", ErrFormat, label)
		}
		byLabel[label] = v
	}

	m := New(g, a)
	for v := range m.Parttax {
		m.Parttax[v] = -1
	}

	scanner := bufio.NewScanner(r)
	lineNum := 0
	count := -1
	seen := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		if count < 0 {
			n, err := strconv.Atoi(fields[0])
			if err != nil || len(fields) != 1 || n < 0 {
				return nil, fmt.Errorf("%w: line %d: expected vertex count, got %q", ErrFormat, lineNum, line)
			}
			count = n
			continue
		}

		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: expected label and terminal, got %q", ErrFormat, lineNum, line)
		}
		label, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad label %q", ErrFormat, lineNum, fields[0])
		}
		num, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad terminal %q", ErrFormat, lineNum, fields[1])
		}
		v, ok := byLabel[label]
		if !ok {
			return nil, fmt.Errorf("%w: line %d: no vertex with label %d", ErrFormat, lineNum, label)
		}
		if m.Parttax[v] != -1 {
			return nil, fmt.Errorf("%w: line %d: vertex with label %d mapped twice", ErrFormat, lineNum, label)
		}
		d, err := a.DomainTerm(num)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, lineNum, err)
		}
		m.Parttax[v] = m.AddDomain(d)
		seen++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mapping: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: missing vertex count", ErrFormat)
	}
	if seen != count {
		return nil, fmt.Errorf("%w: header announces %d vertices, found %d", ErrFormat, count, seen)
	}
	return m, nil
}

// Load reads a mapping file, gzip-compressed when the name ends in ".gz".
func Load(filename string, g *graph.Graph, a arch.Arch) (*Mapping, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping file %s: %w", filename, err)
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(filename, ".gz") {
		zr, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open compressed mapping %s: %w", filename, err)
		}
		defer zr.Close()
		r = zr
	}
	return Read(r, g, a)
}
