// Package snapshot encodes coverage counts in the soccf_coverage text format.
//
//	soccf_coverage 0.1
//	statements
//	<N>
//	<id> <count>
//	true_branches
//	<N>
//	<id> <count>
//	false_branches
//	<N>
//	<id> <count>
//
// Data lines are written in ascending id order. Derived branch coverage is
// never stored, it is recomputed from the true and false branch counts.
package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/egdaemon/soccf/internal/coverage"
	"github.com/egdaemon/soccf/internal/errorsx"
)

const (
	Signature = "soccf_coverage 0.1"

	sectionStatements    = "statements"
	sectionTrueBranches  = "true_branches"
	sectionFalseBranches = "false_branches"
)

// upper bound on map preallocation, the count line is untrusted input.
const maxPrealloc = 1 << 16

const ErrFormat = errorsx.String("invalid soccf_coverage format")

// FormatError reports a snapshot that does not follow the grammar.
// Line is zero when the damage is in the compressed stream rather than in
// the text.
type FormatError struct {
	Line   int
	Reason string
}

func (t *FormatError) Error() string {
	if t.Line == 0 {
		return fmt.Sprintf("%s: %s", ErrFormat, t.Reason)
	}

	return fmt.Sprintf("%s: line %d: %s", ErrFormat, t.Line, t.Reason)
}

func (t *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// Encode writes the snapshot. the derived branch map is not part of the encoding.
func Encode(dst io.Writer, s coverage.Snapshot) error {
	w := bufio.NewWriter(dst)

	line := func(s string) {
		// bufio.Writer errors are sticky, reported by Flush.
		_, _ = w.WriteString(s)
		_ = w.WriteByte('\n')
	}

	section := func(name string, counts coverage.Counts) {
		line(name)
		line(strconv.Itoa(len(counts)))
		for _, id := range slices.Sorted(maps.Keys(counts)) {
			line(strconv.FormatUint(uint64(id), 10) + " " + strconv.FormatUint(counts[id], 10))
		}
	}

	line(Signature)
	section(sectionStatements, s.Statements)
	section(sectionTrueBranches, s.TrueBranches)
	section(sectionFalseBranches, s.FalseBranches)

	return errorsx.Wrap(w.Flush(), "unable to write snapshot")
}

// Decode parses a complete snapshot. the returned snapshot is only valid when
// the error is nil.
func Decode(src io.Reader) (coverage.Snapshot, error) {
	d := decoder{scanner: bufio.NewScanner(src)}
	s := coverage.Empty()

	sig, err := d.next()
	if err != nil {
		return s, err
	}

	if sig != Signature {
		return s, d.malformed(fmt.Sprintf("unsupported signature %q", sig))
	}

	if s.Statements, err = d.section(sectionStatements); err != nil {
		return s, err
	}

	if s.TrueBranches, err = d.section(sectionTrueBranches); err != nil {
		return s, err
	}

	if s.FalseBranches, err = d.section(sectionFalseBranches); err != nil {
		return s, err
	}

	for d.scanner.Scan() {
		d.line++
		if strings.TrimSpace(d.scanner.Text()) != "" {
			return s, d.malformed("unexpected content after false_branches")
		}
	}

	return s, errorsx.Wrap(d.scanner.Err(), "unable to read snapshot")
}

type decoder struct {
	scanner *bufio.Scanner
	line    int
}

func (t *decoder) malformed(reason string) error {
	return &FormatError{Line: t.line, Reason: reason}
}

func (t *decoder) next() (string, error) {
	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return "", errorsx.Wrap(err, "unable to read snapshot")
		}

		t.line++
		return "", t.malformed("unexpected end of snapshot")
	}

	t.line++
	return strings.TrimSuffix(t.scanner.Text(), "\r"), nil
}

func (t *decoder) section(name string) (coverage.Counts, error) {
	header, err := t.next()
	if err != nil {
		return nil, err
	}

	if header != name {
		return nil, t.malformed(fmt.Sprintf("expected section %s, found %q", name, header))
	}

	raw, err := t.next()
	if err != nil {
		return nil, err
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, t.malformed(fmt.Sprintf("invalid %s count %q", name, raw))
	}

	counts := make(coverage.Counts, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		data, err := t.next()
		if err != nil {
			return nil, err
		}

		id, count, err := t.parse(data)
		if err != nil {
			return nil, err
		}

		if _, dup := counts[id]; dup {
			return nil, t.malformed(fmt.Sprintf("duplicate id %d in %s", id, name))
		}

		counts[id] = count
	}

	return counts, nil
}

func (t *decoder) parse(data string) (coverage.ID, uint64, error) {
	rawid, rawcount, ok := strings.Cut(data, " ")
	if !ok {
		return 0, 0, t.malformed(fmt.Sprintf("invalid data line %q", data))
	}

	id, err := strconv.ParseUint(rawid, 10, 32)
	if err != nil {
		return 0, 0, t.malformed(fmt.Sprintf("invalid id %q", rawid))
	}

	count, err := strconv.ParseUint(rawcount, 10, 64)
	if err != nil {
		return 0, 0, t.malformed(fmt.Sprintf("invalid count %q", rawcount))
	}

	return coverage.ID(id), count, nil
}
