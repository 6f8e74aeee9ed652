// Package jobfile reads job dispatch lists.
//
// A dispatch list is a sequence of records
//
//	arrival, service, priority
//
// Fields are integers separated by commas. Whitespace, newlines included, may
// appear anywhere between tokens, so a record can span lines and a line can
// hold several records. Priorities outside 0..2 are clamped.
//
// A malformed record is skipped and reported; parsing resumes at the next
// token that can start a record, so valid records later on the same line
// are kept.
package jobfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Yuwon03/MLQ-Scheduler/simulator"
)

// ParseResult holds the jobs read from a dispatch list.
type ParseResult struct {
	Jobs    []simulator.JobSpec
	Skipped []SkippedLine
}

// SkippedLine describes a run of input that did not form a record.
// Line is where the run starts.
type SkippedLine struct {
	Line   int
	Text   string
	Reason string
}

// ParseFile reads a dispatch list from path.
func ParseFile(path string) (*ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open job file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a dispatch list. Only read errors are returned; malformed
// records are reported in ParseResult.Skipped.
func Parse(r io.Reader) (*ParseResult, error) {
	toks, err := tokenize(r)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}

	res := &ParseResult{Jobs: make([]simulator.JobSpec, 0)}
	var pending *SkippedLine
	lastLine := 0
	flush := func() {
		if pending != nil {
			res.Skipped = append(res.Skipped, *pending)
			pending = nil
		}
	}
	for i := 0; i < len(toks); {
		spec, n, err := parseRecord(toks[i:])
		if err == nil {
			flush()
			res.Jobs = append(res.Jobs, spec)
			i += n
			continue
		}
		// Junk on one line is reported once, with the first reason.
		if pending != nil && toks[i].line != lastLine {
			flush()
		}
		if pending == nil {
			pending = &SkippedLine{Line: toks[i].line, Reason: err.Error()}
		}
		for _, t := range toks[i : i+n] {
			pending.Text = appendToken(pending.Text, t.text)
			lastLine = t.line
		}
		i += n
	}
	flush()
	return res, nil
}

type token struct {
	text string
	line int
}

func (t token) isComma() bool { return t.text == "," }

func (t token) value() (int, bool) {
	v, err := strconv.Atoi(t.text)
	return v, err == nil
}

// tokenize splits the input into commas and comma-free words, tagging each
// with the line it starts on.
func tokenize(r io.Reader) ([]token, error) {
	sc := bufio.NewScanner(r)
	line := 1
	sc.Split(func(data []byte, atEOF bool) (int, []byte, error) {
		start := 0
		for start < len(data) && isSpace(data[start]) {
			start++
		}
		if start == len(data) {
			line += bytes.Count(data, []byte{'\n'})
			return len(data), nil, nil
		}
		end := start + 1
		if data[start] != ',' {
			for end < len(data) && !isSpace(data[end]) && data[end] != ',' {
				end++
			}
			if end == len(data) && !atEOF {
				line += bytes.Count(data[:start], []byte{'\n'})
				return start, nil, nil
			}
		}
		line += bytes.Count(data[:start], []byte{'\n'})
		return end, data[start:end], nil
	})

	toks := make([]token, 0)
	for sc.Scan() {
		toks = append(toks, token{text: sc.Text(), line: line})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return toks, nil
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// parseRecord reads "int , int , int" from the front of toks. It returns the
// number of tokens consumed; on error that is how many to skip, at least one,
// never swallowing an integer that could start the next record.
func parseRecord(toks []token) (simulator.JobSpec, int, error) {
	var vals [3]int
	for k := 0; k < 5; k++ {
		if k >= len(toks) {
			return simulator.JobSpec{}, k, fmt.Errorf("incomplete record at end of input")
		}
		t := toks[k]
		if k%2 == 1 {
			if t.isComma() {
				continue
			}
			n := k
			if _, ok := t.value(); !ok {
				n = k + 1
			}
			return simulator.JobSpec{}, n, fmt.Errorf("expected ',' before %q", t.text)
		}
		if t.isComma() {
			return simulator.JobSpec{}, k + 1, fmt.Errorf("field %d is empty", k/2+1)
		}
		v, ok := t.value()
		if !ok {
			return simulator.JobSpec{}, k + 1, fmt.Errorf("field %d: %q is not an integer", k/2+1, t.text)
		}
		vals[k/2] = v
	}
	return simulator.JobSpec{
		Arrival:  vals[0],
		Service:  vals[1],
		Priority: simulator.ClampPriority(vals[2]),
	}, 5, nil
}

func appendToken(text, tok string) string {
	switch {
	case text == "":
		return tok
	case tok == ",":
		return text + tok
	default:
		return text + " " + tok
	}
}
