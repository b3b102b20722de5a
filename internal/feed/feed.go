// Package feed reads and writes recorded eye-state sample streams.
//
// The wire format shared with the vision collaborator is one sample per
// line: "<millis>,<state>" with state 1 for closed and 0 for open. Blank
// lines and lines starting with '#' are ignored.
package feed

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/blinkmorse/internal/model"
)

// Reader parses a sample stream.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{sc: bufio.NewScanner(r)}
}

// Next returns the next sample, or io.EOF when the stream ends.
func (r *Reader) Next() (model.Sample, error) {
	for r.sc.Scan() {
		r.line++
		text := strings.TrimSpace(r.sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		sample, err := parseLine(text)
		if err != nil {
			return model.Sample{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return sample, nil
	}
	if err := r.sc.Err(); err != nil {
		return model.Sample{}, err
	}
	return model.Sample{}, io.EOF
}

// ReadAll drains the stream.
func (r *Reader) ReadAll() ([]model.Sample, error) {
	var out []model.Sample
	for {
		s, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
}

func parseLine(text string) (model.Sample, error) {
	millisPart, statePart, ok := strings.Cut(text, ",")
	if !ok {
		return model.Sample{}, fmt.Errorf("expected \"millis,state\", got %q", text)
	}
	millis, err := strconv.ParseInt(strings.TrimSpace(millisPart), 10, 64)
	if err != nil {
		return model.Sample{}, fmt.Errorf("bad timestamp %q", millisPart)
	}
	if millis < 0 {
		return model.Sample{}, fmt.Errorf("negative timestamp %d", millis)
	}
	switch strings.TrimSpace(statePart) {
	case "0":
		return model.Sample{At: time.Duration(millis) * time.Millisecond, Closed: false}, nil
	case "1":
		return model.Sample{At: time.Duration(millis) * time.Millisecond, Closed: true}, nil
	default:
		return model.Sample{}, fmt.Errorf("bad state %q", statePart)
	}
}

// Writer records a sample stream, used to tee live input for later replay.
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write appends one sample.
func (w *Writer) Write(s model.Sample) error {
	state := 0
	if s.Closed {
		state = 1
	}
	_, err := fmt.Fprintf(w.w, "%d,%d\n", s.At.Milliseconds(), state)
	return err
}

// Flush flushes buffered samples to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
