// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"bytes"
	"io"
	"sync"
)

// tagWriter forwards child process output to a shared sink with each
// line prefixed by the child's name. Lines are written to the sink as
// soon as their terminating newline arrives; only the trailing
// unterminated fragment of a chunk is carried to the next Write. All
// tagWriters of one supervisor share a mutex so lines from different
// children never interleave mid-line.
type tagWriter struct {
	mu   *sync.Mutex
	sink io.Writer
	tag  []byte

	// rest holds a partial line carried between writes. Guarded by mu.
	rest []byte
}

func newTagWriter(mu *sync.Mutex, sink io.Writer, name string) *tagWriter {
	return &tagWriter{
		mu:   mu,
		sink: sink,
		tag:  []byte(name + " | "),
	}
}

// Write implements io.Writer over arbitrary chunk boundaries: a chunk
// may contain several lines, a fraction of one, or end mid-line.
func (w *tagWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	consumed := 0
	data := p
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		if err := w.emit(data[:i+1]); err != nil {
			return consumed, err
		}
		consumed += i + 1
		data = data[i+1:]
	}
	w.rest = append(w.rest, data...)
	return consumed + len(data), nil
}

// emit writes one tagged line (tag + carried fragment + line) to the
// sink in a single Write call. The caller holds mu; line includes its
// terminating newline.
func (w *tagWriter) emit(line []byte) error {
	buf := make([]byte, 0, len(w.tag)+len(w.rest)+len(line))
	buf = append(buf, w.tag...)
	buf = append(buf, w.rest...)
	buf = append(buf, line...)
	w.rest = w.rest[:0]
	_, err := w.sink.Write(buf)
	return err
}

// flush emits any carried fragment as a final newline-terminated line.
// Called after the child exits, when no more writes can arrive.
func (w *tagWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.rest) == 0 {
		return
	}
	_ = w.emit([]byte{'\n'})
}
