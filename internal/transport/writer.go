// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// WriterTransport prints estimates to a stream, one per line, either as
// JSON or as a fixed-width text row.
type WriterTransport struct {
	mu   sync.Mutex
	w    io.Writer
	enc  *json.Encoder
	json bool
}

// NewWriterTransport writes to w. With asJSON every line is an Estimate
// object, suitable for piping into other tools.
func NewWriterTransport(w io.Writer, asJSON bool) *WriterTransport {
	return &WriterTransport{w: w, enc: json.NewEncoder(w), json: asJSON}
}

func (wt *WriterTransport) Send(data any) error {
	wt.mu.Lock()
	defer wt.mu.Unlock()

	if wt.json {
		return wt.enc.Encode(data)
	}
	m, ok := data.(Estimate)
	if !ok {
		_, err := fmt.Fprintf(wt.w, "%+v\n", data)
		return err
	}
	_, err := fmt.Fprintf(wt.w, "%6d  %12.4f Hz  bin %4d  power %.4g\n",
		m.Sequence, m.FrequencyHz, m.Bin, m.Power)
	return err
}

// Close does not close the underlying writer.
func (wt *WriterTransport) Close() error { return nil }

var _ Transport = (*WriterTransport)(nil)
