package sink

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/hazyhaar/vlypick/picker/message"
)

// Stdout writes one JSON message per line to an io.Writer (default os.Stdout).
type Stdout struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewStdout creates a Stdout sink. If w is nil, os.Stdout is used.
func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	return &Stdout{enc: json.NewEncoder(w)}
}

func (s *Stdout) Post(_ context.Context, sel message.Selection) error {
	sel.Type = message.TypeElementSelected
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(sel)
}

func (s *Stdout) Close() error { return nil }
