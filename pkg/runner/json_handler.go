package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/statenode"
	"github.com/aretw0/statenode/pkg/config"
	"github.com/aretw0/statenode/pkg/domain"
)

// ErrMissingTrigger is returned for a JSON object without the trigger property.
var ErrMissingTrigger = errors.New("message has no trigger")

// JSONHandler implements the IOHandler interface for NDJSON communication.
//
// Each input line is either a JSON string, a JSON object carrying the trigger under
// the configured trigger property, or plain text. Each output line is an object
// carrying the state under the configured state property.
type JSONHandler struct {
	lines           *lineReader
	Encoder         *json.Encoder
	ErrEncoder      *json.Encoder
	StateProperty   string
	TriggerProperty string

	// ReportStatus also writes status objects to the error stream.
	ReportStatus bool
}

// NewJSONHandler creates a handler for NDJSON IO using the properties of cfg.
func NewJSONHandler(r io.Reader, w, errw io.Writer, cfg *config.Config) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	if errw == nil {
		errw = os.Stderr
	}
	h := &JSONHandler{
		lines:           newLineReader(r),
		Encoder:         json.NewEncoder(w),
		ErrEncoder:      json.NewEncoder(errw),
		StateProperty:   config.DefaultStateProperty,
		TriggerProperty: config.DefaultTriggerProperty,
	}
	if cfg != nil {
		h.StateProperty = cfg.StateProperty
		h.TriggerProperty = cfg.TriggerProperty
	}
	return h
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.lines.ReadLine(ctx)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	if strings.HasPrefix(text, "{") {
		var msg map[string]any
		if err := json.Unmarshal([]byte(text), &msg); err != nil {
			return "", fmt.Errorf("invalid message: %w", err)
		}
		val, ok := msg[h.TriggerProperty]
		if !ok || val == nil {
			return "", fmt.Errorf("%w: missing '%s'", ErrMissingTrigger, h.TriggerProperty)
		}
		if s, ok := val.(string); ok {
			return s, nil
		}
		return fmt.Sprint(val), nil
	}

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return val, nil
	}
	return text, nil
}

func (h *JSONHandler) Output(ctx context.Context, out domain.Output) error {
	msg := map[string]any{
		h.StateProperty: out.State,
		"changed":       out.Changed,
	}
	if out.Trigger != "" {
		msg[h.TriggerProperty] = out.Trigger
	}
	if out.Initial {
		msg["initial"] = true
	}
	return h.Encoder.Encode(msg)
}

func (h *JSONHandler) Error(ctx context.Context, err error) error {
	msg := map[string]any{"error": err.Error()}
	var te *statenode.TriggerError
	if errors.As(err, &te) {
		msg[h.TriggerProperty] = te.Trigger
		msg[h.StateProperty] = te.State
	}
	return h.ErrEncoder.Encode(msg)
}

func (h *JSONHandler) Status(ctx context.Context, status domain.Status) error {
	if !h.ReportStatus {
		return nil
	}
	return h.ErrEncoder.Encode(map[string]any{"status": status})
}
