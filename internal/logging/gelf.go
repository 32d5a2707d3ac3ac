package logging

import (
	"fmt"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGelfHandler builds an slog handler that ships JSON records to a Graylog
// GELF endpoint over UDP. The writer chunks oversized messages itself.
func NewGelfHandler(address, level string) (slog.Handler, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("error connecting GELF writer to %s: %w", address, err)
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}), nil
}
