package serial

import (
	"bufio"
	"context"
	"io"
	"log/slog"
)

// MockPort replays lines from an io.Reader, for tests and the -replay mode.
type MockPort struct {
	Data      io.Reader
	LinesChan chan string
	Logger    *slog.Logger

	// HoldOpen keeps Monitor blocked after the reader is drained instead of
	// returning, matching a quiet live device.
	HoldOpen bool
}

func (m *MockPort) Lines() <-chan string {
	return m.LinesChan
}

func (m *MockPort) SendCommand(command string) {
	if m.Logger != nil {
		m.Logger.Debug("Mock port got command", "command", command)
	}
}

func (m *MockPort) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(m.Data)

	for scan.Scan() {
		select {
		case m.LinesChan <- scan.Text():
		case <-ctx.Done():
			return nil
		}
	}
	if err := scan.Err(); err != nil {
		return err
	}

	if m.HoldOpen {
		<-ctx.Done()
	}
	return nil
}

func (m *MockPort) Close() error {
	return nil
}
