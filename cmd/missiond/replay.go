package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/microrover/missionctl/internal/mission"
	"github.com/microrover/missionctl/internal/serial"
)

// replay feeds recorded sensor frames through the mock port and steps the
// control loop once per attitude frame, so a replayed run produces the same
// tick sequence the live run did. Time is synthetic: each attitude frame
// advances the clock by one loop interval.
func replay(ctx context.Context, path string, port *serial.MockPort, loop *mission.Loop) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open replay file: %w", err)
	}
	defer f.Close()

	now := SessionStartTime
	scan := bufio.NewScanner(f)
	for scan.Scan() {
		line := scan.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		select {
		case port.LinesChan <- line:
		case <-ctx.Done():
			return nil
		}

		if strings.HasPrefix(line, "$IMU") {
			// The head ingests the frame on its own goroutine; give it a
			// beat before sampling the snapshot.
			time.Sleep(200 * time.Microsecond)
			loop.Step(now)
			now = now.Add(loop.Interval())
		}
	}
	if err := scan.Err(); err != nil {
		return fmt.Errorf("failed reading replay file: %w", err)
	}

	Logger.Info("Replay complete", "file", path, "replayedTime", now.Sub(SessionStartTime))
	return nil
}
