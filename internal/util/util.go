// Package util provides the framing helpers shared by the sensor-head wire
// parser and its test fixtures.
package util

import (
	"fmt"
	"strings"
)

// ChecksumXOR computes the XOR checksum over the payload bytes, the same
// scheme NMEA sentences use. The sensor head firmware computes it over
// everything between '$' and '*'.
func ChecksumXOR(payload string) byte {
	var cs byte
	for i := 0; i < len(payload); i++ {
		cs ^= payload[i]
	}
	return cs
}

// SplitFrame validates a framed line of the form "$PAYLOAD*HH" and returns
// the payload with the framing and checksum stripped. The checksum is
// case-insensitive hex.
func SplitFrame(line string) (string, error) {
	line = strings.TrimSpace(line)
	if len(line) < 4 || line[0] != '$' {
		return "", fmt.Errorf("malformed frame %q", line)
	}
	star := strings.LastIndexByte(line, '*')
	if star < 0 || star != len(line)-3 {
		return "", fmt.Errorf("frame %q missing checksum", line)
	}

	payload := line[1:star]
	var want byte
	if _, err := fmt.Sscanf(line[star+1:], "%02X", &want); err != nil {
		return "", fmt.Errorf("frame %q has invalid checksum field: %w", line, err)
	}
	if got := ChecksumXOR(payload); got != want {
		return "", fmt.Errorf("frame %q checksum mismatch: got %02X want %02X", line, got, want)
	}
	return payload, nil
}

// FormatFrame wraps a payload in the wire framing, computing the checksum.
// Used by the replay tooling and tests to produce valid frames.
func FormatFrame(payload string) string {
	return fmt.Sprintf("$%s*%02X", payload, ChecksumXOR(payload))
}
