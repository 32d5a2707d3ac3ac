// Package parser decodes the framed ASCII lines the sensor head streams over
// serial. Each line is "$TYPE,fields...*HH" with an XOR checksum; the three
// frame types are IMU (attitude), RNG (rangefinder) and BTN (start button).
package parser

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/microrover/missionctl/internal/util"
	"github.com/microrover/missionctl/pkg/core"
)

// parseIntFromFloat parses a string that may be an integer ("845") or float
// ("845.0") into int64. Some firmware revisions printed range readings
// through the float formatter.
func parseIntFromFloat(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid int64", s)
	}
	return int64(f), nil
}

func parseAngle(s, field string) (core.Radians, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("error converting %s: %w", field, err)
	}
	return core.Radians(f), nil
}

// Parser provides pure line -> Frame conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParseLine validates the framing and checksum of one line and decodes it
// into a Frame. Unknown frame types are an error so that firmware/host
// mismatches surface in the logs instead of being dropped silently.
func (p *Parser) ParseLine(line string) (Frame, error) {
	payload, err := util.SplitFrame(line)
	if err != nil {
		return nil, err
	}

	fields := strings.Split(payload, ",")
	switch fields[0] {
	case "IMU":
		return p.parseImu(fields[1:])
	case "RNG":
		return p.parseRange(fields[1:])
	case "BTN":
		return p.parseButton(fields[1:])
	default:
		return nil, fmt.Errorf("unknown frame type %q", fields[0])
	}
}

// parseImu decodes "yaw,pitch,roll", all radians.
func (p *Parser) parseImu(fields []string) (Frame, error) {
	if len(fields) != 3 {
		return nil, fmt.Errorf("IMU frame has %d fields, want 3", len(fields))
	}

	var f ImuFrame
	var err error
	if f.Yaw, err = parseAngle(fields[0], "yaw"); err != nil {
		return nil, err
	}
	if f.Pitch, err = parseAngle(fields[1], "pitch"); err != nil {
		return nil, err
	}
	if f.Roll, err = parseAngle(fields[2], "roll"); err != nil {
		return nil, err
	}
	return f, nil
}

// parseRange decodes a single millimetre reading, -1 meaning no echo.
func (p *Parser) parseRange(fields []string) (Frame, error) {
	if len(fields) != 1 {
		return nil, fmt.Errorf("RNG frame has %d fields, want 1", len(fields))
	}

	mm, err := parseIntFromFloat(fields[0])
	if err != nil {
		return nil, fmt.Errorf("error converting range: %w", err)
	}
	if mm < -1 {
		return nil, fmt.Errorf("range reading %d out of range", mm)
	}
	return RangeFrame{MM: int(mm), Valid: mm >= 0}, nil
}

func (p *Parser) parseButton(fields []string) (Frame, error) {
	if len(fields) != 1 {
		return nil, fmt.Errorf("BTN frame has %d fields, want 1", len(fields))
	}

	v, err := parseIntFromFloat(fields[0])
	if err != nil {
		return nil, fmt.Errorf("error converting button state: %w", err)
	}
	return ButtonFrame{Pressed: v != 0}, nil
}
