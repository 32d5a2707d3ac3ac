// Package serial wraps the sensor head UART behind a line-oriented channel
// interface so the rest of the stack never touches the device directly.
package serial

import (
	"bufio"
	"context"
	"log/slog"

	"go.bug.st/serial"
)

// Port is the line-level view of the sensor head link. Lines() yields raw
// framed lines; Monitor owns the read loop and returns when the context is
// cancelled or the device fails.
type Port interface {
	Lines() <-chan string
	Monitor(ctx context.Context) error
	SendCommand(command string)
	Close() error
}

// DevicePort reads framed lines from a physical serial device.
type DevicePort struct {
	serial.Port
	logger   *slog.Logger
	lines    chan string
	commands chan string
	done     chan struct{}
}

func newDevicePort(port serial.Port, logger *slog.Logger) *DevicePort {
	if logger == nil {
		logger = slog.Default()
	}
	return &DevicePort{
		Port:     port,
		logger:   logger,
		lines:    make(chan string),
		commands: make(chan string, 8),
		done:     make(chan struct{}),
	}
}

// OpenDevice opens the sensor head UART. The firmware always talks 8N1.
func OpenDevice(portName string, baudRate int, logger *slog.Logger) (*DevicePort, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: 1,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, err
	}

	return newDevicePort(port, logger), nil
}

// Lines returns the channel of raw framed lines read by Monitor.
func (p *DevicePort) Lines() <-chan string {
	return p.lines
}

// SendCommand queues a command line for the sensor head. The write happens on
// Monitor's writer goroutine; SendCommand never blocks the caller. A command
// is dropped, with a warning, when the link is down or the queue is backed up.
func (p *DevicePort) SendCommand(command string) {
	select {
	case p.commands <- command:
	case <-p.done:
		p.logger.Warn("Dropped command, sensor head link is down", "command", command)
	default:
		p.logger.Warn("Dropped command, sensor head write queue full", "command", command)
	}
}

// Close closes the underlying device.
func (p *DevicePort) Close() error {
	return p.Port.Close()
}

func (p *DevicePort) writeCommand(command string) error {
	_, err := p.Port.Write([]byte(command + "\r\n"))
	return err
}

// Monitor owns the device: a writer goroutine drains queued commands while
// the read loop forwards framed lines. Cancelling the context closes the
// device so a read blocked on a quiet sensor head returns. Monitor closes
// the port on exit.
func (p *DevicePort) Monitor(ctx context.Context) error {
	defer p.Close()
	defer close(p.done)

	go func() {
		for {
			select {
			case <-p.done:
				return
			case command := <-p.commands:
				if err := p.writeCommand(command); err != nil {
					p.logger.Error("Failed to write command to sensor head",
						"command", command, "error", err)
				}
			}
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			p.Close()
		case <-p.done:
		}
	}()

	scan := bufio.NewScanner(p.Port)
	for scan.Scan() {
		select {
		case p.lines <- scan.Text():
		case <-ctx.Done():
			return nil
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return scan.Err()
}
