package timing

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sync"
)

// Device is a line oriented connection to a timing device.
type Device interface {
	// ReadFrame blocks until a complete frame is available. It returns io.EOF
	// once the connection has ended.
	ReadFrame() (string, error)
	WriteCommand(cmd string) error
	Close() error
}

// MaxFrameSize bounds a single frame. Longer runs without CR or LF are line
// noise; they are discarded up to the next delimiter.
const MaxFrameSize = 1024

// LineDevice frames a byte stream on CR or LF. It works with serial ports,
// TCP bridges and recorded log files alike.
type LineDevice struct {
	rwc     io.ReadWriteCloser
	scanner *bufio.Scanner

	// discarding is set while skipping the rest of an oversized frame.
	discarding bool
	oversized  []byte

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func NewLineDevice(rwc io.ReadWriteCloser) *LineDevice {
	d := &LineDevice{rwc: rwc}
	d.scanner = bufio.NewScanner(rwc)
	d.scanner.Buffer(make([]byte, 0, 2*MaxFrameSize), 4*MaxFrameSize)
	d.scanner.Split(d.scanFrames)
	return d
}

// ReadFrame returns the next non-empty frame. An oversized frame is reported
// as a *DecodeError wrapping ErrFrameTooLong; reading may continue after it.
func (d *LineDevice) ReadFrame() (string, error) {
	for d.scanner.Scan() {
		if d.oversized != nil {
			head := string(d.oversized)
			d.oversized = nil
			return "", &DecodeError{Line: head, Err: ErrFrameTooLong}
		}
		line := d.scanner.Text()
		if line != "" {
			return line, nil
		}
	}
	if err := d.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (d *LineDevice) WriteCommand(cmd string) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	if _, err := io.WriteString(d.rwc, cmd+"\r"); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// Close is idempotent; it unblocks a pending ReadFrame.
func (d *LineDevice) Close() error {
	d.closeOnce.Do(func() { d.closeErr = d.rwc.Close() })
	return d.closeErr
}

// oversizedHead is how much of an oversized frame is kept for the report.
const oversizedHead = 32

func (d *LineDevice) scanFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	i := bytes.IndexAny(data, "\r\n")
	if d.discarding {
		if i >= 0 {
			d.discarding = false
			return i + 1, nil, nil
		}
		return len(data), nil, nil
	}
	if i >= 0 && i <= MaxFrameSize {
		return i + 1, data[:i], nil
	}
	if i > MaxFrameSize || len(data) > MaxFrameSize {
		d.oversized = append([]byte(nil), data[:oversizedHead]...)
		if i >= 0 {
			return i + 1, []byte{}, nil
		}
		d.discarding = true
		return len(data), []byte{}, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// ReadOnly adapts a reader, such as a recorded log, to a Device. Commands are
// discarded.
func ReadOnly(r io.Reader) *LineDevice {
	return NewLineDevice(readOnly{r})
}

type readOnly struct{ io.Reader }

func (readOnly) Write(p []byte) (int, error) { return len(p), nil }

func (r readOnly) Close() error {
	if c, ok := r.Reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
