package timing

import (
	"errors"
	"io"
	"sync"
)

// ------------------------
// Fake Device
// ------------------------

type FakeDevice struct {
	lines  chan string
	closed chan struct{}
	once   sync.Once

	mu      sync.Mutex
	written []string

	WriteCommandFunc func(cmd string) error
}

func NewFakeDevice(buffer int) *FakeDevice {
	return &FakeDevice{
		lines:  make(chan string, buffer),
		closed: make(chan struct{}),
	}
}

func (f *FakeDevice) Feed(lines ...string) {
	for _, l := range lines {
		f.lines <- l
	}
}

// End simulates the device closing the stream.
func (f *FakeDevice) End() { close(f.lines) }

func (f *FakeDevice) ReadFrame() (string, error) {
	select {
	case l, ok := <-f.lines:
		if !ok {
			return "", io.EOF
		}
		return l, nil
	case <-f.closed:
		return "", errors.New("use of closed device")
	}
}

func (f *FakeDevice) WriteCommand(cmd string) error {
	f.mu.Lock()
	f.written = append(f.written, cmd)
	f.mu.Unlock()
	if f.WriteCommandFunc != nil {
		return f.WriteCommandFunc(cmd)
	}
	return nil
}

func (f *FakeDevice) Written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.written...)
}

func (f *FakeDevice) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}
