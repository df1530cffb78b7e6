package timing

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
)

// Open connects to the device named by addr: "tcp://host:port" for serial to
// network bridges, anything else is opened as a file (serial port or log).
func Open(ctx context.Context, addr string) (*LineDevice, error) {
	if hostPort, ok := strings.CutPrefix(addr, "tcp://"); ok {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", hostPort)
		if err != nil {
			return nil, fmt.Errorf("dial timing device: %w", err)
		}
		return NewLineDevice(conn), nil
	}
	f, err := os.OpenFile(addr, os.O_RDWR, 0)
	if err != nil {
		// Recorded logs are often read-only.
		ro, roErr := os.Open(addr)
		if roErr != nil {
			return nil, fmt.Errorf("open timing device: %w", err)
		}
		return ReadOnly(ro), nil
	}
	return NewLineDevice(f), nil
}
