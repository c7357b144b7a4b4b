package mgmt

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"time"

	"vpnspectra/internal/config"
)

// statusCommand requests the version-2 status dump. The trailing blank line
// matches what the daemon expects from a scripted session.
const statusCommand = "status 2\n\n"

// endMarkerWindow bounds how far back from the end of the accumulated
// buffer the END marker is searched for.
const endMarkerWindow = 100

// Fetcher reads one raw status dump from the management interface over a
// plain TCP session. It implements the model.Fetcher interface.
type Fetcher struct {
	addr    string
	timeout time.Duration
}

// NewFetcher creates a fetcher for the configured management interface.
func NewFetcher(cfg config.ManagementConfig) (*Fetcher, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid management timeout: %w", err)
	}
	return &Fetcher{addr: cfg.Addr(), timeout: timeout}, nil
}

// Fetch connects, reads the banner, sends the status command and
// accumulates the reply until the END marker shows up near the end of the
// buffer or the socket goes quiet. A read timeout is a soft stop: whatever
// was read so far is returned.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	dialer := net.Dialer{Timeout: f.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", f.addr)
	if err != nil {
		return "", fmt.Errorf("failed to connect to management interface at %s: %w", f.addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(f.timeout)); err != nil {
		return "", fmt.Errorf("failed to set socket deadline: %w", err)
	}

	reader := bufio.NewReader(conn)
	banner, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read management banner: %w", err)
	}
	log.Printf("Management banner: %s", strings.TrimSpace(banner))

	if _, err := conn.Write([]byte(statusCommand)); err != nil {
		return "", fmt.Errorf("failed to send status command: %w", err)
	}

	var buf bytes.Buffer
	chunk := make([]byte, 64*1024)
	for {
		n, err := reader.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if hasEndMarker(buf.Bytes()) {
				break
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				log.Printf("Timed out reading status data, keeping %d bytes read so far", buf.Len())
				break
			}
			return "", fmt.Errorf("failed to read status data: %w", err)
		}
	}

	return buf.String(), nil
}

// hasEndMarker reports whether the END line appears near the end of the
// accumulated buffer.
func hasEndMarker(b []byte) bool {
	tail := b
	if len(b) > endMarkerWindow {
		tail = b[len(b)-endMarkerWindow:]
	}
	return bytes.Contains(tail, []byte("END\n"))
}
