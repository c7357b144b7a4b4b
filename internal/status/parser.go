// Package status converts raw management-interface status text into the
// per-client session mapping the rest of the pipeline works with.
package status

import (
	"log"
	"strconv"
	"strings"
	"time"

	"vpnspectra/internal/model"
)

const clientListTag = "CLIENT_LIST"

// Field positions inside a CLIENT_LIST line of a "status 2" dump.
const (
	fieldName           = 1
	fieldRealAddress    = 2
	fieldBytesReceived  = 5
	fieldBytesSent      = 6
	fieldConnectedSince = 7
)

// Parse extracts the client sessions from a raw status dump. Lines that do
// not carry the CLIENT_LIST tag are ignored; malformed lines are logged and
// skipped without aborting the batch. If a client name repeats, the later
// line wins. Every record is stamped with capturedAt in the report zone.
func Parse(raw string, capturedAt time.Time) model.Snapshot {
	clients := make(model.Snapshot)
	for _, line := range strings.Split(raw, "\n") {
		if !strings.HasPrefix(line, clientListTag) {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) <= fieldConnectedSince {
			log.Printf("Skipping short CLIENT_LIST line: %q", line)
			continue
		}

		received, err := strconv.ParseUint(parts[fieldBytesReceived], 10, 64)
		if err != nil {
			log.Printf("Skipping CLIENT_LIST line with bad bytes-received %q: %v", parts[fieldBytesReceived], err)
			continue
		}
		sent, err := strconv.ParseUint(parts[fieldBytesSent], 10, 64)
		if err != nil {
			log.Printf("Skipping CLIENT_LIST line with bad bytes-sent %q: %v", parts[fieldBytesSent], err)
			continue
		}

		clients[parts[fieldName]] = model.ClientSession{
			RealAddress:    parts[fieldRealAddress],
			BytesReceived:  received,
			BytesSent:      sent,
			ConnectedSince: parts[fieldConnectedSince],
			Timestamp:      capturedAt.In(model.ReportLocation),
		}
	}
	return clients
}
