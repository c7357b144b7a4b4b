package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpnspectra/internal/model"
)

var captureTime = time.Date(2025, 8, 1, 12, 5, 0, 0, model.ReportLocation)

func TestParseClientList(t *testing.T) {
	raw := "TITLE,OpenVPN 2.5.1\n" +
		"TIME,2025-08-01 12:05:00,1722506700\n" +
		"HEADER,CLIENT_LIST,Common Name,Real Address,Virtual Address,Virtual IPv6 Address,Bytes Received,Bytes Sent,Connected Since\n" +
		"CLIENT_LIST,alice,203.0.113.7:52611,10.8.0.2,,1875000,937500,2025-08-01 10:00:00,1722499200,UNDEF,0,0\n" +
		"CLIENT_LIST,bob,198.51.100.4:41002,10.8.0.3,,500,600,2025-08-01 11:30:00,1722504600,UNDEF,1,1\n" +
		"ROUTING_TABLE,10.8.0.2,alice,203.0.113.7:52611,2025-08-01 12:04:58\n" +
		"GLOBAL_STATS,Max bcast/mcast queue length,0\n" +
		"END\n"

	clients := Parse(raw, captureTime)
	require.Len(t, clients, 2)

	alice := clients["alice"]
	assert.Equal(t, "203.0.113.7:52611", alice.RealAddress)
	assert.Equal(t, uint64(1875000), alice.BytesReceived)
	assert.Equal(t, uint64(937500), alice.BytesSent)
	assert.Equal(t, "2025-08-01 10:00:00", alice.ConnectedSince)
	assert.Equal(t, captureTime, alice.Timestamp)

	bob := clients["bob"]
	assert.Equal(t, uint64(500), bob.BytesReceived)
	assert.Equal(t, uint64(600), bob.BytesSent)
}

func TestParseSkipsMalformedLines(t *testing.T) {
	raw := "CLIENT_LIST,short\n" +
		"CLIENT_LIST,carol,192.0.2.9:1194,10.8.0.4,,notanumber,70,2025-08-01 09:00:00\n" +
		"CLIENT_LIST,dave,192.0.2.10:1194,10.8.0.5,,80,alsobad,2025-08-01 09:00:00\n" +
		"CLIENT_LIST,erin,192.0.2.11:1194,10.8.0.6,,90,100,2025-08-01 09:00:00\n"

	clients := Parse(raw, captureTime)
	require.Len(t, clients, 1)
	assert.Contains(t, clients, "erin")
}

func TestParseDuplicateClientLastWriteWins(t *testing.T) {
	raw := "CLIENT_LIST,alice,192.0.2.1:1000,10.8.0.2,,100,200,2025-08-01 08:00:00\n" +
		"CLIENT_LIST,alice,192.0.2.2:2000,10.8.0.2,,300,400,2025-08-01 08:30:00\n"

	clients := Parse(raw, captureTime)
	require.Len(t, clients, 1)
	assert.Equal(t, "192.0.2.2:2000", clients["alice"].RealAddress)
	assert.Equal(t, uint64(300), clients["alice"].BytesReceived)
}

func TestParseEmptyInput(t *testing.T) {
	assert.Empty(t, Parse("", captureTime))
	assert.Empty(t, Parse("END\n", captureTime))
}
