package mgmt

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpnspectra/internal/config"
)

const sampleStatus = "TITLE,OpenVPN 2.5.1\n" +
	"HEADER,CLIENT_LIST,Common Name,Real Address\n" +
	"CLIENT_LIST,alice,203.0.113.7:52611,10.8.0.2,,1024,2048,2025-08-01 10:00:00,1722499200,UNDEF,0,0\n" +
	"GLOBAL_STATS,Max bcast/mcast queue length,0\n" +
	"END\n"

// fakeManagementServer speaks just enough of the management protocol for
// the fetcher: a banner on connect, then a status dump per command.
func fakeManagementServer(t *testing.T, reply string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		conn.Write([]byte(">INFO:OpenVPN Management Interface Version 3\n"))

		reader := bufio.NewReader(conn)
		if _, err := reader.ReadString('\n'); err != nil {
			return
		}
		conn.Write([]byte(reply))
	}()

	return ln.Addr().String()
}

func fetcherFor(t *testing.T, addr string) *Fetcher {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)

	f, err := NewFetcher(config.ManagementConfig{Host: host, Port: portNum, Timeout: "2s"})
	require.NoError(t, err)
	return f
}

func TestFetcherReadsUntilEndMarker(t *testing.T) {
	addr := fakeManagementServer(t, sampleStatus)

	raw, err := fetcherFor(t, addr).Fetch(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.Contains(raw, "CLIENT_LIST,alice"))
	assert.True(t, strings.HasSuffix(raw, "END\n"))
}

func TestFetcherConnectionRefused(t *testing.T) {
	f, err := NewFetcher(config.ManagementConfig{Host: "127.0.0.1", Port: 1, Timeout: "500ms"})
	require.NoError(t, err)

	_, err = f.Fetch(context.Background())
	require.Error(t, err)
}

func TestHasEndMarker(t *testing.T) {
	assert.True(t, hasEndMarker([]byte("data\nEND\n")))
	assert.False(t, hasEndMarker([]byte("no marker here\n")))

	// A marker buried deep in a large buffer is out of the search window.
	buried := "END\n" + strings.Repeat("x", 4096) + "\n"
	assert.False(t, hasEndMarker([]byte(buried)))
}
