package model

import "context"

// Fetcher obtains one raw status dump from the VPN management interface.
type Fetcher interface {
	// Fetch returns the accumulated status text. A socket timeout during
	// the read phase is a soft stop: whatever was read so far is returned.
	Fetch(ctx context.Context) (string, error)
}
