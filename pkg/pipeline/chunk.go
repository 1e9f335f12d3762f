package pipeline

import (
	"time"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
)

const (
	DefaultChunkSize = 10
	DefaultWindow    = 15 * time.Minute
)

// CycleIndex numbers the polling window that contains now.
func CycleIndex(now time.Time, window time.Duration) int64 {
	if window <= 0 {
		window = DefaultWindow
	}
	return now.UnixNano() / int64(window)
}

// SelectChunk picks the accounts to poll in the window containing now. Accounts are cut
// into fixed-size chunks in list order and the chunks are visited round-robin by window,
// so no state is needed to rotate fairly across restarts.
func SelectChunk(accounts []models.WatchedAccount, size int, window time.Duration, now time.Time) []models.WatchedAccount {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if len(accounts) <= size {
		return accounts
	}

	chunks := (len(accounts) + size - 1) / size
	idx := int(CycleIndex(now, window) % int64(chunks))

	start := idx * size
	end := start + size
	if end > len(accounts) {
		end = len(accounts)
	}
	return accounts[start:end]
}
