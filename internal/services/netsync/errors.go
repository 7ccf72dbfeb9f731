package netsync

// SyncError is a custom error type for synchronization errors
type SyncError string

// Error implements the error interface
func (e SyncError) Error() string {
	return string(e)
}

// Define errors
const (
	ErrNilConfig      SyncError = "config cannot be nil"
	ErrNilGameService SyncError = "game service cannot be nil"
	ErrEmptyGameID    SyncError = "game ID cannot be empty"
	ErrEmptyPeerID    SyncError = "peer ID cannot be empty"
	ErrNoTransport    SyncError = "no transport configured"
)
