package kernel

import (
	"github.com/festivald/festivald/internal/collection"
	"github.com/festivald/festivald/internal/search"
)

// EventKind enumerates the outbound notifications the Kernel broadcasts
// or replies with.
type EventKind int

const (
	EvtNewCollection EventKind = iota
	EvtSearchResp
	EvtFailed
	EvtDeviceError
	EvtPlayError
	EvtSeekError
	EvtPathError
	EvtExit
	// EvtAck is a plain acknowledgement for commands that have no richer
	// reply of their own (Toggle, Play, Volume, ...).
	EvtAck
)

// Event is a single outbound notification.
type Event struct {
	Kind       EventKind
	Keychain   search.Keychain
	Err        error
	SongKey    collection.SongKey
	ArtistCnt  int
	AlbumCnt   int
	SongCnt    int
}
