package kernel

import (
	"time"

	"github.com/festivald/festivald/internal/audio"
	"github.com/festivald/festivald/internal/collection"
	"github.com/festivald/festivald/internal/search"
)

// CommandKind enumerates every front-end-originated message the Kernel
// accepts.
type CommandKind int

const (
	CmdToggle CommandKind = iota
	CmdPlay
	CmdPause
	CmdNext
	CmdPrevious
	CmdStop
	CmdRepeat
	CmdVolume
	CmdSeek
	CmdAddQueueSong
	CmdAddQueueAlbum
	CmdAddQueueArtist
	CmdShuffle
	CmdClear
	CmdSkip
	CmdBack
	CmdSetQueueIndex
	CmdRemoveQueueRange
	CmdRestoreAudioState
	CmdNewCollection
	CmdSearch
	CmdExit
)

// Command is a single front-end request. Only the fields relevant to Kind
// are populated; Reply, if non-nil, receives exactly one Event back.
type Command struct {
	Kind CommandKind

	Repeat       audio.RepeatMode
	Volume       uint8
	SeekVariant  audio.SeekVariant
	SeekAmount   time.Duration
	SongKey      collection.SongKey
	AlbumKey     collection.AlbumKey
	ArtistKey    collection.ArtistKey
	QueueFront   bool
	ClearFirst   bool
	PlayAfter    bool
	RemoveLo     int
	RemoveHi     int
	QueueIndex   int
	SkipBackN    int
	RestoreState audio.AudioState
	Roots        []string
	Query        string
	Answer       search.Answer

	Reply chan Event
}
