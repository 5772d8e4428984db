package kernel

import (
	"time"

	"github.com/festivald/festivald/internal/audio"
	"github.com/festivald/festivald/internal/watch"
)

// handle dispatches a single Command. It returns true when the Kernel
// should tear down (CmdExit only).
func (k *Kernel) handle(cmd Command) bool {
	switch cmd.Kind {
	case CmdToggle:
		k.engine.Toggle()
	case CmdPlay:
		k.engine.Play()
	case CmdPause:
		k.engine.Pause()
	case CmdNext:
		k.engine.Next()
	case CmdPrevious:
		k.engine.Previous()
	case CmdStop:
		k.engine.Stop()
	case CmdRepeat:
		k.engine.SetRepeat(cmd.Repeat)
	case CmdVolume:
		k.engine.SetVolume(cmd.Volume)
	case CmdSeek:
		if err := k.engine.Seek(cmd.SeekVariant, cmd.SeekAmount); err != nil {
			k.broadcast(Event{Kind: EvtSeekError, Err: err})
		}
	case CmdAddQueueSong:
		k.engine.AddQueueSong(cmd.SongKey, cmd.QueueFront, cmd.ClearFirst, cmd.PlayAfter)
	case CmdAddQueueAlbum:
		k.engine.AddQueueAlbum(cmd.AlbumKey, cmd.QueueFront, cmd.ClearFirst, cmd.PlayAfter)
	case CmdAddQueueArtist:
		k.engine.AddQueueArtist(cmd.ArtistKey, cmd.QueueFront, cmd.ClearFirst, cmd.PlayAfter)
	case CmdShuffle:
		k.engine.Shuffle()
	case CmdClear:
		k.engine.Clear(cmd.PlayAfter)
	case CmdSkip:
		k.engine.Skip(cmd.SkipBackN)
	case CmdBack:
		k.engine.Back(cmd.SkipBackN)
	case CmdSetQueueIndex:
		k.engine.SetQueueIndex(cmd.QueueIndex)
	case CmdRemoveQueueRange:
		k.engine.RemoveQueueRange(cmd.RemoveLo, cmd.RemoveHi)
	case CmdRestoreAudioState:
		k.engine.RestoreAudioState(cmd.RestoreState)
	case CmdNewCollection:
		k.startRebuild(cmd.Roots)
	case CmdSearch:
		k.idxMu.RLock()
		kc := k.idx.Query(cmd.Query, cmd.Answer)
		k.idxMu.RUnlock()
		if cmd.Reply != nil {
			cmd.Reply <- Event{Kind: EvtSearchResp, Keychain: kc}
		}
		return false
	case CmdExit:
		return true
	}

	if cmd.Reply != nil {
		cmd.Reply <- Event{Kind: EvtAck}
	}
	return false
}

// handleSignal translates a file-signal Watcher event into the same
// engine calls a front-end Command would trigger: the IPC path and the
// in-process Command path converge on the Audio Engine.
func (k *Kernel) handleSignal(sig watch.Signal) {
	switch sig.Kind {
	case watch.Toggle:
		k.engine.Toggle()
	case watch.Play:
		k.engine.Play()
	case watch.Pause:
		k.engine.Pause()
	case watch.Next:
		k.engine.Next()
	case watch.Previous:
		k.engine.Previous()
	case watch.Stop:
		k.engine.Stop()
	case watch.Shuffle:
		k.engine.Shuffle()
	case watch.RepeatSong:
		k.engine.SetRepeat(audio.RepeatSong)
	case watch.RepeatQueue:
		k.engine.SetRepeat(audio.RepeatQueue)
	case watch.RepeatOff:
		k.engine.SetRepeat(audio.RepeatOff)
	case watch.Volume:
		k.engine.SetVolume(uint8(sig.Payload))
	case watch.Seek:
		_ = k.engine.Seek(audio.SeekAbsolute, time.Duration(sig.Payload))
	case watch.SeekForward:
		_ = k.engine.Seek(audio.SeekForward, time.Duration(sig.Payload))
	case watch.SeekBackward:
		_ = k.engine.Seek(audio.SeekBackward, time.Duration(sig.Payload))
	case watch.Index:
		// Payload is a 1-based external index; saturate-subtract to the
		// engine's 0-based queue index rather than wrap on 0.
		idx := int(sig.Payload)
		if idx > 0 {
			idx--
		}
		k.engine.SetQueueIndex(idx)
	case watch.Skip:
		k.engine.Skip(int(sig.Payload))
	case watch.Back:
		k.engine.Back(int(sig.Payload))
	case watch.Clear:
		k.engine.Clear(sig.Bool)
	}
}
