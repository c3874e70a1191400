package adl

import (
	"context"
	"sync"
	"time"

	"github.com/olivierh59500/adl-player/pkg/adlib"
	"github.com/olivierh59500/adl-player/pkg/logger"
)

// Controller is the numbered command interface of the driver.
type Controller interface {
	Callback(cmd adlib.Command, args ...interface{}) int
}

// DefaultPoll is how often PlaySoundEffect checks whether the previous start
// has been picked up by the driver.
const DefaultPoll = 10 * time.Millisecond

// Sound plays the tracks of one loaded file at a time. It must run
// concurrently with whatever ticks the driver, since starting a track waits
// for the previous start to be processed.
type Sound struct {
	Poll time.Duration

	mu     sync.Mutex
	drv    Controller
	file   *File
	loaded string

	sfxSong   int
	sfxSecond int
	sfxFourth int
}

// NewSound returns a Sound driving drv. No file is loaded.
func NewSound(drv Controller) *Sound {
	return &Sound{
		Poll:    DefaultPoll,
		drv:     drv,
		sfxSong: -1,
	}
}

// Init initialises the driver and marks it initialised.
func (s *Sound) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drv.Callback(adlib.CmdInit)
	s.drv.Callback(adlib.CmdSetFlag, adlib.FlagInitialised)
}

// Loaded returns the name of the loaded file.
func (s *Sound) Loaded() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// File returns the loaded file, or nil.
func (s *Sound) File() *File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file
}

// LoadSoundFile makes f the current file. Loading the file already loaded
// does nothing. Otherwise the current track is halted, every channel stopped
// and the driver handed a copy of the new sound data, so f is never modified.
func (s *Sound) LoadSoundFile(ctx context.Context, f *File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil && s.loaded == f.Name {
		return nil
	}

	if s.file != nil {
		for i := 0; i < 2; i++ {
			if err := s.haltTrack(ctx); err != nil {
				return err
			}
		}
	}

	s.drv.Callback(adlib.CmdStopChannels, -1)
	s.file = nil
	s.sfxSong = -1

	// the driver gets its own copy; sound effects patch bytes in place
	s.drv.Callback(adlib.CmdSetSoundData, append([]byte(nil), f.SoundData...))
	s.file = f
	s.loaded = f.Name
	logger.Logf("adl", "loaded %s: %d bytes of sound data", f.Name, len(f.SoundData))
	return nil
}

// PlayTrack starts track.
func (s *Sound) PlayTrack(ctx context.Context, track int) error {
	return s.PlaySoundEffect(ctx, track)
}

// HaltTrack silences the current music by starting track 0 twice.
func (s *Sound) HaltTrack(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.haltTrack(ctx)
}

func (s *Sound) haltTrack(ctx context.Context) error {
	if err := s.playSoundEffect(ctx, 0); err != nil {
		return err
	}
	return s.playSoundEffect(ctx, 0)
}

// BeginFadeOut starts track 1, which fades the music out.
func (s *Sound) BeginFadeOut(ctx context.Context) error {
	return s.PlaySoundEffect(ctx, 1)
}

// PlaySoundEffect starts track. Before it does, it waits until the driver
// has picked up the previous start, or ctx is done. Sound effect songs are
// attenuated by patching their priority and level bytes, which are put back
// when the next track starts. Unused tracks do nothing.
func (s *Sound) PlaySoundEffect(ctx context.Context, track int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playSoundEffect(ctx, track)
}

func (s *Sound) playSoundEffect(ctx context.Context, track int) error {
	if s.file == nil {
		return nil
	}
	id, ok := s.file.SongID(track)
	if !ok {
		return nil
	}

	if err := s.waitTrigger(ctx); err != nil {
		return err
	}

	if s.sfxSong != -1 {
		s.drv.Callback(adlib.CmdWriteByte, s.sfxSong, 1, s.sfxSecond)
		s.drv.Callback(adlib.CmdWriteByte, s.sfxSong, 3, s.sfxFourth)
		s.sfxSong = -1
	}

	if s.drv.Callback(adlib.CmdReadByte, id, 0) != adlib.PercussionChannel {
		s.sfxSong = id
		s.sfxSecond = s.drv.Callback(adlib.CmdReadByte, id, 1)
		s.sfxFourth = s.drv.Callback(adlib.CmdReadByte, id, 3)

		level := (((-s.sfxFourth + 63) * 0xFF) >> 8) & 0xFF
		s.drv.Callback(adlib.CmdWriteByte, id, 3, (-level+63)&0xFF)
		s.drv.Callback(adlib.CmdWriteByte, id, 1, ((s.sfxSecond*0xFF)>>8)&0xFF)
	}

	s.drv.Callback(adlib.CmdStartSong, id)
	return nil
}

// waitTrigger blocks while the driver's trigger flag is set.
func (s *Sound) waitTrigger(ctx context.Context) error {
	if s.drv.Callback(adlib.CmdSetFlag, 0)&adlib.FlagTrigger == 0 {
		return nil
	}

	poll := s.Poll
	if poll <= 0 {
		poll = DefaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for s.drv.Callback(adlib.CmdSetFlag, 0)&adlib.FlagTrigger != 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
