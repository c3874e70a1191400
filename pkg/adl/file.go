// Package adl loads Westwood .ADL music files and plays their tracks on an
// adlib driver the way the game's sound layer does.
package adl

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TrackTableSize is the number of track entries at the start of a file.
const TrackTableSize = 120

// NoSong marks an unused track entry.
const NoSong = 0xFF

// ErrShortFile is returned for files that end inside the track table.
var ErrShortFile = errors.New("adl: file shorter than track table")

// File is a parsed .ADL file: a track table mapping track numbers to song ids
// followed by the sound data handed to the driver.
type File struct {
	Name      string
	Tracks    [TrackTableSize]uint8
	SoundData []byte
}

// Load reads an .ADL file from disk. The file's base name without extension
// becomes its Name.
func Load(filename string) (*File, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	base := filepath.Base(filename)
	f.Name = strings.TrimSuffix(base, filepath.Ext(base))
	return f, nil
}

// Parse splits data into track table and sound data. The sound data is a
// copy, since the driver patches it while playing.
func Parse(data []byte) (*File, error) {
	if len(data) < TrackTableSize {
		return nil, ErrShortFile
	}
	f := &File{}
	copy(f.Tracks[:], data)
	f.SoundData = append([]byte(nil), data[TrackTableSize:]...)
	return f, nil
}

// SongID returns the song id of track, or false for unused or out of range
// tracks.
func (f *File) SongID(track int) (int, bool) {
	if track < 0 || track >= TrackTableSize || f.Tracks[track] == NoSong {
		return 0, false
	}
	return int(f.Tracks[track]), true
}

// SongInfo describes the program a track starts.
type SongInfo struct {
	Track    int
	ID       int
	Channel  int
	Priority int
}

// IsMusic reports whether the song runs on the percussion channel, which
// the game uses for music rather than sound effects.
func (s SongInfo) IsMusic() bool {
	return s.Channel == 9
}

func (s SongInfo) String() string {
	kind := "sfx"
	if s.IsMusic() {
		kind = "music"
	}
	return fmt.Sprintf("track %3d  song %3d  ch %d  prio %3d  %s", s.Track, s.ID, s.Channel, s.Priority, kind)
}

// Songs lists every used track whose song header lies inside the sound data.
func (f *File) Songs() []SongInfo {
	var songs []SongInfo
	for track := range f.Tracks {
		id, ok := f.SongID(track)
		if !ok || 2*id+1 >= len(f.SoundData) {
			continue
		}
		off := int(binary.LittleEndian.Uint16(f.SoundData[2*id:]))
		if off+1 >= len(f.SoundData) {
			continue
		}
		songs = append(songs, SongInfo{
			Track:    track,
			ID:       id,
			Channel:  int(f.SoundData[off]),
			Priority: int(f.SoundData[off+1]),
		})
	}
	return songs
}
