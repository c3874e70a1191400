//go:build gui

package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlaylist() *Playlist {
	p := NewPlaylist("test")
	for i, name := range []string{"KYRA1A", "INTRO", "KYRAMISC"} {
		p.Items = append(p.Items, &PlaylistItem{Name: name, Track: 3 - i, Channel: i * 4})
	}
	return p
}

func TestPlaylistRemove(t *testing.T) {
	p := newTestPlaylist()

	require.NoError(t, p.Remove(1))
	require.Equal(t, 2, p.Size())
	assert.Equal(t, "KYRA1A", p.Items[0].Name)
	assert.Equal(t, "KYRAMISC", p.Items[1].Name)

	assert.Error(t, p.Remove(2))
	assert.Error(t, p.Remove(-1))
	assert.Equal(t, 2, p.Size())
}

func TestPlaylistSort(t *testing.T) {
	p := newTestPlaylist()

	p.Sort(SortByTrack)
	assert.Equal(t, 1, p.Items[0].Track)

	p.Sort(SortByFile)
	assert.Equal(t, "INTRO", p.Items[0].Name)
}

func TestPlaylistSaveLoad(t *testing.T) {
	p := newTestPlaylist()
	name := filepath.Join(t.TempDir(), "list.json")
	require.NoError(t, p.Save(name))

	got, err := LoadPlaylist(name)
	require.NoError(t, err)
	assert.Equal(t, p.Items, got.Items)
}
