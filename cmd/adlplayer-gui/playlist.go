//go:build gui

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/olivierh59500/adl-player/pkg/adl"
)

// PlaylistItem is one track of one .ADL file
type PlaylistItem struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Track    int    `json:"track"`
	SongID   int    `json:"song"`
	Channel  int    `json:"channel"`
	Priority int    `json:"priority"`
}

// Title is the text shown in the track list
func (i *PlaylistItem) Title() string {
	kind := "sfx"
	if i.Channel == 9 {
		kind = "music"
	}
	return fmt.Sprintf("%s #%d (%s)", i.Name, i.Track, kind)
}

// Playlist manages the tracks of the loaded files
type Playlist struct {
	Name  string          `json:"name"`
	Items []*PlaylistItem `json:"items"`
}

// NewPlaylist creates a new empty playlist
func NewPlaylist(name string) *Playlist {
	return &Playlist{
		Name:  name,
		Items: make([]*PlaylistItem, 0),
	}
}

// AddFile adds every used track of f, optionally music tracks only
func (p *Playlist) AddFile(path string, f *adl.File, musicOnly bool) int {
	n := 0
	for _, s := range f.Songs() {
		if musicOnly && !s.IsMusic() {
			continue
		}
		p.Items = append(p.Items, &PlaylistItem{
			Path:     path,
			Name:     f.Name,
			Track:    s.Track,
			SongID:   s.ID,
			Channel:  s.Channel,
			Priority: s.Priority,
		})
		n++
	}
	return n
}

// Remove removes an item at the specified index
func (p *Playlist) Remove(index int) error {
	if index < 0 || index >= len(p.Items) {
		return fmt.Errorf("index out of range")
	}
	p.Items = append(p.Items[:index], p.Items[index+1:]...)
	return nil
}

// Clear removes all items from the playlist
func (p *Playlist) Clear() {
	p.Items = make([]*PlaylistItem, 0)
}

// Size returns the number of items in the playlist
func (p *Playlist) Size() int {
	return len(p.Items)
}

// Get returns the item at the specified index
func (p *Playlist) Get(index int) (*PlaylistItem, error) {
	if index < 0 || index >= len(p.Items) {
		return nil, fmt.Errorf("index out of range")
	}
	return p.Items[index], nil
}

// Save saves the playlist to a JSON file
func (p *Playlist) Save(filename string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// LoadPlaylist loads a playlist from a JSON file
func LoadPlaylist(filename string) (*Playlist, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var playlist Playlist
	if err := json.Unmarshal(data, &playlist); err != nil {
		return nil, err
	}

	return &playlist, nil
}

// SortBy selects the playlist sort key
type SortBy int

const (
	SortByFile SortBy = iota
	SortByTrack
	SortByChannel
)

// Sort sorts the playlist, keeping the file order for equal keys
func (p *Playlist) Sort(by SortBy) {
	sort.SliceStable(p.Items, func(i, j int) bool {
		a, b := p.Items[i], p.Items[j]
		switch by {
		case SortByTrack:
			return a.Track < b.Track
		case SortByChannel:
			return a.Channel < b.Channel
		}
		return a.Name < b.Name
	})
}
