//go:build gui

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/olivierh59500/adl-player/pkg/adl"
	"github.com/olivierh59500/adl-player/pkg/adlib"
	"github.com/olivierh59500/adl-player/pkg/audio"
	"github.com/olivierh59500/adl-player/pkg/logger"
	"github.com/olivierh59500/adl-player/pkg/opl"
)

// startTimeout bounds the wait for the driver to pick up the previous
// start.
const startTimeout = 2 * time.Second

// exportSeconds is the length of a WAV export.
const exportSeconds = 90

type JukeboxGUI struct {
	app    fyne.App
	window fyne.Window

	// Engine
	preview *opl.Preview
	driver  *adlib.Driver
	sound   *adl.Sound
	player  *audio.Player
	files   map[string]*adl.File
	started time.Time
	mutex   sync.Mutex

	// Playlist
	playlist     *Playlist
	currentIndex int
	musicOnly    bool
	list         *widget.List

	// UI Elements
	fileLabel     *widget.Label
	trackLabel    *widget.Label
	timeLabel     *widget.Label
	channelsLabel *widget.Label
	statusLabel   *widget.Label
	volumeSlider  *widget.Slider
	playButton    *widget.Button
	pauseButton   *widget.Button
	stopButton    *widget.Button
	prevButton    *widget.Button
	nextButton    *widget.Button
	lowpassCheck  *widget.Check
	musicCheck    *widget.Check
	playlistLabel *widget.Label

	// Settings
	sampleRate int
	bufferSize int

	done chan struct{}
}

func NewJukeboxGUI() (*JukeboxGUI, error) {
	p := &JukeboxGUI{
		app:          app.New(),
		sampleRate:   44100,
		bufferSize:   2048,
		files:        make(map[string]*adl.File),
		playlist:     NewPlaylist("Default"),
		currentIndex: -1,
		musicOnly:    true,
		done:         make(chan struct{}),
	}

	p.preview = opl.NewPreview(p.sampleRate)
	drv, err := adlib.New(p.preview, adlib.DefaultConfig(p.sampleRate))
	if err != nil {
		return nil, err
	}
	p.driver = drv
	p.sound = adl.NewSound(drv)
	p.sound.Init()

	p.createUI()
	return p, nil
}

func (p *JukeboxGUI) createUI() {
	p.window = p.app.NewWindow("ADL Jukebox")
	p.window.Resize(fyne.NewSize(900, 600))

	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Add ADL File...", p.addFiles),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Playlist...", p.savePlaylist),
		fyne.NewMenuItem("Load Playlist...", p.loadPlaylist),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Current to WAV...", p.exportWAV),
	)
	playlistMenu := fyne.NewMenu("Playlist",
		fyne.NewMenuItem("Remove Current", p.removeCurrent),
		fyne.NewMenuItem("Clear All", p.clearPlaylist),
		fyne.NewMenuItem("Sort by File", func() { p.sortPlaylist(SortByFile) }),
		fyne.NewMenuItem("Sort by Track", func() { p.sortPlaylist(SortByTrack) }),
		fyne.NewMenuItem("Sort by Channel", func() { p.sortPlaylist(SortByChannel) }),
	)
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("Driver Log", p.showLog),
	)
	p.window.SetMainMenu(fyne.NewMainMenu(fileMenu, playlistMenu, helpMenu))

	split := container.NewHSplit(p.createMainContent(), p.createPlaylistContent())
	split.SetOffset(0.55)

	p.window.SetContent(split)
	p.window.SetOnClosed(p.cleanup)

	p.startUpdateTicker()
}

func (p *JukeboxGUI) createMainContent() fyne.CanvasObject {
	p.fileLabel = widget.NewLabel("No file loaded")
	p.fileLabel.TextStyle = fyne.TextStyle{Bold: true}
	p.trackLabel = widget.NewLabel("")
	p.timeLabel = widget.NewLabel("00:00")
	p.channelsLabel = widget.NewLabel(strings.Repeat(".", adlib.NumChannels))
	p.channelsLabel.TextStyle = fyne.TextStyle{Monospace: true}

	infoCard := widget.NewCard("Now Playing", "", container.NewVBox(
		p.fileLabel,
		p.trackLabel,
		container.NewHBox(widget.NewLabel("Channels:"), p.channelsLabel),
		p.timeLabel,
	))

	p.prevButton = widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), p.playPrevious)
	p.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), p.play)
	p.pauseButton = widget.NewButtonWithIcon("", theme.MediaPauseIcon(), p.pause)
	p.stopButton = widget.NewButtonWithIcon("", theme.MediaStopIcon(), p.stop)
	p.nextButton = widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), p.playNext)
	p.pauseButton.Disable()
	p.stopButton.Disable()

	buttons := container.NewHBox(
		layout.NewSpacer(),
		p.prevButton, p.playButton, p.pauseButton, p.stopButton, p.nextButton,
		layout.NewSpacer(),
	)

	volumeLabel := widget.NewLabel("100%")
	p.volumeSlider = widget.NewSlider(0, 2)
	p.volumeSlider.Step = 0.05
	p.volumeSlider.SetValue(1)
	p.volumeSlider.OnChanged = func(v float64) {
		volumeLabel.SetText(fmt.Sprintf("%d%%", int(v*100)))
		p.mutex.Lock()
		if p.player != nil {
			p.player.SetVolume(v)
		}
		p.mutex.Unlock()
	}
	volume := container.NewBorder(nil, nil,
		container.NewHBox(widget.NewIcon(theme.VolumeUpIcon()), widget.NewLabel("Volume:")),
		volumeLabel, p.volumeSlider)

	p.lowpassCheck = widget.NewCheck("Low-pass Filter", func(on bool) {
		p.preview.SetFilter(on)
	})
	p.lowpassCheck.SetChecked(true)
	p.musicCheck = widget.NewCheck("Music tracks only", func(on bool) {
		p.musicOnly = on
	})
	p.musicCheck.SetChecked(true)

	p.statusLabel = widget.NewLabel("Ready")

	return container.NewPadded(container.NewVBox(
		infoCard,
		widget.NewSeparator(),
		buttons,
		volume,
		container.NewHBox(p.lowpassCheck, p.musicCheck),
		layout.NewSpacer(),
		container.NewBorder(widget.NewSeparator(), nil, nil, p.statusLabel, nil),
	))
}

func (p *JukeboxGUI) createPlaylistContent() fyne.CanvasObject {
	p.playlistLabel = widget.NewLabel("Tracks (0 items)")
	p.playlistLabel.TextStyle = fyne.TextStyle{Bold: true}

	p.list = widget.NewList(
		func() int {
			return p.playlist.Size()
		},
		func() fyne.CanvasObject {
			title := widget.NewLabel("")
			title.Truncation = fyne.TextTruncateEllipsis
			prio := widget.NewLabel("")
			return container.NewBorder(nil, nil, nil, prio, title)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			box := obj.(*fyne.Container)
			title := box.Objects[0].(*widget.Label)
			prio := box.Objects[1].(*widget.Label)

			item, _ := p.playlist.Get(id)
			if item == nil {
				return
			}
			title.SetText(item.Title())
			prio.SetText(fmt.Sprintf("ch %d", item.Channel))
			if id == p.currentIndex {
				title.TextStyle = fyne.TextStyle{Bold: true}
			} else {
				title.TextStyle = fyne.TextStyle{}
			}
		},
	)
	p.list.OnSelected = p.playFromIndex

	add := widget.NewButtonWithIcon("Add", theme.ContentAddIcon(), p.addFiles)
	remove := widget.NewButtonWithIcon("Remove", theme.ContentRemoveIcon(), p.removeCurrent)
	clearButton := widget.NewButtonWithIcon("Clear", theme.DeleteIcon(), p.clearPlaylist)

	return widget.NewCard("", "", container.NewBorder(
		container.NewVBox(p.playlistLabel, widget.NewSeparator()),
		container.NewHBox(add, remove, clearButton),
		nil, nil,
		container.NewScroll(p.list),
	))
}

func (p *JukeboxGUI) startUpdateTicker() {
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fyne.Do(p.refresh)
			case <-p.done:
				return
			}
		}
	}()
}

// refresh runs on the UI goroutine.
func (p *JukeboxGUI) refresh() {
	var b strings.Builder
	for i := 0; i < adlib.NumChannels; i++ {
		if p.driver.Channel(i).Active {
			fmt.Fprintf(&b, "%d", i)
		} else {
			b.WriteByte('.')
		}
	}
	p.channelsLabel.SetText(b.String())

	p.mutex.Lock()
	player := p.player
	started := p.started
	p.mutex.Unlock()

	switch {
	case player == nil:
		p.statusLabel.SetText("Ready")
	case player.IsPaused():
		p.statusLabel.SetText("Paused")
	default:
		p.timeLabel.SetText(formatTime(time.Since(started)))
		status := fmt.Sprintf("Playing  tick %d", p.driver.Ticks())
		if n := p.driver.Faults(); n > 0 {
			status += fmt.Sprintf("  faults %d", n)
		}
		p.statusLabel.SetText(status)
	}
}

func (p *JukeboxGUI) addFiles() {
	open := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		if err := p.addFile(path); err != nil {
			dialog.ShowError(err, p.window)
		}
	}, p.window)
	open.SetFilter(storage.NewExtensionFileFilter([]string{".adl", ".ADL"}))
	open.Show()
}

func (p *JukeboxGUI) addFile(path string) error {
	f, err := adl.Load(path)
	if err != nil {
		return err
	}
	p.mutex.Lock()
	p.files[path] = f
	p.mutex.Unlock()

	n := p.playlist.AddFile(path, f, p.musicOnly)
	logger.Logf("gui", "added %d tracks from %s", n, filepath.Base(path))
	p.updatePlaylist()
	return nil
}

func (p *JukeboxGUI) updatePlaylist() {
	p.playlistLabel.SetText(fmt.Sprintf("Tracks (%d items)", p.playlist.Size()))
	p.list.Refresh()
}

// ensurePlayer starts the audio pump. The driver only advances while it runs.
func (p *JukeboxGUI) ensurePlayer() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.player != nil {
		return nil
	}

	var out audio.Output
	if oto, err := audio.NewStreamingOtoOutput(); err == nil {
		out = oto
	} else {
		logger.Logf("gui", "no audio device: %v", err)
		out, _ = audio.NewFallbackOutput()
	}
	player := audio.NewPlayer(p.driver, out)
	player.SetVolume(p.volumeSlider.Value)
	if err := player.Start(p.sampleRate, p.bufferSize); err != nil {
		return err
	}
	p.player = player
	return nil
}

func (p *JukeboxGUI) playFromIndex(index int) {
	item, err := p.playlist.Get(index)
	if err != nil {
		return
	}
	p.mutex.Lock()
	f := p.files[item.Path]
	p.mutex.Unlock()
	if f == nil {
		if f, err = adl.Load(item.Path); err != nil {
			dialog.ShowError(err, p.window)
			return
		}
		p.mutex.Lock()
		p.files[item.Path] = f
		p.mutex.Unlock()
	}

	if err := p.ensurePlayer(); err != nil {
		dialog.ShowError(err, p.window)
		return
	}

	p.currentIndex = index
	p.fileLabel.SetText(f.Name)
	p.trackLabel.SetText(fmt.Sprintf("Track %d, song %d, priority %d", item.Track, item.SongID, item.Priority))
	p.mutex.Lock()
	p.started = time.Now()
	p.mutex.Unlock()
	p.list.Refresh()

	p.playButton.Disable()
	p.pauseButton.Enable()
	p.stopButton.Enable()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()
		err := p.sound.LoadSoundFile(ctx, f)
		if err == nil {
			err = p.sound.PlayTrack(ctx, item.Track)
		}
		if err != nil {
			fyne.Do(func() { dialog.ShowError(err, p.window) })
		}
	}()
}

func (p *JukeboxGUI) play() {
	if p.player != nil && p.player.IsPaused() {
		p.pause()
		return
	}
	index := p.currentIndex
	if index < 0 {
		index = 0
	}
	p.playFromIndex(index)
}

func (p *JukeboxGUI) pause() {
	p.mutex.Lock()
	player := p.player
	p.mutex.Unlock()
	if player == nil {
		return
	}

	if player.IsPaused() {
		player.Resume()
		p.pauseButton.SetIcon(theme.MediaPauseIcon())
		p.playButton.Disable()
	} else {
		player.Pause()
		p.pauseButton.SetIcon(theme.MediaPlayIcon())
		p.playButton.Enable()
	}
}

func (p *JukeboxGUI) stop() {
	p.driver.StopChannelsFrom(-1)

	p.mutex.Lock()
	if p.player != nil {
		p.player.Resume()
	}
	p.mutex.Unlock()

	p.timeLabel.SetText("00:00")
	p.playButton.Enable()
	p.pauseButton.Disable()
	p.pauseButton.SetIcon(theme.MediaPauseIcon())
	p.stopButton.Disable()
}

func (p *JukeboxGUI) playNext() {
	if p.playlist.Size() == 0 {
		return
	}
	p.list.Select((p.currentIndex + 1) % p.playlist.Size())
}

func (p *JukeboxGUI) playPrevious() {
	if p.currentIndex <= 0 {
		return
	}
	p.list.Select(p.currentIndex - 1)
}

func (p *JukeboxGUI) clearPlaylist() {
	dialog.ShowConfirm("Clear Playlist", "Remove all tracks?", func(ok bool) {
		if !ok {
			return
		}
		p.stop()
		p.playlist.Clear()
		p.currentIndex = -1
		p.list.UnselectAll()
		p.updatePlaylist()
	}, p.window)
}

// removeCurrent drops the selected track from the playlist, stopping it
// first.
func (p *JukeboxGUI) removeCurrent() {
	if p.currentIndex < 0 {
		return
	}
	p.stop()
	if err := p.playlist.Remove(p.currentIndex); err != nil {
		dialog.ShowError(err, p.window)
		return
	}
	p.currentIndex = -1
	p.list.UnselectAll()
	p.updatePlaylist()
}

func (p *JukeboxGUI) sortPlaylist(by SortBy) {
	p.playlist.Sort(by)
	p.currentIndex = -1
	p.list.UnselectAll()
	p.updatePlaylist()
}

func (p *JukeboxGUI) savePlaylist() {
	dialog.ShowFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		if err := p.playlist.Save(path); err != nil {
			dialog.ShowError(err, p.window)
		}
	}, p.window)
}

func (p *JukeboxGUI) loadPlaylist() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		pl, err := LoadPlaylist(path)
		if err != nil {
			dialog.ShowError(err, p.window)
			return
		}
		p.stop()
		p.playlist = pl
		p.currentIndex = -1
		p.updatePlaylist()
	}, p.window)
}

func (p *JukeboxGUI) exportWAV() {
	item, err := p.playlist.Get(p.currentIndex)
	if err != nil {
		dialog.ShowInformation("Nothing selected", "Select a track first", p.window)
		return
	}

	dialog.ShowFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()

		progress := dialog.NewProgressInfinite("Exporting to WAV", item.Title(), p.window)
		progress.Show()

		go func() {
			err := exportTrack(item, path, p.sampleRate, p.bufferSize)
			fyne.Do(func() {
				progress.Hide()
				if err != nil {
					dialog.ShowError(err, p.window)
				} else {
					dialog.ShowInformation("Export Complete", "WAV file exported successfully", p.window)
				}
			})
		}()
	}, p.window)
}

// exportTrack renders a track offline with a driver of its own.
func exportTrack(item *PlaylistItem, path string, sampleRate, bufferSize int) error {
	f, err := adl.Load(item.Path)
	if err != nil {
		return err
	}

	drv, err := adlib.New(opl.NewPreview(sampleRate), adlib.DefaultConfig(sampleRate))
	if err != nil {
		return err
	}
	sound := adl.NewSound(drv)
	sound.Init()

	ctx := context.Background()
	if err := sound.LoadSoundFile(ctx, f); err != nil {
		return err
	}
	if err := sound.PlayTrack(ctx, item.Track); err != nil {
		return err
	}
	return audio.Render(drv, audio.NewWAVOutput(path), sampleRate, bufferSize, int64(exportSeconds*sampleRate))
}

func (p *JukeboxGUI) showLog() {
	var b strings.Builder
	logger.Tail(&b, 40)
	text := widget.NewLabel(b.String())
	text.TextStyle = fyne.TextStyle{Monospace: true}
	d := dialog.NewCustom("Driver Log", "Close", container.NewScroll(text), p.window)
	d.Resize(fyne.NewSize(600, 400))
	d.Show()
}

func (p *JukeboxGUI) cleanup() {
	close(p.done)

	p.mutex.Lock()
	player := p.player
	p.player = nil
	p.mutex.Unlock()

	if player != nil {
		player.Stop()
	}
}

func (p *JukeboxGUI) Run() {
	p.window.ShowAndRun()
}

func formatTime(d time.Duration) string {
	s := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
