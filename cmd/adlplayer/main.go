package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/olivierh59500/adl-player/pkg/adl"
	"github.com/olivierh59500/adl-player/pkg/adlib"
	"github.com/olivierh59500/adl-player/pkg/audio"
	"github.com/olivierh59500/adl-player/pkg/logger"
	"github.com/olivierh59500/adl-player/pkg/opl"
)

// defaultTraceLimit caps the register writes kept for -trace.
const defaultTraceLimit = 1 << 20

var (
	sampleRate = flag.Int("rate", 44100, "Sample rate (Hz)")
	bufferSize = flag.Int("buffer", 2048, "Buffer size")
	track      = flag.Int("track", 2, "Track number to play")
	volume     = flag.Float64("volume", 1.0, "Volume (0.0 to 10.0)")
	lowpass    = flag.Bool("lowpass", true, "Enable lowpass filter")
	seconds    = flag.Int("seconds", 0, "Stop after this many seconds (0 plays until interrupted)")
	info       = flag.Bool("info", false, "Show file info only")
	output     = flag.String("output", "oto", "Output backend (oto, wav, null)")
	wavFile    = flag.String("wav", "", "Output WAV file (when using wav output)")
	traceFile  = flag.String("trace", "", "Write every chip register write to this file")
	traceLimit = flag.Int("trace-limit", defaultTraceLimit, "Maximum register writes kept for -trace (0 keeps all)")
	verbose    = flag.Bool("v", false, "Echo driver log entries")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <adl-file>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "ADL Player - Play Westwood Adlib music files\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	st := newStyles()
	adlFile := flag.Arg(0)

	file, err := adl.Load(adlFile)
	if err != nil {
		log.Fatalf("Failed to load ADL file: %v", err)
	}

	fmt.Println(st.title.Render(file.Name))
	fmt.Printf("%s %d bytes\n", st.label.Render("Sound data:"), len(file.SoundData))

	songs := file.Songs()
	if *info {
		printSongs(st, songs)
		return
	}

	if *verbose {
		logger.SetEcho(os.Stderr)
	}

	preview := opl.NewPreview(*sampleRate)
	preview.SetFilter(*lowpass)

	var chip opl.Chip = preview
	var rec *opl.Recorder
	if *traceFile != "" {
		chip, rec = withTrace(preview, *traceLimit)
	}

	drv, err := adlib.New(chip, adlib.DefaultConfig(*sampleRate))
	if err != nil {
		log.Fatalf("Failed to create driver: %v", err)
	}

	audioOut, err := createOutput(st, adlFile)
	if err != nil {
		log.Fatalf("Failed to create audio output: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sound := adl.NewSound(drv)
	sound.Init()
	if err := sound.LoadSoundFile(ctx, file); err != nil {
		log.Fatalf("Failed to load sound data: %v", err)
	}

	player := audio.NewPlayer(drv, audioOut)
	player.SetVolume(*volume)
	if *seconds > 0 {
		player.SetLimit(int64(*seconds) * int64(*sampleRate))
	}
	if err := player.Start(*sampleRate, *bufferSize); err != nil {
		log.Fatalf("Failed to open audio output: %v", err)
	}

	if _, ok := file.SongID(*track); !ok {
		fmt.Println(st.err.Render(fmt.Sprintf("track %d is not used in %s", *track, file.Name)))
	}
	if err := sound.PlayTrack(ctx, *track); err != nil {
		log.Printf("Failed to start track: %v", err)
	}

	fmt.Printf("Playing track %d... (Press Ctrl+C to stop)\n\n", *track)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	start := time.Now()
	done := player.Done()

loop:
	for {
		select {
		case <-ctx.Done():
			fmt.Printf("\n\nStopping...\n")
			break loop

		case <-done:
			fmt.Printf("\n\nPlayback finished.\n")
			break loop

		case <-ticker.C:
			fmt.Printf("\r%s", statusLine(st, drv, time.Since(start)))
		}
	}

	if err := player.Stop(); err != nil {
		log.Printf("Audio output error: %v", err)
	}

	if err := drv.LastFault(); err != nil {
		fmt.Println(st.err.Render(fmt.Sprintf("%d data faults, last: %v", drv.Faults(), err)))
	}

	if rec != nil {
		if err := writeTrace(*traceFile, rec); err != nil {
			log.Fatalf("Failed to write trace: %v", err)
		}
		n := len(rec.Writes())
		fmt.Printf("%s %d register writes to %s\n", st.label.Render("Trace:"), n, *traceFile)
		if rec.Limit > 0 && n >= rec.Limit {
			fmt.Println(st.err.Render(fmt.Sprintf("trace truncated at %d writes, raise -trace-limit", rec.Limit)))
		}
	}
}

func createOutput(st styles, adlFile string) (audio.Output, error) {
	switch *output {
	case "oto":
		out, err := audio.NewStreamingOtoOutput()
		if err != nil {
			fmt.Printf("Warning: Failed to create audio output (%v)\n", err)
			fmt.Printf("Falling back to timing-based output...\n")
			return audio.NewFallbackOutput()
		}
		return out, nil
	case "wav":
		if *wavFile == "" {
			*wavFile = strings.TrimSuffix(adlFile, filepath.Ext(adlFile)) + ".wav"
		}
		if *seconds <= 0 {
			fmt.Println(st.err.Render("wav output without -seconds records until interrupted"))
		}
		return audio.NewWAVOutput(*wavFile), nil
	case "null":
		return audio.NewFallbackOutput()
	}
	return nil, fmt.Errorf("unknown output backend: %s", *output)
}

func printSongs(st styles, songs []adl.SongInfo) {
	fmt.Println()
	for _, s := range songs {
		line := s.String()
		if s.IsMusic() {
			fmt.Println(st.music.Render(line))
		} else {
			fmt.Println(st.sfx.Render(line))
		}
	}
	fmt.Printf("\n%s %d\n", st.label.Render("Tracks:"), len(songs))
}

// statusLine shows elapsed time and one marker per driver channel.
func statusLine(st styles, drv *adlib.Driver, elapsed time.Duration) string {
	var b strings.Builder
	b.WriteString(st.status.Render(formatDuration(elapsed)))
	if *seconds > 0 {
		percent := elapsed.Seconds() / float64(*seconds) * 100
		b.WriteString(" [" + makeProgressBar(percent, 20) + "]")
	}
	b.WriteString("  ")
	for i := 0; i < adlib.NumChannels; i++ {
		if drv.Channel(i).Active {
			b.WriteString(st.active.Render(fmt.Sprintf("%d", i)))
		} else {
			b.WriteString(st.idle.Render("."))
		}
	}
	b.WriteString(st.trace.Render(fmt.Sprintf("  tempo %3d", uint8(drv.Tempo()))))
	return b.String()
}

// withTrace returns chip with a recorder attached that keeps at most limit
// writes. A limit of zero or less keeps everything.
func withTrace(chip opl.Chip, limit int) (opl.Chip, *opl.Recorder) {
	rec := opl.NewRecorder()
	if limit > 0 {
		rec.Limit = limit
	}
	return opl.Multi{chip, rec}, rec
}

func writeTrace(name string, rec *opl.Recorder) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := rec.Dump(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatDuration(d time.Duration) string {
	s := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

func makeProgressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("=", filled)
	if filled < width {
		bar += ">"
		bar += strings.Repeat(" ", width-filled-1)
	}

	return bar
}
