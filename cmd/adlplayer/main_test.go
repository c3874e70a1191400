package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivierh59500/adl-player/pkg/opl"
)

func TestWithTraceLimit(t *testing.T) {
	preview := opl.NewPreview(8000)
	chip, rec := withTrace(preview, 3)
	for i := 0; i < 10; i++ {
		chip.WriteRegister(opl.RegFreqLow, uint8(i))
	}
	assert.Len(t, rec.Writes(), 3)
	assert.Equal(t, uint8(9), rec.Register(opl.RegFreqLow))
	assert.Equal(t, uint8(9), preview.ReadRegister(opl.RegFreqLow))

	_, rec = withTrace(preview, 0)
	assert.Zero(t, rec.Limit)
}

func TestDefaultTraceLimit(t *testing.T) {
	_, rec := withTrace(opl.NewPreview(8000), defaultTraceLimit)
	assert.Equal(t, defaultTraceLimit, rec.Limit)
}

func TestWriteTrace(t *testing.T) {
	_, rec := withTrace(opl.NewPreview(8000), 0)
	rec.WriteRegister(opl.RegKeyOn, 0x21)

	name := filepath.Join(t.TempDir(), "trace.txt")
	require.NoError(t, writeTrace(name, rec))
	assert.FileExists(t, name)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "01:05", formatDuration(65*time.Second))
	assert.Equal(t, "=====>    ", makeProgressBar(50, 10))
	assert.Equal(t, "==========", makeProgressBar(150, 10))
}
