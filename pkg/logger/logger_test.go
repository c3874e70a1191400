package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRepeat(t *testing.T) {
	l := newLogger(10)
	l.log("tag", "detail")
	l.log("tag", "detail")
	l.log("tag", "other")

	require.Len(t, l.entries, 2)
	assert.Equal(t, 1, l.entries[0].Repeated)
	assert.Equal(t, "tag: detail (repeat x2)\n", l.entries[0].String())
}

func TestLogBounded(t *testing.T) {
	l := newLogger(3)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		l.log("t", s)
	}
	require.Len(t, l.entries, 3)
	assert.Equal(t, "c", l.entries[0].Detail)
	assert.Equal(t, "e", l.entries[2].Detail)
}

func TestTail(t *testing.T) {
	l := newLogger(10)
	l.log("t", "one")
	l.log("t", "two\n")
	l.log("t", "three")

	s := &strings.Builder{}
	l.write(s, 2)
	assert.Equal(t, "t: two\nt: three\n", s.String())

	s.Reset()
	l.write(s, 0)
	assert.Equal(t, 3, strings.Count(s.String(), "\n"))
}

func TestEcho(t *testing.T) {
	s := &strings.Builder{}
	SetEcho(s)
	defer SetEcho(nil)

	Logf("echo", "value %d", 42)
	assert.Contains(t, s.String(), "echo: value 42")
}
