package adlib

import (
	"errors"
	"fmt"
)

// Sentinel errors describing malformed song data. They reach callers wrapped
// in a *FaultError through Driver.LastFault().
var (
	ErrDataFault      = errors.New("read outside sound data")
	ErrStackOverflow  = errors.New("subroutine stack overflow")
	ErrStackUnderflow = errors.New("return without subroutine call")
	ErrDispatchLimit  = errors.New("too many opcodes in one tick")
	ErrBadChannel     = errors.New("channel number out of range")
)

// FaultError records where a malformed song stopped a channel.
type FaultError struct {
	Channel int
	Offset  int
	Opcode  string
	Err     error
}

func (e *FaultError) Error() string {
	if e.Opcode != "" {
		return fmt.Sprintf("adlib: channel %d at %#04x (%s): %v", e.Channel, e.Offset, e.Opcode, e.Err)
	}
	return fmt.Sprintf("adlib: channel %d at %#04x: %v", e.Channel, e.Offset, e.Err)
}

func (e *FaultError) Unwrap() error {
	return e.Err
}
