package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// StreamMode controls whether a captured stream is printed, saved to the
// store, both or neither.
type StreamMode string

const (
	StreamNone  StreamMode = "none"
	StreamSave  StreamMode = "save"
	StreamPrint StreamMode = "print"
	StreamBoth  StreamMode = "both"
)

// StreamModes lists the accepted values in their canonical spelling.
var StreamModes = []StreamMode{StreamNone, StreamSave, StreamPrint, StreamBoth}

// StreamModeList returns StreamModes as "none, save, print, both".
func StreamModeList() string {
	names := make([]string, len(StreamModes))
	for i, m := range StreamModes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// ParseStreamMode is case insensitive, so stores written with "Both" still load.
func ParseStreamMode(s string) (StreamMode, error) {
	m := StreamMode(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(StreamModes, m) {
		return m, nil
	}
	return "", fmt.Errorf("%q: %w, expected one of %s", s, ErrInvalidStreamMode, StreamModeList())
}

// Prints reports whether the stream is part of the printed text.
func (m StreamMode) Prints() bool {
	return m == StreamPrint || m == StreamBoth
}

// Saves reports whether the stream is part of the persisted text.
func (m StreamMode) Saves() bool {
	return m == StreamSave || m == StreamBoth
}

func (m StreamMode) String() string {
	return string(m)
}

// Set implements pflag.Value.
func (m *StreamMode) Set(s string) error {
	parsed, err := ParseStreamMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Type implements pflag.Value.
func (m *StreamMode) Type() string {
	return "mode"
}

func (m *StreamMode) UnmarshalText(text []byte) error {
	if m == nil {
		return errors.New("can't unmarshal to nil")
	}
	return m.Set(string(text))
}

func (m StreamMode) MarshalText() ([]byte, error) {
	return []byte(m), nil
}
