// Package memory provides a human-readable byte-size type used throughout
// configuration (hash buffers, scan-ceiling thresholds).
package memory

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is a number of bytes that knows how to parse and print itself using
// binary (1024-based) unit suffixes.
type Size int64

const (
	B  Size = 1
	KB      = B << 10
	MB      = KB << 10
	GB      = MB << 10
	TB      = GB << 10
)

var units = []struct {
	suffix string
	size   Size
}{
	{"TB", TB},
	{"GB", GB},
	{"MB", MB},
	{"KB", KB},
}

// String renders the size to one decimal place in the largest unit that
// does not exceed it, falling back to plain bytes below 1 KB.
func (s Size) String() string {
	if s == 0 {
		return "0"
	}
	for _, u := range units {
		if s >= u.size {
			return fmt.Sprintf("%.1f %s", float64(s)/float64(u.size), u.suffix)
		}
	}
	return fmt.Sprintf("%d B", int64(s))
}

// Set parses a textual size such as "256MB", "1.5 GB", or a bare integer
// number of bytes, and assigns the result to s. It implements flag.Value /
// toml.Unmarshaler-compatible parsing.
func (s *Size) Set(str string) error {
	str = strings.TrimSpace(str)
	if str == "" {
		return fmt.Errorf("memory: empty size")
	}

	upper := strings.ToUpper(str)
	for _, u := range units {
		suffix := u.suffix
		short := suffix[:1]
		switch {
		case strings.HasSuffix(upper, suffix):
			return s.setScaled(str[:len(str)-len(suffix)], u.size)
		case strings.HasSuffix(upper, short):
			return s.setScaled(str[:len(str)-len(short)], u.size)
		}
	}

	if strings.HasSuffix(upper, "B") {
		str = str[:len(str)-1]
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return fmt.Errorf("memory: invalid size %q: %w", str, err)
	}
	*s = Size(v)
	return nil
}

func (s *Size) setScaled(numeric string, unit Size) error {
	numeric = strings.TrimSpace(numeric)
	v, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return fmt.Errorf("memory: invalid size %q: %w", numeric, err)
	}
	*s = Size(v * float64(unit))
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler so Size can be read
// directly out of a TOML config file.
func (s *Size) UnmarshalText(text []byte) error {
	return s.Set(string(text))
}

// MarshalText implements encoding.TextMarshaler.
func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Int64 returns the size as a plain byte count.
func (s Size) Int64() int64 { return int64(s) }
