package iosched

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Tunable attribute names.
const (
	AttrMaxReads      = "max_reads"
	AttrMaxWrites     = "max_writes"
	AttrWritesStarved = "writes_starved"
	AttrFifoBatch     = "fifo_batch"
	AttrFrontMerges   = "front_merges"
)

var (
	// ErrUnknownAttribute is returned for a name outside the tunable set.
	ErrUnknownAttribute = errors.New("unknown attribute")
	// ErrInvalidAttribute is returned when a stored value fails parsing or validation.
	ErrInvalidAttribute = errors.New("invalid attribute value")
)

// Tunable is implemented by elevators exposing named, string-valued settings.
type Tunable interface {
	AttrNames() []string
	ShowAttr(name string) (string, error)
	StoreAttr(name, value string) error
}

var rwfifoAttrs = []string{AttrMaxReads, AttrMaxWrites, AttrWritesStarved, AttrFifoBatch, AttrFrontMerges}

// AttrNames lists the tunables in display order.
func (e *RWFIFO) AttrNames() []string {
	return append([]string(nil), rwfifoAttrs...)
}

// ShowAttr formats one tunable. front_merges shows as 0 or 1.
func (e *RWFIFO) ShowAttr(name string) (string, error) {
	switch name {
	case AttrMaxReads:
		return strconv.Itoa(e.cfg.MaxReads), nil
	case AttrMaxWrites:
		return strconv.Itoa(e.cfg.MaxWrites), nil
	case AttrWritesStarved:
		return strconv.Itoa(e.cfg.WritesStarved), nil
	case AttrFifoBatch:
		return strconv.Itoa(e.cfg.FifoBatch), nil
	case AttrFrontMerges:
		if e.cfg.FrontMerges {
			return "1", nil
		}
		return "0", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
}

// StoreAttr parses and applies one tunable. The new value takes effect on the
// next Dispatch; run counters are left alone.
func (e *RWFIFO) StoreAttr(name, value string) error {
	cfg := e.cfg
	value = strings.TrimSpace(value)
	switch name {
	case AttrMaxReads, AttrMaxWrites, AttrWritesStarved, AttrFifoBatch:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidAttribute, name, value)
		}
		switch name {
		case AttrMaxReads:
			cfg.MaxReads = v
		case AttrMaxWrites:
			cfg.MaxWrites = v
		case AttrWritesStarved:
			cfg.WritesStarved = v
		case AttrFifoBatch:
			cfg.FifoBatch = v
		}
	case AttrFrontMerges:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidAttribute, name, value)
		}
		cfg.FrontMerges = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAttribute, err)
	}
	e.cfg = cfg
	return nil
}
