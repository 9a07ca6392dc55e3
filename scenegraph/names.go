package scenegraph

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const suffixLen = 6

// nameMinterImpl is the implementation of the NameMinter interface.
type nameMinterImpl struct {
	random  bool
	counter uint64
	taken   map[string]struct{}
}

// NameMinter produces fresh frame names by appending a short suffix to a base
// name. The default mode is a deterministic counter so repeated exports of the
// same scene mint the same names; random mode derives suffixes from UUIDs.
type NameMinter interface {
	// Mint returns base plus an underscore and a 6-character suffix that has
	// not been handed out by this minter before.
	//
	// Parameters:
	//   - base: the base name to suffix
	//
	// Returns:
	//   - string: the minted name
	Mint(base string) string

	// NumericName returns a fresh name made only of decimal digits, used when
	// a preferred frame name is already taken.
	//
	// Returns:
	//   - string: the numeric name
	NumericName() string

	// Reserve marks a name as taken so Mint and NumericName never return it.
	//
	// Parameters:
	//   - name: the name to reserve
	Reserve(name string)
}

var _ NameMinter = &nameMinterImpl{}

// NewNameMinter creates a NameMinter.
//
// Parameters:
//   - random: true for UUID-derived suffixes, false for deterministic counters
//
// Returns:
//   - NameMinter: the new minter
func NewNameMinter(random bool) NameMinter {
	return &nameMinterImpl{
		random: random,
		taken:  map[string]struct{}{},
	}
}

func (m *nameMinterImpl) Mint(base string) string {
	for {
		name := base + "_" + m.suffix()
		if _, ok := m.taken[name]; ok {
			continue
		}
		m.taken[name] = struct{}{}
		return name
	}
}

func (m *nameMinterImpl) NumericName() string {
	for {
		var name string
		if m.random {
			u := uuid.New()
			name = strconv.FormatUint(binary.LittleEndian.Uint64(u[:8]), 10)
		} else {
			m.counter++
			name = strconv.FormatUint(1_000_000+m.counter, 10)
		}
		if _, ok := m.taken[name]; ok {
			continue
		}
		m.taken[name] = struct{}{}
		return name
	}
}

func (m *nameMinterImpl) Reserve(name string) {
	m.taken[name] = struct{}{}
}

// suffix returns the next 6-character uppercase alphanumeric suffix.
func (m *nameMinterImpl) suffix() string {
	if m.random {
		u := uuid.NewString()
		cleaned := strings.ToUpper(strings.ReplaceAll(u, "-", ""))
		return cleaned[:suffixLen]
	}
	m.counter++
	s := strings.ToUpper(strconv.FormatUint(m.counter, 36))
	for len(s) < suffixLen {
		s = "0" + s
	}
	return s
}
