package moves

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

// Data file names inside a moves directory.
const (
	MovesFile     = "moves.yaml"
	SequencesFile = "sequences.yaml"
	StatsFile     = "fighter.ini"
)

//go:embed data/*.yaml data/*.ini
var dataFS embed.FS

// Load returns a data file, preferring dir on disk over the embedded copy.
func Load(dir, name string) ([]byte, error) {
	if dir != "" {
		if data, err := os.ReadFile(filepath.Join(dir, name)); err == nil {
			return data, nil
		}
	}
	return dataFS.ReadFile("data/" + name)
}

// LoadDir builds a full table from dir. Files missing from dir fall back to
// the embedded defaults; an empty dir loads only embedded data.
func LoadDir(dir string) (*Table, error) {
	movesData, err := Load(dir, MovesFile)
	if err != nil {
		return nil, fmt.Errorf("moves: load %s: %w", MovesFile, err)
	}
	seqData, err := Load(dir, SequencesFile)
	if err != nil {
		return nil, fmt.Errorf("moves: load %s: %w", SequencesFile, err)
	}
	statsData, err := Load(dir, StatsFile)
	if err != nil {
		return nil, fmt.Errorf("moves: load %s: %w", StatsFile, err)
	}

	moveList, err := ParseMoves(movesData)
	if err != nil {
		return nil, err
	}
	seqs, err := ParseSequences(seqData)
	if err != nil {
		return nil, err
	}
	stats, err := ParseStats(statsData)
	if err != nil {
		return nil, err
	}
	return NewTable(moveList, seqs, stats), nil
}

// LoadDefaultTable builds the table from embedded data only.
func LoadDefaultTable() (*Table, error) {
	return LoadDir("")
}

// MustDefaultTable is LoadDefaultTable for tests and tools; embedded data is
// validated by the package tests.
func MustDefaultTable() *Table {
	t, err := LoadDefaultTable()
	if err != nil {
		panic(err)
	}
	return t
}
