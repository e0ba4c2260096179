// Package ballot reads contests from CSV. The first row names the
// candidates; every following row is one ballot. Two row formats are
// supported: preference-ordered candidate names (most preferred first,
// empty cells skipped), and the ranked format where each cell holds the
// numeric rank of that column's candidate.
package ballot

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Set is a parsed contest input, ready to hand to the counter.
type Set struct {
	Candidates []string   `json:"candidates"`
	Ballots    [][]string `json:"ballots"`
}

// Read parses the name-ordered format: each ballot row lists candidate
// names most-preferred first. Empty cells are unranked positions and are
// skipped. No semantic validation happens here; the counter owns that.
func Read(r io.Reader) (*Set, error) {
	cr := newReader(r)

	candidates, err := readCandidates(cr)
	if err != nil {
		return nil, err
	}

	s := &Set{Candidates: candidates}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading ballot row: %w", err)
		}

		prefs := make([]string, 0, len(row))
		for _, cell := range row {
			if cell = strings.TrimSpace(cell); cell != "" {
				prefs = append(prefs, cell)
			}
		}
		s.Ballots = append(s.Ballots, prefs)
	}

	return s, nil
}

// ReadRanked parses the ranked format: cell i of a ballot row holds the
// rank (1 = most preferred) the voter gave to candidate i, or is empty if
// the candidate was left unranked. A rank repeated within one row is a
// parse error.
func ReadRanked(r io.Reader) (*Set, error) {
	cr := newReader(r)

	candidates, err := readCandidates(cr)
	if err != nil {
		return nil, err
	}

	s := &Set{Candidates: candidates}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading ballot row: %w", err)
		}
		if len(row) > len(candidates) {
			return nil, fmt.Errorf("row %d: %d cells for %d candidates", line, len(row), len(candidates))
		}

		type pref struct {
			rank int
			name string
		}
		prefs := make([]pref, 0, len(row))
		seen := make(map[int]bool, len(row))
		for i, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			rank, err := strconv.Atoi(cell)
			if err != nil || rank < 1 {
				return nil, fmt.Errorf("row %d: invalid rank %q for candidate %s", line, cell, candidates[i])
			}
			if seen[rank] {
				return nil, fmt.Errorf("row %d: rank %d used more than once", line, rank)
			}
			seen[rank] = true
			prefs = append(prefs, pref{rank: rank, name: candidates[i]})
		}

		sort.Slice(prefs, func(i, j int) bool { return prefs[i].rank < prefs[j].rank })
		names := make([]string, 0, len(prefs))
		for _, p := range prefs {
			names = append(names, p.name)
		}
		s.Ballots = append(s.Ballots, names)
	}

	return s, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	// ballots legitimately rank fewer candidates than the header lists
	cr.FieldsPerRecord = -1
	return cr
}

func readCandidates(cr *csv.Reader) ([]string, error) {
	row, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input: no candidate row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading candidate row: %w", err)
	}

	candidates := make([]string, 0, len(row))
	for _, cell := range row {
		if cell = strings.TrimSpace(cell); cell != "" {
			candidates = append(candidates, cell)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("candidate row is empty")
	}
	return candidates, nil
}
