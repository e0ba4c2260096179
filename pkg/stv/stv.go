package stv

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrInvalidInput is the only error kind the counter produces. All input
// problems are detected in a validation pass before the first round runs,
// so a count never fails partway through.
var ErrInvalidInput = errors.New("invalid input")

// Action describes what a counting round did.
type Action string

const (
	ActionElected    Action = "elected"
	ActionEliminated Action = "eliminated"
	ActionDefaulted  Action = "elected by default"
)

// Round is the audit record of a single counting round. Tallies are
// float approximations of the exact internal weights, for display only.
type Round struct {
	Number    int                `json:"number" yaml:"number"`
	Tallies   map[string]float64 `json:"tallies" yaml:"tallies"`
	Action    Action             `json:"action" yaml:"action"`
	Affected  []string           `json:"affected" yaml:"affected"`
	Exhausted float64            `json:"exhausted,omitempty" yaml:"exhausted,omitempty"`
}

// Result holds the outcome of a contest, including the round-by-round
// trace for auditing.
type Result struct {
	Candidates   []string `json:"candidates" yaml:"candidates"`
	Seats        int      `json:"seats" yaml:"seats"`
	Quota        int      `json:"quota" yaml:"quota"`
	ValidBallots int      `json:"valid_ballots" yaml:"valid_ballots"`
	EmptyBallots int      `json:"empty_ballots,omitempty" yaml:"empty_ballots,omitempty"`
	Elected      []string `json:"elected" yaml:"elected"`
	Rounds       []Round  `json:"rounds" yaml:"rounds"`
}

// DroopQuota is the minimum vote weight a candidate must reach to be
// elected: floor(valid/(seats+1)) + 1.
func DroopQuota(validBallots, seats int) int {
	return validBallots/(seats+1) + 1
}

type candidateStatus int

const (
	statusStanding candidateStatus = iota
	statusElected
	statusEliminated
)

// ballotState tracks one ballot through the count. The preference list is
// never mutated; the current effective preference is re-derived each round
// from the elected/eliminated sets. A ballot is retired once it is
// exhausted or counted toward a candidate elected at exactly quota.
type ballotState struct {
	prefs   []string
	weight  *big.Rat
	retired bool
}

// contest is the mutable state of one count, owned exclusively by a single
// Count invocation.
type contest struct {
	order     []string
	status    map[string]candidateStatus
	seats     int
	quota     int
	quotaRat  *big.Rat
	ballots   []*ballotState
	elected   []string
	exhausted *big.Rat
}

func newContest(candidates []string, seats int, ballots [][]string) (*contest, int, int, error) {
	if seats < 1 {
		return nil, 0, 0, fmt.Errorf("%w: seats must be positive, got %d", ErrInvalidInput, seats)
	}
	if seats > len(candidates) {
		return nil, 0, 0, fmt.Errorf("%w: %d seats but only %d candidates", ErrInvalidInput, seats, len(candidates))
	}

	status := make(map[string]candidateStatus, len(candidates))
	order := make([]string, 0, len(candidates))
	for _, name := range candidates {
		if _, ok := status[name]; ok {
			return nil, 0, 0, fmt.Errorf("%w: duplicate candidate: %s", ErrInvalidInput, name)
		}
		status[name] = statusStanding
		order = append(order, name)
	}

	c := &contest{
		order:     order,
		status:    status,
		seats:     seats,
		exhausted: new(big.Rat),
	}

	valid, empty := 0, 0
	for _, prefs := range ballots {
		seen := make(map[string]bool, len(prefs))
		for _, name := range prefs {
			if _, ok := status[name]; !ok {
				return nil, 0, 0, fmt.Errorf("%w: ballot references unknown candidate: %q", ErrInvalidInput, name)
			}
			if seen[name] {
				return nil, 0, 0, fmt.Errorf("%w: ballot lists candidate more than once: %s", ErrInvalidInput, name)
			}
			seen[name] = true
		}

		if len(prefs) == 0 {
			empty++
			continue
		}
		valid++

		b := &ballotState{
			prefs:  append([]string(nil), prefs...),
			weight: big.NewRat(1, 1),
		}
		c.ballots = append(c.ballots, b)
	}

	c.quota = DroopQuota(valid, seats)
	c.quotaRat = new(big.Rat).SetInt64(int64(c.quota))

	return c, valid, empty, nil
}

// effectivePref returns the first standing candidate on the ballot,
// or "" if the ballot is exhausted.
func (c *contest) effectivePref(b *ballotState) string {
	for _, name := range b.prefs {
		if c.status[name] == statusStanding {
			return name
		}
	}
	return ""
}

func (c *contest) standing() []string {
	names := make([]string, 0, len(c.order))
	for _, name := range c.order {
		if c.status[name] == statusStanding {
			names = append(names, name)
		}
	}
	return names
}
