package stv

import (
	"math/big"
	"sort"
)

// Count runs a full STV count: candidates in ballot-paper order, the number
// of seats to fill, and ballots as preference-ordered candidate names.
// It returns the elected candidates in order of election along with the
// per-round trace. Election order is always descending tally, whether a
// candidate reaches quota or fills a seat by default, with ties going to
// the earlier-listed candidate. The only failure mode is ErrInvalidInput;
// once input is valid the count always terminates within len(candidates)
// rounds.
func Count(candidates []string, seats int, ballots [][]string) (*Result, error) {
	c, valid, empty, err := newContest(candidates, seats, ballots)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Candidates:   append([]string(nil), candidates...),
		Seats:        seats,
		Quota:        c.quota,
		ValidBallots: valid,
		EmptyBallots: empty,
	}

	for len(c.elected) < c.seats {
		tallies, assigned := c.tally()

		reached := c.reachedQuota(tallies)
		if len(reached) > 0 {
			electedNow := c.elect(reached, tallies, assigned)
			res.record(c, ActionElected, electedNow, tallies)
		}

		if len(c.elected) == c.seats {
			break
		}

		// Too few candidates left to go another round: the remaining
		// standing candidates fill the remaining seats.
		if remaining := c.standing(); len(remaining) == c.seats-len(c.elected) {
			c.sortByTally(remaining, tallies)
			for _, name := range remaining {
				c.status[name] = statusElected
				c.elected = append(c.elected, name)
			}
			res.record(c, ActionDefaulted, remaining, tallies)
			break
		}

		if len(reached) > 0 {
			// Surplus transfers may push others over quota; re-tally
			// before considering elimination.
			continue
		}

		lowest := c.eliminateLowest(tallies)
		res.record(c, ActionEliminated, []string{lowest}, tallies)
	}

	res.Elected = c.elected
	return res, nil
}

// tally assigns every live ballot's current weight to its effective
// preference. Ballots with no standing candidate left are exhausted and
// drop out of circulation.
func (c *contest) tally() (map[string]*big.Rat, map[string][]*ballotState) {
	tallies := make(map[string]*big.Rat)
	assigned := make(map[string][]*ballotState)
	for _, name := range c.standing() {
		tallies[name] = new(big.Rat)
	}

	for _, b := range c.ballots {
		if b.retired {
			continue
		}
		name := c.effectivePref(b)
		if name == "" {
			b.retired = true
			c.exhausted.Add(c.exhausted, b.weight)
			continue
		}
		tallies[name].Add(tallies[name], b.weight)
		assigned[name] = append(assigned[name], b)
	}

	return tallies, assigned
}

// reachedQuota returns the standing candidates at or above quota, in
// descending tally order (first-appearance order on equal tallies).
func (c *contest) reachedQuota(tallies map[string]*big.Rat) []string {
	var reached []string
	for _, name := range c.standing() {
		if tallies[name].Cmp(c.quotaRat) >= 0 {
			reached = append(reached, name)
		}
	}
	c.sortByTally(reached, tallies)
	return reached
}

// elect marks quota-reachers elected until all seats are filled, scaling
// or retiring their ballots. With a surplus, every contributing ballot
// keeps (tally-quota)/tally of its weight and moves on next round. At
// exactly quota there is nothing to pass on: the ballots retire with the
// winner.
func (c *contest) elect(reached []string, tallies map[string]*big.Rat, assigned map[string][]*ballotState) []string {
	var electedNow []string
	for _, name := range reached {
		if len(c.elected) == c.seats {
			break
		}
		c.status[name] = statusElected
		c.elected = append(c.elected, name)
		electedNow = append(electedNow, name)

		t := tallies[name]
		if t.Cmp(c.quotaRat) > 0 {
			tv := new(big.Rat).Sub(t, c.quotaRat)
			tv.Quo(tv, t)
			for _, b := range assigned[name] {
				b.weight.Mul(b.weight, tv)
			}
			continue
		}
		for _, b := range assigned[name] {
			b.retired = true
		}
	}
	return electedNow
}

// eliminateLowest removes the standing candidate with the lowest tally
// (earliest-listed on a tie). Its ballots keep their full weight and are
// re-assigned on the next tally.
func (c *contest) eliminateLowest(tallies map[string]*big.Rat) string {
	standing := c.standing()
	lowest := standing[0]
	for _, name := range standing[1:] {
		if tallies[name].Cmp(tallies[lowest]) < 0 {
			lowest = name
		}
	}
	c.status[lowest] = statusEliminated
	return lowest
}

// sortByTally orders names by descending tally. The input is expected in
// first-appearance order, which the stable sort preserves on ties.
func (c *contest) sortByTally(names []string, tallies map[string]*big.Rat) {
	sort.SliceStable(names, func(i, j int) bool {
		return tallies[names[i]].Cmp(tallies[names[j]]) > 0
	})
}

func (r *Result) record(c *contest, action Action, affected []string, tallies map[string]*big.Rat) {
	out := make(map[string]float64, len(tallies))
	for name, t := range tallies {
		f, _ := t.Float64()
		out[name] = f
	}
	ex, _ := c.exhausted.Float64()
	r.Rounds = append(r.Rounds, Round{
		Number:    len(r.Rounds) + 1,
		Tallies:   out,
		Action:    action,
		Affected:  append([]string(nil), affected...),
		Exhausted: ex,
	})
}
