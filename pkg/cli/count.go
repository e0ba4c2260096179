package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mchmarny/stvctl/pkg/ballot"
	"github.com/mchmarny/stvctl/pkg/data"
	"github.com/mchmarny/stvctl/pkg/stv"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var (
	seatsFlag = &cli.IntFlag{
		Name:     "seats",
		Aliases:  []string{"s"},
		Usage:    "Number of seats being elected",
		Required: true,
	}

	rankedFlag = &cli.BoolFlag{
		Name:  "ranked",
		Usage: "Parse ballot cells as numeric ranks per candidate column (default: cells name candidates in preference order)",
	}

	saveFlag = &cli.BoolFlag{
		Name:  "save",
		Usage: "Record the outcome and round trace in the local database",
	}

	countCmd = &cli.Command{
		Name:    "count",
		Aliases: []string{"c"},
		Usage:   "Count ranked ballots and report the elected candidates",
		UsageText: `stvctl count --seats 3 ballots.csv      # count one contest
   stvctl count --seats 2 east.csv west.csv # independent contests, counted in parallel
   cat ballots.csv | stvctl count -s 1      # read ballots from stdin`,
		ArgsUsage: "[FILE...]",
		Action:    cmdCount,
		Flags: []cli.Flag{
			seatsFlag,
			rankedFlag,
			saveFlag,
		},
	}
)

// CountResult pairs a counted contest with the input it came from.
type CountResult struct {
	Source string      `json:"source" yaml:"source"`
	ID     string      `json:"id,omitempty" yaml:"id,omitempty"`
	Result *stv.Result `json:"result" yaml:"result"`
}

func cmdCount(c *cli.Context) error {
	seats := c.Int(seatsFlag.Name)
	ranked := c.Bool(rankedFlag.Name)
	files := c.Args().Slice()

	var results []*CountResult
	if len(files) == 0 {
		res, err := countReader(os.Stdin, "stdin", seats, ranked)
		if err != nil {
			return err
		}
		results = []*CountResult{res}
	} else {
		// Each file is an independent contest; count them in parallel.
		results = make([]*CountResult, len(files))
		var g errgroup.Group
		for i, file := range files {
			i, file := i, file
			g.Go(func() error {
				res, err := countFile(file, seats, ranked)
				if err != nil {
					return fmt.Errorf("%s: %w", file, err)
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	if c.Bool(saveFlag.Name) {
		cfg := getConfig(c)
		for _, res := range results {
			rec, err := data.SaveContest(cfg.DB, res.Source, res.Result)
			if err != nil {
				return fmt.Errorf("saving count: %w", err)
			}
			res.ID = rec.ID
			slog.Info("count saved", "id", rec.ID, "source", res.Source)
		}
	}

	if len(results) == 1 {
		return getEncoder().Encode(results[0])
	}
	return getEncoder().Encode(results)
}

func countFile(path string, seats int, ranked bool) (*CountResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ballot file: %w", err)
	}
	defer f.Close()

	return countReader(f, path, seats, ranked)
}

func countReader(r io.Reader, source string, seats int, ranked bool) (*CountResult, error) {
	parse := ballot.Read
	if ranked {
		parse = ballot.ReadRanked
	}

	set, err := parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing ballots: %w", err)
	}
	slog.Debug("parsed contest", "source", source,
		"candidates", len(set.Candidates), "ballots", len(set.Ballots))

	res, err := stv.Count(set.Candidates, seats, set.Ballots)
	if err != nil {
		return nil, err
	}
	slog.Info("count complete", "source", source, "quota", res.Quota,
		"rounds", len(res.Rounds), "elected", strings.Join(res.Elected, ", "))

	return &CountResult{Source: source, Result: res}, nil
}
