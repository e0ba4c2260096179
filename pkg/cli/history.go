package cli

import (
	"fmt"

	"github.com/mchmarny/stvctl/pkg/data"
	"github.com/urfave/cli/v2"
)

const historyLimitDefault = 25

var (
	historyLimitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "Limits number of results returned",
		Value: historyLimitDefault,
	}

	historyIDFlag = &cli.StringFlag{
		Name:  "id",
		Usage: "Show the full saved round trace for one count",
	}

	historyCmd = &cli.Command{
		Name:    "history",
		Aliases: []string{"h"},
		Usage:   "List previously saved counts",
		UsageText: `stvctl history                 # most recent saved counts
   stvctl history --id <count-id>  # one count with its full round trace`,
		Action: cmdHistory,
		Flags: []cli.Flag{
			historyLimitFlag,
			historyIDFlag,
		},
	}
)

func cmdHistory(c *cli.Context) error {
	cfg := getConfig(c)

	if id := c.String(historyIDFlag.Name); id != "" {
		rec, err := data.GetContest(cfg.DB, id)
		if err != nil {
			return fmt.Errorf("getting saved count: %w", err)
		}
		return getEncoder().Encode(rec)
	}

	list, err := data.ListContests(cfg.DB, c.Int(historyLimitFlag.Name))
	if err != nil {
		return fmt.Errorf("listing saved counts: %w", err)
	}
	return getEncoder().Encode(list)
}
