package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vkautotune/internal/bench"
	"github.com/samcharles93/vkautotune/internal/results"
)

func reportCmd() *cli.Command {
	var (
		top     int64
		status  string
		asJSON  bool
		summary bool
	)

	return &cli.Command{
		Name:      "report",
		Usage:     "Rank the candidates in a result log",
		ArgsUsage: "<results.csv|results.jsonl>",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:        "top",
				Aliases:     []string{"n"},
				Usage:       "number of OK candidates to show (0 for all)",
				Value:       10,
				Destination: &top,
			},
			&cli.StringFlag{
				Name:        "status",
				Usage:       "list records with these statuses instead of ranking, e.g. TIMEOUT,COMPILE_FAIL",
				Destination: &status,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print records as JSON lines",
				Destination: &asJSON,
			},
			&cli.BoolFlag{
				Name:        "summary",
				Usage:       "print outcome counts after the table",
				Value:       true,
				Destination: &summary,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return cli.Exit("error: result log path is required", 1)
			}
			records, err := results.Read(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			var rows []bench.ResultRecord
			if status != "" {
				statuses, err := parseStatusList(status)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				rows = results.WithStatus(records, statuses...)
			} else {
				rows = results.Best(records, int(top))
			}

			w := cmd.Root().Writer
			if asJSON {
				enc := json.NewEncoder(w)
				for _, r := range rows {
					if err := enc.Encode(r); err != nil {
						return err
					}
				}
				return nil
			}
			if err := printRecords(w, rows); err != nil {
				return err
			}
			if summary {
				_, _ = fmt.Fprintln(w, bench.Summarize(records).String())
			}
			return nil
		},
	}
}

func parseStatusList(raw string) ([]bench.Status, error) {
	var out []bench.Status
	for part := range strings.SplitSeq(raw, ",") {
		s := bench.Status(strings.ToUpper(strings.TrimSpace(part)))
		if s == "" {
			continue
		}
		if !s.Valid() {
			return nil, fmt.Errorf("unknown status %q", part)
		}
		out = append(out, s)
	}
	return out, nil
}

func printRecords(w io.Writer, rows []bench.ResultRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RANK\tTM\tTN\tTK\tLSZ\tSMEM\tSTATUS\tUSEC/ITER\tGFLOP/S")
	for i, r := range rows {
		c := r.Candidate
		_, _ = fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%dx%d\t%t\t%s\t%.3f\t%.3f\n",
			i+1, c.TM, c.TN, c.TK, c.LaneX, c.LaneY, c.SharedMem, r.Status, r.UsecPerIter, r.GFLOPS)
	}
	return tw.Flush()
}
