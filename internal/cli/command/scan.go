package command

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/castle-go/internal/connection"
	"github.com/yndnr/castle-go/internal/core/domain"
)

// ScanCommand returns the scan command.
func ScanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "List keys in [start, end) in key order",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "start",
				Usage: "Inclusive start key",
			},
			&cli.StringFlag{
				Name:  "end",
				Usage: "Exclusive end key (default unbounded)",
			},
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "Only keys with this prefix; overrides --start and --end",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Stop after this many entries (0 for all)",
			},
			&cli.IntFlag{
				Name:  "batch",
				Usage: "Iterator buffer size in bytes",
				Value: connection.DefaultBatchSize,
			},
			&cli.BoolFlag{
				Name:  "keys-only",
				Usage: "Omit values",
			},
		},
		Action: scanAction,
	}
}

type scanRow struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
	Size  string `json:"-" yaml:"-" table:"SIZE,wide"`
	Bytes int    `json:"bytes" yaml:"bytes" table:"-"`
}

var errLimit = errors.New("scan limit reached")

func scanAction(c *cli.Context) error {
	if c.NArg() != 0 {
		return fmt.Errorf("scan takes no arguments")
	}
	limit := c.Int("limit")
	if limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	r := connection.Range{
		Collection: ParseGlobalFlags(c).Collection,
		Start:      []byte(c.String("start")),
	}
	if end := c.String("end"); end != "" {
		r.End = []byte(end)
	}
	if prefix := c.String("prefix"); prefix != "" {
		r.Start = []byte(prefix)
		r.End = PrefixEnd([]byte(prefix))
	}

	b, release, err := openBridge(c)
	if err != nil {
		return err
	}
	defer release()

	keysOnly := c.Bool("keys-only")
	rows := []scanRow{}
	err = b.Conn.Iterate(c.Context, r, c.Int("batch"), func(e domain.Entry) error {
		row := scanRow{
			Key:   string(e.Key),
			Bytes: len(e.Value),
			Size:  humanize.Bytes(uint64(len(e.Value))),
		}
		if !keysOnly {
			row.Value = string(e.Value)
		}
		rows = append(rows, row)
		if limit > 0 && len(rows) >= limit {
			return errLimit
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimit) {
		return fmt.Errorf("scan: %w", err)
	}
	return render(c, rows)
}

// PrefixEnd returns the smallest key greater than every key with the given
// prefix, or nil when no such key exists.
func PrefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
