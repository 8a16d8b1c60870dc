package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/castle-go/internal/core/domain"
)

// DefaultGetBuffer is the initial value buffer for get.
const DefaultGetBuffer = 4096

// PutCommand returns the put command.
func PutCommand() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "Store a value",
		ArgsUsage: "KEY [VALUE]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Read the value from a file (- for stdin)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
				Value: 30 * time.Second,
			},
		},
		Action: putAction,
	}
}

type putResult struct {
	Key       string    `json:"key" yaml:"key"`
	Bytes     int       `json:"bytes" yaml:"bytes"`
	Timestamp time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty" table:"TIMESTAMP,wide"`
}

func putAction(c *cli.Context) error {
	key, value, err := putArgs(c)
	if err != nil {
		return err
	}

	b, release, err := openBridge(c)
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	col := ParseGlobalFlags(c).Collection
	resp, err := b.Conn.Put(ctx, col, []byte(key), value)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return render(c, putResult{Key: key, Bytes: len(value), Timestamp: resp.Timestamp})
}

func putArgs(c *cli.Context) (string, []byte, error) {
	file := c.String("file")
	switch {
	case c.NArg() == 2 && file == "":
		return c.Args().Get(0), []byte(c.Args().Get(1)), nil
	case c.NArg() == 1 && file != "":
		value, err := readValue(c, file)
		return c.Args().Get(0), value, err
	default:
		return "", nil, fmt.Errorf("usage: put KEY VALUE or put --file PATH KEY")
	}
}

func readValue(c *cli.Context, file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(reader(c))
	}
	return os.ReadFile(file)
}

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Read a value",
		ArgsUsage: "KEY",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "buffer",
				Usage: "Initial value buffer size in bytes; grown once if the value is larger",
				Value: DefaultGetBuffer,
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Write only the value bytes",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
				Value: 30 * time.Second,
			},
		},
		Action: getAction,
	}
}

type getResult struct {
	Key       string    `json:"key" yaml:"key"`
	Value     string    `json:"value" yaml:"value"`
	Bytes     uint64    `json:"bytes" yaml:"bytes"`
	Timestamp time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty" table:"TIMESTAMP,wide"`
}

func getAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: get KEY")
	}
	key := c.Args().First()
	size := c.Int("buffer")
	if size <= 0 {
		return fmt.Errorf("--buffer must be positive")
	}

	b, release, err := openBridge(c)
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	col := ParseGlobalFlags(c).Collection
	buf := make([]byte, size)
	resp, err := b.Conn.Get(ctx, col, []byte(key), buf)
	if resp.Status == domain.StatusTooBig && resp.Length > uint64(len(buf)) {
		buf = make([]byte, resp.Length)
		resp, err = b.Conn.Get(ctx, col, []byte(key), buf)
	}
	if err != nil {
		return fmt.Errorf("get %q: %w", key, err)
	}

	value := buf[:resp.Length]
	if c.Bool("raw") {
		_, err := writer(c).Write(value)
		return err
	}
	return render(c, getResult{
		Key:       key,
		Value:     string(value),
		Bytes:     resp.Length,
		Timestamp: resp.Timestamp,
	})
}

// RemoveCommand returns the remove command.
func RemoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Aliases:   []string{"rm"},
		Usage:     "Delete one or more keys",
		ArgsUsage: "KEY...",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
				Value: 30 * time.Second,
			},
		},
		Action: removeAction,
	}
}

type removeResult struct {
	Key    string `json:"key" yaml:"key"`
	Status string `json:"status" yaml:"status"`
}

func removeAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("usage: remove KEY...")
	}

	b, release, err := openBridge(c)
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	col := ParseGlobalFlags(c).Collection
	var (
		results []removeResult
		failed  int
	)
	for _, key := range c.Args().Slice() {
		status := "removed"
		if err := b.Conn.Remove(ctx, col, []byte(key)); err != nil {
			status = err.Error()
			failed++
		}
		results = append(results, removeResult{Key: key, Status: status})
	}
	if err := render(c, results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d removals failed", failed, len(results))
	}
	return nil
}
