// Package command defines the castle-cli commands.
//
// Every command opens its own loopback store and connection unless it runs
// inside "castle-cli shell", where one connection serves the whole session.
package command

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/castle-go/internal/bridge"
	"github.com/yndnr/castle-go/internal/bridge/config"
	"github.com/yndnr/castle-go/internal/cli/output"
	"github.com/yndnr/castle-go/internal/core/domain"
	"github.com/yndnr/castle-go/internal/infra/buildinfo"
	"github.com/yndnr/castle-go/internal/infra/confloader"
	"github.com/yndnr/castle-go/internal/telemetry/logger"
)

// sessionKey holds the shared *bridge.Bridge in App.Metadata while a shell
// is running.
const sessionKey = "castle.bridge"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "castle-cli",
		Usage:   "Drive a castle completion pipeline against a local loopback store",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			PutCommand(),
			GetCommand(),
			RemoveCommand(),
			ScanCommand(),
			BenchCommand(),
			ShellCommand(),
			StatusCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: func(c *cli.Context) error {
			_, err := output.ParseFormat(c.String("output"))
			return err
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Bridge configuration file (YAML)",
			EnvVars: []string{"CASTLE_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "dir",
			Aliases: []string{"d"},
			Usage:   "Loopback data directory (default ~/.castle/data)",
			EnvVars: []string{"CASTLE_DIR"},
		},
		&cli.BoolFlag{
			Name:    "in-memory",
			Aliases: []string{"m"},
			Usage:   "Use an in-memory store that is discarded on exit",
		},
		&cli.UintFlag{
			Name:    "collection",
			Aliases: []string{"C"},
			Usage:   "Collection ID",
			Value:   1,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Log pipeline activity to stderr",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Config     string
	Dir        string
	InMemory   bool
	Collection domain.CollectionID

	Output  string
	Wide    bool
	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:     c.String("config"),
		Dir:        c.String("dir"),
		InMemory:   c.Bool("in-memory"),
		Collection: domain.CollectionID(c.Uint("collection")),
		Output:     c.String("output"),
		Wide:       c.Bool("wide"),
		Verbose:    c.Bool("verbose"),
	}
}

// DefaultDataDir returns ~/.castle/data.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "castle", "data")
	}
	return filepath.Join(home, ".castle", "data")
}

// LoadConfig builds the bridge configuration for a CLI run: defaults, then
// the config file and CASTLE_ environment, then flags. The CLI never serves
// metrics and runs without a watchdog.
func LoadConfig(flags *GlobalFlags) (*config.BridgeConfig, error) {
	cfg := config.Default()
	loader := confloader.NewLoader(confloader.WithConfigFile(flags.Config))
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	switch {
	case flags.Dir != "":
		cfg.Driver.Dir = flags.Dir
	case cfg.Driver.Dir == config.DefaultDriverDir:
		cfg.Driver.Dir = DefaultDataDir()
	}
	if flags.InMemory {
		cfg.Driver.InMemory = true
	}
	cfg.Metrics.Enabled = false
	cfg.Watchdog.Period = 0

	if err := config.Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(c *cli.Context, flags *GlobalFlags) (logger.Logger, error) {
	level := "warn"
	if flags.Verbose {
		level = "debug"
	}
	return logger.New(logger.Config{
		Level:  level,
		Format: "text",
		Output: errWriter(c),
	})
}

// openBridge returns the shell's shared bridge, or opens one for this
// command. The returned func releases it.
func openBridge(c *cli.Context) (*bridge.Bridge, func(), error) {
	if b, ok := c.App.Metadata[sessionKey].(*bridge.Bridge); ok {
		return b, func() {}, nil
	}

	flags := ParseGlobalFlags(c)
	cfg, err := LoadConfig(flags)
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(c, flags)
	if err != nil {
		return nil, nil, err
	}
	b, err := bridge.Open(cfg, bridge.Options{Logger: log})
	if err != nil {
		return nil, nil, err
	}
	return b, func() {
		if err := b.Close(); err != nil {
			PrintError(c, "close: %v", err)
		}
	}, nil
}

// render writes data in the selected output format.
func render(c *cli.Context, data any) error {
	flags := ParseGlobalFlags(c)
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return err
	}
	return output.NewFormatter(format, flags.Wide).Format(writer(c), data)
}

func writer(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func reader(c *cli.Context) io.Reader {
	if c.App.Reader != nil {
		return c.App.Reader
	}
	return os.Stdin
}

func errWriter(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

// PrintError prints an error message to the app's error writer.
func PrintError(c *cli.Context, format string, args ...any) {
	fmt.Fprintf(errWriter(c), "error: "+format+"\n", args...)
}
