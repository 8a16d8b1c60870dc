package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/castle-go/internal/bridge/config"
	"github.com/yndnr/castle-go/internal/cli/output"
	"github.com/yndnr/castle-go/internal/infra/confloader"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect bridge configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the effective configuration after file, environment and flags",
				Action: configShow,
			},
			{
				Name:      "validate",
				Usage:     "Check a castle-bridged configuration file",
				ArgsUsage: "FILE",
				Action:    configValidate,
			},
			{
				Name:   "defaults",
				Usage:  "Print the built-in defaults",
				Action: configDefaults,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	cfg, err := LoadConfig(ParseGlobalFlags(c))
	if err != nil {
		return err
	}
	return renderConfig(c, cfg)
}

func configDefaults(c *cli.Context) error {
	return renderConfig(c, config.Default())
}

// renderConfig prints YAML unless another structured format was asked for.
func renderConfig(c *cli.Context, cfg *config.BridgeConfig) error {
	format, err := output.ParseFormat(ParseGlobalFlags(c).Output)
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		format = output.FormatYAML
	}
	return output.NewFormatter(format, false).Format(writer(c), cfg)
}

func configValidate(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: config validate FILE")
	}
	path := c.Args().First()

	cfg := config.Default()
	loader := confloader.NewLoader(confloader.WithConfigFile(path))
	if err := loader.Load(cfg); err != nil {
		return err
	}
	if err := config.Verify(cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(writer(c), "%s: ok\n", path)
	return nil
}
