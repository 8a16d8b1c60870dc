package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/castle-go/internal/cli/repl"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Run commands interactively over one connection",
		Description: "Global flags given before \"shell\" select the store. Commands typed in the\n" +
			"shell reuse its connection, so an --in-memory store lives until exit.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history",
				Usage: "History file (empty to disable)",
				Value: repl.DefaultHistoryFile(),
			},
		},
		Action: shellAction,
	}
}

func shellAction(c *cli.Context) error {
	if _, nested := c.App.Metadata[sessionKey]; nested {
		return errors.New("already in a shell")
	}

	b, release, err := openBridge(c)
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[sessionKey] = b
	defer func() {
		delete(c.App.Metadata, sessionKey)
		release()
	}()

	history := repl.NewHistory(c.String("history"))
	if err := history.Load(); err != nil {
		PrintError(c, "load history: %v", err)
	}
	defer func() {
		if err := history.Save(); err != nil {
			PrintError(c, "save history: %v", err)
		}
	}()

	var names []string
	for _, cmd := range c.App.Commands {
		if cmd.Name != "shell" {
			names = append(names, cmd.Name)
		}
	}

	global := shellGlobals(c)
	exec := func(ctx context.Context, args []string) error {
		argv := append([]string{c.App.Name}, global...)
		return c.App.RunContext(ctx, append(argv, args...))
	}

	fmt.Fprintf(writer(c), "connected (%s); type \"help\" for commands, \"exit\" to leave\n", b.Conn.ID())
	return repl.New(exec, reader(c), writer(c),
		repl.WithHistory(history),
		repl.WithCompleter(repl.NewCompleter(names...)),
	).Run(c.Context)
}

// shellGlobals carries the output flags of the shell invocation into each
// command typed in it. Store flags are not needed since the connection is
// shared.
func shellGlobals(c *cli.Context) []string {
	flags := ParseGlobalFlags(c)
	args := []string{"--output", flags.Output, "--collection", fmt.Sprint(uint32(flags.Collection))}
	if flags.Wide {
		args = append(args, "--wide")
	}
	return args
}
