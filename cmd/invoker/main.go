// Command invoker serves one registered function over stdin/stdout.
//
//	FUNCTION_URI='file:///srv/echo.go?handler=uppercase' invoker < lines.txt
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghetzel/cli"

	invoker "github.com/jdziat/simple-function-invoker"
	"github.com/jdziat/simple-function-invoker/pkg/config"
	"github.com/jdziat/simple-function-invoker/pkg/samples"
)

const version = `0.1.0`

func main() {
	if err := samples.Register(invoker.DefaultRegistry); err != nil {
		fmt.Fprintf(os.Stderr, "invoker: %v\n", err)
		os.Exit(1)
	}

	app := cli.NewApp()
	app.Name = `invoker`
	app.Usage = `Run a registered function against line-delimited standard input`
	app.Version = version

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   `config, c`,
			Usage:  `TOML or YAML configuration file to load`,
			EnvVar: config.EnvConfig,
		},
		cli.StringFlag{
			Name:  `log-level, L`,
			Usage: `Level of log output verbosity (debug, info, warn, error, off)`,
		},
		cli.StringFlag{
			Name:  `log-format`,
			Usage: `Log record format (text or json)`,
		},
		cli.StringFlag{
			Name:  `workdir, w`,
			Usage: `Directory that receives the staged artifact`,
		},
		cli.BoolFlag{
			Name:  `list-handlers`,
			Usage: `Print the registered functions and exit`,
		},
		cli.StringFlag{
			Name:  `match, m`,
			Usage: `Glob pattern restricting --list-handlers (e.g. "echo.*")`,
		},
	}

	app.Action = func(c *cli.Context) {
		if c.Bool(`list-handlers`) {
			if err := invoker.ListHandlers(os.Stdout, invoker.DefaultRegistry, c.String(`match`)); err != nil {
				fmt.Fprintf(os.Stderr, "invoker: %v\n", err)
				os.Exit(1)
			}
			return
		}

		cfg, err := config.Load(c.String(`config`), os.Getenv)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invoker: %v\n", err)
			os.Exit(1)
		}

		if v := c.String(`log-level`); v != `` {
			cfg.LogLevel = v
		}
		if v := c.String(`log-format`); v != `` {
			cfg.LogFormat = v
		}
		if v := c.String(`workdir`); v != `` {
			cfg.WorkDir = v
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		go func() {
			// Restore default signal handling so a second signal kills the process.
			<-ctx.Done()
			stop()
		}()

		code := invoker.Run(ctx, cfg, invoker.DefaultRegistry, os.Stdin, os.Stdout, os.Stderr)
		stop()
		os.Exit(code)
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "invoker: %v\n", err)
		os.Exit(1)
	}
}
