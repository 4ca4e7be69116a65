// Command protoctl inspects and produces partywire frames.
//
//	protoctl schema
//	protoctl encode command '{"Move":{"x":1,"y":2}}'
//	protoctl decode controller-event 0101
//	protoctl replay session.jsonl
//	protoctl stats --watch
//	protoctl lua controller.lua
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"partywire/config"
)

var version = "dev"

type CLI struct {
	Config   string `help:"YAML configuration file." type:"path" env:"PARTYWIRE_CONFIG"`
	LogLevel string `help:"Log level (debug, info, warn, error). Overrides the configuration."`

	Schema  SchemaCmd  `cmd:"" help:"Print the schema description as JSON."`
	Encode  EncodeCmd  `cmd:"" help:"Encode a JSON value as hex."`
	Decode  DecodeCmd  `cmd:"" help:"Decode hex as a JSON value."`
	Replay  ReplayCmd  `cmd:"" help:"Run a scripted session and print every frame it produces."`
	Stats   StatsCmd   `cmd:"" help:"Print session statistics from the directory."`
	Lua     LuaCmd     `cmd:"" help:"Run a Lua controller script with the partywire bindings."`
	Version VersionCmd `cmd:"" help:"Print the version."`
}

// env is bound into every command's Run method.
type env struct {
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger
	in     io.Reader
	out    io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("protoctl"),
		kong.Description("Inspect and produce partywire frames."),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return err
	}
	return kctx.Run(&env{ctx: ctx, cfg: cfg, logger: logger, in: stdin, out: stdout})
}

func newLogger(c config.LogConfig, w io.Writer) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

type VersionCmd struct{}

func (c *VersionCmd) Run(e *env) error {
	_, err := fmt.Fprintln(e.out, version)
	return err
}
