package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"partywire/boundary"
	"partywire/codec"
	"partywire/protocol"
)

type SchemaCmd struct {
	Type string `arg:"" optional:"" help:"Only print this type (name or alias)."`
}

func (c *SchemaCmd) Run(e *env) error {
	var v any = protocol.Schema()
	if c.Type != "" {
		name, err := resolveType(c.Type)
		if err != nil {
			return err
		}
		v, _ = protocol.Lookup(name)
	}
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type EncodeCmd struct {
	Type  string `arg:"" help:"Type name or alias (command, controller-event, ...)."`
	Value string `arg:"" optional:"" help:"JSON value. Read from stdin when omitted or -."`
}

func (c *EncodeCmd) Run(e *env) error {
	name, err := resolveType(c.Type)
	if err != nil {
		return err
	}
	input, err := argOrStdin(c.Value, e.in)
	if err != nil {
		return err
	}
	v, _ := protocol.NewValue(name)
	if err := boundary.GetCodec(codec.CodecTypeJSON).Decode(input, v); err != nil {
		return err
	}
	data, err := boundary.GetCodec(codec.CodecTypeBinary).Encode(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.out, hex.EncodeToString(data))
	return err
}

type DecodeCmd struct {
	Type string `arg:"" help:"Type name or alias (command, controller-event, ...)."`
	Hex  string `arg:"" optional:"" help:"Hex bytes. Read from stdin when omitted or -."`
}

func (c *DecodeCmd) Run(e *env) error {
	name, err := resolveType(c.Type)
	if err != nil {
		return err
	}
	input, err := argOrStdin(c.Hex, e.in)
	if err != nil {
		return err
	}
	data, err := hex.DecodeString(strings.Join(strings.Fields(string(input)), ""))
	if err != nil {
		return fmt.Errorf("decode hex: %w", err)
	}
	v, _ := protocol.NewValue(name)
	if err := boundary.GetCodec(codec.CodecTypeBinary).Decode(data, v); err != nil {
		return err
	}
	out, err := boundary.GetCodec(codec.CodecTypeJSON).Encode(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.out, string(out))
	return err
}

type StatsCmd struct {
	Watch bool `help:"Keep printing a snapshot after every change."`
}

func (c *StatsCmd) Run(e *env) error {
	dir, err := e.cfg.OpenDirectory(e.logger)
	if err != nil {
		return err
	}
	if closer, ok := dir.(interface{ Close(context.Context) error }); ok {
		defer closer.Close(context.Background())
	}

	st, err := dir.Snapshot(e.ctx)
	if err != nil {
		return err
	}
	if err := printStatistics(e.out, st); err != nil {
		return err
	}
	if !c.Watch {
		return nil
	}
	for st := range dir.Watch(e.ctx) {
		if err := printStatistics(e.out, st); err != nil {
			return err
		}
	}
	return nil
}

func printStatistics(w io.Writer, st protocol.Statistics) error {
	out, err := boundary.GetCodec(codec.CodecTypeJSON).Encode(st)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func resolveType(alias string) (string, error) {
	name, ok := protocol.ResolveType(alias)
	if !ok {
		return "", fmt.Errorf("unknown type %q (aliases: %s)", alias, strings.Join(protocol.Aliases(), ", "))
	}
	return name, nil
}

func argOrStdin(arg string, in io.Reader) ([]byte, error) {
	if arg != "" && arg != "-" {
		return []byte(arg), nil
	}
	return io.ReadAll(in)
}
