package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/danmuck/tagwire/internal/config"
	"github.com/danmuck/tagwire/internal/logging"
	"github.com/danmuck/tagwire/internal/protocol/client"
	"github.com/danmuck/tagwire/internal/protocol/field"
	"github.com/danmuck/tagwire/internal/protocol/transport"
)

const defaultConfigPath = "cmd/tagwirectl/config.toml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "client config path")
	addr := flag.String("addr", "", "node address (overrides config)")
	list := flag.Bool("list", false, "list fields and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: tagwirectl [flags] <field|tag> [value...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logging.ConfigureRuntime()
	cfg, err := loadClientConfig(*configPath)
	if err != nil {
		fail(err)
	}
	if a := strings.TrimSpace(*addr); a != "" {
		cfg.Dial.Address = a
	}
	node, err := config.LoadNodeConfig(cfg.NodeConfig)
	if err != nil {
		fail(err)
	}
	reg, err := config.BuildRegistry(node.Fields)
	if err != nil {
		fail(err)
	}

	if *list {
		printFields(os.Stdout, reg)
		return
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	f, err := resolveField(reg, flag.Arg(0))
	if err != nil {
		fail(err)
	}
	values, err := parseValues(flag.Args()[1:])
	if err != nil {
		fail(err)
	}

	if err := call(cfg, reg, f, values, os.Stdout); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "tagwirectl: %v\n", err)
	os.Exit(1)
}

// call dials the node and pipelines one request per value. A void field or
// an empty value list sends a single request.
func call(cfg clientConfig, reg *field.Registry, f field.Field, values []uint64, out io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.CallTimeout)
	defer cancel()

	stream, err := transport.Dial(ctx, cfg.Dial, reg)
	if err != nil {
		return err
	}
	defer stream.Close()

	c, err := client.New(stream)
	if err != nil {
		return err
	}

	if f.Void() || len(values) == 0 {
		reply, err := c.Call(ctx, f)
		if err != nil {
			return err
		}
		printReply(out, f, nil, reply)
		return nil
	}

	done := make(chan *client.Call, len(values))
	calls := make([]*client.Call, len(values))
	for i, v := range values {
		calls[i] = c.Go(ctx, f, done, v)
	}
	for range values {
		<-done
	}
	for _, res := range calls {
		if res.Error != nil {
			return res.Error
		}
		printReply(out, f, res.Args, res.Reply)
	}
	return nil
}

func resolveField(reg *field.Registry, arg string) (field.Field, error) {
	if f, ok := reg.ByName(arg); ok {
		return f, nil
	}
	tag, err := strconv.ParseUint(arg, 10, 8)
	if err != nil {
		return field.Field{}, fmt.Errorf("unknown field %q", arg)
	}
	f, ok := reg.Lookup(uint8(tag))
	if !ok {
		return field.Field{}, fmt.Errorf("unknown tag %d", tag)
	}
	return f, nil
}

func parseValues(args []string) ([]uint64, error) {
	out := make([]uint64, 0, len(args))
	for _, arg := range args {
		v, err := strconv.ParseUint(arg, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("parse value %q: %w", arg, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func printReply(w io.Writer, f field.Field, args []uint64, reply client.Reply) {
	in := "-"
	if len(args) == 1 {
		in = strconv.FormatUint(args[0], 10)
	}
	if !reply.Present {
		fmt.Fprintf(w, "%s %s -> (empty)\n", f, in)
		return
	}
	fmt.Fprintf(w, "%s %s -> %d\n", f, in, reply.Value)
}

func printFields(w io.Writer, reg *field.Registry) {
	for _, f := range reg.Fields() {
		fmt.Fprintf(w, "%3d  %-16s width=%d max=%d\n", f.Tag(), f.Name(), f.Width(), f.MaxValue())
	}
}
