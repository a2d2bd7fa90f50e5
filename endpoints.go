package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sqlio/sqlio/core"
	"github.com/sqlio/sqlio/core/format"
	"github.com/sqlio/sqlio/sqlclient"
)

// request holds the arguments shared by all endpoints.
type request struct {
	query         string
	partitionOpts []sqlclient.QueryOption
	readOpts      []sqlclient.ReadOption
	formatter     core.Formatter
}

type endpoint func(ctx context.Context, c *sqlclient.Client, req *request, w io.Writer) error

var endpoints = map[string]endpoint{
	"queries": returnQueries,
	"df":      returnDF,
}

func serve(ctx context.Context, mode string, c *sqlclient.Client, req *request, w io.Writer) error {
	ep, ok := endpoints[mode]
	if !ok {
		modes := make([]string, 0, len(endpoints))
		for m := range endpoints {
			modes = append(modes, m)
		}
		sort.Strings(modes)
		return fmt.Errorf("mode %q is not supported, expected one of: %s", mode, strings.Join(modes, ", "))
	}
	return ep(ctx, c, req, w)
}

func returnQueries(ctx context.Context, c *sqlclient.Client, req *request, w io.Writer) error {
	opts := make([]sqlclient.QueryOption, 0, len(req.partitionOpts)+len(req.readOpts))
	opts = append(opts, req.partitionOpts...)
	for _, o := range req.readOpts {
		opts = append(opts, o)
	}

	queries, err := c.ReturnQueries(ctx, req.query, opts...)
	if err != nil {
		return err
	}

	rows := make([]core.Row, len(queries))
	for i, q := range queries {
		rows[i] = core.Row{q}
	}

	out, err := core.NewResult(core.Header{"query"}, rows).Format(req.formatter, 0, -1)
	if err != nil {
		return err
	}
	return write(w, out)
}

func returnDF(ctx context.Context, c *sqlclient.Client, req *request, w io.Writer) error {
	if len(req.partitionOpts) > 0 {
		return fmt.Errorf("partitioning flags only apply to the queries mode")
	}

	df, err := c.ReturnDF(ctx, req.query, req.readOpts...)
	if err != nil {
		return err
	}
	defer df.Release()

	out, err := df.Format(req.formatter, 0, -1)
	if err != nil {
		return err
	}
	return write(w, out)
}

func newFormatter(name string) (core.Formatter, error) {
	switch name {
	case "json":
		return format.NewJSON(), nil
	case "csv":
		return format.NewCSV(), nil
	case "table":
		return format.NewTable(), nil
	default:
		return nil, fmt.Errorf("output format %q is not supported", name)
	}
}

func write(w io.Writer, out []byte) error {
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	_, err := w.Write(out)
	return err
}
