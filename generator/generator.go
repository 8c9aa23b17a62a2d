// Package generator runs the full opcode pipeline: scan the listing, resolve
// properties, bind aliases, allocate the remaining values and render the
// result. Each stage is traced.
package generator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/colorfulnotion/opcodeh/config"
	"github.com/colorfulnotion/opcodeh/header"
	log "github.com/colorfulnotion/opcodeh/log"
	"github.com/colorfulnotion/opcodeh/opcodes"
	"github.com/colorfulnotion/opcodeh/scanner"
)

const tracerName = "github.com/colorfulnotion/opcodeh/generator"

// Result is a finished run. Output is only set by Generate.
type Result struct {
	Listing *scanner.Listing
	Table   *opcodes.Table
	Output  []byte
}

// Generator turns listings into opcode tables. It keeps no state between
// runs and may be reused.
type Generator struct {
	cfg    *config.Config
	tracer trace.Tracer
}

// New returns a generator for cfg. A nil cfg means config.Default().
func New(cfg *config.Config) (*Generator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{cfg: cfg, tracer: otel.Tracer(tracerName)}, nil
}

// Config returns the settings in use.
func (g *Generator) Config() *config.Config {
	return g.cfg
}

func (g *Generator) stage(ctx context.Context, name string, fn func(context.Context, trace.Span) error) error {
	ctx, span := g.tracer.Start(ctx, name)
	defer span.End()
	if err := fn(ctx, span); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Allocate reads the listing from r and numbers every opcode.
func (g *Generator) Allocate(ctx context.Context, r io.Reader) (*Result, error) {
	ctx, span := g.tracer.Start(ctx, "allocate")
	defer span.End()

	res := &Result{}
	err := g.stage(ctx, "scan", func(_ context.Context, s trace.Span) error {
		sc := scanner.New(scanner.Options{
			TokenPrefix:  g.cfg.TokenPrefix,
			OpcodePrefix: g.cfg.OpcodePrefix,
			Withheld:     g.cfg.Withheld,
		})
		l, err := sc.Scan(r)
		if err != nil {
			return fmt.Errorf("scan listing: %w", err)
		}
		s.SetAttributes(
			attribute.Int("lines", l.Lines),
			attribute.Int("tokens", len(l.Tokens)),
			attribute.Int("opcodes", len(l.Instructions)),
		)
		res.Listing = l
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	instrs := res.Listing.Instructions

	opcodes.NewPropertyResolver(g.cfg.TokenPrefix).ResolveAll(instrs)
	alloc := opcodes.NewContext(g.cfg.Ceiling)

	err = g.stage(ctx, "bind", func(_ context.Context, s trace.Span) error {
		n := opcodes.NewAliasBinder(res.Listing.Tokens).Bind(alloc, instrs)
		s.SetAttributes(attribute.Int("aliases", n))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = g.stage(ctx, "number", func(_ context.Context, s trace.Span) error {
		groups := opcodes.FormGroups(instrs)
		a := &opcodes.Allocator{
			Priority:          g.cfg.Priority,
			Specials:          g.cfg.Specials,
			PlaceholderPrefix: g.cfg.OpcodePrefix,
		}
		tbl, err := a.Allocate(alloc, instrs, groups)
		if err != nil {
			return err
		}
		res.Listing.Document(tbl.Instructions)
		s.SetAttributes(
			attribute.Int("groups", len(groups)),
			attribute.Int("max_value", tbl.MaxValue),
			attribute.Int("max_jump", tbl.MaxJump),
		)
		res.Table = tbl
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	log.Debug(log.GenMonitoring, "allocated", "opcodes", len(res.Table.Instructions),
		"rows", len(res.Table.Entries), "maxJump", res.Table.MaxJump, "dropped", len(res.Listing.Dropped))
	return res, nil
}

// Generate allocates the listing in r and renders it in the configured
// format.
func (g *Generator) Generate(ctx context.Context, r io.Reader) (*Result, error) {
	ctx, span := g.tracer.Start(ctx, "generate")
	defer span.End()

	res, err := g.Allocate(ctx, r)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	err = g.stage(ctx, "render", func(_ context.Context, s trace.Span) error {
		var buf bytes.Buffer
		if err := header.Render(&buf, res.Table, header.OptionsFromConfig(g.cfg)); err != nil {
			return err
		}
		s.SetAttributes(attribute.String("format", g.cfg.Format), attribute.Int("bytes", buf.Len()))
		res.Output = buf.Bytes()
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

// OpenInputs concatenates the named files in order. No names means stdin.
// A newline separates consecutive files so the last line of one never runs
// into the first line of the next.
func OpenInputs(stdin io.Reader, paths []string) (io.Reader, func() error, error) {
	if len(paths) == 0 {
		return stdin, func() error { return nil }, nil
	}
	var files []*os.File
	closeAll := func() error {
		var first error
		for _, f := range files {
			if err := f.Close(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
	readers := make([]io.Reader, 0, 2*len(paths))
	for i, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		files = append(files, f)
		if i > 0 {
			readers = append(readers, bytes.NewReader([]byte{'\n'}))
		}
		readers = append(readers, f)
	}
	return io.MultiReader(readers...), closeAll, nil
}

// WriteOutput writes b to path, or to stdout when path is empty or "-".
func WriteOutput(stdout io.Writer, path string, b []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
