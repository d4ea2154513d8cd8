// Command sceneconv inspects scene archives and converts Maya particle
// caches into them.
//
// Usage:
//
//	sceneconv info    [store flags] <archive>
//	sceneconv dump    [store flags] [-time t] <archive> [path]
//	sceneconv convert [store flags] -o <archive> [-percentage p] <cache>...
//	sceneconv convert -job job.yaml
//
// Archives and caches are read from a local directory (-dir), an S3 bucket
// (-store s3), an S3 Express directory bucket (-store s3express) or a MinIO
// bucket (-store minio). The archive name CURRENT opens the last published
// archive.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"slices"
	"strings"

	"github.com/hupe1980/sceneconv"
	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/dataview"
	"github.com/hupe1980/sceneconv/sampling"
	"github.com/hupe1980/sceneconv/scene"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return errUsage
	}
	switch args[0] {
	case "info":
		return runInfo(ctx, args[1:], stdout, stderr)
	case "dump":
		return runDump(ctx, args[1:], stdout, stderr)
	case "convert":
		return runConvert(ctx, args[1:], stdout, stderr)
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return errUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `Usage: sceneconv <command> [flags]

Commands:
  info      list the objects of an archive
  dump      print the objects of an archive at a time
  convert   copy particle caches into a new archive

Run "sceneconv <command> -h" for the flags of a command.`)
}

// common holds the flags every command takes.
type common struct {
	store    StoreConfig
	logLevel string
}

func newFlagSet(name string, stderr io.Writer, c *common) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	c.store.Bind(fs)
	fs.StringVar(&c.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	return fs
}

func (c *common) logger(stderr io.Writer) (*sceneconv.Logger, error) {
	level, err := parseLevel(c.logLevel)
	if err != nil {
		return nil, err
	}
	return sceneconv.NewLogger(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})), nil
}

func parseArgs(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errUsage
		}
		return err
	}
	return nil
}

// openScene opens name, or the published archive when name is CURRENT.
func openScene(ctx context.Context, c *common, name string, stderr io.Writer) (*sceneconv.Scene, error) {
	store, err := c.store.Open(ctx)
	if err != nil {
		return nil, err
	}
	logger, err := c.logger(stderr)
	if err != nil {
		return nil, err
	}
	if name == archive.CurrentName {
		return sceneconv.OpenCurrent(ctx, store, sceneconv.WithLogger(logger))
	}
	return sceneconv.Open(ctx, store, name, sceneconv.WithLogger(logger))
}

func runInfo(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var c common
	fs := newFlagSet("info", stderr, &c)
	if err := parseArgs(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "info needs exactly one archive")
		return errUsage
	}

	s, err := openScene(ctx, &c, fs.Arg(0), stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintf(stdout, "archive: %s\nid:      %s\nversion: %d\n", s.Name(), s.ArchiveID(), s.FormatVersion())
	for _, p := range s.Paths() {
		obj, err := s.Object(p)
		if err != nil {
			return err
		}
		depth := strings.Count(p, "/") - 1
		fmt.Fprintf(stdout, "%s%s  %s  samples=%d", strings.Repeat("  ", depth), path.Base(p), obj.Schema(), obj.NumSamples())
		if ts := obj.TimeSampling(); ts.Len() > 0 {
			last, _ := ts.Last()
			fmt.Fprintf(stdout, "  time=[%g, %g]", ts.At(0), last)
		}
		fmt.Fprintln(stdout)
	}
	return nil
}

func runDump(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var c common
	fs := newFlagSet("dump", stderr, &c)
	t := fs.Float64("time", 0, "time to read; the nearest sample is used")
	if err := parseArgs(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fmt.Fprintln(stderr, "dump needs an archive and an optional object path")
		return errUsage
	}

	s, err := openScene(ctx, &c, fs.Arg(0), stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	if fs.NArg() == 2 {
		obj, err := s.ReadAt(ctx, fs.Arg(1), *t)
		if err != nil {
			return err
		}
		return dumpObject(ctx, stdout, s, fs.Arg(1), obj, *t)
	}
	return s.Walk(ctx, *t, func(p string, obj scene.Object) error {
		return dumpObject(ctx, stdout, s, p, obj, *t)
	})
}

func dumpObject(ctx context.Context, w io.Writer, s *sceneconv.Scene, p string, obj scene.Object, t float64) error {
	fmt.Fprintf(w, "%s (%s)\n", p, obj.TypeID())
	if b, err := s.Bounds(ctx, p, sampling.Time(t, sampling.Nearest)); err == nil && !b.IsEmpty() {
		fmt.Fprintf(w, "  bounds: %v - %v\n", b.Min, b.Max)
	}

	switch o := obj.(type) {
	case *scene.Mesh:
		fmt.Fprintf(w, "  faces: %d  vertices: %d  scheme: %s\n", o.NumFaces(), o.NumVertices(), o.InterpolationScheme())
	case *scene.Curves:
		fmt.Fprintf(w, "  curves: %d  basis: %s  periodic: %t\n", o.NumCurves(), o.Basis(), o.Periodic())
	case *scene.Points:
		fmt.Fprintf(w, "  points: %d\n", o.NumPoints())
	case *scene.Camera:
		fmt.Fprintf(w, "  projection: %s  fov: %g  screen: %v\n", o.Projection, o.FieldOfView, o.ScreenWindow)
	}

	prim, ok := obj.(scene.Primitive)
	if !ok {
		return nil
	}
	names := prim.Variables().Names()
	slices.Sort(names)
	for _, name := range names {
		pv, _ := prim.Variables().Get(name)
		desc := pv.Data.TypeName()
		if v, err := dataview.ViewOf(pv.Data); err == nil {
			desc = v.Type.String()
		}
		indexed := ""
		if pv.Indices != nil {
			indexed = fmt.Sprintf("  indexed(%d)", len(pv.Indices))
		}
		fmt.Fprintf(w, "  %-12s %-12s %s%s\n", name, pv.Interpolation, desc, indexed)
	}
	return nil
}

func runConvert(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		c          common
		in         = Input{}
		jobFile    string
		output     string
		publish    bool
		comp       string
		workers    int64
		percentage float64
	)
	fs := newFlagSet("convert", stderr, &c)
	fs.StringVar(&jobFile, "job", "", "YAML job file; other flags are ignored")
	fs.StringVar(&output, "o", "", "archive to create")
	fs.BoolVar(&publish, "publish", false, "publish the archive as CURRENT")
	fs.StringVar(&comp, "compression", "lz4", "block compression: none, lz4 or zstd")
	fs.Int64Var(&workers, "workers", 1, "caches converted at once")
	fs.Float64Var(&percentage, "percentage", 100, "percentage of particles to keep")
	fs.Int64Var(&in.Seed, "seed", 0, "seed of the percentage filter")
	fs.StringVar(&in.RealType, "real-type", "native", "real precision: native, float or double")
	if err := parseArgs(fs, args); err != nil {
		return err
	}

	var job *Job
	if jobFile != "" {
		f, err := os.Open(jobFile)
		if err != nil {
			return err
		}
		job, err = LoadJob(f)
		_ = f.Close()
		if err != nil {
			return err
		}
		if job.LogLevel != "" {
			c.logLevel = job.LogLevel
		}
	} else {
		job = &Job{
			Store:       c.store,
			Output:      output,
			Publish:     publish,
			Compression: comp,
			Workers:     workers,
		}
		for _, src := range fs.Args() {
			input := in
			input.Source = src
			input.Percentage = float32(percentage)
			job.Inputs = append(job.Inputs, input)
		}
		if err := job.normalize(); err != nil {
			return err
		}
	}

	logger, err := c.logger(stderr)
	if err != nil {
		return err
	}
	counts, err := job.Run(ctx, logger)
	if err != nil {
		return err
	}

	for _, input := range job.Inputs {
		fmt.Fprintf(stdout, "%s -> %s:%s (%d samples)\n", input.Source, job.Output, input.Path, counts[input.Path])
	}
	if job.Publish {
		fmt.Fprintf(stdout, "published %s\n", job.Output)
	}
	return nil
}
