package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/sceneconv"
	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/blobstore"
	"github.com/hupe1980/sceneconv/convert"
	"github.com/hupe1980/sceneconv/particle"
	"github.com/hupe1980/sceneconv/scene"
)

// Job describes one conversion run: a set of particle caches copied into a
// single archive.
//
//	store: {type: local, dir: ./caches}
//	output: shot010.scn
//	publish: true
//	compression: zstd
//	workers: 4
//	inputs:
//	  - source: fx/sparksShape.mc
//	    path: /fx/sparks
//	    percentage: 25
type Job struct {
	Store      StoreConfig  `yaml:"store"`
	InputStore *StoreConfig `yaml:"input_store,omitempty"`

	Output      string `yaml:"output"`
	Publish     bool   `yaml:"publish"`
	Compression string `yaml:"compression"`
	Workers     int64  `yaml:"workers"`
	LogLevel    string `yaml:"log_level"`

	Inputs []Input `yaml:"inputs"`
}

// Input is one particle cache of a Job.
type Input struct {
	Source string `yaml:"source"`
	// Format is "ncache", "hair" or "pdc". Empty infers it from the
	// extension of Source.
	Format     string  `yaml:"format"`
	Path       string  `yaml:"path"`
	Percentage float32 `yaml:"percentage"`
	Seed       int64   `yaml:"seed"`
	RealType   string  `yaml:"real_type"`
}

// LoadJob decodes and validates a YAML job file.
func LoadJob(r io.Reader) (*Job, error) {
	var j Job
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&j); err != nil {
		return nil, fmt.Errorf("job file: %w", err)
	}
	if err := j.normalize(); err != nil {
		return nil, err
	}
	return &j, nil
}

func (j *Job) normalize() error {
	if j.Output == "" {
		return errors.New("job file: output is required")
	}
	if len(j.Inputs) == 0 {
		return errors.New("job file: no inputs")
	}
	if j.Compression == "" {
		j.Compression = "lz4"
	}
	if _, err := archive.ParseCompression(j.Compression); err != nil {
		return fmt.Errorf("job file: %w", err)
	}
	if _, err := parseLevel(j.LogLevel); err != nil {
		return fmt.Errorf("job file: %w", err)
	}

	seen := make(map[string]string)
	for i := range j.Inputs {
		in := &j.Inputs[i]
		if in.Source == "" {
			return fmt.Errorf("job file: input %d has no source", i)
		}
		if in.Format == "" {
			in.Format = formatOf(in.Source)
		}
		switch in.Format {
		case convert.FormatNCache, convert.FormatHair, convert.FormatPDC:
		default:
			return fmt.Errorf("job file: input %s: unknown format %q", in.Source, in.Format)
		}
		if in.Path == "" {
			base := path.Base(in.Source)
			in.Path = "/" + strings.TrimSuffix(base, path.Ext(base))
		}
		in.Path = path.Clean("/" + in.Path)
		if other, ok := seen[in.Path]; ok {
			return fmt.Errorf("job file: %s and %s both write %s", other, in.Source, in.Path)
		}
		seen[in.Path] = in.Source
		if in.Percentage == 0 {
			in.Percentage = 100
		}
		if _, err := particle.ParseRealType(in.RealType); err != nil {
			return fmt.Errorf("job file: input %s: %w", in.Source, err)
		}
	}
	return nil
}

// formatOf maps a file extension to a particle format.
func formatOf(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".mc":
		return convert.FormatNCache
	case ".mchp":
		return convert.FormatHair
	case ".pdc":
		return convert.FormatPDC
	default:
		return ""
	}
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	err := l.UnmarshalText([]byte(s))
	return l, err
}

// openSource opens in with the particle reader for its format.
func openSource(ctx context.Context, store blobstore.BlobStore, in Input, logger *slog.Logger) (convert.Source, scene.TypeID, io.Closer, error) {
	rt, _ := particle.ParseRealType(in.RealType)
	opts := []particle.Option{
		particle.WithPercentage(in.Percentage),
		particle.WithSeed(in.Seed),
		particle.WithRealType(rt),
		particle.WithLogger(logger),
	}
	switch in.Format {
	case convert.FormatNCache:
		c, err := particle.OpenNCache(ctx, store, in.Source, opts...)
		return c, scene.TypePoints, c, err
	case convert.FormatHair:
		h, err := particle.OpenHairCache(ctx, store, in.Source, opts...)
		return h, scene.TypeCurves, h, err
	default:
		p, err := particle.OpenPDC(ctx, store, in.Source, opts...)
		return p, scene.TypePoints, nopCloser{}, err
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Run executes the job and returns the number of samples written per path.
func (j *Job) Run(ctx context.Context, logger *sceneconv.Logger) (map[string]int, error) {
	out, err := j.Store.Open(ctx)
	if err != nil {
		return nil, err
	}
	in := out
	if j.InputStore != nil {
		if in, err = j.InputStore.Open(ctx); err != nil {
			return nil, err
		}
	}

	comp, _ := archive.ParseCompression(j.Compression)
	w, err := sceneconv.Create(ctx, out, j.Output,
		sceneconv.WithLogger(logger),
		sceneconv.WithCompression(comp),
		sceneconv.WithMaxWorkers(j.Workers),
	)
	if err != nil {
		return nil, err
	}

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	jobs := make([]sceneconv.Job, 0, len(j.Inputs))
	for _, input := range j.Inputs {
		src, typ, closer, err := openSource(ctx, in, input, logger.WithSource(input.Source).Logger)
		if err != nil {
			_ = w.Close(ctx)
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %w", sceneconv.ErrNotFound, err)
			}
			return nil, err
		}
		closers = append(closers, closer)

		r, err := sceneconv.NewReader(src, typ, sceneconv.WithLogger(logger))
		if err != nil {
			_ = w.Close(ctx)
			return nil, err
		}
		jobs = append(jobs, sceneconv.Job{Source: input.Source, Path: input.Path, Reader: r})
	}

	if err := w.ConvertAll(ctx, jobs); err != nil {
		_ = w.Close(ctx)
		return nil, err
	}
	counts := make(map[string]int, len(jobs))
	for _, job := range jobs {
		counts[job.Path] = len(w.SampleTimes(job.Path))
	}
	if err := w.Close(ctx); err != nil {
		return nil, err
	}
	if j.Publish {
		if err := sceneconv.Publish(ctx, out, j.Output); err != nil {
			return nil, err
		}
	}
	return counts, nil
}
