package sceneconv

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/sceneconv/convert"
	"github.com/hupe1980/sceneconv/sampling"
)

// Job copies every sample of Reader to Path of a Writer.
type Job struct {
	// Source names the input in logs.
	Source string
	Path   string
	Reader convert.ObjectReader
}

// Convert copies every sample of r to p, in time order, and returns the
// number of samples written.
func (w *Writer) Convert(ctx context.Context, p string, r convert.ObjectReader) (int, error) {
	ts := r.TimeSampling()
	for i := range r.NumSamples() {
		obj, err := r.ReadSample(ctx, sampling.Index(i))
		if err != nil {
			return i, translateError(err)
		}
		if err := w.Write(ctx, p, obj, ts.At(i)); err != nil {
			return i, err
		}
	}
	return r.NumSamples(), nil
}

// ConvertAll runs jobs concurrently, bounded by WithMaxWorkers. Each job
// writes its own path. The first failure cancels the remaining jobs.
func (w *Writer) ConvertAll(ctx context.Context, jobs []Job) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		if err := w.rc.AcquireWorker(gctx); err != nil {
			break
		}
		g.Go(func() error {
			defer w.rc.ReleaseWorker()

			n, err := w.Convert(gctx, job.Path, job.Reader)
			w.opts.logger.WithSource(job.Source).LogConversion(gctx, job.Source, job.Path, n, err)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return translateError(ctx.Err())
}
