package convert

import (
	"context"
	"log/slog"

	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/sampling"
	"github.com/hupe1980/sceneconv/scene"
)

// Source formats.
const (
	FormatArchive = "scn"
	FormatNCache  = "ncache"
	FormatHair    = "hair"
	FormatPDC     = "pdc"
)

// Descriptor is the structural description registry predicates look at.
type Descriptor struct {
	Format  string
	Schema  string
	Version int
}

// Described is implemented by everything a registry can dispatch on.
type Described interface {
	Descriptor() Descriptor
}

// Source is a readable scene object.
type Source interface {
	Described
	// Path names the object for diagnostics.
	Path() string
}

// ArchiveSource is a Source backed by an archive object.
type ArchiveSource struct {
	obj *archive.Object
}

// FromArchive wraps an archive object as a Source.
func FromArchive(obj *archive.Object) ArchiveSource {
	return ArchiveSource{obj: obj}
}

func (s ArchiveSource) Descriptor() Descriptor {
	return Descriptor{Format: FormatArchive, Schema: s.obj.Schema(), Version: s.obj.FormatVersion()}
}

func (s ArchiveSource) Path() string { return s.obj.Path() }

// Object returns the wrapped archive object.
func (s ArchiveSource) Object() *archive.Object { return s.obj }

// ObjectReader reads scene objects from a source.
type ObjectReader interface {
	NumSamples() int
	TimeSampling() sampling.TimeSampling
	BoundsAt(ctx context.Context, sel sampling.Selector) (data.Box3d, error)
	ReadSample(ctx context.Context, sel sampling.Selector) (scene.Object, error)
}

// ObjectWriter appends scene objects to a target.
type ObjectWriter interface {
	SupportedType() scene.TypeID
	SampleTimes() []float64
	Convert(ctx context.Context, obj scene.Object, time float64) error
}

// WriteTarget names the archive object a writer creates on first use.
type WriteTarget struct {
	Parent *archive.OObject
	Name   string
	Type   scene.TypeID
}

func (t WriteTarget) Descriptor() Descriptor {
	return Descriptor{Format: FormatArchive, Schema: schemaForType(t.Type)}
}

func schemaForType(t scene.TypeID) string {
	switch t {
	case scene.TypeMesh:
		return archive.SchemaPolyMesh
	case scene.TypeCurves:
		return archive.SchemaCurves
	case scene.TypePoints:
		return archive.SchemaPoints
	case scene.TypeCamera:
		return archive.SchemaCamera
	default:
		return ""
	}
}

// Options configure readers and writers created through a registry.
type Options struct {
	Logger *slog.Logger
}

// Option configures Options.
type Option func(*Options)

// WithLogger sets the logger warnings are reported on.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

func buildOptions(opts []Option) Options {
	o := Options{Logger: slog.New(slog.DiscardHandler)}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
