package convert

import (
	"fmt"
	"sync"

	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/scene"
)

// Registration is one registered variant.
type Registration[S Described, C any] struct {
	Name     string
	Match    func(Descriptor) bool
	Produces scene.TypeID
	New      func(src S, o Options) C
}

// Registry maps sources to converter variants. Lookups scan registrations in
// order and the first match wins. It is safe for concurrent use.
type Registry[S Described, C any] struct {
	mu    sync.RWMutex
	regs  []Registration[S, C]
	names map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry[S Described, C any]() *Registry[S, C] {
	return &Registry[S, C]{names: make(map[string]struct{})}
}

// Register appends a variant. It returns ErrAlreadyRegistered when name is
// taken, which makes repeated registration of the same variants harmless.
func (r *Registry[S, C]) Register(name string, match func(Descriptor) bool, produces scene.TypeID, ctor func(S, Options) C) error {
	if match == nil || ctor == nil {
		return fmt.Errorf("convert: registration %q needs a predicate and a constructor", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.names[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	r.names[name] = struct{}{}
	r.regs = append(r.regs, Registration[S, C]{Name: name, Match: match, Produces: produces, New: ctor})
	return nil
}

// Create builds the first variant that accepts src and produces a type
// that IsA desired.
func (r *Registry[S, C]) Create(src S, desired scene.TypeID, opts ...Option) (C, bool) {
	r.mu.RLock()
	reg, ok := r.lookup(src.Descriptor(), desired)
	r.mu.RUnlock()

	if !ok {
		var zero C
		return zero, false
	}
	return reg.New(src, buildOptions(opts)), true
}

// Lookup returns the registration Create would use.
func (r *Registry[S, C]) Lookup(d Descriptor, desired scene.TypeID) (Registration[S, C], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(d, desired)
}

func (r *Registry[S, C]) lookup(d Descriptor, desired scene.TypeID) (Registration[S, C], bool) {
	for _, reg := range r.regs {
		if reg.Produces.IsA(desired) && reg.Match(d) {
			return reg, true
		}
	}
	return Registration[S, C]{}, false
}

// Names returns the registration names in lookup order.
func (r *Registry[S, C]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.regs))
	for i, reg := range r.regs {
		out[i] = reg.Name
	}
	return out
}

// Len returns the number of registrations.
func (r *Registry[S, C]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.regs)
}

// ReaderRegistry creates ObjectReaders for sources.
type ReaderRegistry = Registry[Source, ObjectReader]

// WriterRegistry creates ObjectWriters for write targets.
type WriterRegistry = Registry[WriteTarget, ObjectWriter]

var (
	readers      = NewRegistry[Source, ObjectReader]()
	writers      = NewRegistry[WriteTarget, ObjectWriter]()
	defaultsOnce sync.Once
)

// RegisterDefaults registers the built-in archive readers and writers. It
// runs once; later calls do nothing.
func RegisterDefaults() {
	defaultsOnce.Do(func() {
		registerReaders(readers)
		registerWriters(writers)
	})
}

// Readers returns the process-wide reader registry with the defaults
// registered.
func Readers() *ReaderRegistry {
	RegisterDefaults()
	return readers
}

// Writers returns the process-wide writer registry with the defaults
// registered.
func Writers() *WriterRegistry {
	RegisterDefaults()
	return writers
}

// NewReader creates a reader for src from the process-wide registry.
func NewReader(src Source, desired scene.TypeID, opts ...Option) (ObjectReader, bool) {
	return Readers().Create(src, desired, opts...)
}

// NewWriter creates a writer for target from the process-wide registry.
func NewWriter(target WriteTarget, opts ...Option) (ObjectWriter, bool) {
	return Writers().Create(target, target.Type, opts...)
}

// archiveSchema matches archive sources of one schema.
func archiveSchema(schema string) func(Descriptor) bool {
	return func(d Descriptor) bool {
		return d.Format == FormatArchive && d.Schema == schema
	}
}

func registerReaders(reg *ReaderRegistry) {
	_ = reg.Register("archive.mesh.legacy", func(d Descriptor) bool {
		return archiveSchema(archive.SchemaPolyMesh)(d) && d.Version == archive.FormatVersionLegacy
	}, scene.TypeMesh, newLegacyMeshReader)
	_ = reg.Register("archive.mesh", archiveSchema(archive.SchemaPolyMesh), scene.TypeMesh, newMeshReader)
	_ = reg.Register("archive.subd", archiveSchema(archive.SchemaSubD), scene.TypeMesh, newSubDReader)
	_ = reg.Register("archive.curves", archiveSchema(archive.SchemaCurves), scene.TypeCurves, newCurvesReader)
	_ = reg.Register("archive.points", archiveSchema(archive.SchemaPoints), scene.TypePoints, newPointsReader)
	_ = reg.Register("archive.camera", archiveSchema(archive.SchemaCamera), scene.TypeCamera, newCameraReader)
}

func registerWriters(reg *WriterRegistry) {
	match := func(d Descriptor) bool { return d.Format == FormatArchive }
	_ = reg.Register("archive.mesh", match, scene.TypeMesh, newMeshWriter)
	_ = reg.Register("archive.curves", match, scene.TypeCurves, newCurvesWriter)
	_ = reg.Register("archive.points", match, scene.TypePoints, newPointsWriter)
}
