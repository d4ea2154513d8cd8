// Package convert translates between archive objects and the scene model.
//
// Readers (ObjectReader) turn an archive object into scene objects, one
// sample at a time. Writers (ObjectWriter) append scene objects to an archive
// object. Both are created through process-wide registries that pick the
// first registered variant whose predicate accepts the source descriptor:
//
//	r, ok := convert.NewReader(convert.FromArchive(obj), scene.TypeObject)
//	if !ok {
//	    return fmt.Errorf("no reader for %s", obj.Path())
//	}
//	mesh, err := r.ReadSample(ctx, sampling.Time(1.5, sampling.Nearest))
//
// Fields that cannot be represented (unknown types, array extents above one,
// invalid scopes) are skipped and reported as warnings on the configured
// logger; they never fail a read.
package convert
