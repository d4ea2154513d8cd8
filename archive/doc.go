// Package archive implements the geometry archive: a self-describing,
// block-compressed container of animated scene objects stored in a
// blobstore.BlobStore.
//
// # Layout
//
// An archive is a single blob:
//
//	header   "SCNA" | format version u16 | compression u8 | codec name len u8 | codec name
//	blocks   sample payloads, each [uncompressed u32][compressed u32][crc32c u32][data]
//	manifest codec-encoded object tree, stored as one more block
//	footer   manifest offset u64 | manifest length u64 | "SCNA"
//
// All integers are little-endian, and so are the components of fixed-size
// sample payloads (a V3d is three little-endian float64s) regardless of the
// host byte order. Strings are a uvarint length followed by their bytes.
// Decoding copies each payload out of its block into freshly allocated,
// element-aligned memory. Identical sample payloads are written once
// and shared between samples, so properties that do not change over time cost
// a single block.
//
// # Objects and properties
//
// Objects form a tree addressed by slash-separated paths. Each object has a
// schema (PolyMesh, SubD, Curves, Points, Camera or Xform), a time sampling
// and a set of named properties. Standard properties belong to the schema;
// arbitrary geometry parameters live in a separate set so readers can
// enumerate them generically.
//
// # Usage
//
//	w, err := archive.Create(ctx, store, "shot.scn")
//	mesh, err := w.Root().CreateChild("mesh", archive.SchemaPolyMesh)
//	err = mesh.SetTimeSampling(ts)
//	err = mesh.WriteSample(ctx, sample)
//	err = w.Close(ctx)
//
//	r, err := archive.Open(ctx, store, "shot.scn")
//	obj, ok := r.Find("/mesh")
//	ps, err := obj.ReadProperty(ctx, "P", 0)
package archive
