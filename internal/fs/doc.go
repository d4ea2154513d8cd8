// Package fs is the file system seam under blobstore.LocalStore.
//
// Production code uses [Default]. Tests wrap it in a [FaultyFS] to make
// writes, syncs or closes of matching files fail:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("shot.scn", fs.Fault{FailOnSync: true})
//	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
//
// Reads do not go through this package; LocalStore maps blobs directly.
package fs
