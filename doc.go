// Package sceneconv converts scene objects between an on-disk scene archive
// and an in-memory object model.
//
// Archives live in a blobstore.BlobStore: a local directory, memory, S3 or
// MinIO. Objects are meshes, curves, points and cameras; each object has a
// time sampling and one sample per time.
//
// # Reading
//
//	store := blobstore.NewLocalStore("./caches")
//	s, _ := sceneconv.Open(ctx, store, "shot010.scn")
//	defer s.Close()
//
//	obj, _ := s.ReadAt(ctx, "/world/hero/body", 1.25)
//	mesh := obj.(*scene.Mesh)
//
// ReadAt picks the sample nearest to the time. Use Read with a
// sampling.Selector for index or floor/ceil selection.
//
// # Writing
//
//	w, _ := sceneconv.Create(ctx, store, "shot010.scn",
//	    sceneconv.WithCompression(archive.CompressionZSTD))
//	for i, t := range times {
//	    _ = w.Write(ctx, "/world/hero/body", meshes[i], t)
//	}
//	_ = w.Close(ctx)
//	_ = sceneconv.Publish(ctx, store, "shot010.scn")
//
// The first write to a path fixes its type. Writing a different type there
// later fails with *ErrTypeMismatch, and sample times of a path must
// increase strictly.
//
// # Particle caches
//
// Maya nParticle caches, hair caches and PDC files are read through the
// particle package and copied into an archive with Writer.Convert:
//
//	c, _ := particle.OpenNCache(ctx, store, "fx/sparks.mc", particle.WithPercentage(25))
//	r, _ := sceneconv.NewReader(c, scene.TypePoints)
//	n, _ := w.Convert(ctx, "/fx/sparks", r)
//
// # Errors
//
// Errors returned by this package match the sentinels in errors.go with
// errors.Is; the underlying package errors stay reachable through
// errors.Unwrap.
package sceneconv
