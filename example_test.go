package sceneconv_test

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/hupe1980/sceneconv"
	"github.com/hupe1980/sceneconv/blobstore"
	"github.com/hupe1980/sceneconv/particle"
	"github.com/hupe1980/sceneconv/scene"
	"github.com/hupe1980/sceneconv/testutil"
)

// Example_writeAndRead writes two samples of a mesh and reads one back.
func Example_writeAndRead() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	w, err := sceneconv.Create(ctx, store, "shot.scn")
	if err != nil {
		log.Fatal(err)
	}
	for _, t := range []float64{1, 2} {
		if err := w.Write(ctx, "/world/quad", testutil.Quad(), t); err != nil {
			log.Fatal(err)
		}
	}
	if err := w.Close(ctx); err != nil {
		log.Fatal(err)
	}

	s, err := sceneconv.Open(ctx, store, "shot.scn")
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	obj, err := s.ReadAt(ctx, "/world/quad", 1.9)
	if err != nil {
		log.Fatal(err)
	}
	times, _ := s.SampleTimes("/world/quad")
	fmt.Println(s.Paths(), times, obj.(*scene.Mesh).NumFaces())
	// Output: [/world /world/quad] [1 2] 1
}

// Example_typeMismatch shows that the first write to a path fixes its type.
func Example_typeMismatch() {
	ctx := context.Background()
	w, _ := sceneconv.Create(ctx, blobstore.NewMemoryStore(), "shot.scn")
	defer w.Close(ctx)

	_ = w.Write(ctx, "/thing", testutil.Quad(), 1)
	err := w.Write(ctx, "/thing", testutil.TwoCurves(), 2)

	var tm *sceneconv.ErrTypeMismatch
	fmt.Println(errors.As(err, &tm), tm.Want, tm.Got)
	// Output: true MeshPrimitive CurvesPrimitive
}

// Example_particles copies a PDC file into an archive.
func Example_particles() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	raw, _ := particle.EncodePDC(testutil.NewRNG(1).Points(100))
	_ = store.Put(ctx, "sparks.pdc", raw)

	pdc, err := particle.OpenPDC(ctx, store, "sparks.pdc", particle.WithPercentage(100))
	if err != nil {
		log.Fatal(err)
	}
	r, err := sceneconv.NewReader(pdc, scene.TypePoints)
	if err != nil {
		log.Fatal(err)
	}

	w, _ := sceneconv.Create(ctx, store, "fx.scn")
	n, err := w.Convert(ctx, "/fx/sparks", r)
	if err != nil {
		log.Fatal(err)
	}
	_ = w.Close(ctx)

	fmt.Printf("converted %d sample(s)\n", n)
	// Output: converted 1 sample(s)
}
