// Package particle reads Maya particle data into scene primitives.
//
// Three sources are supported:
//
//   - nParticle caches (.mc), chunked files with one MYCH group per frame
//     holding named channels. Each frame becomes a *scene.Points.
//   - Hair system caches (.mchp), one HAIR group per frame holding per hair
//     positions and optional velocities. Each frame becomes linear
//     *scene.Curves.
//   - Particle disk caches (.pdc), a single frame of typed attribute records.
//     PDC files can be written as well as read.
//
// Readers can keep a stable random subset of the particles with
// WithPercentage. When the source stores particle ids, the same particles
// survive in every frame.
//
// Register adds all three readers to a convert.ReaderRegistry so they can be
// used wherever archive readers are:
//
//	reg := convert.NewRegistry[convert.Source, convert.ObjectReader]()
//	if err := particle.Register(reg); err != nil {
//		return err
//	}
//	c, err := particle.OpenNCache(ctx, store, "nParticleShape1.mc")
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//	r, _ := reg.Create(c, scene.TypePoints)
package particle
