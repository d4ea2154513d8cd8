package particle

import (
	"math/rand/v2"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/internal/hash"
)

// Selection is the set of particles a percentage filter keeps. A nil
// Selection keeps every particle.
type Selection struct {
	keep *roaring.Bitmap
}

// Select picks particles to keep out of n. With ids the choice depends only
// on each particle's id and the seed, so the same particles survive in every
// frame of a cache. Without ids particles are drawn in order from a seeded
// generator.
func Select(n int, percentage float32, seed int64, ids []int64) *Selection {
	if percentage >= 100 {
		return nil
	}
	frac := float64(percentage) / 100
	keep := roaring.New()

	if ids != nil {
		for i, id := range ids {
			if unit(hash.Combine(uint64(seed), uint64(id))) < frac {
				keep.Add(uint32(i))
			}
		}
		return &Selection{keep: keep}
	}

	r := rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))
	for i := range n {
		if r.Float64() < frac {
			keep.Add(uint32(i))
		}
	}
	return &Selection{keep: keep}
}

func unit(h uint64) float64 {
	return float64(h>>11) / (1 << 53)
}

// Len returns the number of kept particles out of n.
func (s *Selection) Len(n int) int {
	if s == nil {
		return n
	}
	return int(s.keep.GetCardinality())
}

// Contains reports whether particle i is kept.
func (s *Selection) Contains(i int) bool {
	return s == nil || s.keep.Contains(uint32(i))
}

// Apply returns the kept elements of a per-particle array. Single values
// and a nil Selection pass through.
func (s *Selection) Apply(d data.Data) (data.Data, error) {
	if s == nil || !d.IsArray() {
		return d, nil
	}
	kept := s.keep.ToArray()
	indices := make([]int32, len(kept))
	for i, k := range kept {
		indices[i] = int32(k)
	}
	return data.Gather(d, indices)
}

// ApplyValues is Apply for plain slices.
func ApplyValues[T any](s *Selection, v []T) []T {
	if s == nil {
		return v
	}
	out := make([]T, 0, s.keep.GetCardinality())
	it := s.keep.Iterator()
	for it.HasNext() {
		out = append(out, v[it.Next()])
	}
	return out
}
