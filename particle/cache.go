package particle

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hupe1980/sceneconv/convert"
	"github.com/hupe1980/sceneconv/iff"
)

// TicksPerSecond is the time unit of Maya cache frames.
const TicksPerSecond = 6000

var (
	// ErrNotCache is returned when a chunk stream does not start with a
	// CACH group.
	ErrNotCache = errors.New("particle: not a Maya cache")

	// ErrFrameOutOfRange is returned for frame indices outside a cache.
	ErrFrameOutOfRange = errors.New("particle: frame index out of range")

	// ErrMalformed is returned when a cache is internally inconsistent.
	ErrMalformed = errors.New("particle: malformed cache")
)

var (
	tagCACH = iff.MakeTag("CACH")
	tagMYCH = iff.MakeTag("MYCH")
	tagHAIR = iff.MakeTag("HAIR")
	tagVRSN = iff.MakeTag("VRSN")
	tagSTIM = iff.MakeTag("STIM")
	tagETIM = iff.MakeTag("ETIM")
	tagTYPE = iff.MakeTag("TYPE")
	tagRATE = iff.MakeTag("RATE")
	tagTIME = iff.MakeTag("TIME")
	tagCHNM = iff.MakeTag("CHNM")
	tagSIZE = iff.MakeTag("SIZE")
	tagDBLA = iff.MakeTag("DBLA")
	tagDVCA = iff.MakeTag("DVCA")
	tagFVCA = iff.MakeTag("FVCA")
	tagNMHA = iff.MakeTag("NMHA")
	tagNMCV = iff.MakeTag("NMCV")
	tagPOSS = iff.MakeTag("POSS")
	tagVELS = iff.MakeTag("VELS")
)

type frame struct {
	time  int32
	chunk *iff.Chunk
}

// cacheHeader returns the CACH group every cache starts with.
func cacheHeader(f *iff.File) (*iff.Chunk, []*iff.Chunk, error) {
	top, err := f.Root().Children()
	if err != nil {
		return nil, nil, err
	}
	if len(top) == 0 || !top[0].IsGroupOf(tagCACH) {
		return nil, nil, fmt.Errorf("particle %s: %w", f.Name(), ErrNotCache)
	}
	return top[0], top[1:], nil
}

// scanFrames indexes the body groups by their TIME chunk. A single body
// without TIME is placed at start. Later groups win on duplicate times.
func scanFrames(groups []*iff.Chunk, body iff.Tag, start int32) ([]frame, error) {
	byTime := make(map[int32]*iff.Chunk)
	var untimed []*iff.Chunk
	for _, g := range groups {
		if !g.IsGroupOf(body) {
			continue
		}
		tc, ok, err := g.Find(tagTIME)
		if err != nil {
			return nil, err
		}
		if !ok {
			untimed = append(untimed, g)
			continue
		}
		t, err := iff.Read[int32](tc)
		if err != nil {
			return nil, err
		}
		byTime[t] = g
	}
	if len(byTime) == 0 && len(untimed) == 1 {
		byTime[start] = untimed[0]
	}

	frames := make([]frame, 0, len(byTime))
	for t, c := range byTime {
		frames = append(frames, frame{time: t, chunk: c})
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].time < frames[j].time })
	return frames, nil
}

func frameAt(name string, frames []frame, i int) (frame, error) {
	if i < 0 || i >= len(frames) {
		return frame{}, fmt.Errorf("particle %s: %w: %d of %d", name, ErrFrameOutOfRange, i, len(frames))
	}
	return frames[i], nil
}

func frameTimes(frames []frame) []int32 {
	out := make([]int32, len(frames))
	for i, f := range frames {
		out[i] = f.time
	}
	return out
}

func canceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", convert.ErrCanceled, err)
	}
	return nil
}
