package particle

import (
	"fmt"
	"log/slog"
)

// RealType selects the precision real valued channels are returned in.
type RealType int

const (
	// RealNative keeps the precision stored in the file.
	RealNative RealType = iota
	// RealFloat converts to float32.
	RealFloat
	// RealDouble converts to float64.
	RealDouble
)

func (r RealType) String() string {
	switch r {
	case RealNative:
		return "native"
	case RealFloat:
		return "float"
	case RealDouble:
		return "double"
	default:
		return fmt.Sprintf("RealType(%d)", int(r))
	}
}

// ParseRealType parses "native", "float" or "double".
func ParseRealType(s string) (RealType, error) {
	switch s {
	case "", "native":
		return RealNative, nil
	case "float":
		return RealFloat, nil
	case "double":
		return RealDouble, nil
	default:
		return RealNative, fmt.Errorf("particle: unknown real type %q", s)
	}
}

// Options configure particle readers.
type Options struct {
	RealType   RealType
	Percentage float32
	Seed       int64
	Logger     *slog.Logger
}

// Option configures Options.
type Option func(*Options)

// WithRealType sets the precision of real valued channels.
func WithRealType(t RealType) Option {
	return func(o *Options) { o.RealType = t }
}

// WithPercentage keeps roughly p percent of the particles. Values of 100 or
// more keep everything.
func WithPercentage(p float32) Option {
	return func(o *Options) { o.Percentage = p }
}

// WithSeed seeds the percentage filter.
func WithSeed(seed int64) Option {
	return func(o *Options) { o.Seed = seed }
}

// WithLogger sets the logger warnings are reported on.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

func buildOptions(opts []Option) Options {
	o := Options{
		RealType:   RealNative,
		Percentage: 100,
		Logger:     slog.New(slog.DiscardHandler),
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
