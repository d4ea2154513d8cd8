package codec

import (
	"fmt"
	"testing"
)

// The payload mirrors the shape of an archive manifest: a tree of objects,
// each with per-sample block references for its properties.

type benchBlock struct {
	Offset int64 `json:"offset" yaml:"offset"`
	Length int64 `json:"length" yaml:"length"`
}

type benchProperty struct {
	Name    string       `json:"name" yaml:"name"`
	Type    string       `json:"type" yaml:"type"`
	Scope   string       `json:"scope" yaml:"scope"`
	Samples []benchBlock `json:"samples" yaml:"samples"`
}

type benchObject struct {
	Name       string          `json:"name" yaml:"name"`
	Schema     string          `json:"schema,omitempty" yaml:"schema,omitempty"`
	Times      []float64       `json:"times,omitempty" yaml:"times,omitempty"`
	Properties []benchProperty `json:"properties,omitempty" yaml:"properties,omitempty"`
	Children   []benchObject   `json:"children,omitempty" yaml:"children,omitempty"`
}

// benchManifest returns a root holding the given number of meshes with 48
// samples each.
func benchManifest(objects int) benchObject {
	const samples = 48
	times := make([]float64, samples)
	for i := range times {
		times[i] = float64(i+1) / 24
	}

	root := benchObject{Name: ""}
	var off int64
	for i := range objects {
		obj := benchObject{Name: fmt.Sprintf("geo%03d", i), Schema: "PolyMesh", Times: times}
		for _, p := range []struct{ name, typ, scope string }{
			{"P", "float32[3]:point", "vertex"},
			{".faceCounts", "int32", "uniform"},
			{".faceIndices", "int32", "facevarying"},
			{"N", "float32[3]:normal", "facevarying"},
			{"uv", "float32[2]", "facevarying"},
		} {
			prop := benchProperty{Name: p.name, Type: p.typ, Scope: p.scope}
			for range samples {
				prop.Samples = append(prop.Samples, benchBlock{Offset: off, Length: 4096})
				off += 4096
			}
			obj.Properties = append(obj.Properties, prop)
		}
		root.Children = append(root.Children, obj)
	}
	return root
}

func benchmarkMarshal(b *testing.B, c Codec, v any) {
	b.Helper()
	b.ReportAllocs()

	warm, err := c.Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(warm)))

	b.ResetTimer()
	for b.Loop() {
		if _, err := c.Marshal(v); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkUnmarshal(b *testing.B, c Codec, raw []byte) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(raw)))

	b.ResetTimer()
	for b.Loop() {
		var v benchObject
		if err := c.Unmarshal(raw, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCodec_Manifest(b *testing.B) {
	m := benchManifest(64)

	for _, c := range []Codec{JSON{}, GoJSON{}, YAML{}} {
		raw := MustMarshal(c, m)
		b.Run("marshal/"+c.Name(), func(b *testing.B) { benchmarkMarshal(b, c, m) })
		b.Run("unmarshal/"+c.Name(), func(b *testing.B) { benchmarkUnmarshal(b, c, raw) })
	}
}
