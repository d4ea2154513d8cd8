package scene

import "github.com/hupe1980/sceneconv/data"

// ProjectionPerspective is the only projection readers produce.
const ProjectionPerspective = "perspective"

// Camera describes a viewing projection.
type Camera struct {
	Projection   string
	ScreenWindow data.Box2f
	// FieldOfView is the horizontal field of view in degrees.
	FieldOfView float32
}

func (c *Camera) TypeID() TypeID { return TypeCamera }

func (c *Camera) Copy() Object {
	cp := *c
	return &cp
}
