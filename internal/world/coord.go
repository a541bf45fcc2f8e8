package world

import (
	"fmt"
	"math"
)

// ActorID identifies a player for the lifetime of the process.
type ActorID uint64

// Material names a block or item kind, e.g. "STONE".
type Material string

const Air Material = "AIR"

// Coord is an immutable block coordinate. Value equality is identity.
type Coord struct {
	World   string
	X, Y, Z int
}

func (c Coord) Add(dx, dy, dz int) Coord {
	return Coord{World: c.World, X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}
}

// Center returns the middle of the block in world space.
func (c Coord) Center() Vec3 {
	return Vec3{X: float64(c.X) + 0.5, Y: float64(c.Y) + 0.5, Z: float64(c.Z) + 0.5}
}

func (c Coord) String() string {
	return fmt.Sprintf("%s(%d,%d,%d)", c.World, c.X, c.Y, c.Z)
}

// Vec3 is a world-space position or direction.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{v.X * f, v.Y * f, v.Z * f}
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Lerp interpolates from v to o; t=0 is v, t=1 is o.
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return v.Add(o.Sub(v).Scale(t))
}

// Normalize returns the unit vector, or the zero vector unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Block returns the coordinate of the block containing v.
func (v Vec3) Block(world string) Coord {
	return Coord{
		World: world,
		X:     int(math.Floor(v.X)),
		Y:     int(math.Floor(v.Y)),
		Z:     int(math.Floor(v.Z)),
	}
}
