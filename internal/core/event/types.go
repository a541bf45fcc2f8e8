package event

import "github.com/prisonforge/server/internal/world"

// Host events. Adapters for the embedding server emit these; nothing in the
// engine emits them itself except BlockBroken.

type PlayerJoined struct {
	Actor world.ActorID
	Name  string
	At    world.Vec3
	World string
}

type PlayerDisconnected struct {
	Actor world.ActorID
}

// BlockBroken fires for every broken block, including blocks broken by an
// ability activation. Marked coordinates must not re-trigger abilities.
type BlockBroken struct {
	Actor world.ActorID
	At    world.Coord
	Was   world.Material
}

type AbilityRequested struct {
	Actor world.ActorID
	Kind  string
}

type PluginDisabled struct{}
