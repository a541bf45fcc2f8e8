package packet

// Bridge protocol version. A host announcing a different version is
// disconnected after the hello.
const ProtocolVersion = 3

// Host → engine.
const (
	C_OPCODE_HELLO       byte = 1  // D version, S host name
	C_OPCODE_JOIN        byte = 2  // Q actor, S name, S world, F x y z
	C_OPCODE_QUIT        byte = 3  // Q actor
	C_OPCODE_MOVE        byte = 4  // Q actor, S world, F x y z, F facing x y z
	C_OPCODE_BLOCK_BREAK byte = 5  // Q actor, coord, S material it was
	C_OPCODE_BLOCK_SET   byte = 6  // coord, S material
	C_OPCODE_ABILITY     byte = 7  // Q actor, S kind
	C_OPCODE_PERMISSION  byte = 8  // Q actor, S node, bool granted
	C_OPCODE_DISABLE     byte = 9  // no body
	C_OPCODE_BALANCE     byte = 10 // Q actor, S kind, F amount (absolute)
	C_OPCODE_BOOSTER     byte = 11 // Q actor, S reward kind ("" = all), F factor, D ticks
)

// Engine → host.
const (
	S_OPCODE_INIT           byte = 100 // D version, S server name, D tick millis
	S_OPCODE_BAR_SHOW       byte = 101 // Q bar, Q actor, S title, F progress
	S_OPCODE_BAR_UPDATE     byte = 102 // Q bar, S title, F progress
	S_OPCODE_BAR_REMOVE     byte = 103 // Q bar
	S_OPCODE_TITLE          byte = 104 // Q actor, S title, S subtitle
	S_OPCODE_MESSAGE        byte = 105 // Q actor, S text
	S_OPCODE_SOUND          byte = 106 // audience, coord, S sound
	S_OPCODE_PARTICLE       byte = 107 // audience, coord, S particle, H count
	S_OPCODE_FLOAT_SPAWN    byte = 108 // Q entity, coord, S material
	S_OPCODE_FLOAT_MOVE     byte = 109 // Q entity, F x y z, F yaw
	S_OPCODE_FLOAT_REMOVE   byte = 110 // Q entity
	S_OPCODE_FOOTPRINT_SHOW byte = 111 // S key, coord, D radius
	S_OPCODE_FOOTPRINT_HIDE byte = 112 // S key
	S_OPCODE_BLOCK_SET      byte = 113 // coord, S material
	S_OPCODE_DROP           byte = 114 // Q ground id, Q owner, coord, S material, D count
	S_OPCODE_DISCONNECT     byte = 115 // S reason
	S_OPCODE_DROP_EXPIRE    byte = 116 // Q ground id
)

var opcodeNames = map[byte]string{
	C_OPCODE_HELLO:          "C_HELLO",
	C_OPCODE_JOIN:           "C_JOIN",
	C_OPCODE_QUIT:           "C_QUIT",
	C_OPCODE_MOVE:           "C_MOVE",
	C_OPCODE_BLOCK_BREAK:    "C_BLOCK_BREAK",
	C_OPCODE_BLOCK_SET:      "C_BLOCK_SET",
	C_OPCODE_ABILITY:        "C_ABILITY",
	C_OPCODE_PERMISSION:     "C_PERMISSION",
	C_OPCODE_DISABLE:        "C_DISABLE",
	C_OPCODE_BALANCE:        "C_BALANCE",
	C_OPCODE_BOOSTER:        "C_BOOSTER",
	S_OPCODE_INIT:           "S_INIT",
	S_OPCODE_BAR_SHOW:       "S_BAR_SHOW",
	S_OPCODE_BAR_UPDATE:     "S_BAR_UPDATE",
	S_OPCODE_BAR_REMOVE:     "S_BAR_REMOVE",
	S_OPCODE_TITLE:          "S_TITLE",
	S_OPCODE_MESSAGE:        "S_MESSAGE",
	S_OPCODE_SOUND:          "S_SOUND",
	S_OPCODE_PARTICLE:       "S_PARTICLE",
	S_OPCODE_FLOAT_SPAWN:    "S_FLOAT_SPAWN",
	S_OPCODE_FLOAT_MOVE:     "S_FLOAT_MOVE",
	S_OPCODE_FLOAT_REMOVE:   "S_FLOAT_REMOVE",
	S_OPCODE_FOOTPRINT_SHOW: "S_FOOTPRINT_SHOW",
	S_OPCODE_FOOTPRINT_HIDE: "S_FOOTPRINT_HIDE",
	S_OPCODE_BLOCK_SET:      "S_BLOCK_SET",
	S_OPCODE_DROP:           "S_DROP",
	S_OPCODE_DISCONNECT:     "S_DISCONNECT",
	S_OPCODE_DROP_EXPIRE:    "S_DROP_EXPIRE",
}

// OpcodeName returns a readable name for logs.
func OpcodeName(op byte) string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return "UNKNOWN"
}
