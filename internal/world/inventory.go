package world

const (
	DefaultInventorySlots = 36
	MaxStackSize          = 64
)

// ItemStack is a count of one item kind.
type ItemStack struct {
	Item  Material
	Count int
}

// Inventory holds a player's in-memory item slots.
// Accessed only from the game loop goroutine.
type Inventory struct {
	Slots    []ItemStack
	capacity int
}

// NewInventory creates an empty inventory with the given slot capacity.
func NewInventory(capacity int) *Inventory {
	if capacity <= 0 {
		capacity = DefaultInventorySlots
	}
	return &Inventory{
		Slots:    make([]ItemStack, 0, capacity),
		capacity: capacity,
	}
}

// Capacity returns the slot count.
func (inv *Inventory) Capacity() int { return inv.capacity }

// IsFull returns true if every slot is used and every stack is at max size.
func (inv *Inventory) IsFull() bool {
	if len(inv.Slots) < inv.capacity {
		return false
	}
	for _, s := range inv.Slots {
		if s.Count < MaxStackSize {
			return false
		}
	}
	return true
}

// Count returns the total number of item in the inventory.
func (inv *Inventory) Count(item Material) int {
	n := 0
	for _, s := range inv.Slots {
		if s.Item == item {
			n += s.Count
		}
	}
	return n
}

// Add tops up existing stacks first, then opens new slots. Returns the
// number that did not fit.
func (inv *Inventory) Add(stack ItemStack) int {
	left := stack.Count
	if left <= 0 || stack.Item == "" {
		return 0
	}
	for i := range inv.Slots {
		if left == 0 {
			return 0
		}
		s := &inv.Slots[i]
		if s.Item != stack.Item || s.Count >= MaxStackSize {
			continue
		}
		n := min(MaxStackSize-s.Count, left)
		s.Count += n
		left -= n
	}
	for left > 0 && len(inv.Slots) < inv.capacity {
		n := min(MaxStackSize, left)
		inv.Slots = append(inv.Slots, ItemStack{Item: stack.Item, Count: n})
		left -= n
	}
	return left
}

// AddAll adds every stack and returns the overflow, merged per item kind in
// input order.
func (inv *Inventory) AddAll(stacks []ItemStack) []ItemStack {
	var overflow []ItemStack
	for _, st := range stacks {
		if left := inv.Add(st); left > 0 {
			overflow = append(overflow, ItemStack{Item: st.Item, Count: left})
		}
	}
	return overflow
}
