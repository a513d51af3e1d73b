package ecs

// EntityID encodes a 32-bit slot index in the lower bits and a 32-bit
// generation in the upper bits. The generation increments when the slot is
// freed, so a handle kept past erasure no longer resolves.
type EntityID uint64

func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }
func (id EntityID) IsZero() bool       { return id == 0 }

// EntityPool is the arena every parent, child and owner handle points
// into. Slot 0 is never handed out so the zero EntityID means "none".
type EntityPool struct {
	generations []uint32
	slots       []*Entity
	freeList    []uint32
	nextIndex   uint32
	live        int
}

func NewEntityPool() *EntityPool {
	return &EntityPool{
		generations: make([]uint32, 1, 1024),
		slots:       make([]*Entity, 1, 1024),
		freeList:    make([]uint32, 0, 256),
		nextIndex:   1,
	}
}

// Create stores e in a free slot and returns its handle.
func (p *EntityPool) Create(e *Entity) EntityID {
	p.live++
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		p.slots[idx] = e
		return NewEntityID(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	p.generations = append(p.generations, 0)
	p.slots = append(p.slots, e)
	return NewEntityID(idx, p.generations[idx])
}

func (p *EntityPool) Alive(id EntityID) bool {
	idx := id.Index()
	if idx == 0 || idx >= p.nextIndex {
		return false
	}
	return p.generations[idx] == id.Generation() && p.slots[idx] != nil
}

// Get resolves a handle. Stale or zero handles return false.
func (p *EntityPool) Get(id EntityID) (*Entity, bool) {
	if !p.Alive(id) {
		return nil, false
	}
	return p.slots[id.Index()], true
}

// Destroy frees the slot behind id. Stale handles are ignored.
func (p *EntityPool) Destroy(id EntityID) {
	if !p.Alive(id) {
		return
	}
	idx := id.Index()
	p.generations[idx]++
	p.slots[idx] = nil
	p.freeList = append(p.freeList, idx)
	p.live--
}

// Len returns the number of occupied slots.
func (p *EntityPool) Len() int {
	return p.live
}
