package octree

// octantID addresses an octant inside a Pool. The zero value means no octant.
type octantID uint32

// Pool is a fixed-size block allocator for octants.
//
// Octants are stored in blocks that are never moved or freed, so an octant
// keeps its address while it is reserved. Released octants go back to a free
// list and are handed out again before the pool grows by another block.
// Octrees sharing a pool must be used from the same goroutine.
type Pool struct {
	blocks    [][]Octant
	free      []octantID
	blockSize int
	inUse     int
}

// NewPool returns a pool that grows by blockSize octants at a time.
// A non-positive blockSize selects the default.
func NewPool(blockSize int) *Pool {
	if blockSize <= 0 {
		blockSize = pooledBufferSize
	}
	return &Pool{blockSize: blockSize}
}

// Capacity returns the number of octants the pool can serve without growing.
func (p *Pool) Capacity() int {
	return len(p.blocks) * p.blockSize
}

// InUse returns the number of reserved octants.
func (p *Pool) InUse() int {
	return p.inUse
}

// reserve returns a zeroed octant id, growing the pool if the free list is exhausted.
func (p *Pool) reserve() octantID {
	if len(p.free) == 0 {
		p.grow()
	}

	id := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.inUse++
	return id
}

// release returns the octant to the free list. The node slice keeps its
// backing array for the next user of the slot.
func (p *Pool) release(id octantID) {
	o := p.get(id)
	nodes := o.nodes
	clear(nodes)
	*o = Octant{nodes: nodes[:0]}

	p.free = append(p.free, id)
	p.inUse--
}

// Pool is exhausted make more
func (p *Pool) grow() {
	base := len(p.blocks) * p.blockSize
	p.blocks = append(p.blocks, make([]Octant, p.blockSize))

	// Lowest ids are popped first.
	for i := p.blockSize; i > 0; i-- {
		p.free = append(p.free, octantID(base+i))
	}
}

func (p *Pool) get(id octantID) *Octant {
	if id == 0 {
		return nil
	}
	i := int(id) - 1
	return &p.blocks[i/p.blockSize][i%p.blockSize]
}
