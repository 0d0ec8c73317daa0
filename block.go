package tantivy

import (
	"fmt"

	"go.uber.org/zap"
)

// BlockID identifies one block in a BlockStore's arena.
type BlockID uint32

// noBlock is the BlockID sentinel used where the original Rust source used
// Option<BlockId>::None: no next block in a chain.
const noBlock BlockID = 1<<32 - 1

// block is one fixed-capacity storage unit in the arena. data is sized to
// capacity and used up to len; next chains to the following block in the
// same TermChain, or noBlock at the tail.
type block struct {
	data []byte
	len  int
	next BlockID
}

// TermChain is a per-term, append-only byte stream realized as a linked
// list of arena blocks. The zero value is an empty, not-yet-allocated
// chain: BlockStore.WriteBytes allocates the head lazily on first use.
type TermChain struct {
	started bool
	head    BlockID
	tail    BlockID
	length  int
}

// BlockStore is the fixed-size block arena shared by every PostingsWriter
// in a SegmentWriter. It pre-allocates Capacity block slots plus a free
// list, hands blocks out on demand, and links them into per-term chains. A
// block's BlockSize bytes of storage are allocated the first time the block
// is handed out, not up front. Blocks are never returned to the free list:
// there is no reset, and each SegmentWriter builds a fresh BlockStore.
type BlockStore struct {
	blockSize int
	blocks    []block
	free      []BlockID
	logger    *zap.Logger
}

// NewBlockStore builds an arena of capacity blocks of blockSize bytes each.
// Only the block slots and free list are allocated here; each block's bytes
// are allocated when it is first handed out.
func NewBlockStore(blockSize, capacity int, logger *zap.Logger) *BlockStore {
	bs := &BlockStore{
		blockSize: blockSize,
		blocks:    make([]block, capacity),
		free:      make([]BlockID, capacity),
		logger:    loggerOrNop(logger),
	}
	for i := range bs.blocks {
		bs.blocks[i].next = noBlock
		bs.free[i] = BlockID(capacity - 1 - i) // pop from the end, hand out block 0 first
	}
	return bs
}

// NumFreeBlocks returns the number of blocks still available for
// allocation.
func (bs *BlockStore) NumFreeBlocks() int {
	return len(bs.free)
}

// allocate pops a block off the free list.
func (bs *BlockStore) allocate() (BlockID, error) {
	if len(bs.free) == 0 {
		bs.logger.Warn("block store exhausted")
		return 0, ErrOutOfBlocks
	}
	id := bs.free[len(bs.free)-1]
	bs.free = bs.free[:len(bs.free)-1]
	bs.blocks[id].len = 0
	bs.blocks[id].next = noBlock
	if bs.blocks[id].data == nil {
		bs.blocks[id].data = make([]byte, bs.blockSize)
	}
	return id, nil
}

// WriteBytes appends p to chain's tail, allocating and linking new blocks
// as needed. A zero-value chain allocates its head block on first write.
func (bs *BlockStore) WriteBytes(chain *TermChain, p []byte) error {
	if !chain.started {
		id, err := bs.allocate()
		if err != nil {
			return err
		}
		chain.head, chain.tail = id, id
		chain.started = true
	}

	for len(p) > 0 {
		tail := &bs.blocks[chain.tail]
		room := bs.blockSize - tail.len
		if room == 0 {
			id, err := bs.allocate()
			if err != nil {
				return err
			}
			bs.blocks[chain.tail].next = id
			chain.tail = id
			tail = &bs.blocks[chain.tail]
			room = bs.blockSize
		}

		n := len(p)
		if n > room {
			n = room
		}
		copy(tail.data[tail.len:], p[:n])
		tail.len += n
		chain.length += n
		p = p[n:]
	}
	return nil
}

// ReadChain returns the full byte contents of chain, walking the linked
// blocks from head to tail. Used only at serialization time, where the
// whole chain is consumed once.
func (bs *BlockStore) ReadChain(chain TermChain) []byte {
	out := make([]byte, 0, chain.length)
	id := chain.head
	for id != noBlock && len(out) < chain.length {
		b := &bs.blocks[id]
		out = append(out, b.data[:b.len]...)
		id = b.next
	}
	return out
}

// String renders a chain for debugging.
func (c TermChain) String() string {
	return fmt.Sprintf("TermChain{head=%d,tail=%d,length=%d}", c.head, c.tail, c.length)
}
