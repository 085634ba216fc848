package ecs

const (
	columnBlockSize = 64
)

// column is a type-erased store for one component type, addressed by the
// owning archetype's row numbers.
type column interface {
	put(row int, item any) bool
	get(row int) any
	clear(row int)
}

// blockColumn stores components of type T in fixed-size blocks. Blocks are
// allocated individually so a pointer handed out by get stays valid until the
// row is cleared.
type blockColumn[T any] struct {
	blocks []*[columnBlockSize]T
}

func (c *blockColumn[T]) put(row int, item any) bool {
	var value T
	if ptr, ok := item.(*T); ok {
		value = *ptr
	} else if val, ok := item.(T); ok {
		value = val
	} else {
		return false
	}

	blockIdx := row / columnBlockSize
	for blockIdx >= len(c.blocks) {
		c.blocks = append(c.blocks, new([columnBlockSize]T))
	}
	c.blocks[blockIdx][row%columnBlockSize] = value
	return true
}

func (c *blockColumn[T]) get(row int) any {
	if row < 0 {
		return nil
	}
	blockIdx := row / columnBlockSize
	if blockIdx >= len(c.blocks) {
		return nil
	}
	return &c.blocks[blockIdx][row%columnBlockSize]
}

func (c *blockColumn[T]) clear(row int) {
	if row < 0 {
		return
	}
	blockIdx := row / columnBlockSize
	if blockIdx >= len(c.blocks) {
		return
	}
	var zero T
	c.blocks[blockIdx][row%columnBlockSize] = zero
}
