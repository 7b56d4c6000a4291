package sim

import "log"

// HookPosBufPush marks an element entering a buffer.
var HookPosBufPush = &HookPos{Name: "Buffer Push"}

// HookPosBufPop marks an element leaving a buffer.
var HookPosBufPop = &HookPos{Name: "Buffer Pop"}

// A Buffer is a bounded FIFO queue.
type Buffer interface {
	Named
	Hookable

	CanPush() bool
	Push(e any)
	Pop() any
	Peek() any
	Capacity() int
	Size() int
	Clear()
}

// NewBuffer creates a buffer that holds up to capacity elements.
func NewBuffer(name string, capacity int) Buffer {
	if capacity <= 0 {
		log.Panicf("buffer %s must have a positive capacity", name)
	}

	return &fifo{
		name:     name,
		capacity: capacity,
	}
}

type fifo struct {
	HookableBase

	name     string
	capacity int
	elements []any
}

func (b *fifo) Name() string {
	return b.name
}

func (b *fifo) CanPush() bool {
	return len(b.elements) < b.capacity
}

// Push panics when the buffer is full. Callers check CanPush first.
func (b *fifo) Push(e any) {
	if !b.CanPush() {
		log.Panicf("buffer %s overflow", b.name)
	}

	b.elements = append(b.elements, e)
	b.invoke(HookPosBufPush, e)
}

func (b *fifo) Pop() any {
	e := b.Peek()
	if e == nil {
		return nil
	}

	b.elements[0] = nil
	b.elements = b.elements[1:]
	b.invoke(HookPosBufPop, e)

	return e
}

func (b *fifo) Peek() any {
	if len(b.elements) == 0 {
		return nil
	}

	return b.elements[0]
}

func (b *fifo) Capacity() int {
	return b.capacity
}

func (b *fifo) Size() int {
	return len(b.elements)
}

func (b *fifo) Clear() {
	b.elements = nil
}

func (b *fifo) invoke(pos *HookPos, e any) {
	if b.NumHooks() == 0 {
		return
	}

	b.InvokeHook(HookCtx{Domain: b, Pos: pos, Item: e})
}
