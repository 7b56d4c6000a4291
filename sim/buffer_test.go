package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type countingHook struct {
	pushes, pops int
}

func (h *countingHook) Func(ctx HookCtx) {
	switch ctx.Pos {
	case HookPosBufPush:
		h.pushes++
	case HookPosBufPop:
		h.pops++
	}
}

var _ = Describe("Buffer", func() {
	var (
		buf Buffer
	)

	BeforeEach(func() {
		buf = NewBuffer("Buf", 2)
	})

	It("should reject a non-positive capacity", func() {
		Expect(func() { NewBuffer("Bad", 0) }).To(Panic())
	})

	It("should push and pop in order", func() {
		Expect(buf.Capacity()).To(Equal(2))
		Expect(buf.CanPush()).To(BeTrue())

		buf.Push(1)
		buf.Push(2)
		Expect(buf.CanPush()).To(BeFalse())
		Expect(buf.Size()).To(Equal(2))
		Expect(func() { buf.Push(3) }).To(Panic())

		Expect(buf.Peek()).To(Equal(1))
		Expect(buf.Pop()).To(Equal(1))
		Expect(buf.Pop()).To(Equal(2))
		Expect(buf.Pop()).To(BeNil())
		Expect(buf.Peek()).To(BeNil())
	})

	It("should clear", func() {
		buf.Push(2)

		buf.Clear()

		Expect(buf.Size()).To(Equal(0))
		Expect(buf.Peek()).To(BeNil())
	})

	It("should invoke hooks on push and pop", func() {
		hook := &countingHook{}
		buf.AcceptHook(hook)

		buf.Push(1)
		buf.Pop()
		buf.Pop()

		Expect(hook.pushes).To(Equal(1))
		Expect(hook.pops).To(Equal(1))
	})
})
