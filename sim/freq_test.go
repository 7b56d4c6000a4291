package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Freq", func() {
	It("should get period", func() {
		f := 1 * GHz
		Expect(f.Period()).To(BeNumerically("==", 1e-9))
	})

	It("should refuse a zero frequency", func() {
		f := Freq(0)
		Expect(func() { f.Period() }).To(Panic())
	})

	It("should count cycles", func() {
		f := 1 * GHz
		Expect(f.Cycle(0.000000017)).To(Equal(uint64(17)))
	})

	It("should stay on the current tick", func() {
		f := 1 * Hz
		Expect(f.ThisTick(1)).To(BeNumerically("~", 1, 1e-12))
	})

	It("should round up to the current tick", func() {
		f := 1 * GHz
		Expect(f.ThisTick(0.0000000165)).
			To(BeNumerically("~", 0.000000017, 1e-12))
	})

	DescribeTable("next tick",
		func(now, expected float64) {
			f := 1 * GHz
			Expect(f.NextTick(VTimeInSec(now))).
				To(BeNumerically("~", expected, 1e-12))
		},
		Entry("on tick", 102.000000001, 102.000000002),
		Entry("small time", 0.000000031, 0.000000032),
		Entry("whole second", 16.0, 16.000000001),
		Entry("off tick", 102.0000000011, 102.000000002),
	)

	It("should get the n cycles later", func() {
		f := 1 * GHz
		Expect(f.NCyclesLater(12, 102.000000001)).
			To(BeNumerically("~", 102.000000013, 1e-12))
	})

	It("should align n cycles later to a tick", func() {
		f := 1 * GHz
		Expect(f.NCyclesLater(12, 102.0000000011)).
			To(BeNumerically("~", 102.000000014, 1e-12))
	})
})
