package radix

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/sarchlab/radixwalk/mem/mem"
	"github.com/sarchlab/radixwalk/sim"
)

var _ = Describe("TimingPort", func() {
	var (
		mockCtrl *gomock.Controller
		port     *MockPort
		tp       *TimingPort
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		port = NewMockPort(mockCtrl)
		port.EXPECT().AsRemote().Return(sim.RemotePort("Walker.BottomPort")).AnyTimes()

		tp = NewTimingPort(port, &mem.SinglePortMapper{Port: "Mem.TopPort"})
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should not read synchronously", func() {
		_, err := tp.ReadSync(0x1000, WordSize)

		Expect(err).To(MatchError(ErrBlockingReadUnsupported))
	})

	It("should send a read request", func() {
		port.EXPECT().Send(gomock.Any()).DoAndReturn(func(msg sim.Msg) *sim.SendError {
			req := msg.(*mem.ReadReq)
			Expect(req.Address).To(Equal(uint64(0x1000)))
			Expect(req.AccessByteSize).To(Equal(uint64(WordSize)))
			Expect(req.Src).To(Equal(sim.RemotePort("Walker.BottomPort")))
			Expect(req.Dst).To(Equal(sim.RemotePort("Mem.TopPort")))

			return nil
		})

		tp.ReadAsync(0x1000, WordSize, func([]byte, error) {})

		Expect(tp.NumPending()).To(Equal(0))
		Expect(tp.NumOutstanding()).To(Equal(1))
	})

	It("should resend the same request after a rejection", func() {
		var sent []*mem.ReadReq

		gomock.InOrder(
			port.EXPECT().Send(gomock.Any()).
				DoAndReturn(func(msg sim.Msg) *sim.SendError {
					sent = append(sent, msg.(*mem.ReadReq))
					return sim.NewSendError()
				}),
			port.EXPECT().Send(gomock.Any()).
				DoAndReturn(func(msg sim.Msg) *sim.SendError {
					sent = append(sent, msg.(*mem.ReadReq))
					return nil
				}),
		)

		tp.ReadAsync(0x1000, WordSize, func([]byte, error) {})
		Expect(tp.NumPending()).To(Equal(1))
		Expect(tp.NumOutstanding()).To(Equal(0))

		Expect(tp.SendPending()).To(BeTrue())
		Expect(tp.NumPending()).To(Equal(0))
		Expect(tp.NumOutstanding()).To(Equal(1))

		Expect(sent).To(HaveLen(2))
		Expect(sent[1]).To(BeIdenticalTo(sent[0]))
	})

	It("should keep the order of the queued requests", func() {
		port.EXPECT().Send(gomock.Any()).Return(sim.NewSendError())
		tp.ReadAsync(0x1000, WordSize, func([]byte, error) {})

		port.EXPECT().Send(gomock.Any()).Return(sim.NewSendError())
		tp.ReadAsync(0x2000, WordSize, func([]byte, error) {})

		var addrs []uint64
		port.EXPECT().Send(gomock.Any()).
			DoAndReturn(func(msg sim.Msg) *sim.SendError {
				addrs = append(addrs, msg.(*mem.ReadReq).Address)
				return nil
			}).
			Times(2)

		Expect(tp.SendPending()).To(BeTrue())
		Expect(addrs).To(Equal([]uint64{0x1000, 0x2000}))
	})

	It("should not make progress when nothing is pending", func() {
		Expect(tp.SendPending()).To(BeFalse())
	})

	Context("when a read is outstanding", func() {
		var (
			req    *mem.ReadReq
			data   []byte
			err    error
			called int
		)

		BeforeEach(func() {
			data = nil
			err = nil
			called = 0

			port.EXPECT().Send(gomock.Any()).
				DoAndReturn(func(msg sim.Msg) *sim.SendError {
					req = msg.(*mem.ReadReq)
					return nil
				})

			tp.ReadAsync(0x1000, WordSize, func(d []byte, e error) {
				data = d
				err = e
				called++
			})
		})

		It("should complete the read with the data", func() {
			rsp := mem.DataReadyRspBuilder{}.
				WithSrc("Mem.TopPort").
				WithDst("Walker.BottomPort").
				WithRspTo(req.ID).
				WithData([]byte{1, 2, 3, 4, 5, 6, 7, 8}).
				Build()

			Expect(tp.HandleRsp(rsp)).To(Succeed())

			Expect(called).To(Equal(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
			Expect(tp.NumOutstanding()).To(Equal(0))
		})

		It("should reject a response to an unknown request", func() {
			rsp := mem.DataReadyRspBuilder{}.
				WithSrc("Mem.TopPort").
				WithDst("Walker.BottomPort").
				WithRspTo("someone-else").
				WithData(make([]byte, WordSize)).
				Build()

			rspErr := tp.HandleRsp(rsp)

			Expect(errors.Is(rspErr, ErrUnexpectedRsp)).To(BeTrue())
			Expect(called).To(Equal(0))
			Expect(tp.NumOutstanding()).To(Equal(1))
		})

		It("should reject a second response to the same request", func() {
			rsp := mem.DataReadyRspBuilder{}.
				WithRspTo(req.ID).
				WithData(make([]byte, WordSize)).
				Build()

			Expect(tp.HandleRsp(rsp)).To(Succeed())
			Expect(errors.Is(tp.HandleRsp(rsp), ErrUnexpectedRsp)).To(BeTrue())
			Expect(called).To(Equal(1))
		})

		It("should reject messages that are not read responses", func() {
			rsp := mem.WriteDoneRspBuilder{}.WithRspTo(req.ID).Build()

			Expect(errors.Is(tp.HandleRsp(rsp), ErrUnexpectedRsp)).To(BeTrue())
			Expect(called).To(Equal(0))
		})

		It("should fail the read on a short response", func() {
			rsp := mem.DataReadyRspBuilder{}.
				WithRspTo(req.ID).
				WithData([]byte{1, 2}).
				Build()

			Expect(tp.HandleRsp(rsp)).To(Succeed())
			Expect(called).To(Equal(1))
			Expect(errors.Is(err, ErrShortRead)).To(BeTrue())
		})

		It("should pass memory errors to the reader", func() {
			memErr := &mem.ErrOutOfRange{Address: 0x1000, Capacity: 0x100}
			rsp := mem.ErrorRspBuilder{}.
				WithRspTo(req.ID).
				WithErr(memErr).
				Build()

			Expect(tp.HandleRsp(rsp)).To(Succeed())
			Expect(called).To(Equal(1))
			Expect(err).To(MatchError(memErr))
		})
	})
})
