package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/radixwalk/sim"
	gomock "go.uber.org/mock/gomock"
)

type sampleReq struct {
	sim.MsgMeta
}

func (m *sampleReq) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

func (m *sampleReq) Clone() sim.Msg {
	c := *m
	return &c
}

type recordingTracer struct {
	started, stepped, ended []Task
}

func (r *recordingTracer) StartTask(task Task) { r.started = append(r.started, task) }
func (r *recordingTracer) StepTask(task Task)  { r.stepped = append(r.stepped, task) }
func (r *recordingTracer) EndTask(task Task)   { r.ended = append(r.ended, task) }

type namedDomain struct {
	sim.HookableBase
	name string
}

func (d *namedDomain) Name() string {
	return d.name
}

var _ = Describe("API", func() {
	var (
		mockCtrl *gomock.Controller
		domain   *MockNamedHookable
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		domain = NewMockNamedHookable(mockCtrl)
		domain.EXPECT().NumHooks().Return(1).AnyTimes()
		domain.EXPECT().InvokeHook(gomock.Any()).AnyTimes()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should panic if ID is not given", func() {
		domain.EXPECT().Name().Return("domain").AnyTimes()
		Expect(func() {
			StartTask("", "123", domain, "kind", "what", nil)
		}).Should(Panic())
	})

	It("should panic if domain is nil", func() {
		Expect(func() {
			StartTask("id", "123", nil, "kind", "what", nil)
		}).Should(Panic())
	})

	It("should panic if the domain has no name", func() {
		domain.EXPECT().Name().Return("").AnyTimes()
		Expect(func() {
			StartTask("id", "123", domain, "kind", "what", nil)
		}).Should(Panic())
	})

	It("should panic if kind or what is empty", func() {
		domain.EXPECT().Name().Return("domain").AnyTimes()
		Expect(func() {
			StartTask("id", "123", domain, "", "what", nil)
		}).Should(Panic())
		Expect(func() {
			StartTask("id", "123", domain, "kind", "", nil)
		}).Should(Panic())
	})
})

var _ = Describe("Request tracing", func() {
	var (
		domain *namedDomain
		tracer *recordingTracer
		req    *sampleReq
	)

	BeforeEach(func() {
		domain = &namedDomain{name: "Walker"}
		tracer = &recordingTracer{}
		CollectTrace(domain, tracer)

		req = &sampleReq{}
		req.ID = "req-1"
	})

	It("should start, step and end the receiver task", func() {
		TraceReqReceive(req, domain)
		AddTaskStep(MsgIDAtReceiver(req, domain), domain, "level 0")
		TraceReqComplete(req, domain)

		Expect(tracer.started).To(HaveLen(1))
		Expect(tracer.started[0].ID).To(Equal("req-1@Walker"))
		Expect(tracer.started[0].ParentID).To(Equal("req-1_req_out"))
		Expect(tracer.started[0].Kind).To(Equal("req_in"))
		Expect(tracer.started[0].What).To(Equal("*tracing.sampleReq"))
		Expect(tracer.started[0].Where).To(Equal("Walker"))
		Expect(tracer.stepped[0].Steps[0].What).To(Equal("level 0"))
		Expect(tracer.ended[0].ID).To(Equal("req-1@Walker"))
	})

	It("should trace outgoing requests", func() {
		id := TraceReqInitiate(req, domain, "parent")
		TraceReqFinalize(req, domain)

		Expect(id).To(Equal("req-1_req_out"))
		Expect(tracer.started[0].Kind).To(Equal("req_out"))
		Expect(tracer.ended[0].ID).To(Equal(id))
	})

	It("should not invoke anything without hooks", func() {
		quiet := &namedDomain{name: "Quiet"}

		Expect(func() {
			TraceReqReceive(req, quiet)
			TraceReqComplete(req, quiet)
		}).NotTo(Panic())
	})
})
