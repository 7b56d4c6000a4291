package vm

import "github.com/sarchlab/radixwalk/sim"

var translationReqByteOverhead = 16
var translationRspByteOverhead = 24

// A TranslationReq asks for the page that holds a virtual address.
type TranslationReq struct {
	sim.MsgMeta

	VAddr    uint64
	Mode     AccessMode
	ThreadID int
}

// Meta returns the meta data of the message.
func (r *TranslationReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the request with a new ID.
func (r *TranslationReq) Clone() sim.Msg {
	cloneMsg := *r
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// TranslationReqBuilder can build translation requests.
type TranslationReqBuilder struct {
	src, dst sim.RemotePort
	vAddr    uint64
	mode     AccessMode
	threadID int
}

// WithSrc sets the source of the request.
func (b TranslationReqBuilder) WithSrc(src sim.RemotePort) TranslationReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request.
func (b TranslationReqBuilder) WithDst(dst sim.RemotePort) TranslationReqBuilder {
	b.dst = dst
	return b
}

// WithVAddr sets the virtual address to translate.
func (b TranslationReqBuilder) WithVAddr(vAddr uint64) TranslationReqBuilder {
	b.vAddr = vAddr
	return b
}

// WithMode sets the access mode of the translation.
func (b TranslationReqBuilder) WithMode(mode AccessMode) TranslationReqBuilder {
	b.mode = mode
	return b
}

// WithThreadID sets the hardware thread that asks for the translation.
func (b TranslationReqBuilder) WithThreadID(id int) TranslationReqBuilder {
	b.threadID = id
	return b
}

// Build creates a new TranslationReq.
func (b TranslationReqBuilder) Build() *TranslationReq {
	r := &TranslationReq{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.TrafficBytes = translationReqByteOverhead
	r.VAddr = b.vAddr
	r.Mode = b.mode
	r.ThreadID = b.threadID

	return r
}

// A TranslationRsp answers a TranslationReq. Either Page is valid or Fault
// tells why the translation failed.
type TranslationRsp struct {
	sim.MsgMeta

	RespondTo string
	Page      Page
	Fault     error
}

// Meta returns the meta data of the message.
func (r *TranslationRsp) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the response with a new ID.
func (r *TranslationRsp) Clone() sim.Msg {
	cloneMsg := *r
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// GetRspTo returns the ID of the request that the response answers.
func (r *TranslationRsp) GetRspTo() string {
	return r.RespondTo
}

// TranslationRspBuilder can build translation responses.
type TranslationRspBuilder struct {
	src, dst sim.RemotePort
	rspTo    string
	page     Page
	fault    error
}

// WithSrc sets the source of the response.
func (b TranslationRspBuilder) WithSrc(src sim.RemotePort) TranslationRspBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the response.
func (b TranslationRspBuilder) WithDst(dst sim.RemotePort) TranslationRspBuilder {
	b.dst = dst
	return b
}

// WithRspTo sets the ID of the request being answered.
func (b TranslationRspBuilder) WithRspTo(id string) TranslationRspBuilder {
	b.rspTo = id
	return b
}

// WithPage sets the translated page.
func (b TranslationRspBuilder) WithPage(page Page) TranslationRspBuilder {
	b.page = page
	return b
}

// WithFault marks the translation as failed.
func (b TranslationRspBuilder) WithFault(fault error) TranslationRspBuilder {
	b.fault = fault
	return b
}

// Build creates a new TranslationRsp.
func (b TranslationRspBuilder) Build() *TranslationRsp {
	r := &TranslationRsp{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.TrafficBytes = translationRspByteOverhead
	r.RespondTo = b.rspTo
	r.Page = b.page
	r.Fault = b.fault

	return r
}
