package radix

import (
	"log"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/radixwalk/mem/vm"
)

// A Request asks for the translation of one virtual address. The Translator
// fills in the result fields.
type Request struct {
	VAddr  uint64
	Mode   vm.AccessMode
	Thread ThreadContext

	PAddr     uint64
	PageShift uint64
	Levels    int
	Entries   []DirEntry
}

// PageSize returns the size of the page that maps the request address.
func (r *Request) PageSize() uint64 {
	return 1 << r.PageShift
}

// Page returns the translated page.
func (r *Request) Page(pid vm.PID) vm.Page {
	mask := r.PageSize() - 1

	return vm.Page{
		PID:      pid,
		VAddr:    r.VAddr &^ mask,
		PAddr:    r.PAddr &^ mask,
		PageSize: r.PageSize(),
		Valid:    true,
	}
}

// A Translator translates requests by resolving the root of the thread's
// radix tree and walking the tree.
type Translator struct {
	resolver Resolver
	walker   Walker
	logger   *logrus.Logger
}

// NewTranslator creates a Translator that reads memory through port. A
// non-positive maxDepth selects DefaultMaxWalkDepth. A nil logger selects the
// logrus standard logger.
func NewTranslator(
	port MemPort,
	maxDepth int,
	logger *logrus.Logger,
) *Translator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Translator{
		resolver: Resolver{Port: port},
		walker: Walker{
			Port:     port,
			MaxDepth: maxDepth,
			Logger:   logger,
		},
		logger: logger,
	}
}

// Translate translates req using blocking reads. The error, if any, is a
// *TranslationFault.
func (t *Translator) Translate(req *Request) error {
	regs := t.registersOf(req)

	prte, err := t.resolver.Resolve(regs)
	if err != nil {
		return t.resolveFault(req, err)
	}

	res, err := t.walker.Walk(req.VAddr, t.decodeRoot(req, regs, prte))
	t.fill(req, res, err)

	return err
}

// TranslateAsync is Translate over non-blocking reads. done is called exactly
// once.
func (t *Translator) TranslateAsync(req *Request, done func(error)) {
	regs := t.registersOf(req)

	t.resolver.ResolveAsync(regs, func(prte uint64, err error) {
		if err != nil {
			done(t.resolveFault(req, err))
			return
		}

		root := t.decodeRoot(req, regs, prte)
		t.walker.WalkAsync(req.VAddr, root, func(res WalkResult, err error) {
			t.fill(req, res, err)
			done(err)
		})
	})
}

func (t *Translator) registersOf(req *Request) Registers {
	if req.Thread == nil {
		log.Panicf("translation of %#x has no thread", req.VAddr)
	}

	return req.Thread.RadixRegisters()
}

func (t *Translator) decodeRoot(
	req *Request,
	regs Registers,
	prte uint64,
) RootDescriptor {
	root := DecodeRoot(prte)

	t.logger.WithFields(logrus.Fields{
		"vaddr": req.VAddr,
		"mode":  req.Mode.String(),
		"regs":  regs.String(),
		"root":  root.String(),
	}).Debug("radix root resolved")

	return root
}

func (t *Translator) resolveFault(req *Request, err error) error {
	return &TranslationFault{
		VAddr: req.VAddr,
		Level: ResolveLevel,
		Kind:  FaultMemAccess,
		Err:   err,
	}
}

func (t *Translator) fill(req *Request, res WalkResult, err error) {
	req.Levels = res.Levels
	req.Entries = res.Entries

	if err != nil {
		return
	}

	req.PAddr = res.PAddr
	req.PageShift = res.PageShift
}
