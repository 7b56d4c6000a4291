package cmd

import (
	"fmt"
	"io"
	"math/bits"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/radixwalk/arch/power/radix"
	"github.com/sarchlab/radixwalk/mem/idealmemcontroller"
	"github.com/sarchlab/radixwalk/mem/mem"
	"github.com/sarchlab/radixwalk/mem/vm"
	"github.com/sarchlab/radixwalk/monitoring"
	"github.com/sarchlab/radixwalk/scenario"
	"github.com/sarchlab/radixwalk/sim"
	"github.com/sarchlab/radixwalk/sim/directconnection"
	"github.com/sarchlab/radixwalk/tracing"
)

// A result pairs a translation with the response the walker gave.
type result struct {
	translation scenario.Translation
	rsp         *vm.TranslationRsp
}

func (r result) String() string {
	vAddr := uint64(r.translation.VAddr)

	switch {
	case r.rsp == nil:
		return fmt.Sprintf("%#x: no response", vAddr)
	case r.rsp.Fault != nil:
		return fmt.Sprintf("%#x: %v", vAddr, r.rsp.Fault)
	}

	page := r.rsp.Page

	return fmt.Sprintf("%#x -> %#x (page shift %d)",
		vAddr, page.Translate(vAddr), bits.TrailingZeros64(page.PageSize))
}

func printResults(out io.Writer, results []result) error {
	for _, r := range results {
		if _, err := fmt.Fprintln(out, r); err != nil {
			return err
		}
	}

	return nil
}

// driver issues translation requests to the walker and collects the
// responses in request order.
type driver struct {
	*sim.TickingComponent

	port     sim.Port
	toSend   []*vm.TranslationReq
	results  []result
	index    map[string]int
	progress *monitoring.ProgressBar
}

func newDriver(engine sim.Engine, name string) *driver {
	d := &driver{index: make(map[string]int)}
	d.TickingComponent = sim.NewTickingComponent(name, engine, 1*sim.GHz, d)
	d.port = sim.NewPort(d, 16, 16, name+".Port")
	d.AddPort("Port", d.port)

	return d
}

func (d *driver) enqueue(t scenario.Translation, req *vm.TranslationReq) {
	d.index[req.ID] = len(d.results)
	d.results = append(d.results, result{translation: t})
	d.toSend = append(d.toSend, req)
}

func (d *driver) Tick() bool {
	madeProgress := false

	for {
		msg := d.port.RetrieveIncoming()
		if msg == nil {
			break
		}

		rsp := msg.(*vm.TranslationRsp)
		i, ok := d.index[rsp.RespondTo]
		if !ok {
			panic(fmt.Sprintf("response to unknown request %s", rsp.RespondTo))
		}

		d.results[i].rsp = rsp
		if d.progress != nil {
			d.progress.MoveInProgressToFinished(1)
		}

		madeProgress = true
	}

	for len(d.toSend) > 0 {
		if d.port.Send(d.toSend[0]) != nil {
			break
		}

		d.toSend = d.toSend[1:]
		if d.progress != nil {
			d.progress.IncrementInProgress(1)
		}

		madeProgress = true
	}

	return madeProgress
}

type platformConfig struct {
	timing      bool
	latency     int
	traceDB     string
	monitor     bool
	monitorPort int
	logger      *logrus.Logger
}

// A platform connects a driver, a walker and, in timing mode, an ideal memory
// controller.
type platform struct {
	engine  *sim.SerialEngine
	walker  *radix.Comp
	memCtrl *idealmemcontroller.Comp
	conn    *directconnection.Comp
	driver  *driver

	walkTime *tracing.AverageTimeTracer
	tracer   *tracing.DBTracer
	traceDB  string
	monitor  *monitoring.Monitor
	logger   *logrus.Logger
}

func buildPlatform(
	s *scenario.Scenario,
	storage *mem.Storage,
	cfg platformConfig,
) (*platform, error) {
	p := &platform{
		engine: sim.NewSerialEngine(),
		logger: cfg.logger,
	}

	walkerBuilder := radix.MakeBuilder().
		WithEngine(p.engine).
		WithLogger(cfg.logger)

	p.conn = directconnection.MakeBuilder().
		WithEngine(p.engine).
		Build("Conn")
	p.driver = newDriver(p.engine, "Driver")
	p.conn.PlugIn(p.driver.port)

	if cfg.timing {
		p.memCtrl = idealmemcontroller.MakeBuilder().
			WithEngine(p.engine).
			WithLatency(cfg.latency).
			WithStorage(storage).
			Build("Mem")
		p.conn.PlugIn(p.memCtrl.TopPort())

		walkerBuilder = walkerBuilder.WithMemoryPortMapper(
			&mem.SinglePortMapper{Port: p.memCtrl.TopPort().AsRemote()})
	} else {
		walkerBuilder = walkerBuilder.WithAtomicStorage(storage)
	}

	p.walker = walkerBuilder.Build("Walker")
	p.conn.PlugIn(p.walker.TopPort())
	p.conn.PlugIn(p.walker.BottomPort())

	for _, t := range s.Threads {
		p.walker.RegisterThread(t.ID, t.Registers())
	}

	p.walkTime = tracing.NewAverageTimeTracer(p.engine, tracing.KindIs("req_in"))
	tracing.CollectTrace(p.walker, p.walkTime)

	if cfg.traceDB != "" {
		if err := p.startTracing(cfg.traceDB); err != nil {
			return nil, err
		}
	}

	if cfg.logger.IsLevelEnabled(logrus.TraceLevel) {
		p.logTraffic(cfg.logger)
	}

	p.engine.RegisterSimulationEndHandler(sim.SimulationEndHandlerFunc(
		func(now sim.VTimeInSec) {
			cfg.logger.WithField("sim_time", float64(now)).Debug("simulation finished")
		}))

	if cfg.monitor {
		p.startMonitor(cfg.monitorPort)
	}

	return p, nil
}

func (p *platform) startTracing(name string) error {
	writer := tracing.NewSQLiteTraceWriter(name)
	if err := writer.Init(); err != nil {
		return err
	}

	p.traceDB = writer.FileName()
	p.tracer = tracing.NewDBTracer(p.engine, writer)
	p.engine.RegisterSimulationEndHandler(sim.SimulationEndHandlerFunc(
		func(sim.VTimeInSec) { p.tracer.Terminate() }))

	tracing.CollectTrace(p.walker, p.tracer)
	if p.memCtrl != nil {
		tracing.CollectTrace(p.memCtrl, p.tracer)
	}

	return nil
}

// logTraffic logs every event and every message that crosses the walker's
// ports.
func (p *platform) logTraffic(logger *logrus.Logger) {
	p.engine.AcceptHook(sim.NewEventLogger(logger))

	msgLogger := sim.NewPortMsgLogger(logger, p.engine)
	p.walker.TopPort().AcceptHook(msgLogger)
	p.walker.BottomPort().AcceptHook(msgLogger)
}

func (p *platform) startMonitor(port int) {
	p.monitor = monitoring.NewMonitor().WithPortNumber(port)
	p.monitor.RegisterEngine(p.engine)
	p.monitor.RegisterComponent(p.driver)
	p.monitor.RegisterComponent(p.walker)
	if p.memCtrl != nil {
		p.monitor.RegisterComponent(p.memCtrl)
	}

	p.monitor.StartServer()
}

// run sends the translations to the walker and runs the simulation until
// every response is back.
func (p *platform) run(translations []scenario.Translation) ([]result, error) {
	for _, t := range translations {
		mode, err := t.AccessMode()
		if err != nil {
			return nil, err
		}

		req := vm.TranslationReqBuilder{}.
			WithSrc(p.driver.port.AsRemote()).
			WithDst(p.walker.TopPort().AsRemote()).
			WithVAddr(uint64(t.VAddr)).
			WithMode(mode).
			WithThreadID(t.Thread).
			Build()
		p.driver.enqueue(t, req)
	}

	if p.monitor != nil {
		p.driver.progress = p.monitor.CreateProgressBar(
			"Translations", uint64(len(translations)))
		defer func() {
			if !p.driver.progress.Done() {
				p.logger.Warn("some translations got no response")
			}

			p.monitor.CompleteProgressBar(p.driver.progress)
			p.monitor.StopServer()
		}()
	}

	p.driver.TickLater()

	if err := p.engine.Run(); err != nil {
		return nil, err
	}

	p.engine.Finished()

	return p.driver.results, nil
}
