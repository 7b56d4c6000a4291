package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

type simulateOptions struct {
	*rootOptions

	latency     int
	traceDB     string
	monitor     bool
	monitorPort int
}

func newSimulateCmd(root *rootOptions) *cobra.Command {
	opts := &simulateOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the scenario translations in a timing simulation.",
		Long: `Simulate connects the walker to an ideal memory controller and ` +
			`sends it every translation of the scenario. Each table read ` +
			`takes the memory latency.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd)
		},
	}

	cmd.Flags().IntVar(&opts.latency, "latency", 100,
		"memory latency in cycles")
	cmd.Flags().StringVar(&opts.traceDB, "trace-db", "",
		"write a SQLite trace of the walks, defaults to $"+envTraceDB)
	cmd.Flags().BoolVar(&opts.monitor, "monitor", false,
		"serve the monitoring dashboard while simulating")
	cmd.Flags().IntVar(&opts.monitorPort, "monitor-port", 0,
		"port of the monitoring dashboard, random when 0")

	return cmd
}

func (o *simulateOptions) run(cmd *cobra.Command) error {
	if o.latency <= 0 {
		return fmt.Errorf("latency must be positive, got %d", o.latency)
	}

	s, err := o.loadScenario()
	if err != nil {
		return err
	}

	storage, err := s.NewStorage()
	if err != nil {
		return err
	}

	p, err := buildPlatform(s, storage, platformConfig{
		timing:      true,
		latency:     o.latency,
		traceDB:     traceDBName(o.traceDB),
		monitor:     o.monitor,
		monitorPort: o.monitorPort,
		logger:      o.logger,
	})
	if err != nil {
		return err
	}

	results, err := p.run(s.Translations)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := printResults(out, results); err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "average walk time: %.9fs over %d walks\n",
		p.walkTime.AverageTime(), p.walkTime.TotalCount())
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "simulated time: %.9fs\n", p.engine.CurrentTime())
	if err != nil {
		return err
	}

	if p.traceDB != "" {
		o.logger.WithField("file", p.traceDB).Info("trace written")
	}

	return nil
}
