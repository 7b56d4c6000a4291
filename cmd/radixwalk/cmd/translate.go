package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/radixwalk/scenario"
)

type translateOptions struct {
	*rootOptions

	thread  int
	mode    string
	traceDB string
}

func newTranslateCmd(root *rootOptions) *cobra.Command {
	opts := &translateOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "translate [VADDR...]",
		Short: "Translate addresses with atomic memory accesses.",
		Long: `Translate walks the page tables of the scenario for every given ` +
			`virtual address. Without addresses, the translations listed in ` +
			`the scenario are performed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args)
		},
	}

	cmd.Flags().IntVar(&opts.thread, "thread", -1,
		"thread that translates the given addresses, defaults to the first "+
			"thread of the scenario")
	cmd.Flags().StringVar(&opts.mode, "mode", "load",
		"access mode of the given addresses (load, store, fetch)")
	cmd.Flags().StringVar(&opts.traceDB, "trace-db", "",
		"write a SQLite trace of the walks, defaults to $"+envTraceDB)

	return cmd
}

func (o *translateOptions) run(cmd *cobra.Command, args []string) error {
	s, err := o.loadScenario()
	if err != nil {
		return err
	}

	translations, err := o.translations(s, args)
	if err != nil {
		return err
	}

	storage, err := s.NewStorage()
	if err != nil {
		return err
	}

	p, err := buildPlatform(s, storage, platformConfig{
		traceDB: traceDBName(o.traceDB),
		logger:  o.logger,
	})
	if err != nil {
		return err
	}

	results, err := p.run(translations)
	if err != nil {
		return err
	}

	if err := printResults(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	if p.traceDB != "" {
		o.logger.WithField("file", p.traceDB).Info("trace written")
	}

	return nil
}

func (o *translateOptions) translations(
	s *scenario.Scenario,
	args []string,
) ([]scenario.Translation, error) {
	if len(args) == 0 {
		return s.Translations, nil
	}

	thread := o.thread
	if thread < 0 {
		if len(s.Threads) == 0 {
			return nil, fmt.Errorf("scenario defines no thread")
		}

		thread = s.Threads[0].ID
	}

	if _, ok := s.Thread(thread); !ok {
		return nil, fmt.Errorf("thread %d is not defined", thread)
	}

	translations := make([]scenario.Translation, 0, len(args))
	for _, arg := range args {
		vAddr, err := strconv.ParseUint(arg, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", arg, err)
		}

		t := scenario.Translation{
			Thread: thread,
			VAddr:  scenario.Hex(vAddr),
			Mode:   o.mode,
		}
		if _, err := t.AccessMode(); err != nil {
			return nil, err
		}

		translations = append(translations, t)
	}

	return translations, nil
}

func traceDBName(flag string) string {
	if flag != "" {
		return flag
	}

	return os.Getenv(envTraceDB)
}
