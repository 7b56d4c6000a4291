// Package cmd provides the command-line interface of radixwalk.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/radixwalk/scenario"
)

// Environment variables that provide defaults for the flags.
const (
	envScenario = "RADIXWALK_SCENARIO"
	envTraceDB  = "RADIXWALK_TRACE_DB"
	envLogLevel = "RADIXWALK_LOG_LEVEL"
)

type rootOptions struct {
	envFile      string
	scenarioPath string
	logLevel     string

	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "radixwalk",
		Short: "Translate addresses with POWER radix page tables.",
		Long: `radixwalk walks the POWER radix page tables described by a ` +
			`scenario file. It can translate addresses directly or run the ` +
			`walks in a timing simulation of a memory system.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.complete(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", ".env",
		"file that sets default values of the RADIXWALK_* variables")
	flags.StringVar(&opts.scenarioPath, "scenario", "",
		"scenario file, defaults to $"+envScenario)
	flags.StringVar(&opts.logLevel, "log-level", "",
		"log level (panic, fatal, error, warn, info, debug, trace), "+
			"defaults to $"+envLogLevel)

	rootCmd.AddCommand(
		newTranslateCmd(opts),
		newSimulateCmd(opts),
		newDumpCmd(opts),
	)

	return rootCmd
}

// complete fills in the options that are not given on the command line.
func (o *rootOptions) complete(cmd *cobra.Command) error {
	err := godotenv.Load(o.envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", o.envFile, err)
	}

	if o.scenarioPath == "" {
		o.scenarioPath = os.Getenv(envScenario)
	}

	if o.logLevel == "" {
		o.logLevel = os.Getenv(envLogLevel)
	}

	if o.logLevel == "" {
		o.logLevel = logrus.InfoLevel.String()
	}

	level, err := logrus.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}

	o.logger = logrus.New()
	o.logger.SetOutput(cmd.ErrOrStderr())
	o.logger.SetLevel(level)

	return nil
}

func (o *rootOptions) loadScenario() (*scenario.Scenario, error) {
	if o.scenarioPath == "" {
		return nil, fmt.Errorf("no scenario given, use --scenario or set %s",
			envScenario)
	}

	s, err := scenario.Load(o.scenarioPath)
	if err != nil {
		return nil, err
	}

	o.logger.WithFields(logrus.Fields{
		"scenario":     o.scenarioPath,
		"threads":      len(s.Threads),
		"entries":      len(s.Entries),
		"translations": len(s.Translations),
	}).Debug("scenario loaded")

	return s, nil
}

// Execute runs the command line and exits. Exit handlers, such as the ones
// that flush trace databases, run before the program ends.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
