package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	logLevel    string
	metricsAddr string

	rt *runtime
)

func Execute() error {
	root := &cobra.Command{
		Use:          "solar-checker",
		Short:        "Solar qualification wizard",
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt != nil {
				rt.close()
				rt = nil
			}
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./configs/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	root.AddCommand(runCmd(), resolveCmd(), requirementsCmd(), qualifyCmd())
	return root.ExecuteContext(context.Background())
}

// loadRuntime builds the shared runtime on first use. Commands that need no
// configuration never call it.
func loadRuntime() (*runtime, error) {
	if rt != nil {
		return rt, nil
	}
	r, err := newRuntime(configPath, logLevel)
	if err != nil {
		return nil, err
	}
	if metricsAddr != "" {
		r.serveMetrics(metricsAddr)
	} else if r.cfg.Observability.MetricsAddress != "" {
		r.serveMetrics(r.cfg.Observability.MetricsAddress)
	}
	rt = r
	return rt, nil
}
