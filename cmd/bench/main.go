// Command bench runs a concurrent workload against a searchlist and exposes
// optional pprof/Prometheus/stats endpoints while it runs.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/searchlist/internal/workload"
	pmet "github.com/IvanBrykalov/searchlist/metrics/prom"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options holds the flags that are not workload fields.
type options struct {
	preset   string
	config   string
	addr     string
	logLevel string
	dev      bool
}

func newRootCmd() *cobra.Command {
	var (
		opt options
		fl  = workload.Defaults()
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run inserters, searchers and removers against one searchlist",
		Long: `bench drives a searchlist with concurrent inserters, searchers and removers.

Settings come from the preset, then the --config YAML file, then any flag
given explicitly on the command line.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolve(cmd.Flags(), opt, fl)
			if err != nil {
				return err
			}
			log, err := newLogger(opt.logLevel, opt.dev)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, cfg, opt.addr, log)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opt.preset, "preset", workload.PresetRandom, "base settings: random | scenario")
	f.StringVarP(&opt.config, "config", "c", "", "YAML workload file applied over the preset")
	f.StringVar(&opt.addr, "http", "", "serve /metrics, /stats and /debug/pprof at addr (e.g. :8080); empty = disabled")
	f.StringVar(&opt.logLevel, "log-level", "info", "debug | info | warn | error")
	f.BoolVar(&opt.dev, "dev", false, "human-readable development logging")

	f.StringVar(&fl.Policy, "policy", fl.Policy, "wake-up policy: strict | legacy")
	f.IntVar(&fl.Preload, "preload", fl.Preload, "items inserted before the workers start")
	f.IntVar(&fl.Inserters, "inserters", fl.Inserters, "inserter goroutines")
	f.IntVar(&fl.Searchers, "searchers", fl.Searchers, "searcher goroutines")
	f.IntVar(&fl.Removers, "removers", fl.Removers, "remover goroutines")
	f.IntVar(&fl.Ops, "ops", fl.Ops, "operations per worker (0 = until --duration)")
	f.DurationVar(&fl.Duration, "duration", fl.Duration, "run duration (0 = until every worker did --ops)")
	f.IntVar(&fl.Keys, "keys", fl.Keys, "item keyspace for random picks")
	f.BoolVar(&fl.Indexed, "indexed", fl.Indexed, "worker i always uses item i")
	f.DurationVar(&fl.OpTimeout, "op-timeout", fl.OpTimeout, "admission deadline per operation (0 = none)")
	f.Int64Var(&fl.Seed, "seed", fl.Seed, "random seed")
	f.BoolVar(&fl.CheckInvariant, "check-invariant", fl.CheckInvariant, "verify controller counters on every transition")

	return cmd
}

// resolve layers preset, file and explicitly set flags, in that order.
func resolve(fs *pflag.FlagSet, opt options, fl workload.Config) (workload.Config, error) {
	cfg, err := workload.Preset(opt.preset)
	if err != nil {
		return workload.Config{}, err
	}
	if opt.config != "" {
		if cfg, err = workload.Load(opt.config, cfg); err != nil {
			return workload.Config{}, err
		}
	}

	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "policy":
			cfg.Policy = fl.Policy
		case "preload":
			cfg.Preload = fl.Preload
		case "inserters":
			cfg.Inserters = fl.Inserters
		case "searchers":
			cfg.Searchers = fl.Searchers
		case "removers":
			cfg.Removers = fl.Removers
		case "ops":
			cfg.Ops = fl.Ops
		case "duration":
			cfg.Duration = fl.Duration
		case "keys":
			cfg.Keys = fl.Keys
		case "indexed":
			cfg.Indexed = fl.Indexed
		case "op-timeout":
			cfg.OpTimeout = fl.OpTimeout
		case "seed":
			cfg.Seed = fl.Seed
		case "check-invariant":
			cfg.CheckInvariant = fl.CheckInvariant
		}
	})
	return cfg, cfg.Validate()
}

func newLogger(level string, dev bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if dev {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func run(ctx context.Context, cmd *cobra.Command, cfg workload.Config, addr string, log *zap.Logger) error {
	runID := uuid.Must(uuid.NewV4()).String()
	log = log.With(zap.String("run", runID))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := pmet.New(reg, "searchlist", "bench", prometheus.Labels{"run": runID})

	l, err := workload.NewList(cfg, metrics, log)
	if err != nil {
		return err
	}

	var rep workload.Report
	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	if addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           newRouter(reg, l, log),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info("serving", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-done:
			case <-gctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer close(done)
		var err error
		rep, err = workload.Run(gctx, l, cfg, log)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	printReport(cmd, cfg, rep)
	return nil
}

func printReport(cmd *cobra.Command, cfg workload.Config, rep workload.Report) {
	st := rep.Stats
	ops := st.Searches + st.Inserts + st.Removes
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "preset=%s policy=%s inserters=%d searchers=%d removers=%d dur=%v seed=%d\n",
		cfg.Preset, cfg.Policy, cfg.Inserters, cfg.Searchers, cfg.Removers, rep.Elapsed, cfg.Seed)
	fmt.Fprintf(out, "ops=%d (%.0f ops/s)  searches=%d found=%d  inserts=%d  removes=%d removed=%d  canceled=%d\n",
		ops, float64(ops)/rep.Elapsed.Seconds(), st.Searches, st.Found, st.Inserts, st.Removes, st.Removed, st.Canceled)
	fmt.Fprintf(out, "Len()=%d\n", st.Len)
}
