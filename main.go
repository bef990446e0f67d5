package main

import (
	"context"
	"fmt"
	"iter"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ab-sim/pkg/config"
	"ab-sim/pkg/database"
	"ab-sim/pkg/logger"
	"ab-sim/pkg/models"
	"ab-sim/pkg/simulator"
	"ab-sim/pkg/sink"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	// .env avant les flags: AB_SIM_OUT alimente la valeur par défaut de --out
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		env        string
	)

	cmd := &cobra.Command{
		Use:          "ab-sim",
		Short:        "Generate a reproducible synthetic A/B test dataset",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}
	resolver := config.NewResolver(cmd.Flags())
	cmd.Flags().StringVar(&configPath, "config", "", "optional YAML config file (flags override it)")
	cmd.Flags().StringVar(&env, "env", "development", "logger mode: development or production")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		log, err := logger.New(env)
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		defer log.Sync() //nolint:errcheck

		opts, err := resolver.Resolve(configPath)
		if err != nil {
			return err
		}
		cfg, err := opts.Simulation()
		if err != nil {
			return err
		}
		engine, err := simulator.New(cfg)
		if err != nil {
			return err
		}
		if opts.Verbose {
			log.Info("simulation config",
				zap.Int("n_users", cfg.UserCount),
				zap.Float64("baseline_rate", cfg.BaselineRate),
				zap.Float64("treatment_rate", cfg.TreatmentRate()),
				zap.Time("start", cfg.StartDate),
				zap.Int("days", cfg.Days),
				zap.Int64("seed", cfg.Seed),
				zap.Int("workers", cfg.Workers))
		}

		var summary simulator.Summary
		rows := observe(engine.Rows(), &summary)

		var bar sink.Progress
		if showProgress(opts) {
			bar = progressbar.Default(int64(cfg.UserCount), "writing rows")
		}

		start := time.Now()
		n, dest, err := write(cmd.Context(), log, opts, rows, bar)
		if err != nil {
			return err
		}

		if opts.Verbose {
			for _, arm := range summary {
				log.Info("arm",
					zap.Stringer("variant", arm.Variant),
					zap.Int("users", arm.Users),
					zap.Int("conversions", arm.Conversions),
					zap.Float64("conversion_rate", arm.ConversionRate()),
					zap.String("revenue", arm.Revenue.StringFixed(2)))
			}
		}
		log.Info(fmt.Sprintf("Wrote %d rows to %s", n, dest), zap.Duration("elapsed", time.Since(start)))
		return nil
	}
	return cmd
}

// write envoie les lignes vers le CSV ou MySQL selon opts.Out.
// Renvoie la destination affichable (DSN sans mot de passe).
func write(ctx context.Context, log *zap.Logger, opts config.Options, rows iter.Seq[models.Row], bar sink.Progress) (int, string, error) {
	if !database.IsDSN(opts.Out) {
		n, err := sink.WriteCSVFile(ctx, opts.Out, rows, bar)
		return n, opts.Out, err
	}

	dest := database.Redact(opts.Out) + "#" + opts.Table
	db, _, err := database.Open(opts.Out)
	if err != nil {
		return 0, dest, fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return 0, dest, fmt.Errorf("ping db: %w", err)
	}

	s, err := database.NewSink(db, opts.Table)
	if err != nil {
		return 0, dest, err
	}
	if err := s.EnsureTable(ctx); err != nil {
		return 0, dest, err
	}
	log.Info("connected", zap.String("dest", dest), zap.String("run_id", s.RunID()))

	n, err := s.Write(ctx, rows, bar)
	return n, dest, err
}

// showProgress: pas de barre en mode silencieux ni quand le CSV part sur stdout.
func showProgress(opts config.Options) bool {
	return opts.Verbose && opts.Out != sink.Stdout
}

// observe alimente summary au fil du flux, sans matérialiser les lignes.
func observe(rows iter.Seq[models.Row], summary *simulator.Summary) iter.Seq[models.Row] {
	for i, v := range models.Variants {
		summary[i].Variant = v
	}
	return func(yield func(models.Row) bool) {
		for r := range rows {
			summary.Observe(r)
			if !yield(r) {
				return
			}
		}
	}
}
