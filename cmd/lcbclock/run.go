package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/stateflow/pkg/stateflow"
	"github.com/randalmurphal/stateflow/pkg/stateflow/alarm"
	"github.com/randalmurphal/stateflow/pkg/stateflow/clock"
	"github.com/randalmurphal/stateflow/pkg/stateflow/config"
	"github.com/randalmurphal/stateflow/pkg/stateflow/event"
	"github.com/randalmurphal/stateflow/pkg/stateflow/observability"
)

// runOptions holds flags for the run command.
type runOptions struct {
	*rootOptions
	Duration time.Duration
}

func newRunCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the clock node",
		Long: `Run a broadcast clock node until interrupted.

The node restores its clock from the store (if configured), fires a date
alarm at every clock midnight and, when alarm_period is set, a periodic
alarm. Clock changes are saved to the store as they happen.

Example:
  lcbclock run --config node.yaml
  lcbclock run --for 30s --log-level debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := opts.loadSettings()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if opts.Duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.Duration)
				defer cancel()
			}
			return runNode(ctx, settings)
		},
	}

	cmd.Flags().DurationVar(&opts.Duration, "for", 0, "stop after this long (0 runs until interrupted)")
	return cmd
}

func runNode(ctx context.Context, settings config.NodeSettings) error {
	logger := newLogger(settings.LogLevel)
	metrics := observability.NewMetricsRecorder()

	exec := stateflow.NewExecutor(
		stateflow.WithExecutorLogger(logger),
		stateflow.WithMetrics(metrics),
	)
	registry := event.NewRegistry(
		event.WithLogger(logger),
		event.WithMetrics(metrics),
		event.WithSpanManager(observability.NewSpanManager()),
	)
	dispatcher := event.NewDispatcher(exec, registry)

	clockOpts := []clock.Option{
		clock.WithRate(settings.Rate),
		clock.WithRunning(settings.Running),
		clock.WithLogger(logger),
	}
	if settings.StartTime != 0 {
		clockOpts = append(clockOpts, clock.WithStartTime(settings.StartTime))
	}
	clk := clock.New(settings.ClockID, clockOpts...)

	if settings.StorePath != "" {
		store, err := clock.NewSQLiteStore(settings.StorePath)
		if err != nil {
			return fmt.Errorf("open clock store: %w", err)
		}
		defer store.Close()

		restored, err := clk.RestoreFrom(ctx, store)
		if err != nil {
			return err
		}
		logger.Info("clock store opened",
			slog.String("path", settings.StorePath),
			slog.Bool("restored", restored),
			slog.Int64("clock_time", clk.Time()))

		defer clk.PersistOnChange(ctx, store, logger)()
		newSnapshotter(exec, clk, store, settings.SyncInterval)
		defer func() {
			// ctx is done by now; the final save gets its own.
			saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := clk.SaveTo(saveCtx, store); err != nil {
				logger.Warn("final clock save failed", slog.String("error", err.Error()))
			}
		}()
	}

	handler := &clockHandler{clock: clk, logger: logger}
	registry.Register(handler, clk.ID(), clock.EventMask)
	defer registry.Unregister(handler, clk.ID(), clock.EventMask)

	date := alarm.NewDate(exec, clk, func() {
		day := clk.Calendar()
		logger.Info("date rollover", slog.String("date", day.Format(time.DateOnly)))
		report(ctx, dispatcher, clock.DateEvent(clk.ID(), day), settings.NodeID)
		if day.YearDay() == 1 {
			report(ctx, dispatcher, clock.YearEvent(clk.ID(), day), settings.NodeID)
		}
	}, alarm.WithName("date"))
	defer date.Close()

	if settings.AlarmPeriod > 0 {
		var periodic *alarm.Alarm
		periodic = alarm.New(exec, clk, func() {
			now := clk.Calendar()
			logger.Info("periodic alarm", slog.Time("clock", now))
			report(ctx, dispatcher, clock.TimeEvent(clk.ID(), now), settings.NodeID)
			periodic.SetPeriod(settings.AlarmPeriod)
		}, alarm.WithName("periodic"))
		periodic.SetPeriod(settings.AlarmPeriod)
		defer periodic.Close()
	}

	logger.Info("clock node running",
		slog.String("clock", clk.ID().String()),
		slog.String("rate", clk.Rate().String()),
		slog.Time("clock_time", clk.Calendar()))

	err := exec.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// report queues an event report originating from this node.
func report(ctx context.Context, d *event.Dispatcher, id event.ID, source event.NodeID) {
	d.Enqueue(ctx, event.CategoryReport, &event.Report{Event: id, Source: source}, nil)
}

// clockHandler answers for the events of one clock.
type clockHandler struct {
	event.BaseHandler
	clock  *clock.Clock
	logger *slog.Logger
}

func (h *clockHandler) HandleEventReport(r *event.Report, done stateflow.Notifiable) {
	defer done.Done()
	h.logger.Debug("clock event", slog.String("event", r.Event.String()), slog.String("source", r.Source.String()))
}

func (h *clockHandler) HandleIdentifyProducer(r *event.Report, done stateflow.Notifiable) {
	defer done.Done()
	h.logger.Info("producer identify",
		slog.String("event", r.Event.String()),
		slog.Time("clock", h.clock.Calendar()))
}

// snapshotter periodically saves the clock so a restart resumes close to
// where the node stopped, even when nothing changed the clock.
type snapshotter struct {
	*stateflow.Flow
	clock    *clock.Clock
	store    clock.Store
	interval time.Duration
	timer    *stateflow.Timer
}

func newSnapshotter(exec *stateflow.Executor, clk *clock.Clock, store clock.Store, interval time.Duration) *snapshotter {
	s := &snapshotter{
		Flow:     stateflow.NewFlow(exec, "snapshot"),
		clock:    clk,
		store:    store,
		interval: interval,
	}
	s.timer = s.NewTimer()
	if interval > 0 {
		s.Start(s.sleep)
	}
	return s
}

func (s *snapshotter) sleep() stateflow.Action {
	return stateflow.SleepAndCall(s.timer, s.interval, s.save)
}

func (s *snapshotter) save() stateflow.Action {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()
	if err := s.clock.SaveTo(ctx, s.store); err != nil {
		observability.LogStoreError(s.Logger(), s.clock.ID().String(), "save", err)
	}
	return stateflow.CallImmediately(s.sleep)
}
