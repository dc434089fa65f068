// Package app assembles a simulation run from the configuration: the
// dispatcher, its scenario source, metrics sinks, the step log, the event
// buses, the reporters, MQTT publishing and the status API.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/rideshare/api"
	"github.com/kilianp07/rideshare/config"
	"github.com/kilianp07/rideshare/core/dispatch"
	"github.com/kilianp07/rideshare/core/events"
	coremetrics "github.com/kilianp07/rideshare/core/metrics"
	"github.com/kilianp07/rideshare/core/model"
	coremon "github.com/kilianp07/rideshare/core/monitoring"
	"github.com/kilianp07/rideshare/core/steplog"
	"github.com/kilianp07/rideshare/infra/logger"
	"github.com/kilianp07/rideshare/infra/metrics"
	inframon "github.com/kilianp07/rideshare/infra/monitoring"
	"github.com/kilianp07/rideshare/infra/mqtt"
	"github.com/kilianp07/rideshare/internal/eventbus"
	"github.com/kilianp07/rideshare/report"
	"github.com/kilianp07/rideshare/scenario"
	"github.com/kilianp07/rideshare/simulator"
)

// Service owns the long lived resources shared by runs.
type Service struct {
	cfg     *config.Config
	out     io.Writer
	log     logger.Logger
	sink    coremetrics.MetricsSink
	store   steplog.LogStore
	steps   *eventbus.TypedBus[events.StepEvent]
	rejects *eventbus.TypedBus[events.RejectedEvent]
	runs    *eventbus.TypedBus[events.RunEvent]
	tracker *api.Tracker
	mqtt    *mqtt.Client
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a Service writing console reports to out.
func New(cfg *config.Config, out io.Writer) (*Service, error) {
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := steplog.NewStore(cfg.StepLog)
	if err != nil {
		coremetrics.CloseSink(sink)
		return nil, fmt.Errorf("step log: %w", err)
	}
	s := &Service{
		cfg:     cfg,
		out:     out,
		log:     logger.New("service"),
		sink:    sink,
		store:   store,
		steps:   eventbus.NewTyped[events.StepEvent](),
		rejects: eventbus.NewTyped[events.RejectedEvent](),
		runs:    eventbus.NewTyped[events.RunEvent](),
		tracker: api.NewTracker(),
	}
	if cfg.MQTT.Enabled {
		cli, err := mqtt.NewClient(cfg.MQTT)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		s.mqtt = cli
	}
	return s, nil
}

// Start launches the status tracker and the HTTP servers. They stop when
// ctx is canceled or the service is closed.
func (s *Service) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	steps, runs, rejects := s.steps.Subscribe(), s.runs.Subscribe(), s.rejects.Subscribe()
	s.goObserve(ctx, func(ctx context.Context) { s.tracker.ObserveSteps(ctx, steps) })
	s.goObserve(ctx, func(ctx context.Context) { s.tracker.ObserveRuns(ctx, runs) })
	s.goObserve(ctx, func(ctx context.Context) { s.tracker.ObserveRejections(ctx, rejects) })

	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		s.goObserve(ctx, func(ctx context.Context) {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		})
	}
	if s.cfg.API.Enabled {
		router := api.NewRouter(api.NewHandler(s.tracker, s.store), prometheus.DefaultGatherer)
		s.goObserve(ctx, func(ctx context.Context) {
			if err := api.Serve(ctx, s.cfg.API.Addr, router); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		})
	}
}

func (s *Service) goObserve(ctx context.Context, fn func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(ctx)
	}()
}

// Tracker exposes the live status fed by the event buses.
func (s *Service) Tracker() *api.Tracker { return s.tracker }

// Store returns the step log.
func (s *Service) Store() steplog.LogStore { return s.store }

// RunScript replays the scenario file at path.
func (s *Service) RunScript(ctx context.Context, path string) (simulator.Summary, error) {
	script, err := scenario.Load(path)
	if err != nil {
		return simulator.Summary{}, err
	}
	grid := s.cfg.Grid.Dispatch().Grid
	if script.Grid != nil {
		grid = *script.Grid
	}
	return s.Run(ctx, grid, scenario.NewScriptSource(script))
}

// RunRandom runs the random request generator configured in the random
// section.
func (s *Service) RunRandom(ctx context.Context) (simulator.Summary, error) {
	grid := s.cfg.Grid.Dispatch().Grid
	src, err := scenario.NewRandomSource(s.cfg.Random, grid)
	if err != nil {
		return simulator.Summary{}, err
	}
	s.log.Infof("random roster: %v", src.Roster())
	return s.Run(ctx, grid, src)
}

// Run drives a fresh dispatcher on grid with requests from src.
func (s *Service) Run(ctx context.Context, grid model.Grid, src scenario.Source) (simulator.Summary, error) {
	dcfg := s.cfg.Grid.Dispatch()
	dcfg.Grid = grid
	disp, err := dispatch.New(dcfg, logger.New("dispatcher"))
	if err != nil {
		return simulator.Summary{}, err
	}
	reporters := []simulator.Reporter{report.NewTextReporter(s.out)}
	if s.cfg.Simulation.RenderGrid {
		reporters = append(reporters, report.NewGridReporter(s.out))
	}
	if s.mqtt != nil {
		reporters = append(reporters, mqtt.NewStepPublisher(s.mqtt))
	}
	runner, err := simulator.NewRunner(s.cfg.Simulation, disp, src,
		simulator.WithLogger(logger.New("simulator")),
		simulator.WithMetrics(s.sink),
		simulator.WithStepLog(s.store),
		simulator.WithStepBus(s.steps),
		simulator.WithRejectionBus(s.rejects),
		simulator.WithRunBus(s.runs),
		simulator.WithReporters(reporters...),
	)
	if err != nil {
		return simulator.Summary{}, err
	}
	return runner.Run(ctx)
}

// Close stops the background work and releases every resource.
func (s *Service) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.steps.Close()
	s.rejects.Close()
	s.runs.Close()
	s.wg.Wait()
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	coremetrics.CloseSink(s.sink)
	coremon.Flush(2 * time.Second)
	var errs []error
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("step log: %w", err))
	}
	return errors.Join(errs...)
}
