package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/corrkit/remand/internal/app"
	"github.com/corrkit/remand/internal/config"
	"github.com/corrkit/remand/internal/domain/model"
	"github.com/corrkit/remand/pkg/logger"
)

// cohortRecord pairs one person with their incarceration history.
type cohortRecord struct {
	Person  model.Person                `json:"person"`
	Periods []model.IncarcerationPeriod `json:"periods"`
}

func main() {
	input := flag.String("input", "", "Path to a JSON cohort file (array of {person, periods} records)")
	flag.Parse()

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if *input == "" {
		loggerInstance.Error(ctx, "no cohort file given; use -input <path>")
		return
	}

	cohort, err := readCohort(*input)
	if err != nil {
		loggerInstance.Error(ctx, "failed to read cohort file",
			logger.String("path", *input),
			logger.Error(err),
		)
		return
	}

	// Create and start the service with configuration options
	opts := []app.Option{
		app.WithLogger(loggerInstance),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.JobQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithShardCount(cfg.ShardCount),
		app.WithMaxFollowUpPeriods(cfg.MaxFollowUpPeriods),
		app.WithMetricTypes(cfg.MetricTypes),
	}
	if cfg.ObservationDate != "" {
		// Already validated by config.Load
		date, _ := time.Parse("2006-01-02", cfg.ObservationDate)
		opts = append(opts, app.WithObservationDate(date))
	}
	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	submitted := 0
	skipped := 0
	for _, rec := range cohort {
		ok, err := svc.SubmitPeriods(ctx, rec.Person, rec.Periods)
		if err != nil {
			loggerInstance.Warn(ctx, "skipping person with invalid history",
				logger.Int64("personID", rec.Person.ID),
				logger.Error(err),
			)
			skipped++
			continue
		}
		if !ok {
			loggerInstance.Error(ctx, "queue rejected person job",
				logger.Int64("personID", rec.Person.ID),
			)
			skipped++
			continue
		}
		submitted++
	}

	if err := svc.Drain(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to drain pipeline", logger.Error(err))
		return
	}

	produced := svc.Metrics(ctx)
	enc := json.NewEncoder(os.Stdout)
	for _, m := range produced {
		if err := enc.Encode(m); err != nil {
			loggerInstance.Error(ctx, "failed to write metric", logger.Error(err))
			return
		}
	}

	loggerInstance.Info(ctx, "calculation run finished",
		logger.String("jobID", svc.JobID()),
		logger.Int("personsSubmitted", submitted),
		logger.Int("personsSkipped", skipped),
		logger.Int("metricsProduced", len(produced)),
	)
}

// readCohort decodes the cohort file into records.
func readCohort(path string) ([]cohortRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cohort []cohortRecord
	if err := json.Unmarshal(data, &cohort); err != nil {
		return nil, err
	}
	return cohort, nil
}
