package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openshelf/reportgen/internal/config"
	"github.com/openshelf/reportgen/internal/domain"
	"github.com/openshelf/reportgen/internal/jobs"
	"github.com/openshelf/reportgen/internal/report"
	"github.com/openshelf/reportgen/internal/repository"
)

// SubmitParams are the request parameters of one report job.
type SubmitParams struct {
	ProjectID string `json:"project_id" binding:"required"`
	AOIMode   bool   `json:"aoi_mode"`
	Interim   bool   `json:"interim"`
	// Pricing forces pricing on or off; nil means auto-detect.
	Pricing *bool `json:"pricing"`
}

// ReportService owns job submission and status polling. Each submitted job
// runs in its own goroutine; the engine never shares a run across jobs.
type ReportService struct {
	gen      *report.Generator
	tracker  jobs.Tracker
	history  *repository.RunHistoryRepository
	defaults config.ReportConfig
}

func NewReportService(gen *report.Generator, tracker jobs.Tracker, history *repository.RunHistoryRepository, defaults config.ReportConfig) *ReportService {
	return &ReportService{
		gen:      gen,
		tracker:  tracker,
		history:  history,
		defaults: defaults,
	}
}

// BuildRunConfig validates submit parameters into an engine run config.
func (s *ReportService) BuildRunConfig(params SubmitParams) (*report.RunConfig, error) {
	cfg, err := report.NewRunConfig(params.ProjectID)
	if err != nil {
		return nil, err
	}
	cfg.AOIMode = params.AOIMode
	cfg.Interim = params.Interim
	cfg.PricingOverride = params.Pricing
	if s.defaults.LargeDatasetThreshold > 0 {
		cfg.LargeDatasetThreshold = s.defaults.LargeDatasetThreshold
	}
	if s.defaults.PriceDetectionThreshold > 0 {
		cfg.PriceDetectionThreshold = s.defaults.PriceDetectionThreshold
	}
	return cfg, nil
}

// Submit validates the request, registers a job record, and starts the run
// in the background. The returned job id is immediately pollable.
func (s *ReportService) Submit(ctx context.Context, params SubmitParams) (string, error) {
	cfg, err := s.BuildRunConfig(params)
	if err != nil {
		return "", err
	}

	jobID := fmt.Sprintf("%s-%d", cfg.ProjectID, time.Now().UnixNano())
	if err := s.tracker.Create(ctx, &domain.JobRecord{
		JobID:     jobID,
		ProjectID: cfg.ProjectID,
		Status:    domain.JobQueued,
	}); err != nil {
		return "", fmt.Errorf("failed to register job: %w", err)
	}

	// The run outlives the HTTP request; cancellation is signaled by
	// abandoning the poll, not by the submit context.
	go s.run(context.Background(), jobID, cfg)

	return jobID, nil
}

// Status returns the poll-visible state of a job.
func (s *ReportService) Status(ctx context.Context, jobID string) (*domain.JobRecord, bool, error) {
	return s.tracker.Get(ctx, jobID)
}

// Generate runs one report synchronously, used by the CLI.
func (s *ReportService) Generate(ctx context.Context, cfg *report.RunConfig, progress report.Progress) (*domain.Manifest, error) {
	manifest, err := s.gen.Run(ctx, cfg, progress)
	if err != nil {
		return nil, err
	}
	s.recordHistory(ctx, cfg.ProjectID, manifest)
	return manifest, nil
}

func (s *ReportService) run(ctx context.Context, jobID string, cfg *report.RunConfig) {
	progress := func(percent float64, step string, extra map[string]any) error {
		return s.tracker.SetProgress(ctx, jobID, percent, step)
	}

	manifest, err := s.gen.Run(ctx, cfg, progress)
	if err != nil {
		category := string(report.CategoryOf(err))
		log.Error().
			Str("job_id", jobID).
			Str("project_id", cfg.ProjectID).
			Str("category", category).
			Err(err).
			Msg("report job failed")
		if terr := s.tracker.SetError(ctx, jobID, category, err.Error()); terr != nil {
			log.Warn().Str("job_id", jobID).Err(terr).Msg("failed to record job failure")
		}
		return
	}

	if err := s.tracker.SetResult(ctx, jobID, manifest); err != nil {
		log.Warn().Str("job_id", jobID).Err(err).Msg("failed to record job result")
	}
	s.recordHistory(ctx, cfg.ProjectID, manifest)

	log.Info().
		Str("job_id", jobID).
		Str("project_id", cfg.ProjectID).
		Str("filename", manifest.Filename).
		Float64("duration_seconds", manifest.DurationSeconds).
		Msg("report job completed")
}

// recordHistory is best-effort: history is an audit trail, not part of the
// run's success criteria.
func (s *ReportService) recordHistory(ctx context.Context, projectID string, manifest *domain.Manifest) {
	if s.history == nil {
		return
	}
	if err := s.history.RecordRun(ctx, projectID, manifest); err != nil {
		log.Warn().Str("project_id", projectID).Err(err).Msg("failed to record run history")
	}
}
