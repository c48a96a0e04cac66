package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openshelf/reportgen/internal/config"
	"github.com/openshelf/reportgen/internal/domain"
	"github.com/openshelf/reportgen/internal/storage"
)

// Progress is the step-boundary checkpoint callback. Errors returned by a
// callback are caught and logged, never propagated into the run.
type Progress func(percent float64, step string, extra map[string]any) error

// Step names reported at each checkpoint.
const (
	StepFetchComplete       = "fetch-complete"
	StepPricingResolved     = "pricing-resolved"
	StepHeadersWritten      = "headers-written"
	StepPerUserPassComplete = "per-user-pass-complete"
	StepFileWritten         = "file-written"
	StepUploadComplete      = "upload-complete"
)

// ThumbnailSource is a per-run thumbnail provider that can be purged on
// run exit.
type ThumbnailSource interface {
	ThumbnailFetcher
	Purge()
}

// Generator owns one report generation run end to end: fetch inputs,
// resolve pricing, build and populate the workbook, write the file, upload
// it, and return the manifest. A Generator may be reused, but each Run owns
// its document exclusively; runs never share state.
type Generator struct {
	store      storage.ObjectStorage
	storageCfg config.StorageConfig
	imagesCfg  config.ImagesConfig

	// newThumbs builds the per-run thumbnail source; nil disables images.
	newThumbs func(runID string) (ThumbnailSource, error)

	now     func() time.Time
	tempDir string
}

// NewGenerator wires a Generator against its collaborators.
func NewGenerator(store storage.ObjectStorage, storageCfg config.StorageConfig, imagesCfg config.ImagesConfig, newThumbs func(runID string) (ThumbnailSource, error)) *Generator {
	return &Generator{
		store:      store,
		storageCfg: storageCfg,
		imagesCfg:  imagesCfg,
		newThumbs:  newThumbs,
		now:        time.Now,
		tempDir:    os.TempDir(),
	}
}

// Run executes one report generation and returns its manifest. Failures
// come back as *RunError carrying the project id, the step, and the cause.
func (g *Generator) Run(ctx context.Context, cfg *RunConfig, progress Progress) (*domain.Manifest, error) {
	start := g.now()
	if cfg.DataPrefix == "" {
		cfg.DataPrefix = g.storageCfg.DataPrefix
	}
	keys := cfg.InputKeys()

	var products []domain.Product
	if err := g.store.FetchJSON(ctx, keys.Products, &products); err != nil {
		return nil, newRunError(fetchCategory(err), cfg.ProjectID, "fetch-products", err)
	}
	var users []domain.UserRecord
	if err := g.store.FetchJSON(ctx, keys.Sessions, &users); err != nil {
		return nil, newRunError(fetchCategory(err), cfg.ProjectID, "fetch-sessions", err)
	}

	// Findability is optional: a missing or unreadable document disables
	// the feature for the run.
	var findability []domain.FindabilityRecord
	if err := g.store.FetchJSON(ctx, keys.Findability, &findability); err != nil {
		log.Info().
			Str("project_id", cfg.ProjectID).
			Err(err).
			Msg("findability data unavailable, disabling for this run")
		findability = nil
	}

	// Cell lists are deduplicated once, here; everything downstream treats
	// products as immutable.
	for i := range products {
		products[i].Cells = dedupeCells(products[i].Cells)
	}

	notify(progress, 20, StepFetchComplete, map[string]any{
		"products": len(products),
		"users":    len(users),
	})

	pricing := cfg.ResolvePricingMode(products)
	notify(progress, 30, StepPricingResolved, map[string]any{"pricing_included": pricing})

	if cfg.NeedsLargeDataset(len(users), len(products)) {
		cfg.SwitchToLargeDataset("proactive size check")
	}

	runID := fmt.Sprintf("%s-%d", cfg.ProjectID, start.UnixNano())
	var thumbs ThumbnailSource
	if g.newThumbs != nil {
		var err error
		thumbs, err = g.newThumbs(runID)
		if err != nil {
			return nil, newRunError(CategoryInternal, cfg.ProjectID, "prepare-images", err)
		}
		defer thumbs.Purge()
	}

	filename := buildFilename(cfg.ProjectID, cfg.Interim, g.now())
	outPath := filepath.Join(g.tempDir, filename)
	defer os.Remove(outPath)

	err := g.generate(ctx, cfg, products, users, findability, pricing, thumbs, progress, outPath)
	if err != nil && cfg.DatasetSizeMode() == ModeStandard {
		// Reactive fallback: one retry with a fresh document in large mode.
		log.Warn().
			Str("project_id", cfg.ProjectID).
			Err(err).
			Msg("generation failed in standard mode, retrying in large dataset mode")
		cfg.SwitchToLargeDataset("generation failure")
		err = g.generate(ctx, cfg, products, users, findability, pricing, thumbs, progress, outPath)
	}
	if err != nil {
		return nil, newRunError(CategoryCapacity, cfg.ProjectID, "generate", err)
	}

	storageKey := buildStorageKey(g.storageCfg.OutputPrefix, cfg.ProjectID, filename)
	if err := g.store.UploadFile(ctx, storageKey, outPath); err != nil {
		return nil, newRunError(CategoryPersistence, cfg.ProjectID, "upload", err)
	}

	duration := g.now().Sub(start)

	downloadURL := ""
	presignTTL := time.Duration(g.storageCfg.PresignTTL) * time.Second
	if presignTTL <= 0 {
		presignTTL = time.Hour
	}
	if url, err := g.store.PresignedURL(ctx, storageKey, presignTTL); err != nil {
		log.Warn().Str("key", storageKey).Err(err).Msg("failed to presign download url")
	} else {
		downloadURL = url
	}

	manifest := &domain.Manifest{
		Filename:        filename,
		StorageKey:      storageKey,
		DownloadURL:     downloadURL,
		DurationSeconds: duration.Seconds(),
		Counts: domain.ReportCounts{
			ProductCount: len(products),
			UserCount:    len(users),
		},
		PricingIncluded: pricing,
		DatasetSizeMode: string(cfg.DatasetSizeMode()),
		GeneratedAt:     start,
	}

	notify(progress, 100, StepUploadComplete, map[string]any{"storage_key": storageKey})

	return manifest, nil
}

// generate builds one complete workbook from scratch and saves it to
// outPath. Each call constructs a fresh sheet set; the retry path never
// patches a partially written document.
func (g *Generator) generate(ctx context.Context, cfg *RunConfig, products []domain.Product, users []domain.UserRecord, findability []domain.FindabilityRecord, pricing bool, thumbs ThumbnailSource, progress Progress, outPath string) error {
	wb, err := NewWorkbook(cfg.Partner)
	if err != nil {
		return err
	}
	defer wb.Close()

	mode := cfg.DatasetSizeMode()
	type section struct {
		sheet  string
		layout Layout
	}
	sections := []section{
		{SheetSales, salesLayout(len(products), cfg.Partner, pricing)},
		{SheetClicks, clicksLayout(len(products), cfg.Partner)},
		{SheetViews, viewsLayout(len(products))},
	}
	if cfg.Partner.HasFunnelSheets {
		sections = append(sections,
			section{SheetFunnel, funnelLayout(len(products))},
			section{SheetNotPurchased, nonPurchaseLayout(len(products))},
		)
	}
	for _, s := range sections {
		if err := writeSectionHeaders(wb, s.sheet, s.layout, len(products), len(users), mode); err != nil {
			return err
		}
	}
	notify(progress, 50, StepHeadersWritten, nil)

	var thumbnails ThumbnailFetcher
	if thumbs != nil {
		productIDs := make([]string, len(products))
		for i, p := range products {
			productIDs[i] = p.IDProduct
		}
		if pf, ok := thumbs.(interface {
			Prefetch(ctx context.Context, projectID string, productIDs []string)
		}); ok {
			pf.Prefetch(ctx, cfg.ProjectID, productIDs)
		}
		thumbnails = thumbs
	}
	if err := populateProducts(ctx, wb, cfg, products, thumbnails); err != nil {
		return err
	}

	assigner := newUserAssigner(wb, cfg, products, pricing)
	if err := assigner.writeUsers(users); err != nil {
		return err
	}
	if cfg.Partner.HasFunnelSheets {
		if err := assigner.writeFunnelPass(users, len(products)); err != nil {
			return err
		}
	}

	if err := populateTimers(wb, users); err != nil {
		return err
	}
	if err := populateFindability(wb, findability); err != nil {
		return err
	}
	notify(progress, 70, StepPerUserPassComplete, nil)

	if err := wb.File.SaveAs(outPath); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	notify(progress, 85, StepFileWritten, map[string]any{"path": outPath})

	return nil
}

// notify invokes the progress callback, absorbing both returned errors and
// panics so a faulty callback can never fail the run.
func notify(progress Progress, percent float64, step string, extra map[string]any) {
	if progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Str("step", step).Msg("progress callback panicked")
		}
	}()
	if err := progress(percent, step, extra); err != nil {
		log.Warn().Err(err).Str("step", step).Msg("progress callback failed")
	}
}

func fetchCategory(err error) Category {
	if errors.Is(err, storage.ErrObjectNotFound) {
		return CategoryInputNotFound
	}
	return CategoryInputFormat
}

// buildFilename renders {projectID}-{final|interim}_data_set-{MMDDYYYY}-{HH.mm}.xlsx.
func buildFilename(projectID string, interim bool, now time.Time) string {
	label := "final"
	if interim {
		label = "interim"
	}
	return fmt.Sprintf("%s-%s_data_set-%s-%s.xlsx",
		projectID, label, now.Format("01022006"), now.Format("15.04"))
}

func buildStorageKey(outputPrefix, projectID, filename string) string {
	if outputPrefix == "" {
		return fmt.Sprintf("%s/%s", projectID, filename)
	}
	return fmt.Sprintf("%s/%s/%s", outputPrefix, projectID, filename)
}
