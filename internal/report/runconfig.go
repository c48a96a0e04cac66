package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/openshelf/reportgen/internal/domain"
)

// DatasetSizeMode selects the layout strategy. Standard eagerly zero-fills
// the numeric region; large skips the fill to stay within practical
// size/time limits. The fill's absence changes which cells are explicitly
// zero versus blank-read-as-zero, never the mathematical result.
type DatasetSizeMode string

const (
	ModeStandard     DatasetSizeMode = "standard"
	ModeLargeDataset DatasetSizeMode = "large"
)

const (
	defaultLargeDatasetThreshold   = 400000
	defaultPriceDetectionThreshold = 0.5
)

// InputKeys are the object storage locations a run reads from, derived from
// the project identifier by a fixed naming convention.
type InputKeys struct {
	Products    string
	Sessions    string
	Findability string
	Heatmaps    string
}

// RunConfig holds the validated parameters of one report run. It is
// immutable after construction except for two documented transitions: the
// pricing-mode cache fill and the one-shot large-dataset switch.
type RunConfig struct {
	ProjectID  string
	Partner    Partner
	AOIMode    bool
	Interim    bool
	DataPrefix string

	// PricingOverride forces pricing on or off; nil means auto-detect.
	PricingOverride *bool

	LargeDatasetThreshold   int
	PriceDetectionThreshold float64

	sizeMode        DatasetSizeMode
	pricingResolved bool
	pricingIncluded bool
}

// NewRunConfig validates the run parameters. An empty project identifier is
// a configuration error, surfaced immediately with no retry.
func NewRunConfig(projectID string) (*RunConfig, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, newRunError(CategoryConfiguration, projectID, "configure",
			errors.New("project identifier is required"))
	}

	return &RunConfig{
		ProjectID:               projectID,
		Partner:                 PartnerFor(projectID),
		LargeDatasetThreshold:   defaultLargeDatasetThreshold,
		PriceDetectionThreshold: defaultPriceDetectionThreshold,
		sizeMode:                ModeStandard,
	}, nil
}

// InputKeys derives the four storage locations for this run.
func (c *RunConfig) InputKeys() InputKeys {
	prefix := strings.TrimSuffix(c.DataPrefix, "/")
	join := func(name string) string {
		if prefix == "" {
			return fmt.Sprintf("%s-%s.json", c.ProjectID, name)
		}
		return fmt.Sprintf("%s/%s-%s.json", prefix, c.ProjectID, name)
	}
	return InputKeys{
		Products:    join("products"),
		Sessions:    join("scv"),
		Findability: join("find"),
		Heatmaps:    join("heatmapsData"),
	}
}

// DatasetSizeMode reports the current layout strategy.
func (c *RunConfig) DatasetSizeMode() DatasetSizeMode {
	return c.sizeMode
}

// SwitchToLargeDataset performs the single documented in-run mutation:
// Standard -> LargeDataset. The transition is terminal for the run.
func (c *RunConfig) SwitchToLargeDataset(reason string) {
	if c.sizeMode == ModeLargeDataset {
		return
	}
	c.sizeMode = ModeLargeDataset
	log.Info().
		Str("project_id", c.ProjectID).
		Str("reason", reason).
		Msg("switching to large dataset mode")
}

// NeedsLargeDataset is the proactive size check: it triggers strictly above
// the threshold, so a product of exactly the threshold keeps standard mode.
func (c *RunConfig) NeedsLargeDataset(userCount, productCount int) bool {
	return userCount*productCount*5 > c.LargeDatasetThreshold
}

// DetectHasPricing classifies each product's price into valid (>0), zero,
// and null/invalid, and reports pricing as included when the valid share
// reaches the detection threshold. An empty product list never has pricing.
func (c *RunConfig) DetectHasPricing(products []domain.Product) bool {
	if len(products) == 0 {
		return false
	}

	var valid, zero, invalid int
	for _, p := range products {
		price, ok := parsePrice(p.Price)
		switch {
		case !ok:
			invalid++
		case price > 0:
			valid++
		default:
			zero++
		}
	}

	ratio := float64(valid) / float64(len(products))
	included := ratio >= c.PriceDetectionThreshold

	log.Debug().
		Str("project_id", c.ProjectID).
		Int("valid", valid).
		Int("zero", zero).
		Int("invalid", invalid).
		Float64("ratio", ratio).
		Bool("included", included).
		Msg("pricing auto-detection")

	return included
}

// ResolvePricingMode returns the explicit override when one was set at
// configuration time; otherwise it runs detection once and caches the
// result for the remainder of the run.
func (c *RunConfig) ResolvePricingMode(products []domain.Product) bool {
	if c.PricingOverride != nil {
		return *c.PricingOverride
	}
	if !c.pricingResolved {
		c.pricingIncluded = c.DetectHasPricing(products)
		c.pricingResolved = true
	}
	return c.pricingIncluded
}

// parsePrice interprets the wire price. The second return is false for
// null or non-numeric values.
func parsePrice(raw *string) (float64, bool) {
	if raw == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
