// Package core has the scorecard pipeline: loading, access scoping,
// filtering, aggregation, caching and run history.
package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/scorecard/core/access"
	"github.com/huangsam/scorecard/internal/contract"
	"github.com/huangsam/scorecard/internal/outwriter"
	"github.com/huangsam/scorecard/internal/registry"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// OpenPipeline loads the registry from cfg.ConfigDir (or the embedded
// defaults) and the segment data from cfg.DataDir.
func OpenPipeline(ctx context.Context, cfg *contract.Config) (*Pipeline, error) {
	reg, err := registry.LoadDir(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewPipeline(ctx, cfg.DataDir, reg)
}

// openSession opens the pipeline and resolves the configured access code.
func openSession(ctx context.Context, cfg *contract.Config) (*Pipeline, string, error) {
	p, err := OpenPipeline(ctx, cfg)
	if err != nil {
		return nil, "", err
	}
	role, err := p.Authenticate(cfg.AccessCode)
	if err != nil {
		return nil, "", err
	}
	return p, role, nil
}

// ExecuteShow renders the scorecard of cfg.Segment for the configured selection.
// It serves as the main entry point for the 'show' command.
func ExecuteShow(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	p, role, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	card, err := p.Scorecard(mgr, role, cfg.Segment, cfg.Selection)
	if err != nil {
		return err
	}
	return outwriter.PrintScorecard(card, p.Registry().Thresholds(), cfg, time.Since(start))
}

// ExecuteCombined prints the role's long-form table across every segment.
func ExecuteCombined(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	p, role, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	lf, err := p.Combined(role)
	if err != nil {
		return err
	}
	return outwriter.PrintCombined(role, lf, p.Registry().Thresholds(), cfg)
}

// ExecuteOptions prints the filter values available for cfg.Segment.
func ExecuteOptions(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	p, role, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	opts, err := p.Options(role, cfg.Segment)
	if err != nil {
		return err
	}
	return outwriter.PrintOptions(opts, cfg)
}

// ExecuteSegments prints every configured segment with its loaded row count.
func ExecuteSegments(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	p, role, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	infos, err := p.Segments(role)
	if err != nil {
		return err
	}
	return outwriter.PrintSegments(infos, cfg)
}

// ExecuteGroups prints the metric groups configured for cfg.Segment.
// It needs no access code since it only reads configuration.
func ExecuteGroups(_ context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	reg, err := registry.LoadDir(cfg.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	groups, err := reg.GroupInfo(cfg.Segment)
	if err != nil {
		return err
	}
	return outwriter.PrintGroups(cfg.Segment, groups, cfg)
}

// ExecuteAccessCheck resolves cfg.AccessCode to a role and prints it.
func ExecuteAccessCheck(_ context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	reg, err := registry.LoadDir(cfg.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	role, err := access.NewAuthenticator(reg).Authenticate(cfg.AccessCode)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(os.Stdout, "Access code accepted: role %s\n", role)
	return err
}
