package core

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/huangsam/scorecard/core/access"
	"github.com/huangsam/scorecard/core/agg"
	"github.com/huangsam/scorecard/core/filter"
	"github.com/huangsam/scorecard/core/loader"
	"github.com/huangsam/scorecard/core/table"
	"github.com/huangsam/scorecard/internal/registry"
	"github.com/huangsam/scorecard/schema"
)

// Pipeline holds everything built once at startup: the registry, the loaded
// segment tables and the per-role views. It is read-only afterwards and safe
// for concurrent use.
type Pipeline struct {
	reg         *registry.Registry
	auth        *access.Authenticator
	views       *access.Views
	sources     map[schema.Segment]string
	fingerprint string
}

// NewPipeline loads every configured segment from dataDir and builds the role views.
// Segments that fail to load are kept as empty tables.
func NewPipeline(ctx context.Context, dataDir string, reg *registry.Registry) (*Pipeline, error) {
	segments := reg.Segments()
	tables := make(map[schema.Segment]*table.Table, len(segments))
	sources := make(map[schema.Segment]string, len(segments))

	for _, seg := range segments {
		path, err := loader.SourcePath(dataDir, seg, reg)
		if err != nil {
			return nil, err
		}
		sources[seg] = path
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, seg := range segments {
		wg.Add(1)
		go func(seg schema.Segment) {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			tbl := loader.LoadOrEmpty(sources[seg], seg, reg)
			mu.Lock()
			tables[seg] = tbl
			mu.Unlock()
		}(seg)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Pipeline{
		reg:         reg,
		auth:        access.NewAuthenticator(reg),
		views:       access.BuildViews(tables, reg),
		sources:     sources,
		fingerprint: datasetFingerprint(segments, sources),
	}, nil
}

// datasetFingerprint identifies the state of the source files on disk.
func datasetFingerprint(segments []schema.Segment, sources map[schema.Segment]string) string {
	h := sha256.New()
	for _, seg := range segments {
		path := sources[seg]
		_, _ = fmt.Fprintf(h, "%s=%s", seg, path)
		if info, err := os.Stat(path); err == nil {
			_, _ = fmt.Fprintf(h, ":%d:%d", info.Size(), info.ModTime().UnixNano())
		}
		_, _ = h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Registry returns the configuration the pipeline was built with.
func (p *Pipeline) Registry() *registry.Registry {
	return p.reg
}

// Authenticate resolves an access code to a role.
func (p *Pipeline) Authenticate(code string) (string, error) {
	return p.auth.Authenticate(code)
}

// Fingerprint identifies the loaded configuration and data.
func (p *Pipeline) Fingerprint() string {
	return p.reg.Fingerprint() + ":" + p.fingerprint
}

// scopeSelection clears the dimensions a segment does not have.
func scopeSelection(seg schema.Segment, sel schema.Selection) schema.Selection {
	out := sel
	out.Months = filter.ValidateMonths(sel.Months)
	if seg != schema.BranchSegment {
		out.Branch = schema.OverallSelection
		out.AppointmentType = schema.OverallSelection
		out.Nationality = schema.OverallSelection
	}
	for _, v := range []*string{&out.Branch, &out.AppointmentType, &out.Nationality, &out.Evaluator} {
		if *v == "" {
			*v = schema.OverallSelection
		}
	}
	return out
}

// BuildScorecard filters the role's rows for seg and aggregates them.
func (p *Pipeline) BuildScorecard(role string, seg schema.Segment, sel schema.Selection) (*schema.Scorecard, error) {
	view, err := p.views.View(role)
	if err != nil {
		return nil, err
	}
	sel = scopeSelection(seg, sel)
	sv := view.Segment(seg)

	filtered := filter.Apply(sv.Raw, filter.FromSelection(sel))
	lf := agg.Aggregate(filtered, sv.Months, seg, p.reg)

	return &schema.Scorecard{
		Role:        role,
		Segment:     seg,
		SegmentName: p.reg.SegmentName(seg),
		Selection:   sel,
		VisitCount:  filtered.Len(),
		Months:      sv.Months,
		Table:       lf,
		Groups:      agg.SummarizeGroups(lf, sv.Months),
	}, nil
}

// Combined returns the role's long-form table spanning every segment.
func (p *Pipeline) Combined(role string) (schema.LongFormTable, error) {
	view, err := p.views.View(role)
	return view.Combined, err
}

// Options returns the selectable filter values of seg for role.
func (p *Pipeline) Options(role string, seg schema.Segment) (schema.FilterOptions, error) {
	view, err := p.views.View(role)
	if err != nil {
		return schema.FilterOptions{Segment: seg}, err
	}
	sv := view.Segment(seg)
	return schema.FilterOptions{
		Segment:          seg,
		Months:           sv.Months,
		Branches:         sv.Branches,
		AppointmentTypes: sv.AppointmentTypes,
		Nationalities:    sv.Nationalities,
		Evaluators:       sv.Evaluators,
	}, nil
}

// Segments describes every configured segment as role sees it.
func (p *Pipeline) Segments(role string) ([]schema.SegmentInfo, error) {
	view, err := p.views.View(role)
	if err != nil {
		return nil, err
	}
	var out []schema.SegmentInfo
	for _, seg := range p.reg.Segments() {
		sv := view.Segment(seg)
		out = append(out, schema.SegmentInfo{
			Segment: seg,
			Name:    p.reg.SegmentName(seg),
			Source:  p.sources[seg],
			Rows:    sv.Raw.Len(),
			Months:  sv.Months,
		})
	}
	slog.Debug("segments listed", "role", role, "count", len(out))
	return out, nil
}

// Groups describes the metric groups configured for seg.
func (p *Pipeline) Groups(seg schema.Segment) ([]schema.MetricGroupInfo, error) {
	return p.reg.GroupInfo(seg)
}
