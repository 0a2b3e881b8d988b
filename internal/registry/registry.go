// Package registry holds the immutable survey configuration: metric groups,
// weight variables, category code mappings, color thresholds and access codes.
//
// A Registry is built once at startup and handed by pointer to every
// component that needs it. Nothing in it changes afterwards.
package registry

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/huangsam/scorecard/schema"
)

// ErrUnknownSegment is returned when a segment has no configuration.
var ErrUnknownSegment = errors.New("unknown segment")

// Metric is one scored survey question.
type Metric struct {
	ID    string
	Label string
}

// MetricGroup is an ordered cluster of metrics with an optional rollup column.
type MetricGroup struct {
	Name           string
	Metrics        []Metric
	WeightVariable string // Empty when the group has no rollup column
}

// RollupLabel is the display label of the group's overall row.
func (g MetricGroup) RollupLabel() string {
	return g.Name + " OVERALL"
}

// SegmentConfig is everything the pipeline needs to know about one segment.
type SegmentConfig struct {
	Segment schema.Segment
	Name    string
	Source  string
	Groups  []MetricGroup
}

// CategoryMapping translates small integer codes to labels.
type CategoryMapping map[int]string

// Lookup returns the label for a code.
func (m CategoryMapping) Lookup(code int) (string, bool) {
	label, ok := m[code]
	return label, ok
}

// Labels returns all labels ordered by code.
func (m CategoryMapping) Labels() []string {
	codes := slices.Sorted(maps.Keys(m))
	labels := make([]string, 0, len(codes))
	for _, c := range codes {
		labels = append(labels, m[c])
	}
	return labels
}

// AccessEntry binds one access code to a role. Exactly one of Code and
// CodeHash is set; CodeHash is a bcrypt hash.
type AccessEntry struct {
	Role     string
	Code     string
	CodeHash string
}

// Registry is the read-only configuration object.
type Registry struct {
	thresholds schema.ScoreThresholds
	segments   map[schema.Segment]SegmentConfig
	categories map[string]CategoryMapping // keyed by raw column name
	access     []AccessEntry

	fingerprint string
}

// Fingerprint is a hash of every configuration file the registry was built from.
func (r *Registry) Fingerprint() string {
	return r.fingerprint
}

// Thresholds returns the score color cutoffs.
func (r *Registry) Thresholds() schema.ScoreThresholds {
	return r.thresholds
}

// Segment returns a copy of a segment's configuration.
func (r *Registry) Segment(seg schema.Segment) (SegmentConfig, error) {
	sc, ok := r.segments[seg]
	if !ok {
		return SegmentConfig{}, fmt.Errorf("%w: %q", ErrUnknownSegment, seg)
	}
	out := sc
	out.Groups = cloneGroups(sc.Groups)
	return out, nil
}

// Groups returns a copy of a segment's metric groups in declaration order.
func (r *Registry) Groups(seg schema.Segment) ([]MetricGroup, error) {
	sc, err := r.Segment(seg)
	if err != nil {
		return nil, err
	}
	return sc.Groups, nil
}

// SegmentName returns the display name of a segment, or the segment id itself.
func (r *Registry) SegmentName(seg schema.Segment) string {
	if sc, ok := r.segments[seg]; ok && sc.Name != "" {
		return sc.Name
	}
	return string(seg)
}

// Segments lists configured segments in display order.
func (r *Registry) Segments() []schema.Segment {
	var out []schema.Segment
	for _, seg := range schema.AllSegments {
		if _, ok := r.segments[seg]; ok {
			out = append(out, seg)
		}
	}
	return out
}

// Mapping returns the category mapping applied to a raw column.
func (r *Registry) Mapping(column string) (CategoryMapping, bool) {
	m, ok := r.categories[column]
	return m, ok
}

// MonthLabels returns the configured month labels ordered by code.
func (r *Registry) MonthLabels() []string {
	return r.categories[schema.WaveColumn].Labels()
}

// AccessEntries returns a copy of the access code table.
func (r *Registry) AccessEntries() []AccessEntry {
	return slices.Clone(r.access)
}

// Roles returns every distinct role with an access code, in declaration order.
func (r *Registry) Roles() []string {
	var roles []string
	for _, e := range r.access {
		if !slices.Contains(roles, e.Role) {
			roles = append(roles, e.Role)
		}
	}
	return roles
}

// IsKnownRole reports whether any access code maps to role.
func (r *Registry) IsKnownRole(role string) bool {
	return slices.Contains(r.Roles(), role)
}

// GroupInfo describes a segment's metric groups for display.
func (r *Registry) GroupInfo(seg schema.Segment) ([]schema.MetricGroupInfo, error) {
	groups, err := r.Groups(seg)
	if err != nil {
		return nil, err
	}
	out := make([]schema.MetricGroupInfo, 0, len(groups))
	for _, g := range groups {
		info := schema.MetricGroupInfo{Group: g.Name, WeightVariable: g.WeightVariable}
		for _, m := range g.Metrics {
			info.Metrics = append(info.Metrics, schema.MetricInfo{ID: m.ID, Label: m.Label})
		}
		out = append(out, info)
	}
	return out, nil
}

func cloneGroups(groups []MetricGroup) []MetricGroup {
	out := make([]MetricGroup, len(groups))
	for i, g := range groups {
		out[i] = g
		out[i].Metrics = slices.Clone(g.Metrics)
	}
	return out
}
