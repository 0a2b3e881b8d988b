package registry

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io/fs"
	"maps"
	"os"
	"regexp"
	"slices"

	"github.com/huangsam/scorecard/schema"
	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var defaultFiles embed.FS

// File names read from a configuration directory.
const (
	segmentsFile    = "segments.yaml"
	categoriesFile  = "categories.yaml"
	monthsFile      = "months.yaml"
	scoreColorsFile = "score_colors.yaml"
	accessFile      = "access.yaml"
)

// categoryColumns maps categories.yaml sections to the raw columns they decode.
var categoryColumns = map[string]string{
	"branch":           schema.BranchColumn,
	"nationality":      schema.NationalityColumn,
	"appointment_type": schema.AppointmentColumn,
	"evaluator":        schema.EvaluatorColumn,
}

var accessCodePattern = regexp.MustCompile(`^[0-9]{4}$`)

type segmentsDoc struct {
	Segments map[string]struct {
		Name    string `yaml:"name"`
		Source  string `yaml:"source"`
		Metrics string `yaml:"metrics"`
	} `yaml:"segments"`
}

type metricsDoc struct {
	MetricGroups    yaml.Node         `yaml:"metric_groups"`
	WeightVariables map[string]string `yaml:"weight_variables"`
}

type monthsDoc struct {
	MonthMapping map[int]string `yaml:"month_mapping"`
}

type scoreColorsDoc struct {
	ScoreColors *schema.ScoreThresholds `yaml:"score_colors"`
}

type accessDoc struct {
	AccessCodes []struct {
		Role     string `yaml:"role"`
		Code     string `yaml:"code"`
		CodeHash string `yaml:"code_hash"`
	} `yaml:"access_codes"`
}

// LoadDefault builds the registry from the configuration embedded in the binary.
func LoadDefault() (*Registry, error) {
	sub, err := fs.Sub(defaultFiles, "defaults")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// LoadDir builds the registry from a directory on disk. Files missing from
// dir are taken from the embedded defaults.
func LoadDir(dir string) (*Registry, error) {
	if dir == "" {
		return LoadDefault()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("config directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config directory %s is not a directory", dir)
	}
	sub, err := fs.Sub(defaultFiles, "defaults")
	if err != nil {
		return nil, err
	}
	return Load(overlayFS{primary: os.DirFS(dir), fallback: sub})
}

// Load builds and validates a registry from the files in fsys.
func Load(fsys fs.FS) (*Registry, error) {
	r := &Registry{
		segments:   make(map[schema.Segment]SegmentConfig),
		categories: make(map[string]CategoryMapping),
	}
	fr := &fileReader{fsys: fsys, sum: sha256.New()}

	var colors scoreColorsDoc
	if err := fr.decode(scoreColorsFile, &colors); err != nil {
		return nil, err
	}
	if colors.ScoreColors == nil {
		return nil, fmt.Errorf("%s: missing score_colors section", scoreColorsFile)
	}
	r.thresholds = *colors.ScoreColors

	var months monthsDoc
	if err := fr.decode(monthsFile, &months); err != nil {
		return nil, err
	}
	r.categories[schema.WaveColumn] = CategoryMapping(months.MonthMapping)

	var categories map[string]map[int]string
	if err := fr.decode(categoriesFile, &categories); err != nil {
		return nil, err
	}
	for section, mapping := range categories {
		column, ok := categoryColumns[section]
		if !ok {
			return nil, fmt.Errorf("%s: unknown category %q", categoriesFile, section)
		}
		r.categories[column] = CategoryMapping(mapping)
	}

	var segments segmentsDoc
	if err := fr.decode(segmentsFile, &segments); err != nil {
		return nil, err
	}
	// Sorted so the fingerprint does not depend on map order.
	for _, id := range slices.Sorted(maps.Keys(segments.Segments)) {
		s := segments.Segments[id]
		seg := schema.Segment(id)
		if _, ok := schema.ValidSegments[seg]; !ok {
			return nil, fmt.Errorf("%s: %w: %q", segmentsFile, ErrUnknownSegment, id)
		}
		groups, err := loadGroups(fr, s.Metrics)
		if err != nil {
			return nil, err
		}
		r.segments[seg] = SegmentConfig{Segment: seg, Name: s.Name, Source: s.Source, Groups: groups}
	}

	var access accessDoc
	if err := fr.decode(accessFile, &access); err != nil {
		return nil, err
	}
	for _, a := range access.AccessCodes {
		r.access = append(r.access, AccessEntry{Role: a.Role, Code: a.Code, CodeHash: a.CodeHash})
	}

	if err := r.validate(); err != nil {
		return nil, err
	}
	r.fingerprint = hex.EncodeToString(fr.sum.Sum(nil))
	return r, nil
}

// loadGroups decodes a metrics file. Groups and metrics keep their file order.
func loadGroups(fr *fileReader, name string) ([]MetricGroup, error) {
	if name == "" {
		return nil, errors.New("segment has no metrics file")
	}
	var doc metricsDoc
	if err := fr.decode(name, &doc); err != nil {
		return nil, err
	}
	pairs, err := orderedPairs(doc.MetricGroups)
	if err != nil {
		return nil, fmt.Errorf("%s: metric_groups: %w", name, err)
	}

	groups := make([]MetricGroup, 0, len(pairs))
	for _, p := range pairs {
		metricPairs, err := orderedPairs(*p.value)
		if err != nil {
			return nil, fmt.Errorf("%s: group %q: %w", name, p.key, err)
		}
		group := MetricGroup{Name: p.key, WeightVariable: doc.WeightVariables[p.key]}
		for _, mp := range metricPairs {
			var label string
			if err := mp.value.Decode(&label); err != nil {
				return nil, fmt.Errorf("%s: metric %q: %w", name, mp.key, err)
			}
			group.Metrics = append(group.Metrics, Metric{ID: mp.key, Label: label})
		}
		groups = append(groups, group)
	}

	for g := range doc.WeightVariables {
		if !hasGroup(groups, g) {
			return nil, fmt.Errorf("%s: weight variable for unknown group %q", name, g)
		}
	}
	return groups, nil
}

type nodePair struct {
	key   string
	value *yaml.Node
}

// orderedPairs walks a mapping node in document order and rejects duplicate keys.
func orderedPairs(node yaml.Node) ([]nodePair, error) {
	if node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	seen := make(map[string]bool, len(node.Content)/2)
	pairs := make([]nodePair, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if seen[key] {
			return nil, fmt.Errorf("line %d: duplicate key %q", node.Content[i].Line, key)
		}
		seen[key] = true
		pairs = append(pairs, nodePair{key: key, value: node.Content[i+1]})
	}
	return pairs, nil
}

// fileReader decodes files from one FS and hashes everything it reads.
type fileReader struct {
	fsys fs.FS
	sum  hash.Hash
}

func (fr *fileReader) decode(name string, out any) error {
	data, err := fs.ReadFile(fr.fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	_, _ = fr.sum.Write([]byte(name))
	_, _ = fr.sum.Write(data)
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func (r *Registry) validate() error {
	t := r.thresholds
	if t.Danger < 0 || t.Warning > 100 || t.Danger > t.Warning {
		return fmt.Errorf("%s: thresholds must satisfy 0 <= danger <= warning <= 100, got %v/%v",
			scoreColorsFile, t.Danger, t.Warning)
	}
	if len(r.categories[schema.WaveColumn]) == 0 {
		return fmt.Errorf("%s: month_mapping is empty", monthsFile)
	}
	if len(r.segments) == 0 {
		return fmt.Errorf("%s: no segments configured", segmentsFile)
	}

	for seg, sc := range r.segments {
		if sc.Source == "" {
			return fmt.Errorf("segment %s: missing source", seg)
		}
	}

	for _, a := range r.access {
		if a.Role == "" {
			return fmt.Errorf("%s: entry without role", accessFile)
		}
		switch {
		case a.Code != "" && a.CodeHash != "":
			return fmt.Errorf("%s: role %s sets both code and code_hash", accessFile, a.Role)
		case a.Code != "" && !accessCodePattern.MatchString(a.Code):
			return fmt.Errorf("%s: role %s: access code must be 4 digits", accessFile, a.Role)
		case a.Code == "" && a.CodeHash == "":
			return fmt.Errorf("%s: role %s has no code", accessFile, a.Role)
		}
	}
	return nil
}

func hasGroup(groups []MetricGroup, name string) bool {
	for _, g := range groups {
		if g.Name == name {
			return true
		}
	}
	return false
}

// overlayFS serves files from primary and falls back to fallback when absent.
type overlayFS struct {
	primary  fs.FS
	fallback fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.primary.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return o.fallback.Open(name)
	}
	return f, err
}
