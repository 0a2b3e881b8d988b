// Package access scopes raw segment data to a role and resolves access codes to roles.
package access

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/huangsam/scorecard/core/agg"
	"github.com/huangsam/scorecard/core/loader"
	"github.com/huangsam/scorecard/core/table"
	"github.com/huangsam/scorecard/internal/registry"
	"github.com/huangsam/scorecard/schema"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidAccessCode is returned when a code matches no configured role.
	ErrInvalidAccessCode = errors.New("invalid access code")

	// ErrUnknownRole is returned when a view is requested for a role that was never built.
	ErrUnknownRole = errors.New("unknown role")
)

var codePattern = regexp.MustCompile(`^[0-9]{4}$`)

// Partition returns the rows of a branch-segment table that role may see.
// Admin sees a copy of everything, a branch role sees rows whose branch
// label contains the role name, and anything else sees nothing.
func Partition(full *table.Table, role string, reg *registry.Registry) *table.Table {
	if role == schema.AdminRole {
		return full.Clone()
	}
	if role == "" || !reg.IsKnownRole(role) || !full.HasColumn(schema.BranchColumn) {
		return table.Empty()
	}
	needle := strings.ToLower(role)
	return full.Filter(func(r table.Row) bool {
		branch, ok := r.Get(schema.BranchColumn)
		return ok && strings.Contains(strings.ToLower(branch), needle)
	})
}

// SegmentView is one segment's data as seen by one role.
type SegmentView struct {
	Raw              *table.Table
	Months           []string
	Branches         []string
	AppointmentTypes []string
	Nationalities    []string
	Evaluators       []string
}

// RoleView is every segment as seen by one role.
type RoleView struct {
	Role     string
	Segments map[schema.Segment]*SegmentView
	Combined schema.LongFormTable
}

// Segment returns the view of one segment, or an empty view if it was never loaded.
func (v *RoleView) Segment(seg schema.Segment) *SegmentView {
	if sv, ok := v.Segments[seg]; ok {
		return sv
	}
	return &SegmentView{Raw: table.Empty()}
}

// Views holds the per-role views built once at startup.
type Views struct {
	roles map[string]*RoleView
}

// BuildViews partitions the loaded segment tables for every configured role.
func BuildViews(full map[schema.Segment]*table.Table, reg *registry.Registry) *Views {
	v := &Views{roles: make(map[string]*RoleView)}
	for _, role := range reg.Roles() {
		v.roles[role] = buildRoleView(full, role, reg)
		slog.Debug("role view built", "role", role)
	}
	return v
}

// View returns the view for role. Unknown roles get ErrUnknownRole and an
// empty view so callers that ignore the error still see no data.
func (v *Views) View(role string) (*RoleView, error) {
	if rv, ok := v.roles[role]; ok {
		return rv, nil
	}
	return &RoleView{
		Role:     role,
		Segments: map[schema.Segment]*SegmentView{},
		Combined: schema.NewLongFormTable(),
	}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
}

// Roles lists the roles that have a view.
func (v *Views) Roles() []string {
	roles := make([]string, 0, len(v.roles))
	for r := range v.roles {
		roles = append(roles, r)
	}
	slices.Sort(roles)
	return roles
}

func buildRoleView(full map[schema.Segment]*table.Table, role string, reg *registry.Registry) *RoleView {
	rv := &RoleView{Role: role, Segments: make(map[schema.Segment]*SegmentView), Combined: schema.NewLongFormTable()}

	for _, seg := range reg.Segments() {
		raw, ok := full[seg]
		if !ok || raw == nil {
			raw = table.Empty()
		}
		if seg == schema.BranchSegment {
			raw = Partition(raw, role, reg)
		}
		rv.Segments[seg] = newSegmentView(raw, seg, role, reg)
	}

	// Branch evaluators span every evaluated channel the role can see.
	if branch, ok := rv.Segments[schema.BranchSegment]; ok {
		if union := evaluatorUnion(rv); len(union) > 0 {
			branch.Evaluators = union
		}
	}

	for _, seg := range reg.Segments() {
		sv := rv.Segments[seg]
		rv.Combined = rv.Combined.Append(agg.Aggregate(sv.Raw, sv.Months, seg, reg))
	}
	return rv
}

func newSegmentView(raw *table.Table, seg schema.Segment, role string, reg *registry.Registry) *SegmentView {
	sv := &SegmentView{
		Raw:        raw,
		Months:     loader.AvailableMonths(raw, reg),
		Evaluators: sortedUnique(raw.Unique(schema.EvaluatorColumn)),
	}
	if seg != schema.BranchSegment {
		return sv
	}
	sv.Branches = BranchOptions(raw, role, reg)
	sv.AppointmentTypes = loader.UniqueValues(raw, schema.AppointmentColumn, labels(reg, schema.AppointmentColumn))
	sv.Nationalities = loader.UniqueValues(raw, schema.NationalityColumn, labels(reg, schema.NationalityColumn))
	return sv
}

// BranchOptions lists the branches role may pick, filtered the same way as its rows.
func BranchOptions(raw *table.Table, role string, reg *registry.Registry) []string {
	all := loader.UniqueValues(raw, schema.BranchColumn, labels(reg, schema.BranchColumn))
	if role == schema.AdminRole {
		return all
	}
	needle := strings.ToLower(role)
	var out []string
	for _, b := range all {
		if strings.Contains(strings.ToLower(b), needle) {
			out = append(out, b)
		}
	}
	return out
}

func evaluatorUnion(rv *RoleView) []string {
	var all []string
	for _, seg := range schema.EvaluatorUnionSegments {
		if sv, ok := rv.Segments[seg]; ok {
			all = append(all, sv.Raw.Unique(schema.EvaluatorColumn)...)
		}
	}
	return sortedUnique(all)
}

func sortedUnique(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}

func labels(reg *registry.Registry, column string) []string {
	m, ok := reg.Mapping(column)
	if !ok {
		return nil
	}
	return m.Labels()
}

// Authenticator resolves access codes to roles.
type Authenticator struct {
	entries []registry.AccessEntry
}

// NewAuthenticator builds an authenticator from the registry's access table.
func NewAuthenticator(reg *registry.Registry) *Authenticator {
	return &Authenticator{entries: reg.AccessEntries()}
}

// Authenticate returns the role for code, or ErrInvalidAccessCode.
func (a *Authenticator) Authenticate(code string) (string, error) {
	code = strings.TrimSpace(code)
	if !codePattern.MatchString(code) {
		return "", ErrInvalidAccessCode
	}
	for _, e := range a.entries {
		if e.CodeHash != "" {
			if bcrypt.CompareHashAndPassword([]byte(e.CodeHash), []byte(code)) == nil {
				return e.Role, nil
			}
			continue
		}
		if subtle.ConstantTimeCompare([]byte(e.Code), []byte(code)) == 1 {
			return e.Role, nil
		}
	}
	return "", ErrInvalidAccessCode
}

// HashCode returns a bcrypt hash of code suitable for the code_hash field.
func HashCode(code string) (string, error) {
	if !codePattern.MatchString(code) {
		return "", fmt.Errorf("%w: must be 4 digits", ErrInvalidAccessCode)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash access code: %w", err)
	}
	return string(hash), nil
}
