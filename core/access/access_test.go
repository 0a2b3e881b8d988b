package access

import (
	"strings"
	"testing"

	"github.com/huangsam/scorecard/core/table"
	"github.com/huangsam/scorecard/internal/registry"
	"github.com/huangsam/scorecard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.LoadDefault()
	require.NoError(t, err)
	return reg
}

func makeTable(t *testing.T, columns []string, rows ...[]string) *table.Table {
	t.Helper()
	tbl := table.New(columns)
	for _, r := range rows {
		cells := make([]table.Cell, len(r))
		for i, v := range r {
			if v == "" {
				cells[i] = table.Missing()
			} else {
				cells[i] = table.Value(v)
			}
		}
		require.NoError(t, tbl.Append(cells))
	}
	return tbl
}

func fullBranch(t *testing.T) *table.Table {
	return makeTable(t,
		[]string{schema.BranchColumn, schema.WaveColumn, schema.EvaluatorColumn, schema.NationalityColumn, "Q5_1"},
		[]string{"Dubai", "January", "Omar Khalid", "Emarati", "80"},
		[]string{"Sharjah", "February", "Aisha Rahman", "Non-Emarati", "60"},
		[]string{"Abu Dhabi", "January", "Fatima Noor", "Emarati", "70"},
		[]string{"", "March", "Layla Aziz", "", "50"},
	)
}

func TestPartition(t *testing.T) {
	reg := testRegistry(t)
	full := fullBranch(t)

	admin := Partition(full, schema.AdminRole, reg)
	assert.True(t, admin.Equal(full))

	dubai := Partition(full, "Dubai", reg)
	require.Equal(t, 1, dubai.Len())
	for i := range dubai.Len() {
		b, ok := dubai.Row(i).Get(schema.BranchColumn)
		require.True(t, ok)
		assert.True(t, strings.Contains(strings.ToLower(b), "dubai"))
	}

	abuDhabi := Partition(full, "Abu Dhabi", reg)
	assert.Equal(t, 1, abuDhabi.Len())

	assert.True(t, Partition(full, "Ajman", reg).IsEmpty())
	assert.True(t, Partition(full, "", reg).IsEmpty())
	assert.True(t, Partition(table.Empty(), "Dubai", reg).IsEmpty())
}

func TestBuildViews(t *testing.T) {
	reg := testRegistry(t)
	full := map[schema.Segment]*table.Table{
		schema.BranchSegment: fullBranch(t),
		schema.ContactCentreSegment: makeTable(t,
			[]string{schema.WaveColumn, schema.EvaluatorColumn, "CC1_1"},
			[]string{"February", "Zed Contact", "90"},
		),
		schema.CombinedContactCentreSegment: makeTable(t,
			[]string{schema.WaveColumn, schema.EvaluatorColumn, "CC1_1"},
			[]string{"January", "Combined Only", "40"},
		),
	}
	views := BuildViews(full, reg)
	assert.Equal(t, []string{"Abu Dhabi", schema.AdminRole, "Dubai", "Sharjah"}, views.Roles())

	dubai, err := views.View("Dubai")
	require.NoError(t, err)
	branch := dubai.Segment(schema.BranchSegment)
	assert.Equal(t, 1, branch.Raw.Len())
	assert.Equal(t, []string{"January"}, branch.Months)
	assert.Equal(t, []string{"Dubai"}, branch.Branches)
	assert.Equal(t, []string{"Emarati"}, branch.Nationalities)
	// Appointment column is absent, so the configured labels are offered
	assert.Equal(t, []string{"Social Media Lead", "Website Visit Lead", "Call Centre Lead", "Walkin Customer"}, branch.AppointmentTypes)
	// Union over branch view and contact centre, never combined contact centre
	assert.Equal(t, []string{"Omar Khalid", "Zed Contact"}, branch.Evaluators)

	cc := dubai.Segment(schema.ContactCentreSegment)
	assert.Equal(t, []string{"Zed Contact"}, cc.Evaluators)
	assert.Nil(t, cc.Branches)

	website := dubai.Segment(schema.WebsiteSegment)
	assert.True(t, website.Raw.IsEmpty())
	assert.Empty(t, website.Months)

	admin, err := views.View(schema.AdminRole)
	require.NoError(t, err)
	assert.Equal(t, 4, admin.Segment(schema.BranchSegment).Raw.Len())
	assert.Equal(t, []string{"Dubai", "Sharjah", "Abu Dhabi"}, admin.Segment(schema.BranchSegment).Branches)

	// Combined table spans every segment the role can see
	segs := map[schema.Segment]bool{}
	for _, r := range admin.Combined.Rows {
		segs[r.Segment] = true
	}
	assert.True(t, segs[schema.BranchSegment])
	assert.True(t, segs[schema.ContactCentreSegment])
	assert.True(t, segs[schema.CombinedContactCentreSegment])
}

func TestViewUnknownRoleFailsClosed(t *testing.T) {
	reg := testRegistry(t)
	views := BuildViews(map[schema.Segment]*table.Table{schema.BranchSegment: fullBranch(t)}, reg)

	rv, err := views.View("Ajman")
	require.ErrorIs(t, err, ErrUnknownRole)
	require.NotNil(t, rv)
	assert.True(t, rv.Segment(schema.BranchSegment).Raw.IsEmpty())
	assert.Equal(t, 0, rv.Combined.Len())
}

func TestEvaluatorFallback(t *testing.T) {
	reg := testRegistry(t)
	views := BuildViews(map[schema.Segment]*table.Table{}, reg)
	rv, err := views.View("Sharjah")
	require.NoError(t, err)
	assert.Empty(t, rv.Segment(schema.BranchSegment).Evaluators)
}

func TestAuthenticate(t *testing.T) {
	reg := testRegistry(t)
	auth := NewAuthenticator(reg)

	role, err := auth.Authenticate("5823")
	require.NoError(t, err)
	assert.Equal(t, schema.AdminRole, role)

	role, err = auth.Authenticate(" 1947 ")
	require.NoError(t, err)
	assert.Equal(t, "Dubai", role)

	for _, bad := range []string{"0000", "123", "abcd", "", "58231"} {
		_, err := auth.Authenticate(bad)
		require.ErrorIs(t, err, ErrInvalidAccessCode, bad)
	}
}

func TestAuthenticateHashedCode(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("2468"), bcrypt.MinCost)
	require.NoError(t, err)
	auth := &Authenticator{entries: []registry.AccessEntry{{Role: "Sharjah", CodeHash: string(hash)}}}

	role, err := auth.Authenticate("2468")
	require.NoError(t, err)
	assert.Equal(t, "Sharjah", role)

	_, err = auth.Authenticate("2469")
	require.ErrorIs(t, err, ErrInvalidAccessCode)
}

func TestHashCode(t *testing.T) {
	hash, err := HashCode("1357")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("1357")))

	_, err = HashCode("13")
	require.ErrorIs(t, err, ErrInvalidAccessCode)
}
