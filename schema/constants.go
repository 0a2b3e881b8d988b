package schema

// Custom string types for type safety.
type (
	// Segment identifies one evaluation channel.
	Segment string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string

	// ColorLabel is the traffic-light band a score falls into.
	ColorLabel string
)

// All segments supported.
const (
	BranchSegment                Segment = "branch" // default
	ContactCentreSegment         Segment = "contact-centre"
	WebsiteSegment               Segment = "website"
	SocialMediaSegment           Segment = "social-media"
	CombinedContactCentreSegment Segment = "combined-contact-centre"
)

// AllSegments lists segments in their display order.
var AllSegments = []Segment{
	BranchSegment,
	ContactCentreSegment,
	WebsiteSegment,
	SocialMediaSegment,
	CombinedContactCentreSegment,
}

// EvaluatorUnionSegments are the segments whose evaluators feed the branch evaluator list.
var EvaluatorUnionSegments = []Segment{
	BranchSegment,
	ContactCentreSegment,
	WebsiteSegment,
	SocialMediaSegment,
}

// Raw column names shared by the evaluation exports.
const (
	BranchColumn      = "Branch"
	NationalityColumn = "NATIONALITY"
	AppointmentColumn = "Q1_1"
	WaveColumn        = "WAVE"
	EvaluatorColumn   = "SC"
)

// OverallSelection is the filter value meaning "do not filter on this dimension".
const OverallSelection = "Overall"

// AdminRole sees every row of every segment.
const AdminRole = "Admin"

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	RedisBackend      DatabaseBackend = "redis" // cache only
	NoneBackend       DatabaseBackend = "none"
)

// All color labels supported.
const (
	DangerLabel  ColorLabel = "danger"
	WarningLabel ColorLabel = "warning"
	SuccessLabel ColorLabel = "success"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidSegments lists all valid segments.
var ValidSegments = map[Segment]struct{}{
	BranchSegment:                {},
	ContactCentreSegment:         {},
	WebsiteSegment:               {},
	SocialMediaSegment:           {},
	CombinedContactCentreSegment: {},
}

// ValidCacheBackends lists all valid cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	RedisBackend:      {},
	NoneBackend:       {},
}

// ValidHistoryBackends lists all valid history backends.
var ValidHistoryBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
