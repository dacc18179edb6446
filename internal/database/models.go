package database

// Unknown is the sentinel stored for any string metadata field that could not
// be determined.
const Unknown = "Unknown"

// Status is the transcoding state of an entry.
type Status string

const (
	StatusPending    Status = "pending"
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusOptimum    Status = "optimum"
)

// MetadataKind distinguishes where a metadata row came from.
type MetadataKind string

const (
	// KindDeclared is metadata inferred from the filename.
	KindDeclared MetadataKind = "declared"
	// KindActual is metadata measured by probing the file.
	KindActual MetadataKind = "actual"
)

// Entry is the identity record for one discovered media file. Entries are
// created by the scanner and never mutated.
type Entry struct {
	UUID string
	Name string
	Hash string
	Path string
	Size int64
}

// Metadata holds the stream properties of an entry, keyed by (uuid, kind).
type Metadata struct {
	UUID       string
	Kind       MetadataKind
	Codec      string
	Format     string
	SAR        string
	DAR        string
	Resolution string
	Framerate  float64
	Extra      map[string]interface{}
}

// NewMetadata returns a Metadata with every field at its sentinel default.
func NewMetadata(uuid string, kind MetadataKind) Metadata {
	return Metadata{
		UUID:       uuid,
		Kind:       kind,
		Codec:      Unknown,
		Format:     Unknown,
		SAR:        Unknown,
		DAR:        Unknown,
		Resolution: Unknown,
		Framerate:  0.0,
		Extra:      map[string]interface{}{},
	}
}

// Progress is the transcoding state of an entry. Workfile is non-nil iff the
// status is in_progress.
type Progress struct {
	UUID         string
	Status       Status
	Progress     float64
	FrameCurrent int64
	FrameTotal   int64
	Workfile     *string
}
