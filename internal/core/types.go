package core

import "time"

// Field names a roster column after header aliasing.
type Field string

const (
	FieldName          Field = "name"
	FieldGender        Field = "gender"
	FieldAcademicScore Field = "academic_score"
	FieldBehaviorType  Field = "behavior_type"
	FieldBehaviorNote  Field = "behavior_note"
	FieldFixedClass    Field = "fixed_class"

	// NEIS placement columns. A sheet with both the new and the previous
	// 학년/반/번호 triple repeats the headers; the second copy maps to the
	// Prev fields.
	FieldGrade         Field = "grade"
	FieldClass         Field = "class"
	FieldNumber        Field = "number"
	FieldPrevGrade     Field = "prev_grade"
	FieldPrevClass     Field = "prev_class"
	FieldPrevNumber    Field = "prev_number"
	FieldPrevInfo      Field = "prev_info"
	FieldAssignedClass Field = "assigned_class"
)

// Row is one data row of a decoded spreadsheet.
// Fields missing from Cells are absent (the column does not exist in the sheet).
type Row struct {
	Line  int // 1-based line in the source sheet, header included
	Cells map[Field]Cell
}

// Cell returns the cell for f, or an absent cell.
func (r Row) Cell(f Field) Cell {
	return r.Cells[f]
}

// Student is a roster entry. Drafts produced by the normalizer share this shape;
// only drafts without fatal issues ever leave the ingestor.
type Student struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Gender        string   `json:"gender"`
	AcademicScore float64  `json:"academic_score"`
	BehaviorType  *string  `json:"behavior_type"`
	AvoidIDs      []string `json:"avoid_ids"`
	KeepIDs       []string `json:"keep_ids"`
	GroupIDs      []string `json:"group_ids"`

	// Carried through project snapshots; the allocator reads them, validation does not.
	BehaviorScore int               `json:"behavior_score,omitempty"`
	BehaviorNote  string            `json:"behavior_note,omitempty"`
	PrevInfo      string            `json:"prev_info,omitempty"`
	FixedClass    string            `json:"fixed_class,omitempty"`
	AssignedClass *string           `json:"assigned_class,omitempty"`
	IsPreTransfer bool              `json:"is_pre_transfer,omitempty"`
	AvoidMemos    map[string]string `json:"avoid_memos,omitempty"`
	KeepMemos     map[string]string `json:"keep_memos,omitempty"`
}

// Group is a custom student group (club, special class, ...).
type Group struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Color   string   `json:"color,omitempty"`
	Members []string `json:"members"`
}

// Settings is the opaque allocator configuration stored with a project.
type Settings map[string]any

// Clone returns a shallow copy of s.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// DefaultSettings mirrors the allocator defaults used when no settings file is configured.
func DefaultSettings() Settings {
	return Settings{
		"classCount":      4,
		"scoreTolerance":  50,
		"numberingMethod": "mixed",
	}
}

// Snapshot is a complete project state. A Snapshot handed to or returned by
// the Store must be treated as immutable.
type Snapshot struct {
	Students []Student `json:"students"`
	Groups   []Group   `json:"groups"`
	Settings Settings  `json:"settings"`
	LoadedAt time.Time `json:"loaded_at,omitzero"`
}

// EmptySnapshot returns a snapshot with no students or groups and the given settings.
func EmptySnapshot(settings Settings) *Snapshot {
	if settings == nil {
		settings = DefaultSettings()
	}
	return &Snapshot{
		Students: []Student{},
		Groups:   []Group{},
		Settings: settings.Clone(),
	}
}

// ProjectSummary describes an archived project.
type ProjectSummary struct {
	Name      string    `json:"name"`
	Students  int       `json:"students"`
	Groups    int       `json:"groups"`
	SizeBytes int       `json:"size_bytes"`
	SavedAt   time.Time `json:"saved_at"`
}
