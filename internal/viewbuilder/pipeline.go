// Package viewbuilder composes read-model pipelines (match, lookup, unwind,
// derived fields, project, sort, paginate) and compiles each one into a single
// SQL statement over JSONB documents.
//
// Stages are evaluated left to right. Every stage sees the documents produced
// by the previous one, so a Project placed before a Sort restricts the fields
// the Sort can use, exactly as the stage order reads.
package viewbuilder

// Pipeline is an ordered list of stages applied to the documents of a collection.
type Pipeline struct {
	From   string
	Stages []Stage
}

// Stage is one step of a pipeline. The set of stages is closed.
type Stage interface {
	stage()
}

// Op is a comparison operator usable in a Match condition.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpExists
)

// Condition compares the value at a document path.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Eq matches documents whose field equals value.
func Eq(field string, value any) Condition { return Condition{Field: field, Op: OpEq, Value: value} }

// Ne matches documents whose field differs from value (missing counts as different).
func Ne(field string, value any) Condition { return Condition{Field: field, Op: OpNe, Value: value} }

// Exists matches documents whose field is present and not null.
func Exists(field string) Condition { return Condition{Field: field, Op: OpExists} }

// Match keeps documents satisfying every condition.
type Match struct {
	Conditions []Condition
}

// Lookup joins documents of another collection whose ForeignField equals the
// local document's LocalField. The joined documents, run through Pipeline,
// are stored as an array under As.
type Lookup struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
	Pipeline     []Stage
}

// Unwind emits one document per element of the array at Field, replacing the
// array with the element. Documents whose array is empty or missing are dropped.
type Unwind struct {
	Field string
}

// First replaces the array at Field with its first element, or null when empty.
// Unlike Unwind it never drops a document.
type First struct {
	Field string
}

// Size stores the length of the array at Field under As.
type Size struct {
	As    string
	Field string
}

// Sum stores under As the sum of the numeric value at Path across the
// elements of the array at Field.
type Sum struct {
	As    string
	Field string
	Path  string
}

// Contains stores under As whether any element of the array at Field has
// Value at Path. A nil or empty Value never matches.
type Contains struct {
	As    string
	Field string
	Path  string
	Value any
}

// Projection copies the value at From (defaults to Name) into the output field Name.
type Projection struct {
	Name string
	From string
}

// Project replaces each document with one holding only the listed fields.
type Project struct {
	Fields []Projection
}

// Fields is a shorthand for projections that keep a field under its own name.
func Fields(names ...string) []Projection {
	out := make([]Projection, 0, len(names))
	for _, name := range names {
		out = append(out, Projection{Name: name})
	}
	return out
}

// SortKey orders documents by the value at Field.
type SortKey struct {
	Field string
	Desc  bool
}

// Sort orders documents by its keys; ties keep their previous order.
type Sort struct {
	Keys []SortKey
}

// Skip drops the first N documents.
type Skip struct {
	N int
}

// Limit keeps at most N documents.
type Limit struct {
	N int
}

func (Match) stage()    {}
func (Lookup) stage()   {}
func (Unwind) stage()   {}
func (First) stage()    {}
func (Size) stage()     {}
func (Sum) stage()      {}
func (Contains) stage() {}
func (Project) stage()  {}
func (Sort) stage()     {}
func (Skip) stage()     {}
func (Limit) stage()    {}

// Paginate returns the Skip and Limit stages selecting one page.
func Paginate(req PageRequest) []Stage {
	req = req.Normalize()
	return []Stage{Skip{N: req.Offset()}, Limit{N: req.Limit}}
}
