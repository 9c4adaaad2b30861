package viewbuilder

// Flatten selects how a join's matches are attached to the source document.
type Flatten int

const (
	// FlattenNone keeps every match as an array.
	FlattenNone Flatten = iota
	// FlattenUnwind expects exactly one match and drops the source document
	// when there is none.
	FlattenUnwind
	// FlattenFirst keeps the first match, or null, and never drops the source.
	FlattenFirst
)

// Join describes one lookup of a View.
type Join struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
	Pipeline     []Stage
	Flatten      Flatten
}

// View is the declarative form of a read model: match the source documents,
// apply the joins in order, compute derived fields, keep the allow-listed
// fields, then sort and paginate.
type View struct {
	From    string
	Match   []Condition
	Joins   []Join
	Derived []Stage
	Project []Projection
	Sort    []SortKey
	Page    *PageRequest
}

// Pipeline lowers the view into pipeline stages.
func (v View) Pipeline() Pipeline {
	var stages []Stage
	if len(v.Match) > 0 {
		stages = append(stages, Match{Conditions: v.Match})
	}
	for _, j := range v.Joins {
		stages = append(stages, j.Stages()...)
	}
	stages = append(stages, v.Derived...)
	if len(v.Project) > 0 {
		stages = append(stages, Project{Fields: v.Project})
	}
	if len(v.Sort) > 0 {
		stages = append(stages, Sort{Keys: v.Sort})
	}
	if v.Page != nil {
		stages = append(stages, Paginate(*v.Page)...)
	}
	return Pipeline{From: v.From, Stages: stages}
}

// Stages lowers the join into a Lookup followed by its flattening stage.
func (j Join) Stages() []Stage {
	stages := []Stage{Lookup{
		From:         j.From,
		LocalField:   j.LocalField,
		ForeignField: j.ForeignField,
		As:           j.As,
		Pipeline:     j.Pipeline,
	}}
	switch j.Flatten {
	case FlattenUnwind:
		stages = append(stages, Unwind{Field: j.As})
	case FlattenFirst:
		stages = append(stages, First{Field: j.As})
	}
	return stages
}
