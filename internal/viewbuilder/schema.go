package viewbuilder

import "fmt"

// Field maps a document field name to a table column. Type is the column's
// SQL type. Typed fields are compared against the column itself when a
// pipeline opens with a Match on them or joins on them, so their indexes
// apply. TIMESTAMPTZ fields render as fixed-width UTC text.
type Field struct {
	Name   string
	Column string
	Type   string
}

// Column types with special handling.
const (
	TypeUUID        = "UUID"
	TypeTimestamptz = "TIMESTAMPTZ"
)

// Collection exposes a table as documents. Only listed fields are visible to
// pipelines. Order lists the columns defining the collection's natural order.
type Collection struct {
	Table  string
	Fields []Field
	Order  []string
}

// Schema maps collection names to their tables.
type Schema map[string]Collection

func (c Collection) field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s Schema) collection(name string) (Collection, error) {
	coll, ok := s[name]
	if !ok {
		return Collection{}, fmt.Errorf("viewbuilder: unknown collection %q", name)
	}
	if len(coll.Fields) == 0 {
		return Collection{}, fmt.Errorf("viewbuilder: collection %q has no fields", name)
	}
	if !validIdentifier(coll.Table) {
		return Collection{}, fmt.Errorf("viewbuilder: invalid table name %q", coll.Table)
	}
	for _, f := range coll.Fields {
		if !validIdentifier(f.Name) || !validIdentifier(f.Column) {
			return Collection{}, fmt.Errorf("viewbuilder: invalid field %q in collection %q", f.Name, name)
		}
		if f.Type != "" && !validIdentifier(f.Type) {
			return Collection{}, fmt.Errorf("viewbuilder: invalid type %q for field %q in collection %q", f.Type, f.Name, name)
		}
	}
	for _, col := range coll.Order {
		if !validIdentifier(col) {
			return Collection{}, fmt.Errorf("viewbuilder: invalid order column %q in collection %q", col, name)
		}
	}
	return coll, nil
}
