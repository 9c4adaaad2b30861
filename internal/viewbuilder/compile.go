package viewbuilder

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidPipeline is returned when a pipeline cannot be compiled.
var ErrInvalidPipeline = errors.New("viewbuilder: invalid pipeline")

func validIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// Query is a compiled pipeline ready to execute.
type Query struct {
	SQL  string
	Args []any
}

// Builder compiles pipelines against a schema.
type Builder struct {
	schema Schema
}

// New returns a Builder for schema.
func New(schema Schema) *Builder {
	return &Builder{schema: schema}
}

// Compile translates p into a statement returning one JSONB document per row
// in pipeline order.
func (b *Builder) Compile(p Pipeline) (Query, error) {
	c := &compiler{schema: b.schema}
	inner, err := c.pipeline(p.From, p.Stages, nil)
	if err != nil {
		return Query{}, err
	}
	sql := fmt.Sprintf("SELECT q.doc FROM (%s) AS q ORDER BY q.ord", inner)
	return Query{SQL: sql, Args: c.args}, nil
}

// CompileCount translates p into a statement returning the number of
// documents it yields.
func (b *Builder) CompileCount(p Pipeline) (Query, error) {
	c := &compiler{schema: b.schema}
	inner, err := c.pipeline(p.From, p.Stages, nil)
	if err != nil {
		return Query{}, err
	}
	sql := fmt.Sprintf("SELECT count(*) FROM (%s) AS q", inner)
	return Query{SQL: sql, Args: c.args}, nil
}

type correlation struct {
	outer        string
	localField   string
	foreignField string
}

type compiler struct {
	schema Schema
	args   []any
	seq    int
}

func (c *compiler) alias(prefix string) string {
	c.seq++
	return prefix + strconv.Itoa(c.seq)
}

// bind stores v as a JSON text parameter and returns its placeholder cast to JSONB.
func (c *compiler) bind(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: encode value: %v", ErrInvalidPipeline, err)
	}
	c.args = append(c.args, string(raw))
	return fmt.Sprintf("$%d::TEXT::JSONB", len(c.args)), nil
}

func (c *compiler) pipeline(from string, stages []Stage, corr *correlation) (string, error) {
	coll, err := c.schema.collection(from)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPipeline, err)
	}
	t := c.alias("t")
	filters, stages := c.pushdown(t, coll, stages)
	sql, err := c.base(t, from, coll, filters, corr)
	if err != nil {
		return "", err
	}
	for i, st := range stages {
		sql, err = c.stage(sql, st)
		if err != nil {
			return "", fmt.Errorf("stage %d on %s: %w", i, from, err)
		}
	}
	return sql, nil
}

// pushdown moves equality conditions of the leading Match stages that name
// typed fields onto the table columns and returns the stages left to run.
func (c *compiler) pushdown(t string, coll Collection, stages []Stage) ([]string, []Stage) {
	var filters []string
	for len(stages) > 0 {
		m, ok := stages[0].(Match)
		if !ok {
			break
		}
		var rest []Condition
		for _, cond := range m.Conditions {
			clause, ok := c.columnCondition(t, coll, cond)
			if !ok {
				rest = append(rest, cond)
				continue
			}
			filters = append(filters, clause)
		}
		if len(rest) > 0 {
			stages = append([]Stage{Match{Conditions: rest}}, stages[1:]...)
			break
		}
		stages = stages[1:]
	}
	return filters, stages
}

func (c *compiler) columnCondition(t string, coll Collection, cond Condition) (string, bool) {
	if cond.Op != OpEq {
		return "", false
	}
	f, ok := coll.field(cond.Field)
	if !ok || f.Type == "" || f.Type == TypeTimestamptz {
		return "", false
	}
	text, ok := scalarText(cond.Value)
	if !ok {
		return "", false
	}
	if f.Type == TypeUUID {
		id, err := uuid.Parse(text)
		if err != nil {
			// documents only ever hold well-formed ids
			return "FALSE", true
		}
		text = id.String()
	}
	c.args = append(c.args, text)
	return fmt.Sprintf("%s.%s = $%d::%s", t, f.Column, len(c.args), f.Type), true
}

func (c *compiler) base(t, from string, coll Collection, filters []string, corr *correlation) (string, error) {
	pairs := make([]string, 0, len(coll.Fields))
	for _, f := range coll.Fields {
		pairs = append(pairs, fmt.Sprintf("'%s', %s", f.Name, columnValue(t, f)))
	}
	ord := "0::BIGINT"
	if len(coll.Order) > 0 {
		cols := make([]string, 0, len(coll.Order))
		for _, col := range coll.Order {
			cols = append(cols, t+"."+col)
		}
		ord = fmt.Sprintf("row_number() OVER (ORDER BY %s)", strings.Join(cols, ", "))
	}
	sql := fmt.Sprintf("SELECT jsonb_build_object(%s) AS doc, %s AS ord FROM %s AS %s",
		strings.Join(pairs, ", "), ord, coll.Table, t)
	if corr != nil {
		f, ok := coll.field(corr.foreignField)
		if !ok {
			return "", fmt.Errorf("%w: unknown foreign field %q on %s", ErrInvalidPipeline, corr.foreignField, from)
		}
		local, err := textPath(corr.outer+".doc", corr.localField)
		if err != nil {
			return "", err
		}
		if f.Type != "" {
			filters = append([]string{fmt.Sprintf("%s.%s = (%s)::%s", t, f.Column, local, f.Type)}, filters...)
		} else {
			filters = append([]string{fmt.Sprintf("%s.%s::TEXT = %s", t, f.Column, local)}, filters...)
		}
	}
	if len(filters) > 0 {
		sql += " WHERE " + strings.Join(filters, " AND ")
	}
	return sql, nil
}

// columnValue renders the column backing f for a document. Timestamps are
// fixed-width UTC so their text sorts chronologically.
func columnValue(t string, f Field) string {
	if f.Type == TypeTimestamptz {
		return fmt.Sprintf(`to_char(%s.%s AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS.US"Z"')`, t, f.Column)
	}
	return t + "." + f.Column
}

func (c *compiler) stage(prev string, st Stage) (string, error) {
	s := c.alias("s")
	switch st := st.(type) {
	case Match:
		return c.match(prev, s, st)
	case Lookup:
		return c.lookup(prev, s, st)
	case Unwind:
		if err := checkName(st.Field); err != nil {
			return "", err
		}
		e := c.alias("e")
		return fmt.Sprintf("SELECT %[1]s.doc || jsonb_build_object('%[3]s', %[4]s.value) AS doc, %[1]s.ord FROM (%[2]s) AS %[1]s CROSS JOIN LATERAL jsonb_array_elements(%[5]s) AS %[4]s(value)",
			s, prev, st.Field, e, arrayExpr(s+".doc->'"+st.Field+"'")), nil
	case First:
		if err := checkName(st.Field); err != nil {
			return "", err
		}
		return c.extend(prev, s, st.Field, fmt.Sprintf("%s.doc->'%s'->0", s, st.Field)), nil
	case Size:
		if err := checkNames(st.As, st.Field); err != nil {
			return "", err
		}
		expr := fmt.Sprintf("jsonb_array_length(%s)", arrayExpr(s+".doc->'"+st.Field+"'"))
		return c.extend(prev, s, st.As, expr), nil
	case Sum:
		if err := checkNames(st.As, st.Field); err != nil {
			return "", err
		}
		e := c.alias("e")
		val, err := textPath(e+".value", st.Path)
		if err != nil {
			return "", err
		}
		expr := fmt.Sprintf("(SELECT COALESCE(sum((%s)::NUMERIC), 0) FROM jsonb_array_elements(%s) AS %s(value))",
			val, arrayExpr(s+".doc->'"+st.Field+"'"), e)
		return c.extend(prev, s, st.As, expr), nil
	case Contains:
		return c.contains(prev, s, st)
	case Project:
		return c.project(prev, s, st)
	case Sort:
		return c.sort(prev, s, st)
	case Skip:
		if st.N < 0 {
			return "", fmt.Errorf("%w: negative skip", ErrInvalidPipeline)
		}
		return fmt.Sprintf("SELECT %[1]s.doc, %[1]s.ord FROM (%[2]s) AS %[1]s ORDER BY %[1]s.ord OFFSET %[3]d", s, prev, st.N), nil
	case Limit:
		if st.N < 0 {
			return "", fmt.Errorf("%w: negative limit", ErrInvalidPipeline)
		}
		return fmt.Sprintf("SELECT %[1]s.doc, %[1]s.ord FROM (%[2]s) AS %[1]s ORDER BY %[1]s.ord LIMIT %[3]d", s, prev, st.N), nil
	default:
		return "", fmt.Errorf("%w: unsupported stage %T", ErrInvalidPipeline, st)
	}
}

// extend sets the top-level field name to expr on every document.
func (c *compiler) extend(prev, s, name, expr string) string {
	return fmt.Sprintf("SELECT %[1]s.doc || jsonb_build_object('%[3]s', %[4]s) AS doc, %[1]s.ord FROM (%[2]s) AS %[1]s",
		s, prev, name, expr)
}

func (c *compiler) match(prev, s string, m Match) (string, error) {
	if len(m.Conditions) == 0 {
		return fmt.Sprintf("SELECT %[1]s.doc, %[1]s.ord FROM (%[2]s) AS %[1]s", s, prev), nil
	}
	clauses := make([]string, 0, len(m.Conditions))
	for _, cond := range m.Conditions {
		path, err := jsonPath(s+".doc", cond.Field)
		if err != nil {
			return "", err
		}
		switch cond.Op {
		case OpEq:
			ph, err := c.bind(cond.Value)
			if err != nil {
				return "", err
			}
			clauses = append(clauses, fmt.Sprintf("%s = %s", path, ph))
		case OpNe:
			ph, err := c.bind(cond.Value)
			if err != nil {
				return "", err
			}
			clauses = append(clauses, fmt.Sprintf("%s IS DISTINCT FROM %s", path, ph))
		case OpExists:
			clauses = append(clauses, fmt.Sprintf("(%[1]s IS NOT NULL AND %[1]s <> 'null'::JSONB)", path))
		default:
			return "", fmt.Errorf("%w: unknown operator %d", ErrInvalidPipeline, cond.Op)
		}
	}
	return fmt.Sprintf("SELECT %[1]s.doc, %[1]s.ord FROM (%[2]s) AS %[1]s WHERE %[3]s",
		s, prev, strings.Join(clauses, " AND ")), nil
}

func (c *compiler) lookup(prev, s string, l Lookup) (string, error) {
	if err := checkName(l.As); err != nil {
		return "", err
	}
	sub, err := c.pipeline(l.From, l.Pipeline, &correlation{outer: s, localField: l.LocalField, foreignField: l.ForeignField})
	if err != nil {
		return "", err
	}
	f := c.alias("f")
	expr := fmt.Sprintf("COALESCE((SELECT jsonb_agg(%[1]s.doc ORDER BY %[1]s.ord) FROM (%[2]s) AS %[1]s), '[]'::JSONB)", f, sub)
	return c.extend(prev, s, l.As, expr), nil
}

func (c *compiler) contains(prev, s string, ct Contains) (string, error) {
	if err := checkNames(ct.As, ct.Field); err != nil {
		return "", err
	}
	if isEmpty(ct.Value) {
		return c.extend(prev, s, ct.As, "false"), nil
	}
	e := c.alias("e")
	val, err := jsonPath(e+".value", ct.Path)
	if err != nil {
		return "", err
	}
	ph, err := c.bind(ct.Value)
	if err != nil {
		return "", err
	}
	expr := fmt.Sprintf("EXISTS (SELECT 1 FROM jsonb_array_elements(%s) AS %s(value) WHERE %s = %s)",
		arrayExpr(s+".doc->'"+ct.Field+"'"), e, val, ph)
	return c.extend(prev, s, ct.As, expr), nil
}

func (c *compiler) project(prev, s string, p Project) (string, error) {
	if len(p.Fields) == 0 {
		return "", fmt.Errorf("%w: empty projection", ErrInvalidPipeline)
	}
	seen := make(map[string]struct{}, len(p.Fields))
	pairs := make([]string, 0, len(p.Fields))
	for _, f := range p.Fields {
		if err := checkName(f.Name); err != nil {
			return "", err
		}
		if _, dup := seen[f.Name]; dup {
			return "", fmt.Errorf("%w: duplicate projected field %q", ErrInvalidPipeline, f.Name)
		}
		seen[f.Name] = struct{}{}
		from := f.From
		if from == "" {
			from = f.Name
		}
		path, err := jsonPath(s+".doc", from)
		if err != nil {
			return "", err
		}
		pairs = append(pairs, fmt.Sprintf("'%s', %s", f.Name, path))
	}
	return fmt.Sprintf("SELECT jsonb_build_object(%[3]s) AS doc, %[1]s.ord FROM (%[2]s) AS %[1]s",
		s, prev, strings.Join(pairs, ", ")), nil
}

func (c *compiler) sort(prev, s string, st Sort) (string, error) {
	keys := make([]string, 0, len(st.Keys)+1)
	for _, k := range st.Keys {
		path, err := jsonPath(s+".doc", k.Field)
		if err != nil {
			return "", err
		}
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		keys = append(keys, path+" "+dir)
	}
	keys = append(keys, s+".ord")
	return fmt.Sprintf("SELECT %[1]s.doc, row_number() OVER (ORDER BY %[3]s) AS ord FROM (%[2]s) AS %[1]s",
		s, prev, strings.Join(keys, ", ")), nil
}

// arrayExpr coerces a JSONB expression to an array, treating anything else as empty.
func arrayExpr(expr string) string {
	return fmt.Sprintf("COALESCE(CASE WHEN jsonb_typeof(%[1]s) = 'array' THEN %[1]s END, '[]'::JSONB)", expr)
}

func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty field path", ErrInvalidPipeline)
	}
	parts := strings.Split(path, ".")
	for _, p := range parts {
		if !validIdentifier(p) {
			return nil, fmt.Errorf("%w: invalid field path %q", ErrInvalidPipeline, path)
		}
	}
	return parts, nil
}

// jsonPath returns the JSONB value at a dotted path below root.
func jsonPath(root, path string) (string, error) {
	return pathExpr(root, path, "->", "#>")
}

// textPath is jsonPath rendered as text.
func textPath(root, path string) (string, error) {
	return pathExpr(root, path, "->>", "#>>")
}

func pathExpr(root, path, single, multi string) (string, error) {
	parts, err := splitPath(path)
	if err != nil {
		return "", err
	}
	if len(parts) == 1 {
		return fmt.Sprintf("%s%s'%s'", root, single, parts[0]), nil
	}
	return fmt.Sprintf("%s%s'{%s}'", root, multi, strings.Join(parts, ",")), nil
}

func checkName(name string) error {
	if !validIdentifier(name) {
		return fmt.Errorf("%w: invalid field name %q", ErrInvalidPipeline, name)
	}
	return nil
}

func checkNames(names ...string) error {
	for _, n := range names {
		if err := checkName(n); err != nil {
			return err
		}
	}
	return nil
}

// scalarText renders v as input text for a typed column.
func scalarText(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	}
	return "", false
}

func isEmpty(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	}
	return false
}
