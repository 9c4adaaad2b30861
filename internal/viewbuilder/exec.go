package viewbuilder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/logging"
)

// ErrNoDocuments is returned by FindOne when the pipeline yields nothing.
var ErrNoDocuments = errors.New("viewbuilder: no documents")

// Querier is the subset of a pgx pool or transaction used to run views.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Find runs p and decodes every document into T.
func Find[T any](ctx context.Context, q Querier, b *Builder, p Pipeline) ([]T, error) {
	ctx, span := logging.StartSpan(ctx, "viewbuilder.Find")
	defer span.End()

	compiled, err := b.Compile(p)
	if err != nil {
		span.Fail(err)
		return nil, err
	}
	rows, err := q.Query(ctx, compiled.SQL, compiled.Args...)
	if err != nil {
		span.Fail(err)
		return nil, fmt.Errorf("run view on %s: %w", p.From, err)
	}
	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		var (
			raw []byte
			doc T
		)
		if err := row.Scan(&raw); err != nil {
			return doc, err
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return doc, fmt.Errorf("decode document: %w", err)
		}
		return doc, nil
	})
	if err != nil {
		span.Fail(err)
		return nil, fmt.Errorf("collect view on %s: %w", p.From, err)
	}
	span.SetAttributes("collection", p.From, "documents", len(docs))
	return docs, nil
}

// FindOne runs p and returns its first document.
func FindOne[T any](ctx context.Context, q Querier, b *Builder, p Pipeline) (T, error) {
	var zero T
	p.Stages = append(append([]Stage(nil), p.Stages...), Limit{N: 1})
	docs, err := Find[T](ctx, q, b, p)
	if err != nil {
		return zero, err
	}
	if len(docs) == 0 {
		return zero, ErrNoDocuments
	}
	return docs[0], nil
}

// Count returns the number of documents p yields.
func Count(ctx context.Context, q Querier, b *Builder, p Pipeline) (int, error) {
	compiled, err := b.CompileCount(p)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := q.QueryRow(ctx, compiled.SQL, compiled.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count view on %s: %w", p.From, err)
	}
	return int(n), nil
}

// FindPage runs v for the requested page and counts the matching documents.
// Sorting applies before pagination so page boundaries are stable.
func FindPage[T any](ctx context.Context, q Querier, b *Builder, v View, req PageRequest) (Page[T], error) {
	req = req.Normalize()
	v.Page = nil
	total, err := Count(ctx, q, b, v.Pipeline())
	if err != nil {
		return Page[T]{}, err
	}
	v.Page = &req
	docs, err := Find[T](ctx, q, b, v.Pipeline())
	if err != nil {
		return Page[T]{}, err
	}
	return NewPage(docs, total, req), nil
}
