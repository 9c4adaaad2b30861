package viewbuilder

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageRequest selects one page of results. Zero or negative values fall back
// to the defaults.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize applies defaults and caps the limit.
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	return r
}

// Offset is the number of documents preceding the page.
func (r PageRequest) Offset() int {
	r = r.Normalize()
	return (r.Page - 1) * r.Limit
}

// Page is one page of documents with its pagination metadata.
type Page[T any] struct {
	Docs        []T  `json:"docs"`
	TotalDocs   int  `json:"totalDocs"`
	Limit       int  `json:"limit"`
	Page        int  `json:"page"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
	NextPage    *int `json:"nextPage"`
	PrevPage    *int `json:"prevPage"`
}

// NewPage builds the page metadata for docs taken from total documents.
func NewPage[T any](docs []T, total int, req PageRequest) Page[T] {
	req = req.Normalize()
	if docs == nil {
		docs = []T{}
	}
	pages := 0
	if total > 0 {
		pages = (total + req.Limit - 1) / req.Limit
	}
	p := Page[T]{
		Docs:        docs,
		TotalDocs:   total,
		Limit:       req.Limit,
		Page:        req.Page,
		TotalPages:  pages,
		HasNextPage: req.Page < pages,
		HasPrevPage: req.Page > 1,
	}
	if p.HasNextPage {
		next := req.Page + 1
		p.NextPage = &next
	}
	if p.HasPrevPage {
		prev := req.Page - 1
		p.PrevPage = &prev
	}
	return p
}
