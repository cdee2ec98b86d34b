package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many rows any listing query can request.
	MaxLimit = 100
)

// Params holds page pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Page describes the slice of a listing that was returned.
type Page struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// Normalize enforces the configured default and maximum limits and a
// one-based page number.
func Normalize(p Params) Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset converts the normalized params into a row offset.
func Offset(p Params) int {
	p = Normalize(p)
	return (p.Page - 1) * p.Limit
}

// Describe builds the page metadata for a listing response.
func Describe(p Params, total int64) Page {
	p = Normalize(p)
	pages := int(total / int64(p.Limit))
	if total%int64(p.Limit) != 0 {
		pages++
	}
	return Page{
		Page:       p.Page,
		Limit:      p.Limit,
		TotalItems: total,
		TotalPages: pages,
	}
}
