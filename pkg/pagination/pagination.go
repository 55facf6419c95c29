package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultLimit is applied when the request carries no limit parameter.
	DefaultLimit = 20
	// MaxLimit caps the page size regardless of what the client asks for.
	MaxLimit = 100
)

// Params holds limit/offset pagination parameters extracted from query strings.
type Params struct {
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Order  string `json:"-"`
}

// DefaultOrder is the sort order applied when the request does not name one.
const DefaultOrder = "newest"

// Default returns the default pagination parameters.
func Default() Params {
	return Params{Limit: DefaultLimit, Offset: 0, Order: DefaultOrder}
}

// FromRequest extracts limit, offset, and order from an HTTP request.
// Out-of-range values are clamped rather than rejected.
func FromRequest(r *http.Request) Params {
	p := Default()

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Limit = v
			if p.Limit > MaxLimit {
				p.Limit = MaxLimit
			}
		}
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			p.Offset = v
		}
	}

	if order := r.URL.Query().Get("order"); order != "" {
		p.Order = order
	}

	return p
}
