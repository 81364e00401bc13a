package models

import (
	"net/url"
	"strconv"
	"strings"
)

// Defaults applied by SearchParams.Values when fields are left zero.
const (
	DefaultPage      = 1
	DefaultLimit     = 20
	DefaultSortOrder = "desc"
)

// SearchParams filters list endpoints. Zero values mean "no filter".
type SearchParams struct {
	Query     string
	Category  string
	City      string
	MinRating float64
	MaxPrice  float64
	Tags      []string
	Page      int
	Limit     int
	SortBy    string // rating, price, distance, createdAt
	SortOrder string // asc or desc
}

// Filtered reports whether any filter narrows the results. Paging and
// sorting do not count.
func (p SearchParams) Filtered() bool {
	return strings.TrimSpace(p.Query) != "" || p.Category != "" || p.City != "" ||
		p.MinRating > 0 || p.MaxPrice > 0 || len(p.Tags) > 0
}

// Values encodes the params as a URL query. Page, limit and sort order are
// only sent when set, so servers apply their own defaults otherwise.
func (p SearchParams) Values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("q", strings.TrimSpace(p.Query))
	set("category", p.Category)
	set("city", p.City)
	if p.MinRating > 0 {
		v.Set("minRating", strconv.FormatFloat(p.MinRating, 'f', -1, 64))
	}
	if p.MaxPrice > 0 {
		v.Set("maxPrice", strconv.FormatFloat(p.MaxPrice, 'f', -1, 64))
	}
	if len(p.Tags) > 0 {
		v.Set("tags", strings.Join(p.Tags, ","))
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	set("sortBy", p.SortBy)
	if p.SortBy != "" {
		order := p.SortOrder
		if order == "" {
			order = DefaultSortOrder
		}
		v.Set("sortOrder", order)
	}
	return v
}

// Key is a stable identifier for the filter set, used to key cached
// results. The zero value's key is "".
func (p SearchParams) Key() string {
	return p.Values().Encode()
}
