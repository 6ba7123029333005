// Package catalog holds the in-memory product collection shown to the user and
// the filter that narrows it to the visible list.
package catalog

import (
	"math"
	"strconv"
	"strings"

	"product-console/client"
	"product-console/models"
)

// MaxRating is the highest rating a product can have
const MaxRating = 5

// Criteria narrows the product list. The zero value matches every product.
type Criteria struct {
	// SearchText is matched case-insensitively against the product name
	SearchText string
	// MaxPrice is the raw price input; products must cost strictly less.
	// Empty or non-numeric input imposes no bound.
	MaxPrice string
	// MinRating is the lowest accepted rating, 0 disables the filter
	MinRating int
	// FeaturedOnly keeps only featured products
	FeaturedOnly bool
}

// PriceBound returns the parsed price bound and whether one applies
func (c Criteria) PriceBound() (float64, bool) {
	raw := strings.TrimSpace(c.MaxPrice)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Normalize clamps MinRating into [0, MaxRating]
func (c Criteria) Normalize() Criteria {
	if c.MinRating < 0 {
		c.MinRating = 0
	}
	if c.MinRating > MaxRating {
		c.MinRating = MaxRating
	}
	return c
}

// Matches reports whether p passes every predicate
func (c Criteria) Matches(p models.Product) bool {
	c = c.Normalize()

	if c.SearchText != "" {
		if p.Name == nil {
			return false
		}
		if !strings.Contains(strings.ToLower(*p.Name), strings.ToLower(c.SearchText)) {
			return false
		}
	}
	if bound, ok := c.PriceBound(); ok && !(p.Price < bound) {
		return false
	}
	if p.Rating < c.MinRating {
		return false
	}
	if c.FeaturedOnly && !p.Featured {
		return false
	}
	return true
}

// ServerQuery maps the criteria onto the backend's single-constraint listing
func (c Criteria) ServerQuery() client.Query {
	c = c.Normalize()
	q := client.Query{
		Featured:  c.FeaturedOnly,
		MinRating: c.MinRating,
	}
	if bound, ok := c.PriceBound(); ok {
		q.MaxPrice = &bound
	}
	return q
}

// Filter returns the products matching c, in their original order
func Filter(products []models.Product, c Criteria) []models.Product {
	visible := make([]models.Product, 0, len(products))
	for _, p := range products {
		if c.Matches(p) {
			visible = append(visible, p)
		}
	}
	return visible
}
