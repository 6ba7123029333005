package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Product represents a catalog product as returned by the backend
// Name is nullable on the wire; a missing name decodes to nil
type Product struct {
	ID       string  `json:"productId" yaml:"productId"`
	Name     *string `json:"name" yaml:"name"`
	Price    float64 `json:"price" yaml:"price"`
	Company  string  `json:"company" yaml:"company"`
	Rating   int     `json:"rating" yaml:"rating"`
	Featured bool    `json:"featured" yaml:"featured"`
}

// DisplayName returns the product name, or an empty string when the backend sent none
func (p Product) DisplayName() string {
	if p.Name == nil {
		return ""
	}
	return *p.Name
}

// UnmarshalJSON decodes a product whose productId may be a JSON string or number
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	aux := struct {
		*plain
		ID json.RawMessage `json:"productId"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := decodeID(aux.ID)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("productId must be a string or number: %w", err)
	}
	return n.String(), nil
}

// ProductInput represents the request to create a product (id is server-assigned)
type ProductInput struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Company  string  `json:"company"`
	Rating   int     `json:"rating"`
	Featured bool    `json:"featured"`
}

// ProductUpdate represents a partial update; nil fields are left unchanged by the backend
type ProductUpdate struct {
	Name     *string  `json:"name,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Company  *string  `json:"company,omitempty"`
	Rating   *int     `json:"rating,omitempty"`
	Featured *bool    `json:"featured,omitempty"`
}

// IsEmpty reports whether the update carries no fields
func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Price == nil && u.Company == nil && u.Rating == nil && u.Featured == nil
}

// Apply returns a copy of p with the update's fields set
func (u ProductUpdate) Apply(p Product) Product {
	if u.Name != nil {
		name := *u.Name
		p.Name = &name
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Company != nil {
		p.Company = *u.Company
	}
	if u.Rating != nil {
		p.Rating = *u.Rating
	}
	if u.Featured != nil {
		p.Featured = *u.Featured
	}
	return p
}

// StringPtr returns a pointer to s, for building products and partial updates
func StringPtr(s string) *string { return &s }

// Float64Ptr returns a pointer to f
func Float64Ptr(f float64) *float64 { return &f }

// IntPtr returns a pointer to i
func IntPtr(i int) *int { return &i }

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool { return &b }
