// Package forms holds the input forms of the console. A form keeps the raw
// text the user typed, validates it locally and submits it only when valid.
package forms

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"product-console/models"
)

// Messages shown on the forms
const (
	MsgAllFieldsRequired   = "All fields are required"
	MsgNotNumbers          = "Price and Rating must be numbers"
	MsgRatingRange         = "Rating must be between 1 and 5"
	MsgRatingWhole         = "Rating must be a whole number"
	MsgNegativePrice       = "Price must not be negative"
	MsgNothingToUpdate     = "Nothing to update"
	MsgCredentialsRequired = "Email and password are required"

	MsgAddFailed    = "Error adding product"
	MsgUpdateFailed = "Error updating product"
	MsgLoginFailed  = "Error logging in"
	MsgSignupFailed = "Error signing up"
)

const (
	minRating = 1
	maxRating = 5
)

// ValidationError is a local input problem; no request was made
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Creator creates products
type Creator interface {
	Create(ctx context.Context, in models.ProductInput) (models.Product, error)
}

// Updater updates products
type Updater interface {
	Update(ctx context.Context, id string, update models.ProductUpdate) (models.Product, error)
}

func parsePrice(s string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, invalid(MsgNotNumbers)
	}
	if price < 0 {
		return 0, invalid(MsgNegativePrice)
	}
	return price, nil
}

func parseRating(s string) (int, error) {
	rating, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(rating) {
		return 0, invalid(MsgNotNumbers)
	}
	if rating < minRating || rating > maxRating {
		return 0, invalid(MsgRatingRange)
	}
	if rating != math.Trunc(rating) {
		return 0, invalid(MsgRatingWhole)
	}
	return int(rating), nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// AddProductForm is the new product form
type AddProductForm struct {
	Name     string
	Price    string
	Company  string
	Rating   string
	Featured bool

	Error   string
	Loading bool
}

// Validate checks the fields and builds the payload. Checks run in order
// and the first failure is reported.
func (f *AddProductForm) Validate() (models.ProductInput, error) {
	if blank(f.Name) || blank(f.Price) || blank(f.Company) || blank(f.Rating) {
		return models.ProductInput{}, invalid(MsgAllFieldsRequired)
	}

	// both must be numeric before range checks apply
	_, priceErr := strconv.ParseFloat(strings.TrimSpace(f.Price), 64)
	_, ratingErr := strconv.ParseFloat(strings.TrimSpace(f.Rating), 64)
	if priceErr != nil || ratingErr != nil {
		return models.ProductInput{}, invalid(MsgNotNumbers)
	}

	rating, err := parseRating(f.Rating)
	if err != nil {
		return models.ProductInput{}, err
	}
	price, err := parsePrice(f.Price)
	if err != nil {
		return models.ProductInput{}, err
	}

	return models.ProductInput{
		Name:     strings.TrimSpace(f.Name),
		Price:    price,
		Company:  strings.TrimSpace(f.Company),
		Rating:   rating,
		Featured: f.Featured,
	}, nil
}

// Submit validates and creates the product. On success the form is reset;
// on any failure Error holds the message to show.
func (f *AddProductForm) Submit(ctx context.Context, c Creator) (models.Product, error) {
	in, err := f.Validate()
	if err != nil {
		f.Error = err.Error()
		return models.Product{}, err
	}

	f.Loading = true
	created, err := c.Create(ctx, in)
	f.Loading = false
	if err != nil {
		f.Error = MsgAddFailed
		return models.Product{}, err
	}

	f.Reset()
	return created, nil
}

// Reset empties every field and clears the error
func (f *AddProductForm) Reset() {
	*f = AddProductForm{}
}

// UpdateForm edits an existing product. Fields start with the product's
// values; only fields that differ are sent.
type UpdateForm struct {
	Name     string
	Price    string
	Company  string
	Rating   string
	Featured bool

	Error   string
	Loading bool

	original models.Product
}

// NewUpdateForm seeds a form from p. A product without a rating starts with
// an empty Rating field.
func NewUpdateForm(p models.Product) *UpdateForm {
	f := &UpdateForm{
		Name:     p.DisplayName(),
		Price:    strconv.FormatFloat(p.Price, 'f', -1, 64),
		Company:  p.Company,
		Featured: p.Featured,
		original: p,
	}
	if p.Rating != 0 {
		f.Rating = strconv.Itoa(p.Rating)
	}
	return f
}

// ID is the id of the product being edited
func (f *UpdateForm) ID() string {
	return f.original.ID
}

// Payload validates the fields and builds the partial update. Empty fields
// are left unchanged.
func (f *UpdateForm) Payload() (models.ProductUpdate, error) {
	var u models.ProductUpdate

	if name := strings.TrimSpace(f.Name); name != "" && (f.original.Name == nil || name != *f.original.Name) {
		u.Name = models.StringPtr(name)
	}
	if company := strings.TrimSpace(f.Company); company != "" && company != f.original.Company {
		u.Company = models.StringPtr(company)
	}
	if !blank(f.Price) {
		price, err := parsePrice(f.Price)
		if err != nil {
			return models.ProductUpdate{}, err
		}
		if price != f.original.Price {
			u.Price = models.Float64Ptr(price)
		}
	}
	if !blank(f.Rating) {
		rating, err := parseRating(f.Rating)
		if err != nil {
			return models.ProductUpdate{}, err
		}
		if rating != f.original.Rating {
			u.Rating = models.IntPtr(rating)
		}
	}
	if f.Featured != f.original.Featured {
		u.Featured = models.BoolPtr(f.Featured)
	}

	if u.IsEmpty() {
		return models.ProductUpdate{}, invalid(MsgNothingToUpdate)
	}
	return u, nil
}

// Submit validates and sends the update
func (f *UpdateForm) Submit(ctx context.Context, u Updater) (models.Product, error) {
	payload, err := f.Payload()
	if err != nil {
		f.Error = err.Error()
		return models.Product{}, err
	}

	f.Loading = true
	updated, err := u.Update(ctx, f.ID(), payload)
	f.Loading = false
	if err != nil {
		f.Error = MsgUpdateFailed
		return models.Product{}, err
	}
	f.Error = ""
	f.original = updated
	return updated, nil
}
