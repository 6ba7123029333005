package forms

import (
	"context"
	"errors"
	"testing"

	"product-console/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreator struct {
	calls int
	got   models.ProductInput
	err   error
}

func (f *fakeCreator) Create(ctx context.Context, in models.ProductInput) (models.Product, error) {
	f.calls++
	f.got = in
	if f.err != nil {
		return models.Product{}, f.err
	}
	return models.Product{ID: "new", Name: models.StringPtr(in.Name), Price: in.Price, Company: in.Company, Rating: in.Rating, Featured: in.Featured}, nil
}

type fakeUpdater struct {
	calls int
	id    string
	got   models.ProductUpdate
	err   error
}

func (f *fakeUpdater) Update(ctx context.Context, id string, u models.ProductUpdate) (models.Product, error) {
	f.calls++
	f.id = id
	f.got = u
	if f.err != nil {
		return models.Product{}, f.err
	}
	return u.Apply(models.Product{ID: id}), nil
}

func validForm() AddProductForm {
	return AddProductForm{Name: "Widget", Price: "9.5", Company: "Acme", Rating: "4", Featured: true}
}

func TestAddProductValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AddProductForm)
		want   string
	}{
		{"missing name", func(f *AddProductForm) { f.Name = "" }, MsgAllFieldsRequired},
		{"blank company", func(f *AddProductForm) { f.Company = "  " }, MsgAllFieldsRequired},
		{"missing rating", func(f *AddProductForm) { f.Rating = "" }, MsgAllFieldsRequired},
		{"price not a number", func(f *AddProductForm) { f.Price = "abc" }, MsgNotNumbers},
		{"rating not a number", func(f *AddProductForm) { f.Rating = "five" }, MsgNotNumbers},
		{"missing beats non numeric", func(f *AddProductForm) {
			f.Price = "abc"
			f.Name = ""
		}, MsgAllFieldsRequired},
		{"rating above range", func(f *AddProductForm) { f.Rating = "6" }, MsgRatingRange},
		{"rating below range", func(f *AddProductForm) { f.Rating = "0" }, MsgRatingRange},
		{"non numeric beats range", func(f *AddProductForm) {
			f.Rating = "9"
			f.Price = "x"
		}, MsgNotNumbers},
		{"fractional rating", func(f *AddProductForm) { f.Rating = "2.5" }, MsgRatingWhole},
		{"negative price", func(f *AddProductForm) { f.Price = "-1" }, MsgNegativePrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)
			_, err := f.Validate()
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestAddProductValidInput(t *testing.T) {
	f := validForm()
	f.Name = "  Widget "
	f.Rating = "5.0"

	in, err := f.Validate()
	require.NoError(t, err)
	assert.Equal(t, models.ProductInput{Name: "Widget", Price: 9.5, Company: "Acme", Rating: 5, Featured: true}, in)
}

func TestAddProductInvalidMakesNoRequest(t *testing.T) {
	for _, mutate := range []func(*AddProductForm){
		func(f *AddProductForm) { f.Price = "abc" },
		func(f *AddProductForm) { f.Rating = "6" },
	} {
		f := validForm()
		mutate(&f)
		creator := &fakeCreator{}

		_, err := f.Submit(context.Background(), creator)
		assert.Error(t, err)
		assert.Zero(t, creator.calls)
		assert.NotEmpty(t, f.Error)
		assert.False(t, f.Loading)
	}
}

func TestAddProductSubmitResets(t *testing.T) {
	f := validForm()
	f.Error = "stale"
	creator := &fakeCreator{}

	created, err := f.Submit(context.Background(), creator)
	require.NoError(t, err)
	assert.Equal(t, "new", created.ID)
	assert.Equal(t, 1, creator.calls)
	assert.Equal(t, AddProductForm{}, f)
}

func TestAddProductSubmitFailure(t *testing.T) {
	f := validForm()
	creator := &fakeCreator{err: errors.New("boom")}

	_, err := f.Submit(context.Background(), creator)
	assert.Error(t, err)
	assert.Equal(t, MsgAddFailed, f.Error)
	assert.Equal(t, "Widget", f.Name)
	assert.False(t, f.Loading)
}

func product() models.Product {
	return models.Product{ID: "p1", Name: models.StringPtr("Widget"), Price: 10, Company: "Acme", Rating: 3}
}

func TestUpdateFormSeeded(t *testing.T) {
	f := NewUpdateForm(product())
	assert.Equal(t, "p1", f.ID())
	assert.Equal(t, "Widget", f.Name)
	assert.Equal(t, "10", f.Price)
	assert.Equal(t, "Acme", f.Company)
	assert.Equal(t, "3", f.Rating)
	assert.False(t, f.Featured)

	_, err := f.Payload()
	assert.EqualError(t, err, MsgNothingToUpdate)
}

func TestUpdateFormPayloadOnlyChanges(t *testing.T) {
	f := NewUpdateForm(product())
	f.Price = "12.5"
	f.Featured = true
	f.Company = ""

	u, err := f.Payload()
	require.NoError(t, err)
	assert.Equal(t, models.ProductUpdate{Price: models.Float64Ptr(12.5), Featured: models.BoolPtr(true)}, u)
}

func TestUpdateFormNullName(t *testing.T) {
	p := product()
	p.Name = nil
	f := NewUpdateForm(p)
	assert.Equal(t, "", f.Name)

	f.Name = "Named"
	u, err := f.Payload()
	require.NoError(t, err)
	assert.Equal(t, "Named", *u.Name)
}

func TestUpdateFormMissingRating(t *testing.T) {
	p := product()
	p.Rating = 0
	f := NewUpdateForm(p)
	assert.Equal(t, "", f.Rating)

	f.Name = "Renamed"
	u, err := f.Payload()
	require.NoError(t, err)
	assert.Equal(t, models.ProductUpdate{Name: models.StringPtr("Renamed")}, u)

	f.Rating = "4"
	u, err = f.Payload()
	require.NoError(t, err)
	assert.Equal(t, 4, *u.Rating)
}

func TestUpdateFormValidation(t *testing.T) {
	f := NewUpdateForm(product())
	f.Rating = "7"
	updater := &fakeUpdater{}

	_, err := f.Submit(context.Background(), updater)
	assert.True(t, IsValidation(err))
	assert.Equal(t, MsgRatingRange, f.Error)
	assert.Zero(t, updater.calls)

	f.Rating = "3"
	f.Price = "cheap"
	_, err = f.Submit(context.Background(), updater)
	assert.Equal(t, MsgNotNumbers, f.Error)
	assert.Zero(t, updater.calls)
}

func TestUpdateFormSubmit(t *testing.T) {
	f := NewUpdateForm(product())
	f.Name = "Widget XL"
	updater := &fakeUpdater{}

	updated, err := f.Submit(context.Background(), updater)
	require.NoError(t, err)
	assert.Equal(t, "p1", updater.id)
	assert.Equal(t, "Widget XL", updated.DisplayName())
	assert.Empty(t, f.Error)

	updater.err = errors.New("boom")
	f.Rating = "4"
	_, err = f.Submit(context.Background(), updater)
	assert.Error(t, err)
	assert.Equal(t, MsgUpdateFailed, f.Error)
}
