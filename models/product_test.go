package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductNullName(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"productId":"7","name":null,"price":3}`), &p))

	assert.Nil(t, p.Name)
	assert.Equal(t, "", p.DisplayName())
	assert.Equal(t, "7", p.ID)
}

func TestProductUpdateOmitsUnsetFields(t *testing.T) {
	u := ProductUpdate{Price: Float64Ptr(12.5)}

	body, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":12.5}`, string(body))
	assert.False(t, u.IsEmpty())
	assert.True(t, ProductUpdate{}.IsEmpty())
}

func TestProductUpdateApply(t *testing.T) {
	p := Product{ID: "1", Name: StringPtr("Widget"), Price: 10, Rating: 3}

	got := ProductUpdate{Name: StringPtr("Gizmo"), Featured: BoolPtr(true)}.Apply(p)

	assert.Equal(t, "Gizmo", got.DisplayName())
	assert.True(t, got.Featured)
	assert.Equal(t, 10.0, got.Price)
	assert.Equal(t, "Widget", p.DisplayName(), "original product must not change")
}

func TestProductIDAcceptsStringOrNumber(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string", `{"productId":"a1","price":2}`, "a1"},
		{"integer", `{"productId":7,"price":2}`, "7"},
		{"large integer", `{"productId":12345678901234567890}`, "12345678901234567890"},
		{"null", `{"productId":null}`, ""},
		{"missing", `{"price":2}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Product
			require.NoError(t, json.Unmarshal([]byte(tt.body), &p))
			assert.Equal(t, tt.want, p.ID)
		})
	}
}

func TestProductIDKeepsOtherFields(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"productId":3,"name":"Widget","price":9.5,"company":"Acme","rating":4,"featured":true}`), &p))

	assert.Equal(t, "3", p.ID)
	assert.Equal(t, "Widget", p.DisplayName())
	assert.Equal(t, 9.5, p.Price)
	assert.Equal(t, "Acme", p.Company)
	assert.Equal(t, 4, p.Rating)
	assert.True(t, p.Featured)
}

func TestProductIDRejectsOtherTypes(t *testing.T) {
	var p Product
	assert.Error(t, json.Unmarshal([]byte(`{"productId":true}`), &p))
	assert.Error(t, json.Unmarshal([]byte(`{"productId":{"id":1}}`), &p))
}
