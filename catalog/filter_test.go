package catalog

import (
	"fmt"
	"math/rand"
	"testing"

	"product-console/client"
	"product-console/models"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
)

func scenarioProducts() []models.Product {
	return []models.Product{
		{ID: "1", Name: models.StringPtr("Widget"), Price: 10, Rating: 3, Featured: false},
		{ID: "2", Name: models.StringPtr("Gadget"), Price: 20, Rating: 5, Featured: true},
	}
}

func ids(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestFilterScenarios(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"price below 15", Criteria{MaxPrice: "15"}, []string{"1"}},
		{"featured only", Criteria{FeaturedOnly: true}, []string{"2"}},
		{"default", Criteria{}, []string{"1", "2"}},
		{"search is case insensitive", Criteria{SearchText: "gAdG"}, []string{"2"}},
		{"search substring", Criteria{SearchText: "dget"}, []string{"1", "2"}},
		{"price bound is exclusive", Criteria{MaxPrice: "20"}, []string{"1"}},
		{"non-numeric price is ignored", Criteria{MaxPrice: "abc"}, []string{"1", "2"}},
		{"blank price is ignored", Criteria{MaxPrice: "  "}, []string{"1", "2"}},
		{"rating is inclusive", Criteria{MinRating: 3}, []string{"1", "2"}},
		{"rating above", Criteria{MinRating: 4}, []string{"2"}},
		{"conjunctive", Criteria{MaxPrice: "15", FeaturedOnly: true}, []string{}},
		{"rating clamped", Criteria{MinRating: 9}, []string{"2"}},
		{"negative rating clamped", Criteria{MinRating: -2}, []string{"1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(scenarioProducts(), tt.criteria))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Filter() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterNullName(t *testing.T) {
	products := []models.Product{
		{ID: "1", Name: nil, Price: 1, Rating: 1},
		{ID: "2", Name: models.StringPtr("Widget"), Price: 1, Rating: 1},
	}

	assert.Equal(t, []string{"2"}, ids(Filter(products, Criteria{SearchText: "w"})))
	assert.Equal(t, []string{"1", "2"}, ids(Filter(products, Criteria{})))
}

func TestFilterEmptyInput(t *testing.T) {
	assert.Empty(t, Filter(nil, Criteria{SearchText: "x"}))
	assert.NotNil(t, Filter(nil, Criteria{}))
}

func randomProducts(r *rand.Rand, n int) []models.Product {
	names := []string{"Widget", "gadget", "Doohickey", "WIDGET pro", "Sprocket"}
	products := make([]models.Product, n)
	for i := range products {
		p := models.Product{
			ID:       fmt.Sprint(i),
			Price:    float64(r.Intn(5000)) / 100,
			Rating:   1 + r.Intn(5),
			Featured: r.Intn(2) == 0,
			Company:  "Acme",
		}
		if r.Intn(10) > 0 {
			p.Name = models.StringPtr(names[r.Intn(len(names))])
		}
		products[i] = p
	}
	return products
}

func randomCriteria(r *rand.Rand) Criteria {
	searches := []string{"", "w", "WID", "get", "zzz"}
	prices := []string{"", "10", "25.5", "abc", "0"}
	return Criteria{
		SearchText:   searches[r.Intn(len(searches))],
		MaxPrice:     prices[r.Intn(len(prices))],
		MinRating:    r.Intn(6),
		FeaturedOnly: r.Intn(2) == 0,
	}
}

// isSubsequence reports whether sub appears in full in the same order
func isSubsequence(sub, full []models.Product) bool {
	j := 0
	for _, p := range full {
		if j < len(sub) && cmp.Equal(sub[j], p) {
			j++
		}
	}
	return j == len(sub)
}

func TestFilterProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		products := randomProducts(r, r.Intn(30))
		criteria := randomCriteria(r)

		once := Filter(products, criteria)
		if !isSubsequence(once, products) {
			t.Fatalf("Filter(%+v) is not an ordered subsequence of its input", criteria)
		}

		twice := Filter(once, criteria)
		if diff := cmp.Diff(once, twice, cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("Filter is not idempotent for %+v (-once +twice):\n%s", criteria, diff)
		}

		if diff := cmp.Diff(products, Filter(products, Criteria{}), cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("default criteria changed the list (-want +got):\n%s", diff)
		}
	}
}

func TestServerQuery(t *testing.T) {
	assert.Equal(t, client.Query{}, Criteria{SearchText: "x"}.ServerQuery())
	assert.Equal(t, client.Query{Featured: true, MinRating: 5}, Criteria{FeaturedOnly: true, MinRating: 7}.ServerQuery())

	q := Criteria{MaxPrice: "12.5"}.ServerQuery()
	if assert.NotNil(t, q.MaxPrice) {
		assert.Equal(t, 12.5, *q.MaxPrice)
	}
	assert.Nil(t, Criteria{MaxPrice: "cheap"}.ServerQuery().MaxPrice)
}
