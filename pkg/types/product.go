package types

type Product struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Image    string `json:"image,omitempty"`
	Status   Status `json:"status,omitempty"`
	Category string `json:"category,omitempty"`
}

// SearchParams is one page request against the catalog api. Nil price
// bounds and empty lists mean no filter.
type SearchParams struct {
	PriceMin    *int     `json:"priceMin,omitempty" schema:"priceMin,omitempty"`
	PriceMax    *int     `json:"priceMax,omitempty" schema:"priceMax,omitempty"`
	CategoryIds []int    `json:"categoryIds,omitempty" schema:"categoryIds,omitempty"`
	Sizes       []string `json:"sizes,omitempty" schema:"sizes,omitempty"`
	Colors      []string `json:"colors,omitempty" schema:"colors,omitempty"`
	Status      Status   `json:"status,omitempty" schema:"status,omitempty"`
	Page        int      `json:"page" schema:"page"`
	PageSize    int      `json:"pageSize" schema:"pageSize"`
}

type SearchResult struct {
	Items      []Product `json:"items"`
	TotalPages int       `json:"totalPages"`
}

// FilterOptions is the facet vocabulary of the catalog.
type FilterOptions struct {
	MinPrice   int            `json:"minPrice"`
	MaxPrice   int            `json:"maxPrice"`
	Categories []CategoryNode `json:"categories"`
	Sizes      []string       `json:"sizes"`
	Colors     []string       `json:"colors"`
}

func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		MinPrice:   DefaultPriceMin,
		MaxPrice:   DefaultPriceMax,
		Categories: []CategoryNode{},
		Sizes:      []string{},
		Colors:     []string{},
	}
}
