package options

import (
	"context"
	"errors"
	"testing"

	"github.com/matst80/slask-catalog/pkg/cache"
	"github.com/matst80/slask-catalog/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	calls   int
	options *types.FilterOptions
	err     error
}

func (f *fakeSource) FilterOptions(ctx context.Context) (*types.FilterOptions, error) {
	f.calls++
	return f.options, f.err
}

func sampleOptions() *types.FilterOptions {
	return &types.FilterOptions{
		MinPrice: 990,
		MaxPrice: 25000,
		Categories: []types.CategoryNode{
			{Id: 1, Name: "Верхняя одежда", Children: []types.CategoryNode{{Id: 7, Name: "Пальто"}}},
		},
		Sizes:  []string{"S", "M", "S"},
		Colors: []string{"чёрный"},
	}
}

func TestLoadBuildsCategoryMap(t *testing.T) {
	l := NewLoader(&fakeSource{options: sampleOptions()})
	r := l.Load(context.Background())

	assert.False(t, r.Fallback)
	assert.Equal(t, 990, r.Options.MinPrice)
	assert.Equal(t, []string{"M", "S"}, r.Options.Sizes)
	id, ok := r.Categories.Resolve("ПАЛЬТО")
	require.True(t, ok)
	assert.Equal(t, 7, id)
	_, ok = r.Categories.Resolve("верхняя одежда")
	assert.True(t, ok)
}

func TestLoadFailureFallsBackToDefaults(t *testing.T) {
	l := NewLoader(&fakeSource{err: errors.New("connection refused")})
	r := l.Load(context.Background())

	assert.True(t, r.Fallback)
	assert.Equal(t, types.DefaultPriceMin, r.Options.MinPrice)
	assert.Equal(t, types.DefaultPriceMax, r.Options.MaxPrice)
	assert.Empty(t, r.Options.Categories)
	assert.Empty(t, r.Categories)
}

func TestInvalidBoundsUseDefaults(t *testing.T) {
	o := sampleOptions()
	o.MaxPrice = 0
	r := NewLoader(&fakeSource{options: o}).Load(context.Background())
	assert.Equal(t, types.DefaultPriceMax, r.Options.MaxPrice)
	assert.False(t, r.Fallback)
}

func TestLoadUsesCache(t *testing.T) {
	source := &fakeSource{options: sampleOptions()}
	c := cache.NewMemoryCache()
	l := NewLoader(source, WithCache(c))

	first := l.Load(context.Background())
	second := l.Load(context.Background())
	assert.False(t, first.FromCache)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, first.Categories, second.Categories)
}

func TestLoadOnce(t *testing.T) {
	source := &fakeSource{options: sampleOptions()}
	l := NewLoader(source)
	l.LoadOnce(context.Background())
	l.LoadOnce(context.Background())
	assert.Equal(t, 1, source.calls)
}
