package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
)

func TestForecastFilterHash(t *testing.T) {
	maxMonths := 3.0

	assert.Equal(t, "default", forecastFilterHash(domain.ForecastFilter{}))
	assert.Equal(t, "default", forecastFilterHash(domain.ForecastFilter{Categories: []string{" "}}))

	a := forecastFilterHash(domain.ForecastFilter{Categories: []string{"office", "cleaning"}, MaxMonths: &maxMonths})
	b := forecastFilterHash(domain.ForecastFilter{Categories: []string{"cleaning", " office"}, MaxMonths: &maxMonths})
	assert.Equal(t, a, b, "category order does not change the key")

	c := forecastFilterHash(domain.ForecastFilter{Categories: []string{"office", "cleaning"}})
	assert.NotEqual(t, a, c)

	p1 := forecastFilterHash(domain.ForecastFilter{Page: 1, PageSize: 50})
	p2 := forecastFilterHash(domain.ForecastFilter{Page: 2, PageSize: 50})
	assert.NotEqual(t, p1, p2)

	assert.Contains(t, buildForecastLatestKey(domain.ForecastFilter{}), "forecast:latest:")
}

func TestNoopForecastCache(t *testing.T) {
	c := NewForecastCache(nil, 60)
	ctx := context.Background()

	require.NoError(t, c.SetLatest(ctx, domain.ForecastFilter{}, &domain.ForecastBatch{Total: 1}))
	batch, found, err := c.GetLatest(ctx, domain.ForecastFilter{})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, batch)

	_, found, err = c.GetSummary(ctx)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.InvalidateAll(ctx))
}
