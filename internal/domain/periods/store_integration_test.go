package periods

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nomina/internal/platform/db/dbtest"
	"nomina/internal/platform/pagination"
)

func TestStoreLifecycle(t *testing.T) {
	pool := dbtest.Open(t)
	store := NewStore(pool)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := Plan(Input{FechaInicio: ptr(day("2025-01-06").AddDate(0, 0, 7*i)), Tipo: "semanal"})
			if err != nil {
				errs[i] = err
				return
			}
			_, errs[i] = store.Create(ctx, d, false)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	year := 2025
	items, total, err := store.List(ctx, pagination.New(1, 10, ""), ListFilter{Anio: &year})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	claves := map[string]bool{}
	for _, p := range items {
		claves[p.Clave] = true
	}
	assert.Len(t, claves, 4)
	assert.True(t, items[0].FechaInicio.After(items[1].FechaInicio))

	_, err = store.Active(ctx)
	assert.ErrorIs(t, err, ErrNoActive)

	a, err := store.Activate(ctx, items[0].ID)
	require.NoError(t, err)
	assert.True(t, a.Activo)
	b, err := store.Activate(ctx, items[1].ID)
	require.NoError(t, err)

	n, err := store.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	active, err := store.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, active.ID)

	_, err = store.Deactivate(ctx, b.ID)
	require.NoError(t, err)
	n, err = store.CountActive(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = store.Activate(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
