package metadata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnums struct {
	calls atomic.Int32
	err   error
}

func (f *fakeEnums) LoadEnums(_ context.Context, _ string) (map[string][]string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return map[string][]string{EnumClinvar: {"Pathogenic", "Likely_pathogenic"}}, nil
}

func (f *fakeEnums) SetEnum(_ context.Context, _, _ string, _ []string) error { return nil }

type fakeFields struct{ calls atomic.Int32 }

func (f *fakeFields) FieldTypes(_ context.Context, _ string) (map[string]string, error) {
	f.calls.Add(1)
	return SNVIndelFields(), nil
}

func TestCache_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("loads_once", func(t *testing.T) {
		enums, fields := &fakeEnums{}, &fakeFields{}
		cache := NewCache(enums, fields, nil)

		ds1, err := cache.Get(ctx, "snv")
		require.NoError(t, err)
		ds2, err := cache.Get(ctx, "snv")
		require.NoError(t, err)

		assert.Same(t, ds1, ds2)
		assert.Equal(t, int32(1), enums.calls.Load())
		assert.Equal(t, int32(1), fields.calls.Load())
		assert.True(t, ds1.Catalog.Has(RoleNumAlt1))
		id, ok := ds1.Enums.ID(EnumClinvar, "Likely_pathogenic")
		assert.True(t, ok)
		assert.Equal(t, 1, id)
	})

	t.Run("datasets_are_separate", func(t *testing.T) {
		cache := NewCache(&fakeEnums{}, &fakeFields{}, nil)
		a, err := cache.Get(ctx, "a")
		require.NoError(t, err)
		b, err := cache.Get(ctx, "b")
		require.NoError(t, err)
		assert.NotSame(t, a, b)
	})

	t.Run("errors_are_not_cached", func(t *testing.T) {
		enums := &fakeEnums{err: errors.New("boom")}
		cache := NewCache(enums, nil, nil)

		_, err := cache.Get(ctx, "snv")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load enums for snv")

		enums.err = nil
		ds, err := cache.Get(ctx, "snv")
		require.NoError(t, err)
		assert.Equal(t, 0, ds.Catalog.Len())
		assert.Equal(t, int32(2), enums.calls.Load())
	})

	t.Run("concurrent_access", func(t *testing.T) {
		enums := &fakeEnums{}
		cache := NewCache(enums, &fakeFields{}, nil)
		var wg sync.WaitGroup
		results := make([]*Dataset, 10)

		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				ds, err := cache.Get(ctx, "snv")
				assert.NoError(t, err)
				results[idx] = ds
			}(i)
		}
		wg.Wait()

		for i := 1; i < 10; i++ {
			assert.Same(t, results[0], results[i])
		}
		assert.Equal(t, int32(1), enums.calls.Load())
	})

	t.Run("put_seeds_entry", func(t *testing.T) {
		enums := &fakeEnums{}
		cache := NewCache(enums, nil, nil)
		seeded := &Dataset{Name: "sv", Enums: Enums{}, Catalog: NewCatalog(SVFields())}
		cache.Put(seeded)

		ds, err := cache.Get(ctx, "sv")
		require.NoError(t, err)
		assert.Same(t, seeded, ds)
		assert.Equal(t, int32(0), enums.calls.Load())
	})
}
