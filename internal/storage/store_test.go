package storage

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-stock-service/pkg/database"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string         `json:"name"`
	Items map[string]int `json:"items"`
}

func TestLoad_MissingKeyYieldsZero(t *testing.T) {
	s := NewMemoryStore()
	v, err := Load[sample](context.Background(), s, "nope", logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, sample{}, v)
}

func TestLoad_CorruptedBlobRecoversSilently(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "inventory", []byte(`{"name":"bar","items":{"gin":`)))

	v, err := Load[sample](ctx, s, "inventory", logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, sample{}, v, "partially decoded data must not leak through")

	require.NoError(t, s.Set(ctx, "list", []byte("not json at all")))
	list, err := Load[[]sample](ctx, s, "list", logger.NewNop())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSaveLoad_RoundTripAcrossBackends(t *testing.T) {
	ctx := context.Background()

	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()
	sqlStore := NewSQLStore(db)
	require.NoError(t, sqlStore.Migrate(ctx))

	backends := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlStore,
	}

	for name, s := range backends {
		t.Run(name, func(t *testing.T) {
			in := sample{Name: "main-bar", Items: map[string]int{"gin": 3}}
			require.NoError(t, Save(ctx, s, "k", in))

			out, err := Load[sample](ctx, s, "k", logger.NewNop())
			require.NoError(t, err)
			assert.Equal(t, in, out)

			in.Items["gin"] = 7
			require.NoError(t, Save(ctx, s, "k", in))
			out, err = Load[sample](ctx, s, "k", logger.NewNop())
			require.NoError(t, err)
			assert.Equal(t, 7, out.Items["gin"])
		})
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	buf := []byte(`"a"`)
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[1] = 'b'

	v, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `"a"`, string(v))
}
