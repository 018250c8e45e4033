package artifacts_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/complementos-api/internal/domain"
	"github.com/jhoicas/complementos-api/internal/domain/entity"
	"github.com/jhoicas/complementos-api/internal/infrastructure/artifacts"
)

func TestFileStore_PutGet(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := artifacts.NewFileStore(fs, "/data/invoices")
	ctx := context.Background()

	_, ok, err := store.Get(ctx, entity.ArtifactPDF, "CPX")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, entity.ArtifactPDF, "CPX", []byte("%PDF")))

	data, ok, err := store.Get(ctx, entity.ArtifactPDF, "CPX")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("%PDF"), data)

	exists, err := afero.Exists(fs, "/data/invoices/pdf/CPX.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	// el XML es un espacio distinto
	_, ok, err = store.Get(ctx, entity.ArtifactXML, "CPX")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_Sobrescribe(t *testing.T) {
	store := artifacts.NewFileStore(afero.NewMemMapFs(), "/inv")
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, entity.ArtifactXML, "A", []byte("v1")))
	require.NoError(t, store.Put(ctx, entity.ArtifactXML, "A", []byte("v2")))

	data, _, err := store.Get(ctx, entity.ArtifactXML, "A")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)

	ids, err := store.IDs(entity.ArtifactXML)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, ids, "no deben quedar temporales")
}

func TestFileStore_EscriturasConcurrentes(t *testing.T) {
	store := artifacts.NewFileStore(afero.NewMemMapFs(), "/inv")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("ID-%d", i%4)
			assert.NoError(t, store.Put(ctx, entity.ArtifactPDF, id, []byte("contenido-"+id)))
		}(i)
	}
	wg.Wait()

	ids, err := store.IDs(entity.ArtifactPDF)
	require.NoError(t, err)
	assert.Equal(t, []string{"ID-0", "ID-1", "ID-2", "ID-3"}, ids)
	for _, id := range ids {
		data, ok, err := store.Get(ctx, entity.ArtifactPDF, id)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "contenido-"+id, string(data))
	}
}

func TestFileStore_IdentificadoresInvalidos(t *testing.T) {
	store := artifacts.NewFileStore(afero.NewMemMapFs(), "/inv")
	ctx := context.Background()

	for _, id := range []string{"", "../etc/passwd", "a/b", `a\b`, ".oculto", "x..y"} {
		err := store.Put(ctx, entity.ArtifactPDF, id, []byte("x"))
		assert.ErrorIs(t, err, domain.ErrStorage, id)

		var storageErr *domain.StorageError
		assert.ErrorAs(t, err, &storageErr)
	}
}

func TestFileStore_IDsSinDirectorio(t *testing.T) {
	store := artifacts.NewFileStore(afero.NewMemMapFs(), "/vacio")
	ids, err := store.IDs(entity.ArtifactXML)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_ErrorDeEscritura(t *testing.T) {
	store := artifacts.NewFileStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/inv")
	err := store.Put(context.Background(), entity.ArtifactPDF, "A", []byte("x"))
	assert.ErrorIs(t, err, domain.ErrStorage)
}
