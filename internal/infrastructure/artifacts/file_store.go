// Package artifacts almacén local de PDF/XML de complementos, indexado por identificador.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/jhoicas/complementos-api/internal/domain"
	"github.com/jhoicas/complementos-api/internal/domain/entity"
)

// FileStore guarda cada artefacto en {root}/{kind}/{id}.{kind}.
// Las escrituras van a un temporal y luego se renombran: varios escritores del
// mismo id terminan en "gana el último" sin archivos a medias.
type FileStore struct {
	fs   afero.Fs
	root string
}

// NewFileStore construye el almacén sobre fs (afero.NewMemMapFs en tests).
func NewFileStore(fs afero.Fs, root string) *FileStore {
	return &FileStore{fs: fs, root: filepath.Clean(root)}
}

// NewOSFileStore almacén sobre el sistema de archivos real.
func NewOSFileStore(root string) *FileStore {
	return NewFileStore(afero.NewOsFs(), root)
}

// Path ruta del artefacto.
func (s *FileStore) Path(kind entity.ArtifactKind, id string) (string, error) {
	if !kind.Valid() {
		return "", &domain.StorageError{Op: "path", Key: id, Err: fmt.Errorf("tipo inválido %q", kind)}
	}
	if err := validateID(id); err != nil {
		return "", &domain.StorageError{Op: "path", Key: id, Err: err}
	}
	return filepath.Join(s.root, string(kind), id+kind.Extension()), nil
}

// Get devuelve (data, true, nil) si existe; (nil, false, nil) si no.
func (s *FileStore) Get(_ context.Context, kind entity.ArtifactKind, id string) ([]byte, bool, error) {
	path, err := s.Path(kind, id)
	if err != nil {
		return nil, false, err
	}
	data, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &domain.StorageError{Op: "read", Key: id, Err: err}
	}
	return data, true, nil
}

// Put escribe data de forma atómica respecto a lectores concurrentes.
func (s *FileStore) Put(_ context.Context, kind entity.ArtifactKind, id string, data []byte) error {
	path, err := s.Path(kind, id)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return &domain.StorageError{Op: "mkdir", Key: id, Err: err}
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+id+"-*.tmp")
	if err != nil {
		return &domain.StorageError{Op: "write", Key: id, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return &domain.StorageError{Op: "write", Key: id, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return &domain.StorageError{Op: "write", Key: id, Err: err}
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		_ = s.fs.Remove(tmpName)
		return &domain.StorageError{Op: "rename", Key: id, Err: err}
	}
	return nil
}

// IDs identificadores almacenados para kind, ordenados.
func (s *FileStore) IDs(kind entity.ArtifactKind) ([]string, error) {
	if !kind.Valid() {
		return nil, &domain.StorageError{Op: "list", Key: string(kind), Err: fmt.Errorf("tipo inválido %q", kind)}
	}
	entries, err := afero.ReadDir(s.fs, filepath.Join(s.root, string(kind)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Key: string(kind), Err: err}
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, kind.Extension()) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, kind.Extension()))
	}
	sort.Strings(ids)
	return ids, nil
}

func validateID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return errors.New("identificador vacío")
	case strings.ContainsAny(id, `/\`+"\x00"):
		return errors.New("identificador con separadores de ruta")
	case strings.Contains(id, ".."), strings.HasPrefix(id, "."):
		return errors.New("identificador con puntos no permitidos")
	}
	return nil
}
