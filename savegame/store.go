package savegame

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Store keeps snapshots.
type Store interface {
	Save(ctx context.Context, s *Snapshot) error
	Load(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	List(ctx context.Context) ([]Info, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Close() error
}

const fileExt = ".dmsave"

// FileStore keeps one file per snapshot in a directory.
type FileStore struct {
	fs  afero.Fs
	dir string
}

// NewFileStore stores snapshots under dir on fs, creating it if needed.
func NewFileStore(fs afero.Fs, dir string) (*FileStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("savegame: create %s: %w", dir, err)
	}
	return &FileStore{fs: fs, dir: dir}, nil
}

func (f *FileStore) file(id uuid.UUID) string {
	return path.Join(f.dir, id.String()+fileExt)
}

func (f *FileStore) Save(_ context.Context, s *Snapshot) error {
	data, err := s.MarshalBinary()
	if err != nil {
		return err
	}
	tmp := f.file(s.ID) + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("savegame: save %s: %w", s.ID, err)
	}
	if err := f.fs.Rename(tmp, f.file(s.ID)); err != nil {
		return fmt.Errorf("savegame: save %s: %w", s.ID, err)
	}
	return nil
}

func (f *FileStore) Load(_ context.Context, id uuid.UUID) (*Snapshot, error) {
	data, err := afero.ReadFile(f.fs, f.file(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("savegame: load %s: %w", id, err)
	}
	var s Snapshot
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("savegame: load %s: %w", id, err)
	}
	return &s, nil
}

// List returns every readable snapshot, newest first. Unreadable files
// are skipped.
func (f *FileStore) List(ctx context.Context) ([]Info, error) {
	entries, err := afero.ReadDir(f.fs, f.dir)
	if err != nil {
		return nil, fmt.Errorf("savegame: list %s: %w", f.dir, err)
	}
	var out []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		s, err := f.Load(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, s.Info())
	}
	sortInfos(out)
	return out, nil
}

func (f *FileStore) Delete(_ context.Context, id uuid.UUID) error {
	err := f.fs.Remove(f.file(id))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

func (f *FileStore) Close() error { return nil }

func sortInfos(infos []Info) {
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].SavedAt.Equal(infos[j].SavedAt) {
			return infos[i].SavedAt.After(infos[j].SavedAt)
		}
		return infos[i].Name < infos[j].Name
	})
}
