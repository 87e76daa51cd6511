package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jgaa-thai/restaurant-client/internal/model"
)

// File хранит снимок в одном JSON-файле. Запись атомарна: сначала во
// временный файл рядом, затем переименование.
type File struct {
	path string
}

// NewFile создаёт файловый драйвер снимков по указанному пути.
func NewFile(path string) *File {
	return &File{path: path}
}

// Load читает и декодирует снимок из файла.
func (f *File) Load(_ context.Context) (model.State, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.State{}, ErrNoSnapshot
		}
		return model.State{}, fmt.Errorf("read snapshot file: %w", err)
	}

	return decode(data)
}

// Save сериализует состояние и атомарно записывает его в файл.
func (f *File) Save(_ context.Context, st model.State) error {
	data, err := encode(st)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rename snapshot file: %w", err)
	}

	return nil
}

// Close ничего не освобождает у файлового драйвера.
func (f *File) Close() error {
	return nil
}
