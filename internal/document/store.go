package document

import "context"

// FileStore сохраняет документ-результат в файл после каждой строки.
type FileStore struct {
	Path string
}

// NewFileStore создаёт FileStore.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Save атомарно записывает документ.
func (s *FileStore) Save(_ context.Context, doc *Document) error {
	return doc.WriteFile(s.Path)
}
