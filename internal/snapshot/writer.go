package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"github.com/alissawu/miniex/domain/book"
)

const fileName = "snapshot.bin"

type Writer struct {
	Dir string
}

// Write dumps the book's resting orders as of seq. Only safe when no
// writer can run between the caller's choice of seq and this call; a
// live engine captures state under its write lock and uses WriteState.
func (w *Writer) Write(seq uint64, b *book.Book) error {
	return w.WriteState(Snapshot{
		Seq:     seq,
		LastID:  b.LastID(),
		Created: time.Now(),
		Orders:  b.Snapshot(),
	})
}

// WriteState persists an already-captured snapshot. The file is
// written to a temp name and renamed so a crash mid-write never
// clobbers the previous snapshot.
func (w *Writer) WriteState(s Snapshot) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}

	tmp := filepath.Join(w.Dir, fileName+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(&s); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(w.Dir, fileName))
}
