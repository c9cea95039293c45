package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"studentdb/internal/model"
)

const defaultFileMode os.FileMode = 0o644

// Store keeps the student collection in memory and writes the whole
// collection back to its data file after every mutation. A mutation that
// cannot be persisted is undone, so the file and the collection never
// disagree once a call returns.
//
// A Store assumes it is the only writer of its file.
type Store struct {
	fs       afero.Fs
	path     string
	mu       sync.Mutex
	students []model.Student
	isNew    bool
}

// Open loads the data file at path. A missing file yields an empty store
// for which IsNew reports true.
func Open(fsys afero.Fs, path string) (*Store, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store: path is required")
	}
	s := &Store{fs: fsys, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenFile opens path on the operating system filesystem.
func OpenFile(path string) (*Store, error) {
	return Open(afero.NewOsFs(), path)
}

func (s *Store) Path() string { return s.path }

// IsNew reports whether the data file was absent when the store was opened.
func (s *Store) IsNew() bool { return s.isNew }

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.students)
}

// Snapshot returns a copy of the collection in insertion order.
func (s *Store) Snapshot() []model.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.students)
}

// Find looks up a student by exact roll number.
func (s *Store) Find(roll string) (model.Student, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(roll); i >= 0 {
		return s.students[i], true
	}
	return model.Student{}, false
}

// Add appends a student and persists the collection.
func (s *Store) Add(st model.Student) error {
	return s.AddMany([]model.Student{st})
}

// AddMany appends a batch with a single write. Either every student is
// added or none is.
func (s *Store) AddMany(batch []model.Student) error {
	if len(batch) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(batch))
	for _, st := range batch {
		if err := st.Validate(); err != nil {
			return err
		}
		if _, dup := seen[st.RollNumber]; dup || s.indexOf(st.RollNumber) >= 0 {
			return model.DuplicateError(st.RollNumber)
		}
		seen[st.RollNumber] = struct{}{}
	}

	prev := s.students
	next := make([]model.Student, 0, len(prev)+len(batch))
	next = append(next, prev...)
	next = append(next, batch...)
	return s.commit(prev, next)
}

// Update applies patch to the student with the given roll number and
// returns the updated record.
func (s *Store) Update(roll string, patch model.Patch) (model.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(roll)
	if i < 0 {
		return model.Student{}, model.NotFoundError(roll)
	}
	if err := patch.Validate(); err != nil {
		return model.Student{}, err
	}

	prev := s.students
	next := clone(prev)
	next[i] = patch.Apply(next[i])
	if err := s.commit(prev, next); err != nil {
		return model.Student{}, err
	}
	return next[i], nil
}

// Delete removes the student with the given roll number.
func (s *Store) Delete(roll string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(roll)
	if i < 0 {
		return model.NotFoundError(roll)
	}

	prev := s.students
	next := make([]model.Student, 0, len(prev)-1)
	next = append(next, prev[:i]...)
	next = append(next, prev[i+1:]...)
	return s.commit(prev, next)
}

// Reload discards the in-memory collection and reads the data file again.
// On failure the current collection is kept.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// commit installs next and writes it out, restoring prev when the write fails.
func (s *Store) commit(prev, next []model.Student) error {
	s.students = next
	if err := s.save(); err != nil {
		s.students = prev
		return err
	}
	s.isNew = false
	return nil
}

func (s *Store) indexOf(roll string) int {
	for i := range s.students {
		if s.students[i].RollNumber == roll {
			return i
		}
	}
	return -1
}

func (s *Store) load() error {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.students = nil
		s.isNew = true
		return nil
	}
	if err != nil {
		return model.IOError("read "+s.path, err)
	}

	students, err := decodeAll(string(data))
	if err != nil {
		return err
	}
	s.students = students
	s.isNew = false
	return nil
}

func decodeAll(data string) ([]model.Student, error) {
	var students []model.Student
	seen := make(map[string]int)
	for n, line := range strings.Split(data, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		st, err := model.DecodeLine(line, n+1)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[st.RollNumber]; dup {
			return nil, model.CorruptError(n+1, st.RollNumber)
		}
		seen[st.RollNumber] = n + 1
		students = append(students, st)
	}
	return students, nil
}

func encodeAll(students []model.Student) []byte {
	var b strings.Builder
	for _, st := range students {
		b.WriteString(model.Encode(st))
		b.WriteString(lineEnding)
	}
	return []byte(b.String())
}

// save replaces the data file with the current collection. The content is
// written to a temporary file in the same directory and renamed into place,
// so readers see either the old or the new file. An existing data file must
// be writable, and its permissions carry over to the replacement.
func (s *Store) save() error {
	dir, base := filepath.Split(s.path)
	if dir == "" {
		dir = "."
	}

	mode, err := s.checkWritable()
	if err != nil {
		return err
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+base+".tmp-*")
	if err != nil {
		return model.IOError("create temp file", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = s.fs.Remove(tmpName) }()

	if _, err := tmp.Write(encodeAll(s.students)); err != nil {
		_ = tmp.Close()
		return model.IOError("write "+tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return model.IOError("sync "+tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return model.IOError("close "+tmpName, err)
	}
	if err := s.fs.Chmod(tmpName, mode); err != nil {
		return model.IOError("chmod "+tmpName, err)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		return model.IOError("rename "+tmpName, err)
	}

	// The new file is already in place, so a failed directory sync is not
	// reported.
	if _, ok := s.fs.(*afero.OsFs); ok {
		_ = syncDir(dir)
	}
	return nil
}

// checkWritable opens an existing data file for writing without changing
// it and returns the permissions to give its replacement.
func (s *Store) checkWritable() (os.FileMode, error) {
	info, err := s.fs.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return defaultFileMode, nil
	}
	if err != nil {
		return 0, model.IOError("stat "+s.path, err)
	}

	f, err := s.fs.OpenFile(s.path, os.O_WRONLY, 0)
	if err != nil {
		return 0, model.IOError("open "+s.path, err)
	}
	if err := f.Close(); err != nil {
		return 0, model.IOError("close "+s.path, err)
	}
	return info.Mode().Perm(), nil
}

func clone(students []model.Student) []model.Student {
	if students == nil {
		return nil
	}
	out := make([]model.Student, len(students))
	copy(out, students)
	return out
}
