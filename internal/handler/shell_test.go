package handler_test

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentdb/internal/handler"
	"studentdb/internal/service"
	"studentdb/internal/store"
)

const dataFile = "/data/students.txt"

// lockableFs refuses every write once locked.
type lockableFs struct {
	afero.Fs
	locked bool
}

var errReadOnly = errors.New("read-only file system")

func (f *lockableFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if f.locked && flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, &os.PathError{Op: "open", Path: name, Err: errReadOnly}
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f *lockableFs) Create(name string) (afero.File, error) {
	return f.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

func (f *lockableFs) Rename(oldname, newname string) error {
	if f.locked {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: errReadOnly}
	}
	return f.Fs.Rename(oldname, newname)
}

func newFs(t *testing.T, content string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	if content != "" {
		require.NoError(t, afero.WriteFile(fsys, dataFile, []byte(content), 0o644))
	}
	return fsys
}

func runShell(t *testing.T, st *store.Store, inputs ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(inputs, "\n") + "\n")
	shell := handler.NewShell(service.NewStudentService(st), in, &out)
	require.NoError(t, shell.Run())
	return out.String()
}

func openStore(t *testing.T, fsys afero.Fs) *store.Store {
	t.Helper()
	st, err := store.Open(fsys, dataFile)
	require.NoError(t, err)
	return st
}

func readData(t *testing.T, fsys afero.Fs) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, dataFile)
	require.NoError(t, err)
	return string(data)
}

// hasRow reports whether some output line consists of exactly fields.
func hasRow(out string, fields ...string) bool {
	for _, line := range strings.Split(out, "\n") {
		if strings.Join(strings.Fields(line), " ") == strings.Join(fields, " ") {
			return true
		}
	}
	return false
}

func TestShellAddAndView(t *testing.T) {
	fsys := newFs(t, "")
	st := openStore(t, fsys)
	require.True(t, st.IsNew())

	out := runShell(t, st, "1", "A001", "Alice", "20", "CS", "3.8", "2", "0")

	assert.Contains(t, out, "Student added successfully!")
	assert.True(t, hasRow(out, "A001", "Alice", "20", "CS", "3.80"), out)
	assert.Contains(t, out, "Total Students: 1")
	assert.Contains(t, out, "Thank you for using Student Management System!")
	assert.Equal(t, "A001,Alice,20,CS,3.8\n", readData(t, fsys))
}

func TestShellDuplicateAdd(t *testing.T) {
	fsys := newFs(t, "A001,Alice,20,CS,3.8\n")
	st := openStore(t, fsys)

	out := runShell(t, st, "1", "A001", "0")

	assert.Contains(t, out, "Error: Student with roll number A001 already exists.")
	assert.NotContains(t, out, "Enter Name")
	assert.Equal(t, "A001,Alice,20,CS,3.8\n", readData(t, fsys))
}

func TestShellUpdateWithBlanks(t *testing.T) {
	fsys := newFs(t, "A001,Alice,20,CS,3.8\n")
	st := openStore(t, fsys)

	out := runShell(t, st, "4", "A001", "", "", "Math", "3.9", "0")

	assert.Contains(t, out, "Enter Name [Alice]: ")
	assert.Contains(t, out, "Enter GPA (0.0-4.0) [3.80]: ")
	assert.Contains(t, out, "Student information updated successfully!")
	assert.Equal(t, "A001,Alice,20,Math,3.9\n", readData(t, fsys))
}

func TestShellUpdateInvalidValuesKeepCurrent(t *testing.T) {
	fsys := newFs(t, "A001,Alice,20,CS,3.8\n")
	st := openStore(t, fsys)

	out := runShell(t, st, "4", "A001", "", "150", "", "x", "0")

	assert.Contains(t, out, "Invalid age. Keeping current value.")
	assert.Contains(t, out, "Invalid GPA format. Keeping current value.")
	assert.Equal(t, "A001,Alice,20,CS,3.8\n", readData(t, fsys))
}

func TestShellDeleteCancelled(t *testing.T) {
	fsys := newFs(t, "A001,Alice,20,CS,3.8\n")
	st := openStore(t, fsys)

	out := runShell(t, st, "5", "A001", "n", "0")

	assert.Contains(t, out, "Deletion cancelled.")
	assert.Equal(t, "A001,Alice,20,CS,3.8\n", readData(t, fsys))
	assert.Equal(t, 1, st.Len())
}

func TestShellDeleteConfirmed(t *testing.T) {
	fsys := newFs(t, "A001,Alice,20,CS,3.8\nB002,Bob,22,Math,2.5\n")
	st := openStore(t, fsys)

	out := runShell(t, st, "5", "A001", "YES", "0")

	assert.Contains(t, out, "Student deleted successfully!")
	assert.Equal(t, "B002,Bob,22,Math,2.5\n", readData(t, fsys))
}

func TestShellReport(t *testing.T) {
	fsys := newFs(t, "A1,Anna,20,CS,3.6\nA2,Ben,21,CS,3.2\nA3,Carl,22,EE,2.5\nA4,Dora,19,EE,1.5\n")
	st := openStore(t, fsys)

	out := runShell(t, st, "6", "0")

	for _, want := range []string{
		"Total number of students: 4",
		"Average GPA: 2.70",
		"Highest GPA: 3.60 (Anna, A1)",
		"Lowest GPA: 1.50 (Dora, A4)",
		"Excellent (3.5-4.0): 1 students (25.0%)",
		"Good (3.0-3.49): 1 students (25.0%)",
		"Average (2.0-2.99): 1 students (25.0%)",
		"Below Average (<2.0): 1 students (25.0%)",
	} {
		assert.Contains(t, out, want)
	}
	cs := strings.Index(out, "CS: 2 students")
	ee := strings.Index(out, "EE: 2 students")
	require.True(t, cs >= 0 && ee >= 0, out)
	assert.Less(t, cs, ee)
}

func TestShellDeletePersistFailure(t *testing.T) {
	fsys := &lockableFs{Fs: newFs(t, "A001,Alice,20,CS,3.8\n")}
	st := openStore(t, fsys)
	fsys.locked = true

	out := runShell(t, st, "5", "A001", "y", "2", "0")

	assert.Contains(t, out, "Error: Failed to save changes")
	assert.NotContains(t, out, "Student deleted successfully!")
	assert.True(t, hasRow(out, "A001", "Alice", "20", "CS", "3.80"), out)
	assert.Contains(t, out, "Total Students: 1")
	assert.Equal(t, "A001,Alice,20,CS,3.8\n", readData(t, fsys))
}

func TestShellViewSortedByName(t *testing.T) {
	fsys := newFs(t, "C3,Carol,19,CS,3.2\nA1,Alice,20,CS,3.8\nB2,Bob,22,Math,2.5\n")
	st := openStore(t, fsys)

	out := runShell(t, st, "2", "0")

	alice := strings.Index(out, "Alice")
	bob := strings.Index(out, "Bob")
	carol := strings.Index(out, "Carol")
	assert.True(t, alice < bob && bob < carol, out)
	assert.Contains(t, out, "Total Students: 3")
}

func TestShellSearch(t *testing.T) {
	fsys := newFs(t, "A001,Alice,20,CS,3.8\n")
	st := openStore(t, fsys)

	out := runShell(t, st, "3", "A001", "3", "a001", "0")

	assert.Contains(t, out, "Student Found:")
	assert.True(t, hasRow(out, "A001", "Alice", "20", "CS", "3.80"))
	assert.Contains(t, out, "Student with Roll Number a001 not found.")
}

func TestShellEmptyStore(t *testing.T) {
	st := openStore(t, newFs(t, ""))

	out := runShell(t, st, "2", "3", "4", "5", "6", "0")

	assert.Equal(t, 5, strings.Count(out, "No students in the database."))
	assert.NotContains(t, out, "Enter Roll Number")
}

func TestShellInvalidChoices(t *testing.T) {
	st := openStore(t, newFs(t, ""))

	out := runShell(t, st, "abc", "9", " 0 ")

	assert.Contains(t, out, "Invalid input. Please enter a number.")
	assert.Contains(t, out, "Invalid choice. Please try again.")
	assert.Equal(t, 3, strings.Count(out, "===== STUDENT MANAGEMENT SYSTEM ====="))
}

func TestShellEndOfInput(t *testing.T) {
	fsys := newFs(t, "")
	st := openStore(t, fsys)

	out := runShell(t, st, "1", "A001", "Alice")

	assert.Contains(t, out, "Thank you for using Student Management System!")
	assert.Equal(t, 0, st.Len())
	exists, err := afero.Exists(fsys, dataFile)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestShellAddValidationLoops(t *testing.T) {
	fsys := newFs(t, "")
	st := openStore(t, fsys)

	out := runShell(t, st,
		"1",
		"", "A001",
		"Al,ice", "Alice",
		"15", "abc", "20",
		"CS",
		"4.5", "3.8",
		"0")

	assert.Contains(t, out, "Roll number cannot be empty.")
	assert.Contains(t, out, "Invalid name. Commas are not allowed.")
	assert.Contains(t, out, "Invalid age. Please enter a value between 16 and 100.")
	assert.Contains(t, out, "Invalid input. Please enter a valid number.")
	assert.Contains(t, out, "Invalid GPA. Please enter a value between 0.0 and 4.0.")
	assert.Equal(t, "A001,Alice,20,CS,3.8\n", readData(t, fsys))
}

func TestShellAgeBoundaries(t *testing.T) {
	fsys := newFs(t, "")
	st := openStore(t, fsys)

	runShell(t, st,
		"1", "A1", "Young", "101", "16", "CS", "0.0",
		"1", "A2", "Old", "100", "CS", "4.0",
		"0")

	assert.Equal(t, "A1,Young,16,CS,0.0\nA2,Old,100,CS,4.0\n", readData(t, fsys))
}

func TestWelcome(t *testing.T) {
	var out bytes.Buffer
	shell := handler.NewShell(service.NewStudentService(openStore(t, newFs(t, ""))), strings.NewReader(""), &out)

	shell.Welcome(true, 0)
	shell.Welcome(false, 3)

	assert.Equal(t, "No existing student data found. Starting with an empty database.\n"+
		"Loaded 3 students from database.\n", out.String())
}
