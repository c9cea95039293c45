package model

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	s := Student{RollNumber: "A001", Name: "Alice", Age: 20, Course: "CS", GPA: 3.8}
	assert.Equal(t, "A001,Alice,20,CS,3.8", Encode(s))

	s.GPA = 4
	assert.Equal(t, "A001,Alice,20,CS,4.0", Encode(s))

	s.GPA = 0
	assert.Equal(t, "A001,Alice,20,CS,0.0", Encode(s))
}

func TestDecode(t *testing.T) {
	s, err := Decode("A001,Alice Smith,20,CS,3.8")
	require.NoError(t, err)
	assert.Equal(t, Student{RollNumber: "A001", Name: "Alice Smith", Age: 20, Course: "CS", GPA: 3.8}, s)

	s, err = Decode("A002,Bob,21,EE,2.5\r")
	require.NoError(t, err)
	assert.Equal(t, 2.5, s.GPA)

	s, err = Decode(" A003 ,Cara, 22 ,Math, 3 ")
	require.NoError(t, err)
	assert.Equal(t, "A003", s.RollNumber)
	assert.Equal(t, 22, s.Age)
	assert.Equal(t, 3.0, s.GPA)
}

func TestDecodeIsRangeLenient(t *testing.T) {
	s, err := Decode("A001,Alice,12,CS,4.7")
	require.NoError(t, err)
	assert.Equal(t, 12, s.Age)
	assert.Equal(t, 4.7, s.GPA)
	assert.Error(t, s.Validate())
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few fields", "A001,Alice,20,CS"},
		{"too many fields", "A001,Alice,Smith,20,CS,3.8"},
		{"bad age", "A001,Alice,twenty,CS,3.8"},
		{"bad gpa", "A001,Alice,20,CS,high"},
		{"empty roll", " ,Alice,20,CS,3.8"},
		{"empty line", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeLine(tt.line, 7)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRecord))

			var recErr *Error
			require.True(t, errors.As(err, &recErr))
			assert.Equal(t, 7, recErr.Line)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	students := []Student{
		{RollNumber: "A001", Name: "Alice", Age: 16, Course: "CS", GPA: 0},
		{RollNumber: "B-17", Name: "Bob van der Berg", Age: 100, Course: "Applied Math", GPA: 4},
		{RollNumber: "c3", Name: "", Age: 45, Course: "", GPA: 3.3333333333333335},
		{RollNumber: "D 4", Name: "Dora", Age: 19, Course: "EE", GPA: 0.1},
	}

	for _, s := range students {
		got, err := Decode(Encode(s))
		require.NoError(t, err)
		assert.Equal(t, s.RollNumber, got.RollNumber)
		assert.Equal(t, s.Name, got.Name)
		assert.Equal(t, s.Age, got.Age)
		assert.Equal(t, s.Course, got.Course)
		assert.InDelta(t, s.GPA, got.GPA, 1e-12)
	}
}

func TestValidateAge(t *testing.T) {
	tests := []struct {
		age   int
		valid bool
	}{
		{15, false},
		{16, true},
		{55, true},
		{100, true},
		{101, false},
	}

	for _, tt := range tests {
		err := ValidateAge(tt.age)
		if tt.valid {
			assert.NoError(t, err, "age %d", tt.age)
		} else {
			assert.ErrorIs(t, err, ErrOutOfRange, "age %d", tt.age)
		}
	}
}

func TestValidateGPA(t *testing.T) {
	assert.NoError(t, ValidateGPA(0))
	assert.NoError(t, ValidateGPA(4))
	assert.ErrorIs(t, ValidateGPA(-0.1), ErrOutOfRange)
	assert.ErrorIs(t, ValidateGPA(4.01), ErrOutOfRange)
	assert.ErrorIs(t, ValidateGPA(math.NaN()), ErrOutOfRange)
}

func TestValidateStudent(t *testing.T) {
	valid := Student{RollNumber: "A001", Name: "Alice", Age: 20, Course: "CS", GPA: 3.8}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name  string
		edit  func(*Student)
		field string
	}{
		{"empty roll", func(s *Student) { s.RollNumber = "  " }, "roll_number"},
		{"padded roll", func(s *Student) { s.RollNumber = " A001" }, "roll_number"},
		{"comma in name", func(s *Student) { s.Name = "Smith, Alice" }, "name"},
		{"newline in course", func(s *Student) { s.Course = "CS\nEE" }, "course"},
		{"young", func(s *Student) { s.Age = 15 }, "age"},
		{"gpa", func(s *Student) { s.GPA = 4.5 }, "gpa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.edit(&s)
			err := s.Validate()
			require.ErrorIs(t, err, ErrOutOfRange)

			var recErr *Error
			require.ErrorAs(t, err, &recErr)
			assert.Equal(t, tt.field, recErr.Field)
		})
	}
}

func TestPatch(t *testing.T) {
	s := Student{RollNumber: "A001", Name: "Alice", Age: 20, Course: "CS", GPA: 3.8}

	var empty Patch
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, s, empty.Apply(s))

	course, gpa := "Math", 3.9
	p := Patch{Course: &course, GPA: &gpa}
	assert.False(t, p.IsEmpty())
	require.NoError(t, p.Validate())
	assert.Equal(t, Student{RollNumber: "A001", Name: "Alice", Age: 20, Course: "Math", GPA: 3.9}, p.Apply(s))
	assert.Equal(t, "CS", s.Course, "Apply must not modify its argument")

	age := 101
	assert.ErrorIs(t, Patch{Age: &age}.Validate(), ErrOutOfRange)
}

func TestStudentString(t *testing.T) {
	s := Student{RollNumber: "A001", Name: "Alice", Age: 20, Course: "CS", GPA: 3.8}
	assert.Equal(t, []string{"A001", "Alice", "20", "CS", "3.80"}, strings.Fields(s.String()))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "duplicate roll number: A001", DuplicateError("A001").Error())
	assert.Equal(t, "student not found: Z9", NotFoundError("Z9").Error())
	assert.Equal(t, "malformed record at line 3: empty roll number", MalformedError(3, "empty roll number").Error())

	cause := errors.New("permission denied")
	err := IOError("write", cause)
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "io error: write: permission denied", err.Error())
}
