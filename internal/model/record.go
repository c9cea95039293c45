package model

import (
	"strconv"
	"strings"
)

// Separator splits the fields of a persisted line.
const Separator = ","

const fieldCount = 5

// Encode renders s as one line of the data file, without the line ending.
// Callers must have validated the text fields.
func Encode(s Student) string {
	return strings.Join([]string{
		s.RollNumber,
		s.Name,
		strconv.Itoa(s.Age),
		s.Course,
		FormatGPA(s.GPA),
	}, Separator)
}

// FormatGPA prints the shortest decimal that parses back to gpa, always
// with a fractional part.
func FormatGPA(gpa float64) string {
	out := strconv.FormatFloat(gpa, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}

// Decode parses one line of the data file. Ranges are not checked here so
// that hand-edited files still load; see Student.Validate.
func Decode(line string) (Student, error) {
	return DecodeLine(line, 0)
}

// DecodeLine is Decode with the line number reported on failure.
func DecodeLine(line string, lineNo int) (Student, error) {
	parts := strings.Split(strings.TrimRight(line, "\r"), Separator)
	if len(parts) != fieldCount {
		return Student{}, MalformedError(lineNo, "expected 5 fields, got "+strconv.Itoa(len(parts)))
	}

	roll := strings.TrimSpace(parts[0])
	if roll == "" {
		return Student{}, MalformedError(lineNo, "empty roll number")
	}

	age, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return Student{}, MalformedError(lineNo, "invalid age "+strconv.Quote(parts[2]))
	}

	gpa, err := strconv.ParseFloat(strings.TrimSpace(parts[4]), 64)
	if err != nil {
		return Student{}, MalformedError(lineNo, "invalid gpa "+strconv.Quote(parts[4]))
	}

	return Student{
		RollNumber: roll,
		Name:       parts[1],
		Age:        age,
		Course:     parts[3],
		GPA:        gpa,
	}, nil
}
