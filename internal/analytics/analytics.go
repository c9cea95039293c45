// Package analytics computes summary statistics over a snapshot of the
// student collection. Nothing here mutates its input or performs I/O.
package analytics

import (
	"math"
	"sort"

	"studentdb/internal/model"
)

type Band int

const (
	Excellent Band = iota // gpa >= 3.5
	Good                  // 3.0 <= gpa < 3.5
	Average               // 2.0 <= gpa < 3.0
	Below                 // gpa < 2.0
)

// Bands lists every band in display order.
var Bands = []Band{Excellent, Good, Average, Below}

func (b Band) String() string {
	switch b {
	case Excellent:
		return "Excellent"
	case Good:
		return "Good"
	case Average:
		return "Average"
	case Below:
		return "Below Average"
	}
	return "Unknown"
}

// Range describes the band's GPA interval for display.
func (b Band) Range() string {
	switch b {
	case Excellent:
		return "3.5-4.0"
	case Good:
		return "3.0-3.49"
	case Average:
		return "2.0-2.99"
	case Below:
		return "<2.0"
	}
	return ""
}

// BandFor places gpa in exactly one band.
func BandFor(gpa float64) Band {
	switch {
	case gpa >= 3.5:
		return Excellent
	case gpa >= 3.0:
		return Good
	case gpa >= 2.0:
		return Average
	default:
		return Below
	}
}

type StudentRef struct {
	RollNumber string `yaml:"roll_number"`
	Name       string `yaml:"name"`
}

type CourseCount struct {
	Course string `yaml:"course"`
	Count  int    `yaml:"count"`
}

// Summary is the result of Summarize. The GPA statistics and the top and
// bottom students are only meaningful when Count > 0.
type Summary struct {
	Count    int
	AvgGPA   float64
	MinGPA   float64
	MaxGPA   float64
	Top      *StudentRef
	Bottom   *StudentRef
	Bands    [4]int // indexed by Band
	ByCourse []CourseCount
}

func (s Summary) Empty() bool { return s.Count == 0 }

func (s Summary) BandCount(b Band) int { return s.Bands[b] }

// Percent is n as a percentage of Count, rounded to one decimal place.
func (s Summary) Percent(n int) float64 {
	if s.Count == 0 {
		return 0
	}
	return math.Round(float64(n)*1000/float64(s.Count)) / 10
}

// Summarize makes a single pass over students. Ties for the top and bottom
// student go to the earliest record.
func Summarize(students []model.Student) Summary {
	sum := Summary{Count: len(students), ByCourse: []CourseCount{}}
	if len(students) == 0 {
		return sum
	}

	var total float64
	top, bottom := 0, 0
	courses := make(map[string]int)
	for i, st := range students {
		total += st.GPA
		if st.GPA > students[top].GPA {
			top = i
		}
		if st.GPA < students[bottom].GPA {
			bottom = i
		}
		sum.Bands[BandFor(st.GPA)]++
		courses[st.Course]++
	}

	sum.AvgGPA = total / float64(len(students))
	sum.MaxGPA = students[top].GPA
	sum.MinGPA = students[bottom].GPA
	sum.Top = &StudentRef{RollNumber: students[top].RollNumber, Name: students[top].Name}
	sum.Bottom = &StudentRef{RollNumber: students[bottom].RollNumber, Name: students[bottom].Name}

	for course, n := range courses {
		sum.ByCourse = append(sum.ByCourse, CourseCount{Course: course, Count: n})
	}
	sort.Slice(sum.ByCourse, func(i, j int) bool {
		return sum.ByCourse[i].Course < sum.ByCourse[j].Course
	})
	return sum
}
