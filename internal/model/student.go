package model

import (
	"fmt"
	"strings"
)

const (
	MinAge = 16
	MaxAge = 100
	MinGPA = 0.0
	MaxGPA = 4.0
)

type Student struct {
	RollNumber string  `gorm:"primaryKey" yaml:"roll_number"` // RollNumber is the primary key
	Name       string  `yaml:"name"`
	Age        int     `yaml:"age"`
	Course     string  `yaml:"course"`
	GPA        float64 `gorm:"column:gpa" yaml:"gpa"`
}

// String renders the student as a row of the display table.
func (s Student) String() string {
	return fmt.Sprintf("%-12s %-25s %-8d %-15s %.2f", s.RollNumber, s.Name, s.Age, s.Course, s.GPA)
}

// Validate checks every field against its domain.
func (s Student) Validate() error {
	if err := ValidateRoll(s.RollNumber); err != nil {
		return err
	}
	if err := ValidateText("name", s.Name); err != nil {
		return err
	}
	if err := ValidateAge(s.Age); err != nil {
		return err
	}
	if err := ValidateText("course", s.Course); err != nil {
		return err
	}
	return ValidateGPA(s.GPA)
}

func ValidateRoll(roll string) error {
	if strings.TrimSpace(roll) == "" {
		return OutOfRangeError("roll_number", "must not be empty")
	}
	if roll != strings.TrimSpace(roll) {
		return OutOfRangeError("roll_number", "must not have surrounding whitespace")
	}
	return ValidateText("roll_number", roll)
}

func ValidateAge(age int) error {
	if age < MinAge || age > MaxAge {
		return OutOfRangeError("age", fmt.Sprintf("%d not in [%d, %d]", age, MinAge, MaxAge))
	}
	return nil
}

func ValidateGPA(gpa float64) error {
	// NaN fails both comparisons, so test for the valid range instead.
	if !(gpa >= MinGPA && gpa <= MaxGPA) {
		return OutOfRangeError("gpa", fmt.Sprintf("%g not in [%.1f, %.1f]", gpa, MinGPA, MaxGPA))
	}
	return nil
}

// ValidateText rejects values the line format cannot carry.
func ValidateText(field, value string) error {
	if strings.Contains(value, Separator) {
		return OutOfRangeError(field, "must not contain "+Separator)
	}
	if strings.ContainsAny(value, "\r\n") {
		return OutOfRangeError(field, "must not contain line breaks")
	}
	return nil
}

// Patch is a partial update. Nil fields keep their current value.
type Patch struct {
	Name   *string
	Age    *int
	Course *string
	GPA    *float64
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Age == nil && p.Course == nil && p.GPA == nil
}

// Validate checks only the fields the patch sets.
func (p Patch) Validate() error {
	if p.Name != nil {
		if err := ValidateText("name", *p.Name); err != nil {
			return err
		}
	}
	if p.Age != nil {
		if err := ValidateAge(*p.Age); err != nil {
			return err
		}
	}
	if p.Course != nil {
		if err := ValidateText("course", *p.Course); err != nil {
			return err
		}
	}
	if p.GPA != nil {
		if err := ValidateGPA(*p.GPA); err != nil {
			return err
		}
	}
	return nil
}

// Apply returns a copy of s with the patch applied.
func (p Patch) Apply(s Student) Student {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Age != nil {
		s.Age = *p.Age
	}
	if p.Course != nil {
		s.Course = *p.Course
	}
	if p.GPA != nil {
		s.GPA = *p.GPA
	}
	return s
}
