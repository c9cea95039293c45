package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"studentdb/internal/analytics"
	"studentdb/internal/model"
	"studentdb/internal/store"
)

type StudentService struct {
	store *store.Store
}

func NewStudentService(st *store.Store) *StudentService {
	return &StudentService{store: st}
}

// ListOptions filters, sorts and pages a listing. Zero values disable a
// filter; Limit 0 returns every match on a single page.
type ListOptions struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
	Name      string
	Course    string
	GPAMin    float64
	GPAMax    float64
}

var sortKeys = map[string]func(a, b model.Student) bool{
	"name":        func(a, b model.Student) bool { return a.Name < b.Name },
	"roll_number": func(a, b model.Student) bool { return a.RollNumber < b.RollNumber },
	"age":         func(a, b model.Student) bool { return a.Age < b.Age },
	"course":      func(a, b model.Student) bool { return a.Course < b.Course },
	"gpa":         func(a, b model.Student) bool { return a.GPA < b.GPA },
}

// ListStudents returns the requested page together with the total number of
// matches and pages.
func (s *StudentService) ListStudents(opts ListOptions) ([]model.Student, int, int, error) {
	if opts.SortBy == "" {
		opts.SortBy = "name"
	}
	if opts.SortOrder == "" {
		opts.SortOrder = "asc"
	}
	less, ok := sortKeys[opts.SortBy]
	if !ok {
		return nil, 0, 0, fmt.Errorf("unknown sort field %q", opts.SortBy)
	}
	if opts.SortOrder != "asc" && opts.SortOrder != "desc" {
		return nil, 0, 0, fmt.Errorf("unknown sort order %q", opts.SortOrder)
	}

	// Apply filters
	var students []model.Student
	name := strings.ToLower(opts.Name)
	for _, st := range s.store.Snapshot() {
		if name != "" && !strings.Contains(strings.ToLower(st.Name), name) {
			continue
		}
		if opts.Course != "" && st.Course != opts.Course {
			continue
		}
		if opts.GPAMin > 0 && st.GPA < opts.GPAMin {
			continue
		}
		if opts.GPAMax > 0 && st.GPA > opts.GPAMax {
			continue
		}
		students = append(students, st)
	}

	// Apply sorting
	sort.SliceStable(students, func(i, j int) bool {
		if opts.SortOrder == "desc" {
			return less(students[j], students[i])
		}
		return less(students[i], students[j])
	})

	// Pagination
	totalCount := len(students)
	if opts.Limit < 1 {
		if totalCount == 0 {
			return students, 0, 0, nil
		}
		return students, totalCount, 1, nil
	}
	if opts.Page < 1 {
		opts.Page = 1
	}
	totalPages := int(math.Ceil(float64(totalCount) / float64(opts.Limit)))

	start := (opts.Page - 1) * opts.Limit
	if start >= totalCount {
		return []model.Student{}, totalCount, totalPages, nil
	}
	end := min(start+opts.Limit, totalCount)
	return students[start:end], totalCount, totalPages, nil
}

func (s *StudentService) AddStudent(st model.Student) error {
	return s.store.Add(st)
}

func (s *StudentService) FindStudent(roll string) (model.Student, bool) {
	return s.store.Find(roll)
}

func (s *StudentService) UpdateStudent(roll string, patch model.Patch) (model.Student, error) {
	return s.store.Update(roll, patch)
}

func (s *StudentService) DeleteStudent(roll string) error {
	return s.store.Delete(roll)
}

func (s *StudentService) Count() int {
	return s.store.Len()
}

// Summary runs the analytics pass over the current collection.
func (s *StudentService) Summary() analytics.Summary {
	return analytics.Summarize(s.store.Snapshot())
}
