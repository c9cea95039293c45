package handler

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"studentdb/internal/analytics"
	"studentdb/internal/model"
	"studentdb/internal/service"
)

// StudentService is the part of service.StudentService the shell uses.
type StudentService interface {
	ListStudents(opts service.ListOptions) ([]model.Student, int, int, error)
	AddStudent(st model.Student) error
	FindStudent(roll string) (model.Student, bool)
	UpdateStudent(roll string, patch model.Patch) (model.Student, error)
	DeleteStudent(roll string) error
	Count() int
	Summary() analytics.Summary
}

type StudentHandler struct {
	studentService StudentService
	prompt         *Prompter
	out            io.Writer
	theme          Theme
}

func NewStudentHandler(studentService StudentService, prompt *Prompter, out io.Writer, theme Theme) *StudentHandler {
	return &StudentHandler{studentService: studentService, prompt: prompt, out: out, theme: theme}
}

const ruleWidth = 68

func (h *StudentHandler) title(s string) {
	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, h.theme.Title.Render("=== "+s+" ==="))
}

func (h *StudentHandler) fail(format string, args ...interface{}) {
	fmt.Fprintln(h.out, h.theme.Error.Render(fmt.Sprintf(format, args...)))
}

func (h *StudentHandler) ok(msg string) {
	fmt.Fprintln(h.out, h.theme.Success.Render(msg))
}

// empty reports an empty collection to the user.
func (h *StudentHandler) empty() bool {
	if h.studentService.Count() > 0 {
		return false
	}
	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, "No students in the database.")
	return true
}

// WriteTable prints students under the column header in the given order.
func WriteTable(w io.Writer, theme Theme, students ...model.Student) {
	fmt.Fprintln(w, theme.Header.Render(fmt.Sprintf("%-12s %-25s %-8s %-15s %-8s", "Roll Number", "Name", "Age", "Course", "GPA")))
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
	for _, st := range students {
		fmt.Fprintln(w, st.String())
	}
}

func (h *StudentHandler) Add() error {
	h.title("Add New Student")

	roll, err := h.prompt.Roll()
	if err != nil {
		return err
	}
	if _, exists := h.studentService.FindStudent(roll); exists {
		h.fail("Error: Student with roll number %s already exists.", roll)
		return nil
	}

	name, err := h.prompt.Text("Enter Name: ", "name")
	if err != nil {
		return err
	}
	age, err := h.prompt.Age()
	if err != nil {
		return err
	}
	course, err := h.prompt.Text("Enter Course: ", "course")
	if err != nil {
		return err
	}
	gpa, err := h.prompt.GPA()
	if err != nil {
		return err
	}

	student := model.Student{RollNumber: roll, Name: name, Age: age, Course: course, GPA: gpa}
	if err := h.studentService.AddStudent(student); err != nil {
		h.reportError("Failed to save student data", roll, err)
		return nil
	}
	h.ok("Student added successfully!")
	return nil
}

// View lists every student ordered by name.
func (h *StudentHandler) View() error {
	if h.empty() {
		return nil
	}
	students, total, _, err := h.studentService.ListStudents(service.ListOptions{})
	if err != nil {
		h.fail("Error: %v", err)
		return nil
	}

	h.title("All Students")
	WriteTable(h.out, h.theme, students...)
	fmt.Fprintf(h.out, "\nTotal Students: %d\n", total)
	return nil
}

// List prints one page of a filtered listing.
func (h *StudentHandler) List(opts service.ListOptions) error {
	students, total, pages, err := h.studentService.ListStudents(opts)
	if err != nil {
		return err
	}
	if total == 0 {
		fmt.Fprintln(h.out, "No students found.")
		return nil
	}
	WriteTable(h.out, h.theme, students...)
	page := max(opts.Page, 1)
	if opts.Limit < 1 {
		page = 1
	}
	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, h.theme.Muted.Render(fmt.Sprintf("Page %d of %d (%d students)", page, pages, total)))
	return nil
}

func (h *StudentHandler) Search() error {
	if h.empty() {
		return nil
	}
	h.title("Search Student")
	roll, err := h.prompt.Line("Enter Roll Number to search: ")
	if err != nil {
		return err
	}

	student, ok := h.studentService.FindStudent(roll)
	if !ok {
		h.notFound(roll)
		return nil
	}
	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, "Student Found:")
	WriteTable(h.out, h.theme, student)
	return nil
}

// Update asks for each field in turn. A blank answer keeps the current
// value, and so does an answer that is out of range.
func (h *StudentHandler) Update() error {
	if h.empty() {
		return nil
	}
	h.title("Update Student")
	roll, err := h.prompt.Line("Enter Roll Number of student to update: ")
	if err != nil {
		return err
	}

	student, ok := h.studentService.FindStudent(roll)
	if !ok {
		h.notFound(roll)
		return nil
	}
	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, "Current Student Information:")
	WriteTable(h.out, h.theme, student)

	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, "Enter new information (leave blank to keep current value):")

	var patch model.Patch
	name, err := h.prompt.Text(fmt.Sprintf("Enter Name [%s]: ", student.Name), "name")
	if err != nil {
		return err
	}
	if name != "" {
		patch.Name = &name
	}

	ageStr, err := h.prompt.Line(fmt.Sprintf("Enter Age [%d]: ", student.Age))
	if err != nil {
		return err
	}
	if ageStr != "" {
		age, err := strconv.Atoi(ageStr)
		switch {
		case err != nil:
			h.prompt.invalid("Invalid age format. Keeping current value.")
		case model.ValidateAge(age) != nil:
			h.prompt.invalid("Invalid age. Keeping current value.")
		default:
			patch.Age = &age
		}
	}

	course, err := h.prompt.Text(fmt.Sprintf("Enter Course [%s]: ", student.Course), "course")
	if err != nil {
		return err
	}
	if course != "" {
		patch.Course = &course
	}

	gpaStr, err := h.prompt.Line(fmt.Sprintf("Enter GPA (0.0-4.0) [%.2f]: ", student.GPA))
	if err != nil {
		return err
	}
	if gpaStr != "" {
		gpa, err := strconv.ParseFloat(gpaStr, 64)
		switch {
		case err != nil:
			h.prompt.invalid("Invalid GPA format. Keeping current value.")
		case model.ValidateGPA(gpa) != nil:
			h.prompt.invalid("Invalid GPA. Keeping current value.")
		default:
			patch.GPA = &gpa
		}
	}

	if _, err := h.studentService.UpdateStudent(roll, patch); err != nil {
		h.reportError("Failed to save updated information", roll, err)
		return nil
	}
	h.ok("Student information updated successfully!")
	return nil
}

func (h *StudentHandler) Delete() error {
	if h.empty() {
		return nil
	}
	h.title("Delete Student")
	roll, err := h.prompt.Line("Enter Roll Number of student to delete: ")
	if err != nil {
		return err
	}

	student, ok := h.studentService.FindStudent(roll)
	if !ok {
		h.notFound(roll)
		return nil
	}
	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, "Student to be deleted:")
	WriteTable(h.out, h.theme, student)

	fmt.Fprintln(h.out)
	confirmed, err := h.prompt.Confirm("Are you sure you want to delete this student? (y/n): ")
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Fprintln(h.out, "Deletion cancelled.")
		return nil
	}

	if err := h.studentService.DeleteStudent(roll); err != nil {
		h.reportError("Failed to save changes", roll, err)
		return nil
	}
	h.ok("Student deleted successfully!")
	return nil
}

func (h *StudentHandler) notFound(roll string) {
	fmt.Fprintf(h.out, "Student with Roll Number %s not found.\n", roll)
}

// reportError turns a store error into a message. saveMsg describes a
// failed write.
func (h *StudentHandler) reportError(saveMsg, roll string, err error) {
	switch {
	case errors.Is(err, model.ErrDuplicate):
		h.fail("Error: Student with roll number %s already exists.", roll)
	case errors.Is(err, model.ErrNotFound):
		h.notFound(roll)
	case errors.Is(err, model.ErrIO):
		h.fail("Error: %s: %v", saveMsg, err)
	default:
		h.fail("Error: %v", err)
	}
}
