package handler

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

const (
	choiceExit = iota
	choiceAdd
	choiceView
	choiceSearch
	choiceUpdate
	choiceDelete
	choiceReport
)

var menu = []string{
	"1. Add New Student",
	"2. View All Students",
	"3. Search Student",
	"4. Update Student Information",
	"5. Delete Student",
	"6. Generate Academic Reports",
	"0. Exit",
}

// Shell is the interactive menu loop.
type Shell struct {
	students *StudentHandler
	reports  *ReportHandler
	prompt   *Prompter
	out      io.Writer
	theme    Theme
}

func NewShell(studentService StudentService, in io.Reader, out io.Writer) *Shell {
	theme := NewTheme(out)
	prompt := NewPrompter(in, out, theme)
	return &Shell{
		students: NewStudentHandler(studentService, prompt, out, theme),
		reports:  NewReportHandler(studentService, out, theme),
		prompt:   prompt,
		out:      out,
		theme:    theme,
	}
}

// Welcome reports what was found in the data file at startup.
func (s *Shell) Welcome(isNew bool, count int) {
	if isNew {
		fmt.Fprintln(s.out, "No existing student data found. Starting with an empty database.")
		return
	}
	fmt.Fprintf(s.out, "Loaded %d students from database.\n", count)
}

// Run shows the menu until the user exits or input ends.
func (s *Shell) Run() error {
	for {
		fmt.Fprintln(s.out)
		fmt.Fprintln(s.out, s.theme.Title.Render("===== STUDENT MANAGEMENT SYSTEM ====="))
		for _, item := range menu {
			fmt.Fprintln(s.out, item)
		}

		line, err := s.prompt.Line("Enter your choice: ")
		if err != nil {
			return s.finish(err)
		}
		choice, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(s.out, s.theme.Warning.Render("Invalid input. Please enter a number."))
			continue
		}

		if choice == choiceExit {
			s.farewell()
			return nil
		}
		if err := s.dispatch(choice); err != nil {
			return s.finish(err)
		}
	}
}

func (s *Shell) dispatch(choice int) error {
	switch choice {
	case choiceAdd:
		return s.students.Add()
	case choiceView:
		return s.students.View()
	case choiceSearch:
		return s.students.Search()
	case choiceUpdate:
		return s.students.Update()
	case choiceDelete:
		return s.students.Delete()
	case choiceReport:
		return s.reports.Generate()
	}
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, s.theme.Warning.Render("Invalid choice. Please try again."))
	return nil
}

// finish ends the loop. Running out of input is a normal exit.
func (s *Shell) finish(err error) error {
	if errors.Is(err, ErrInputClosed) {
		fmt.Fprintln(s.out)
		s.farewell()
		return nil
	}
	return err
}

func (s *Shell) farewell() {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, s.theme.Title.Render("Thank you for using Student Management System!"))
}
