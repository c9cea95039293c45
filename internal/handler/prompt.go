package handler

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"studentdb/internal/model"
)

// ErrInputClosed is returned by every prompt once standard input is
// exhausted.
var ErrInputClosed = errors.New("input closed")

// Prompter reads one trimmed line per prompt and repeats the prompt until
// the answer is acceptable.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
	theme   Theme
}

func NewPrompter(in io.Reader, out io.Writer, theme Theme) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out, theme: theme}
}

// Line prints prompt and returns the next input line without surrounding
// whitespace.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", ErrInputClosed
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

func (p *Prompter) invalid(msg string) {
	fmt.Fprintln(p.out, p.theme.Warning.Render(msg))
}

func (p *Prompter) Roll() (string, error) {
	for {
		roll, err := p.Line("Enter Roll Number: ")
		if err != nil {
			return "", err
		}
		if roll == "" {
			p.invalid("Roll number cannot be empty. Please enter a valid roll number.")
			continue
		}
		if err := model.ValidateRoll(roll); err != nil {
			p.invalid("Roll number cannot contain commas. Please enter a valid roll number.")
			continue
		}
		return roll, nil
	}
}

// Text asks for a free-text field. Blank answers are returned as is.
func (p *Prompter) Text(prompt, field string) (string, error) {
	for {
		value, err := p.Line(prompt)
		if err != nil {
			return "", err
		}
		if err := model.ValidateText(field, value); err != nil {
			p.invalid(fmt.Sprintf("Invalid %s. Commas are not allowed.", field))
			continue
		}
		return value, nil
	}
}

func (p *Prompter) Age() (int, error) {
	for {
		s, err := p.Line("Enter Age: ")
		if err != nil {
			return 0, err
		}
		age, err := strconv.Atoi(s)
		if err != nil {
			p.invalid("Invalid input. Please enter a valid number.")
			continue
		}
		if model.ValidateAge(age) != nil {
			p.invalid(fmt.Sprintf("Invalid age. Please enter a value between %d and %d.", model.MinAge, model.MaxAge))
			continue
		}
		return age, nil
	}
}

func (p *Prompter) GPA() (float64, error) {
	for {
		s, err := p.Line("Enter GPA (0.0-4.0): ")
		if err != nil {
			return 0, err
		}
		gpa, err := strconv.ParseFloat(s, 64)
		if err != nil {
			p.invalid("Invalid input. Please enter a valid number.")
			continue
		}
		if model.ValidateGPA(gpa) != nil {
			p.invalid("Invalid GPA. Please enter a value between 0.0 and 4.0.")
			continue
		}
		return gpa, nil
	}
}

// Confirm accepts "y" or "yes" in any case. Every other answer is a no.
func (p *Prompter) Confirm(prompt string) (bool, error) {
	answer, err := p.Line(prompt)
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}
