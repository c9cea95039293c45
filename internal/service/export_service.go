package service

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"studentdb/internal/analytics"
	"studentdb/internal/model"
	"studentdb/internal/store"
)

const (
	StudentsSheet = "Students"
	SummarySheet  = "Summary"
)

// ExportService copies the collection to other formats. It only reads
// from the store.
type ExportService struct {
	store     *store.Store
	batchSize int
}

func NewExportService(st *store.Store, batchSize int) *ExportService {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &ExportService{store: st, batchSize: batchSize}
}

// ExportToDB inserts every student into the students table of db. Rows
// whose roll number is already present are left untouched. It returns the
// number of rows inserted.
func (s *ExportService) ExportToDB(db *gorm.DB) (int64, error) {
	students := s.store.Snapshot()
	var inserted int64
	for start := 0; start < len(students); start += s.batchSize {
		end := min(start+s.batchSize, len(students))
		n, err := s.saveBatch(db, students[start:end])
		if err != nil {
			return inserted, err
		}
		inserted += n
	}
	log.Printf("Exported %d of %d students to database", inserted, len(students))
	return inserted, nil
}

func (s *ExportService) saveBatch(db *gorm.DB, students []model.Student) (int64, error) {
	if len(students) == 0 {
		return 0, nil
	}

	var values []interface{}
	var query strings.Builder
	query.WriteString("INSERT INTO students (roll_number, name, age, course, gpa) VALUES ")

	for i, student := range students {
		if i > 0 {
			query.WriteString(",")
		}
		query.WriteString("(?, ?, ?, ?, ?)")
		values = append(values, student.RollNumber, student.Name, student.Age, student.Course, student.GPA)
	}

	query.WriteString(" ON CONFLICT (roll_number) DO NOTHING")

	result := db.Exec(query.String(), values...)
	if result.Error != nil {
		return 0, fmt.Errorf("insert batch: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ExportXLSX writes a workbook with the students in insertion order and a
// summary sheet.
func (s *ExportService) ExportXLSX(path string) error {
	students := s.store.Snapshot()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", StudentsSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(StudentsSheet, "A1", &[]interface{}{"Roll Number", "Name", "Age", "Course", "GPA"}); err != nil {
		return err
	}
	for i, st := range students {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{st.RollNumber, st.Name, st.Age, st.Course, st.GPA}
		if err := f.SetSheetRow(StudentsSheet, cell, &row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	for i, row := range summaryRows(analytics.Summarize(students)) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func summaryRows(sum analytics.Summary) [][]interface{} {
	rows := [][]interface{}{{"Total Students", sum.Count}}
	if !sum.Empty() {
		rows = append(rows,
			[]interface{}{"Average GPA", sum.AvgGPA},
			[]interface{}{"Highest GPA", sum.MaxGPA, sum.Top.Name, sum.Top.RollNumber},
			[]interface{}{"Lowest GPA", sum.MinGPA, sum.Bottom.Name, sum.Bottom.RollNumber},
		)
	}
	rows = append(rows, []interface{}{})
	for _, b := range analytics.Bands {
		n := sum.BandCount(b)
		rows = append(rows, []interface{}{fmt.Sprintf("%s (%s)", b, b.Range()), n, sum.Percent(n)})
	}
	rows = append(rows, []interface{}{})
	for _, c := range sum.ByCourse {
		rows = append(rows, []interface{}{c.Course, c.Count})
	}
	return rows
}

type Report struct {
	Count    int                     `yaml:"count"`
	GPA      *ReportGPA              `yaml:"gpa,omitempty"`
	Top      *analytics.StudentRef   `yaml:"top_student,omitempty"`
	Bottom   *analytics.StudentRef   `yaml:"bottom_student,omitempty"`
	Bands    []ReportBand            `yaml:"bands"`
	ByCourse []analytics.CourseCount `yaml:"by_course"`
}

type ReportGPA struct {
	Average float64 `yaml:"average"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
}

type ReportBand struct {
	Band    string  `yaml:"band"`
	Range   string  `yaml:"range"`
	Count   int     `yaml:"count"`
	Percent float64 `yaml:"percent"`
}

// NewReport converts a summary into its serializable form.
func NewReport(sum analytics.Summary) Report {
	r := Report{
		Count:    sum.Count,
		Top:      sum.Top,
		Bottom:   sum.Bottom,
		ByCourse: sum.ByCourse,
	}
	if !sum.Empty() {
		r.GPA = &ReportGPA{Average: sum.AvgGPA, Min: sum.MinGPA, Max: sum.MaxGPA}
	}
	for _, b := range analytics.Bands {
		n := sum.BandCount(b)
		r.Bands = append(r.Bands, ReportBand{Band: b.String(), Range: b.Range(), Count: n, Percent: sum.Percent(n)})
	}
	return r
}

// ExportReport writes the analytics summary as YAML.
func (s *ExportService) ExportReport(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewReport(analytics.Summarize(s.store.Snapshot()))); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}
