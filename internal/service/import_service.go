package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"studentdb/internal/model"
	"studentdb/internal/store"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// DefaultBatchSize is the number of rows written per save during an import.
const DefaultBatchSize = 1000

type ProgressInfo struct {
	FileName     string
	TotalRecords int
	Processed    int
	Imported     int
	Skipped      int
	Status       string // "processing", "completed", "error"
	Error        string
	StartTime    time.Time
	EndTime      time.Time
}

// ImportService loads students in bulk from CSV files with a header row
// (roll_number,name,age,course,gpa). Rows that do not decode or validate
// and rows whose roll number is already taken are skipped.
type ImportService struct {
	fs                afero.Fs
	store             *store.Store
	batchSize         int
	fileProgressMap   map[string]*ProgressInfo
	fileProgressLock  sync.RWMutex
	progressListeners map[chan *ProgressInfo]bool
	listenerLock      sync.RWMutex
}

// NewImportService reads CSV files from fsys, or from the operating system
// when fsys is nil.
func NewImportService(fsys afero.Fs, st *store.Store, batchSize int) *ImportService {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &ImportService{
		fs:                fsys,
		store:             st,
		batchSize:         batchSize,
		fileProgressMap:   make(map[string]*ProgressInfo),
		progressListeners: make(map[chan *ProgressInfo]bool),
	}
}

func (s *ImportService) RegisterProgressListener(ch chan *ProgressInfo) {
	s.listenerLock.Lock()
	defer s.listenerLock.Unlock()
	s.progressListeners[ch] = true
}

// UnregisterProgressListener removes a client from receiving progress updates
func (s *ImportService) UnregisterProgressListener(ch chan *ProgressInfo) {
	s.listenerLock.Lock()
	defer s.listenerLock.Unlock()
	delete(s.progressListeners, ch)
}

// BroadcastProgress sends a copy of progress to every listener that is
// ready to receive it.
func (s *ImportService) BroadcastProgress(progress *ProgressInfo) {
	s.listenerLock.RLock()
	defer s.listenerLock.RUnlock()

	for listener := range s.progressListeners {
		snapshot := *progress
		select {
		case listener <- &snapshot:
		default:
			// Skip if the listener is not ready
		}
	}
}

func (s *ImportService) updateProgress(fileName string, processed, imported, skipped int) {
	s.fileProgressLock.Lock()
	defer s.fileProgressLock.Unlock()

	if progress, exists := s.fileProgressMap[fileName]; exists {
		progress.Processed += processed
		progress.Imported += imported
		progress.Skipped += skipped
		if progress.Processed > progress.TotalRecords {
			progress.Processed = progress.TotalRecords
		}
		s.BroadcastProgress(progress)
	}
}

func (s *ImportService) updateProgressError(fileName string, errorMsg string) {
	s.fileProgressLock.Lock()
	defer s.fileProgressLock.Unlock()

	if progress, exists := s.fileProgressMap[fileName]; exists {
		progress.Status = StatusError
		progress.Error = errorMsg
		progress.EndTime = time.Now()
		s.BroadcastProgress(progress)
	}
}

func (s *ImportService) GetFileProgress(fileName string) *ProgressInfo {
	s.fileProgressLock.RLock()
	defer s.fileProgressLock.RUnlock()

	if progress, exists := s.fileProgressMap[fileName]; exists {
		copyProgress := *progress
		return &copyProgress
	}

	return nil
}

func (s *ImportService) GetAllFileProgress() []*ProgressInfo {
	s.fileProgressLock.RLock()
	defer s.fileProgressLock.RUnlock()

	result := make([]*ProgressInfo, 0, len(s.fileProgressMap))
	for _, progress := range s.fileProgressMap {
		copyProgress := *progress
		result = append(result, &copyProgress)
	}

	return result
}

// ProcessCSV imports every valid, new student in filePath. When ctx is
// cancelled the batches already saved are kept and the rest of the file is
// not read.
func (s *ImportService) ProcessCSV(ctx context.Context, filePath string) error {
	fileName := filepath.Base(filePath)
	startTime := time.Now()

	s.fileProgressLock.Lock()
	s.fileProgressMap[fileName] = &ProgressInfo{
		FileName:  fileName,
		Status:    StatusProcessing,
		StartTime: startTime,
	}
	s.fileProgressLock.Unlock()

	totalRecords, err := s.countRecords(filePath)
	if err != nil {
		s.updateProgressError(fileName, "Failed to count records: "+err.Error())
		return err
	}

	s.fileProgressLock.Lock()
	s.fileProgressMap[fileName].TotalRecords = totalRecords
	s.fileProgressLock.Unlock()

	file, err := s.fs.Open(filePath)
	if err != nil {
		s.updateProgressError(fileName, "Failed to open file: "+err.Error())
		return err
	}
	defer file.Close()

	reader := newCSVReader(file)
	if _, err := reader.Read(); err != nil && !errors.Is(err, io.EOF) { // Skip header row
		s.updateProgressError(fileName, "Failed to read header: "+err.Error())
		return err
	}

	var batch []model.Student
	seen := make(map[string]bool)
	processed, imported, skipped := 0, 0, 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.store.AddMany(batch); err != nil {
			return err
		}
		imported += len(batch)
		batch = nil
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			s.updateProgress(fileName, processed, imported, skipped)
			s.updateProgressError(fileName, "Import cancelled: "+err.Error())
			return err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		processed++
		if err != nil {
			log.Printf("Skipping unreadable row in %s: %v", fileName, err)
			skipped++
			continue
		}

		student, err := parseRow(record)
		if err != nil {
			log.Printf("Skipping row %d of %s: %v", processed, fileName, err)
			skipped++
			continue
		}
		if _, exists := s.store.Find(student.RollNumber); exists || seen[student.RollNumber] {
			log.Printf("Skipping duplicate roll number: %s", student.RollNumber)
			skipped++
			continue
		}
		seen[student.RollNumber] = true
		batch = append(batch, student)

		if len(batch) >= s.batchSize {
			if err := flush(); err != nil {
				s.updateProgressError(fileName, "Failed to save batch: "+err.Error())
				return err
			}
		}

		// Update progress periodically
		if processed%100 == 0 {
			s.updateProgress(fileName, processed, imported, skipped)
			processed, imported, skipped = 0, 0, 0
		}
	}

	if err := flush(); err != nil {
		s.updateProgressError(fileName, "Failed to save batch: "+err.Error())
		return err
	}
	s.updateProgress(fileName, processed, imported, skipped)

	s.fileProgressLock.Lock()
	if progress, exists := s.fileProgressMap[fileName]; exists {
		progress.Status = StatusCompleted
		progress.EndTime = time.Now()
		progress.Processed = progress.TotalRecords
		s.BroadcastProgress(progress)
	}
	s.fileProgressLock.Unlock()

	log.Printf("Import completed for %s in %v", fileName, time.Since(startTime))
	return nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

func parseRow(record []string) (model.Student, error) {
	if len(record) != 5 {
		return model.Student{}, fmt.Errorf("expected 5 fields, got %d", len(record))
	}
	age, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return model.Student{}, fmt.Errorf("invalid age %q", record[2])
	}
	gpa, err := strconv.ParseFloat(strings.TrimSpace(record[4]), 64)
	if err != nil {
		return model.Student{}, fmt.Errorf("invalid gpa %q", record[4])
	}
	student := model.Student{
		RollNumber: strings.TrimSpace(record[0]),
		Name:       strings.TrimSpace(record[1]),
		Age:        age,
		Course:     strings.TrimSpace(record[3]),
		GPA:        gpa,
	}
	if err := student.Validate(); err != nil {
		return model.Student{}, err
	}
	return student, nil
}

func (s *ImportService) countRecords(filePath string) (int, error) {
	file, err := s.fs.Open(filePath)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	reader := newCSVReader(file)
	reader.Read() // Skip header

	count := 0
	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				count++
				continue
			}
			return count, err
		}
		count++
	}

	return count, nil
}
