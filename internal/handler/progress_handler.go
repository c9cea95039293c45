package handler

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"studentdb/internal/service"
)

// ImportTracker is the progress side of service.ImportService.
type ImportTracker interface {
	RegisterProgressListener(ch chan *service.ProgressInfo)
	UnregisterProgressListener(ch chan *service.ProgressInfo)
	GetFileProgress(fileName string) *service.ProgressInfo
}

type ProgressHandler struct {
	tracker ImportTracker
	out     io.Writer
	theme   Theme
}

func NewProgressHandler(tracker ImportTracker, out io.Writer, theme Theme) *ProgressHandler {
	return &ProgressHandler{tracker: tracker, out: out, theme: theme}
}

// Follow runs an import of filePath and prints its progress updates until
// the import returns. run receives ctx and is expected to stop early when it
// is cancelled; Follow still waits for it so nothing is written afterwards.
func (h *ProgressHandler) Follow(ctx context.Context, filePath string, run func(context.Context) error) error {
	progressChan := make(chan *service.ProgressInfo, 16)
	h.tracker.RegisterProgressListener(progressChan)
	defer h.tracker.UnregisterProgressListener(progressChan)

	done := make(chan error, 1)
	go func() {
		done <- run(ctx)
	}()

	for {
		select {
		case progress := <-progressChan:
			h.printUpdate(progress)
		case err := <-done:
			h.printResult(filepath.Base(filePath))
			return err
		case <-ctx.Done():
			err := <-done
			h.printResult(filepath.Base(filePath))
			if err == nil {
				err = ctx.Err()
			}
			return err
		}
	}
}

func (h *ProgressHandler) printUpdate(progress *service.ProgressInfo) {
	if progress.Status != service.StatusProcessing {
		return
	}
	fmt.Fprintln(h.out, h.theme.Muted.Render(fmt.Sprintf("%s: %d/%d rows processed (%d imported, %d skipped)",
		progress.FileName, progress.Processed, progress.TotalRecords, progress.Imported, progress.Skipped)))
}

func (h *ProgressHandler) printResult(fileName string) {
	progress := h.tracker.GetFileProgress(fileName)
	if progress == nil {
		return
	}
	switch progress.Status {
	case service.StatusCompleted:
		fmt.Fprintln(h.out, h.theme.Success.Render(fmt.Sprintf("Import of %s completed: %d imported, %d skipped.",
			progress.FileName, progress.Imported, progress.Skipped)))
	case service.StatusError:
		fmt.Fprintln(h.out, h.theme.Error.Render(fmt.Sprintf("Import of %s failed: %s", progress.FileName, progress.Error)))
	}
}
