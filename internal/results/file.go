package results

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/m-lab/go/warnonerror"

	"vpnspeed/internal/storage/models"
)

// FileName returns the result file name for a run started at stamp.
func FileName(stamp string) string {
	return "results_" + stamp + ".json"
}

// File is the file where we save a run's results.
type File struct {
	// Writer is the writer for results.
	Writer io.Writer

	// Path is the location of the file on disk.
	Path string

	fp *os.File
}

// NewFile creates the result file for stamp in dir. It fails if the file
// already exists.
func NewFile(dir, stamp string) (*File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, FileName(stamp))
	fp, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, err
	}
	return &File{Writer: fp, Path: path, fp: fp}, nil
}

// Close closes the result file.
func (f *File) Close() error {
	return f.fp.Close()
}

// WriteReport serializes |report| as indented JSON.
func (f *File) WriteReport(report *Report) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "    ")
	return enc.Encode(report)
}

// Saver persists runs as result files in a directory.
type Saver struct {
	Dir   string
	Stamp string
	Log   log.Interface
}

// Save writes run to <Dir>/results_<Stamp>.json.
func (s *Saver) Save(_ context.Context, run *models.Run) error {
	f, err := NewFile(s.Dir, s.Stamp)
	if err != nil {
		s.Log.WithError(err).Warn("NewFile failed")
		return err
	}
	defer warnonerror.Close(f, "Could not close results file")

	if err := f.WriteReport(NewReport(run)); err != nil {
		return err
	}
	s.Log.Infof("Results saved to %s", f.Path)
	return nil
}
