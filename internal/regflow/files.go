package regflow

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/campusops/admissions-api/internal/models"
)

// MaxStagedFileSize caps each staged upload at 5 MB, mirroring what the
// server accepts.
const MaxStagedFileSize = 5 << 20

var allowedStageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".pdf":  {},
}

var uploadFieldSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(models.UploadFields))
	for _, field := range models.UploadFields {
		set[field] = struct{}{}
	}
	return set
}()

// StagedFile is one upload held in memory until final submission. No
// network call happens at staging time.
type StagedFile struct {
	FieldName string
	FileName  string
	Size      int64
	Data      []byte
}

// Stage validates and buffers a file under an upload slot. Oversize or
// wrong-type files are rejected before any bytes are kept; staging the
// same slot again replaces the previous file.
func (f *Form) Stage(field, fileName string, r io.Reader) error {
	if _, ok := uploadFieldSet[field]; !ok {
		return fmt.Errorf("unknown document field %q", field)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if _, ok := allowedStageExtensions[ext]; !ok {
		return fmt.Errorf("file type not allowed for %s: use jpg, jpeg, png or pdf", fileName)
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxStagedFileSize+1))
	if err != nil {
		return fmt.Errorf("read %s: %w", fileName, err)
	}
	if int64(len(data)) > MaxStagedFileSize {
		return fmt.Errorf("%s exceeds the 5 MB limit", fileName)
	}

	f.staged[field] = StagedFile{
		FieldName: field,
		FileName:  fileName,
		Size:      int64(len(data)),
		Data:      data,
	}
	return nil
}

// Unstage removes the file held under an upload slot.
func (f *Form) Unstage(field string) {
	delete(f.staged, field)
}

// Staged returns the file held under an upload slot.
func (f *Form) Staged(field string) (StagedFile, bool) {
	file, ok := f.staged[field]
	return file, ok
}

// StagedCount reports how many slots hold a file.
func (f *Form) StagedCount() int {
	return len(f.staged)
}
