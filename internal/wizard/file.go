package wizard

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// MaxFileSize is the largest transcript accepted.
const MaxFileSize = 10 * 1024 * 1024

var allowedTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/jpg",
	"image/png",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

var typesByExt = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// File is the transcript selected in step three.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// OpenFile describes the file at path. The content is read at upload time.
func OpenFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &File{
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: ContentTypeFor(path),
		Open:        func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// MemoryFile wraps in-memory content as a File.
func MemoryFile(name string, data []byte) *File {
	return &File{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: ContentTypeFor(name),
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// ContentTypeFor maps a file name to the MIME type sent with the upload.
func ContentTypeFor(name string) string {
	if t, ok := typesByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return "application/octet-stream"
}

// SelectFile validates a transcript before it is accepted into the form.
func SelectFile(f File) error {
	if f.Size > MaxFileSize {
		return invalid("file", "File size must be less than 10MB")
	}
	if !slices.Contains(allowedTypes, f.ContentType) {
		return invalid("file", "Please upload a PDF, DOC, DOCX, JPG, or PNG file")
	}
	return nil
}

// FileSizeString renders a byte count as "512 B", "1.5 KB" or "2.3 MB".
func FileSizeString(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}
