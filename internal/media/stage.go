package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

var (
	// ErrBadUpload wraps multipart bodies that cannot be parsed
	ErrBadUpload = errors.New("invalid upload")
	// ErrUploadTooLarge wraps bodies cut off by the request size cap
	ErrUploadTooLarge = errors.New("upload too large")
)

// Stager copies uploaded files to a private temporary directory so they can
// be handed to the image store by path
type Stager struct {
	dir     string
	maxSize int64
}

func NewStager(dir string, maxSize int64) *Stager {
	return &Stager{dir: dir, maxSize: maxSize}
}

// Staged is one request's staged upload. Path is empty when the request
// carried no file in the field.
type Staged struct {
	Path string
	dir  string
	form *multipart.Form
}

// Stage parses the request form and stages the file sent in field. Form
// values are available through r.FormValue afterwards. A body that is not
// multipart still parses its url-encoded values and stages nothing.
func (s *Stager) Stage(r *http.Request, field string) (*Staged, error) {
	if err := r.ParseMultipartForm(s.maxSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return &Staged{}, nil
		}
		return nil, uploadError(err)
	}

	staged := &Staged{form: r.MultipartForm}

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return staged, nil
		}
		staged.Cleanup()
		return nil, uploadError(err)
	}
	defer file.Close()

	dir, err := os.MkdirTemp(s.dir, "upload-*")
	if err != nil {
		staged.Cleanup()
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	staged.dir = dir

	// only the extension of the client's file name is kept
	dst := filepath.Join(dir, field+filepath.Ext(filepath.Base(header.Filename)))
	if err := copyToFile(dst, file); err != nil {
		staged.Cleanup()
		return nil, err
	}
	staged.Path = dst

	return staged, nil
}

// Cleanup removes the staging directory and the parsed form's temp files.
// It is safe on a nil Staged.
func (s *Staged) Cleanup() error {
	if s == nil {
		return nil
	}

	var errs []error
	if s.dir != "" {
		errs = append(errs, os.RemoveAll(s.dir))
		s.dir = ""
	}
	if s.form != nil {
		errs = append(errs, s.form.RemoveAll())
		s.form = nil
	}
	return errors.Join(errs...)
}

func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: body exceeds %d bytes", ErrUploadTooLarge, maxErr.Limit)
	}
	return fmt.Errorf("%w: %v", ErrBadUpload, err)
}

func copyToFile(dst string, src io.Reader) error {
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create staged file: %w", err)
	}

	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("failed to stage upload: %w", err)
	}

	return f.Close()
}
