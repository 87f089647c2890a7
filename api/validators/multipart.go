package validators

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/feirinha/feirinha-backend/internal/media"
	pkgerrors "github.com/feirinha/feirinha-backend/pkg/errors"
)

// MultipartForm is a parsed multipart/form-data request.
type MultipartForm struct {
	form *multipart.Form
}

// ParseMultipart parses r, keeping up to maxMemory bytes in memory.
func ParseMultipart(r *http.Request, maxMemory int64) (*MultipartForm, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "expected multipart/form-data body")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
	}
	return &MultipartForm{form: r.MultipartForm}, nil
}

// Close removes temporary files created while parsing.
func (f *MultipartForm) Close() {
	if f == nil || f.form == nil {
		return
	}
	_ = f.form.RemoveAll()
}

// Has reports whether the field was sent at all, even empty.
func (f *MultipartForm) Has(key string) bool {
	if f == nil || f.form == nil {
		return false
	}
	_, ok := f.form.Value[key]
	return ok
}

// Value returns the trimmed first value of key.
func (f *MultipartForm) Value(key string) string {
	if f == nil || f.form == nil {
		return ""
	}
	values := f.form.Value[key]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

// Optional returns a pointer to the trimmed value, or nil when the field is absent.
func (f *MultipartForm) Optional(key string) *string {
	if !f.Has(key) {
		return nil
	}
	v := f.Value(key)
	return &v
}

// Bool parses a boolean field; absent or empty means false.
func (f *MultipartForm) Bool(key string) (bool, error) {
	raw := f.Value(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{key: "must be true or false"})
	}
	return v, nil
}

// Files reads the files sent under keys, in key order and then upload order.
// Each file is read up to maxFileBytes+1 so oversize payloads are detected downstream
// without buffering arbitrarily large parts.
func (f *MultipartForm) Files(maxFileBytes int64, keys ...string) ([]media.Upload, error) {
	if f == nil || f.form == nil {
		return nil, nil
	}
	var uploads []media.Upload
	for _, key := range keys {
		for _, header := range f.form.File[key] {
			upload, err := readPart(header, maxFileBytes)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("could not read %s", header.Filename))
			}
			uploads = append(uploads, upload)
		}
	}
	return uploads, nil
}

// HasFiles reports whether any of keys carries at least one file.
func (f *MultipartForm) HasFiles(keys ...string) bool {
	if f == nil || f.form == nil {
		return false
	}
	for _, key := range keys {
		if len(f.form.File[key]) > 0 {
			return true
		}
	}
	return false
}

func readPart(header *multipart.FileHeader, maxFileBytes int64) (media.Upload, error) {
	file, err := header.Open()
	if err != nil {
		return media.Upload{}, err
	}
	defer file.Close()

	var reader io.Reader = file
	if maxFileBytes > 0 {
		reader = io.LimitReader(file, maxFileBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return media.Upload{}, err
	}
	return media.Upload{
		FileName:    SanitizeFileName(header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
