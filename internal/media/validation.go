package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"mime"
	"path"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp" // register WebP decoder

	pkgerrors "github.com/feirinha/feirinha-backend/pkg/errors"
)

// MaxPhotosPerItem caps the photo set of one item across create, append and replace.
const MaxPhotosPerItem = 6

const defaultMaxPhotoBytes = 10 << 20

// allowedExtensions maps accepted file extensions to their canonical mime type.
var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

var allowedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// Upload is one photo payload as received from a client.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Prepared is an upload that passed validation and is ready to be staged.
type Prepared struct {
	Index       int
	FileName    string
	Ext         string
	ContentType string
	Width       int
	Height      int
	Data        []byte
}

// Validator checks photo payloads before anything touches the object store.
type Validator struct {
	maxBytes int64
}

// NewValidator builds a validator with a per-photo size limit.
func NewValidator(maxBytes int64) *Validator {
	if maxBytes <= 0 {
		maxBytes = defaultMaxPhotoBytes
	}
	return &Validator{maxBytes: maxBytes}
}

// Validate checks every upload and reports all offending files at once.
func (v *Validator) Validate(uploads []Upload) ([]Prepared, error) {
	prepared := make([]Prepared, 0, len(uploads))
	problems := map[string]string{}
	for i, upload := range uploads {
		p, err := v.validateOne(i, upload)
		if err != nil {
			problems[photoField(i, upload.FileName)] = err.Error()
			continue
		}
		prepared = append(prepared, p)
	}
	if len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, describeProblems(problems)).WithDetails(problems)
	}
	return prepared, nil
}

// CheckCapacity rejects batches that would push an item past MaxPhotosPerItem.
func CheckCapacity(existing, incoming int) error {
	if existing+incoming <= MaxPhotosPerItem {
		return nil
	}
	msg := fmt.Sprintf("an item can have at most %d photos", MaxPhotosPerItem)
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{
		"photos":   fmt.Sprintf("item has %d photo(s); adding %d would exceed %d", existing, incoming, MaxPhotosPerItem),
		"existing": existing,
		"incoming": incoming,
		"max":      MaxPhotosPerItem,
	})
}

func (v *Validator) validateOne(index int, upload Upload) (Prepared, error) {
	name := strings.TrimSpace(upload.FileName)
	if name == "" {
		return Prepared{}, fmt.Errorf("file name is required")
	}
	ext := strings.ToLower(path.Ext(name))
	if _, ok := allowedExtensions[ext]; !ok {
		return Prepared{}, fmt.Errorf("unsupported file extension %q; allowed: %s", ext, allowedExtensionList())
	}
	if len(upload.Data) == 0 {
		return Prepared{}, fmt.Errorf("file is empty")
	}
	if int64(len(upload.Data)) > v.maxBytes {
		return Prepared{}, fmt.Errorf("file exceeds %d MB", v.maxBytes>>20)
	}
	if declared := strings.TrimSpace(upload.ContentType); declared != "" {
		mediaType, err := parseMediaType(declared)
		if err != nil {
			return Prepared{}, err
		}
		if mediaType != "application/octet-stream" && !strings.HasPrefix(mediaType, "image/") {
			return Prepared{}, fmt.Errorf("content type %q is not an image", mediaType)
		}
	}

	detected := mimetype.Detect(upload.Data)
	contentType := detected.String()
	if _, ok := allowedContentTypes[contentType]; !ok {
		return Prepared{}, fmt.Errorf("content is %s, not a supported image", contentType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(upload.Data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return Prepared{}, fmt.Errorf("file is not a readable image")
	}

	return Prepared{
		Index:       index,
		FileName:    name,
		Ext:         detected.Extension(),
		ContentType: contentType,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Data:        upload.Data,
	}, nil
}

func parseMediaType(value string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return "", fmt.Errorf("content type invalid: %w", err)
	}
	return strings.ToLower(mediaType), nil
}

func photoField(index int, fileName string) string {
	if strings.TrimSpace(fileName) == "" {
		return fmt.Sprintf("photos[%d]", index)
	}
	return fmt.Sprintf("photos[%d] (%s)", index, strings.TrimSpace(fileName))
}

func describeProblems(problems map[string]string) string {
	keys := make([]string, 0, len(problems))
	for k := range problems {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	first := keys[0]
	if len(keys) == 1 {
		return fmt.Sprintf("%s: %s", first, problems[first])
	}
	return fmt.Sprintf("%s: %s (and %d more)", first, problems[first], len(keys)-1)
}

func allowedExtensionList() string {
	list := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		list = append(list, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(list)
	return strings.Join(list, ", ")
}
