package document

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// Accepted media types.
const (
	MediaTypePDF  = "application/pdf"
	MediaTypeDOC  = "application/msword"
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// DefaultMaxBytes is the 10 MiB upload ceiling.
const DefaultMaxBytes int64 = 10 * 1024 * 1024

var extensionTypes = map[string]string{
	".pdf":  MediaTypePDF,
	".doc":  MediaTypeDOC,
	".docx": MediaTypeDOCX,
}

// File is a user-supplied document held in memory for one upload.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

func (f File) Size() int64 { return int64(len(f.Content)) }

// MediaType returns the declared type without parameters. An empty
// declaration falls back to the file extension.
func (f File) MediaType() string {
	declared := strings.TrimSpace(f.ContentType)
	if declared == "" {
		return extensionTypes[strings.ToLower(filepath.Ext(f.Name))]
	}
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return strings.ToLower(declared)
	}
	return mt
}

// Credentials is a write/read URL pair for one stored file.
type Credentials struct {
	UploadURL string `json:"uploadUrl"`
	ReadURL   string `json:"readUrl"`
}

// Extraction is the outcome of a successful upload-and-extract run.
type Extraction struct {
	FileName   string `json:"file_name"`
	SizeBytes  int64  `json:"size_bytes"`
	Characters int    `json:"characters"`
	Text       string `json:"text"`
}

// Policy is the local admission check run before any remote call.
type Policy struct {
	AllowedTypes []string
	MaxBytes     int64
}

// DefaultPolicy accepts PDF, DOC and DOCX up to 10 MiB.
func DefaultPolicy() Policy {
	return Policy{
		AllowedTypes: []string{MediaTypePDF, MediaTypeDOC, MediaTypeDOCX},
		MaxBytes:     DefaultMaxBytes,
	}
}

// Admit returns ErrUnsupportedType or ErrFileTooLarge, wrapped with a
// message naming the violated constraint.
func (p Policy) Admit(f File) error {
	mt := f.MediaType()
	allowed := false
	for _, t := range p.AllowedTypes {
		if mt == t {
			allowed = true
			break
		}
	}
	if !allowed {
		shown := f.ContentType
		if shown == "" {
			shown = filepath.Ext(f.Name)
		}
		return fmt.Errorf("%w: %q (allowed: PDF, DOC, DOCX)", ErrUnsupportedType, shown)
	}
	if p.MaxBytes > 0 && f.Size() > p.MaxBytes {
		return fmt.Errorf("%w: %.2f MB exceeds the %.0f MB limit", ErrFileTooLarge,
			float64(f.Size())/(1024*1024), float64(p.MaxBytes)/(1024*1024))
	}
	return nil
}
