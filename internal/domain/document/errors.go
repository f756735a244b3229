package document

import "errors"

var (
	// ErrAdmission: the file failed local policy; no remote call was made.
	ErrAdmission = errors.New("file rejected")

	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")

	ErrCredential = errors.New("upload credential request failed")
	ErrUpload     = errors.New("file upload failed")
	ErrExtraction = errors.New("document extraction failed")

	// ErrEmptyContent: extraction succeeded but produced no usable text.
	ErrEmptyContent = errors.New("no text content could be extracted from the document")
)
