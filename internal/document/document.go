// Package document validates uploaded files and turns them into plain text
// for analysis and review.
package document

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

type Kind string

const (
	KindUnknown Kind = ""
	KindPDF     Kind = "pdf"
	KindDOC     Kind = "doc"
	KindDOCX    Kind = "docx"
)

const (
	mimePDF  = "application/pdf"
	mimeDOC  = "application/msword"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// DefaultMaxBytes caps every upload.
const DefaultMaxBytes int64 = 100 * 1024 * 1024

var (
	ErrNoFile     = errors.New("no file uploaded")
	ErrPDFOnly    = errors.New("only PDF files are allowed")
	ErrFileType   = errors.New("invalid file type, please upload a PDF or Word document")
	ErrNoText     = errors.New("could not extract text from document")
	ErrEmptyInput = errors.New("document is empty")
)

// SizeError reports an upload over the configured limit.
type SizeError struct {
	Size  int64
	Limit int64
}

func (e *SizeError) Error() string {
	const mb = 1024 * 1024
	if e.Limit >= mb && e.Limit%mb == 0 {
		return fmt.Sprintf("file size exceeds %dMB limit", e.Limit/mb)
	}
	return fmt.Sprintf("file size exceeds %d byte limit", e.Limit)
}

// Detect classifies a file by its declared content type, falling back to the
// file extension when the type is missing or generic.
func Detect(name, contentType string) Kind {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch mediaType {
	case mimePDF:
		return KindPDF
	case mimeDOC:
		return KindDOC
	case mimeDOCX:
		return KindDOCX
	case "", "application/octet-stream":
	default:
		return KindUnknown
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF
	case ".doc":
		return KindDOC
	case ".docx":
		return KindDOCX
	}
	return KindUnknown
}

// Policy describes which uploads an endpoint accepts.
type Policy struct {
	MaxBytes int64
	Allowed  []Kind
}

func AnalysisPolicy(maxBytes int64) Policy {
	return Policy{MaxBytes: limit(maxBytes), Allowed: []Kind{KindPDF}}
}

func ReviewPolicy(maxBytes int64) Policy {
	return Policy{MaxBytes: limit(maxBytes), Allowed: []Kind{KindPDF, KindDOC, KindDOCX}}
}

func limit(maxBytes int64) int64 {
	if maxBytes <= 0 {
		return DefaultMaxBytes
	}
	return maxBytes
}

// Check validates an upload before its contents are read.
func (p Policy) Check(name, contentType string, size int64) (Kind, error) {
	if size > p.MaxBytes {
		return KindUnknown, &SizeError{Size: size, Limit: p.MaxBytes}
	}

	kind := Detect(name, contentType)
	for _, allowed := range p.Allowed {
		if kind == allowed {
			return kind, nil
		}
	}

	if len(p.Allowed) == 1 && p.Allowed[0] == KindPDF {
		return KindUnknown, ErrPDFOnly
	}
	return KindUnknown, ErrFileType
}

var (
	runsOfSpace = regexp.MustCompile(`\s{3,}`)
	pageFooter  = regexp.MustCompile(`Page \d+ of \d+`)
	formMarker  = regexp.MustCompile(`(?i)\bDWC-CA form.*?\b`)
	objectDump  = regexp.MustCompile(`\[object Object\]`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
)

// Clean strips page furniture and collapses whitespace in extracted text.
func Clean(text string) string {
	text = runsOfSpace.ReplaceAllString(text, "\n")
	text = pageFooter.ReplaceAllString(text, "")
	text = formMarker.ReplaceAllString(text, "")
	text = objectDump.ReplaceAllString(text, "")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
