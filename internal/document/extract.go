package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Text is the cleaned content of a document.
type Text struct {
	Content string `json:"text"`
	Pages   int    `json:"pages"`
}

// Extract reads the text of data according to kind and cleans it.
// ErrNoText is returned when nothing survives cleanup.
func Extract(kind Kind, data []byte) (Text, error) {
	if len(data) == 0 {
		return Text{}, ErrEmptyInput
	}

	var (
		raw   string
		pages = 1
		err   error
	)
	switch kind {
	case KindPDF:
		raw, pages, err = extractPDF(data)
	case KindDOCX:
		raw, err = extractDOCX(data)
	case KindDOC:
		raw = extractDOC(data)
	default:
		return Text{}, ErrFileType
	}
	if err != nil {
		return Text{}, err
	}

	cleaned := Clean(raw)
	if cleaned == "" {
		return Text{}, ErrNoText
	}
	return Text{Content: cleaned, Pages: pages}, nil
}

func extractPDF(data []byte) (text string, pages int, err error) {
	// the reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("error parsing PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("error parsing PDF: %w", err)
	}

	var sb strings.Builder
	pages = reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", 0, fmt.Errorf("error reading PDF page %d: %w", i, err)
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	return sb.String(), pages, nil
}

func extractDOCX(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("error opening DOCX: %w", err)
	}

	for _, f := range archive.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("error opening DOCX body: %w", err)
		}
		defer rc.Close()
		return wordText(rc)
	}
	return "", errors.New("DOCX has no word/document.xml")
}

// wordText collects the runs of a WordprocessingML body, one line per paragraph.
func wordText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var (
		sb     strings.Builder
		inText bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("error reading DOCX body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteString("\t")
			case "br":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

const minRun = 4

// extractDOC pulls printable ASCII runs out of a legacy binary Word file.
// Formatting tables also yield short runs, so runs under minRun are dropped.
func extractDOC(data []byte) string {
	var (
		sb  strings.Builder
		run []byte
	)
	flush := func() {
		if len(strings.TrimSpace(string(run))) >= minRun {
			sb.Write(run)
			sb.WriteString("\n")
		}
		run = run[:0]
	}

	for _, b := range data {
		if (b >= 0x20 && b < 0x7f) || b == '\t' {
			run = append(run, b)
			continue
		}
		if b == '\r' || b == '\n' {
			run = append(run, '\n')
			continue
		}
		flush()
	}
	flush()
	return sb.String()
}
