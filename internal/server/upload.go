package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xaenox/legal-assistant/internal/document"
)

// formOverhead covers multipart boundaries and the other form fields.
const formOverhead = 1 << 20

type upload struct {
	Name string
	Kind document.Kind
	Data []byte
}

// readUpload validates the "file" form field against policy before reading
// its contents.
func readUpload(c echo.Context, policy document.Policy) (upload, error) {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, policy.MaxBytes+formOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return upload{}, &document.SizeError{Size: tooLarge.Limit, Limit: policy.MaxBytes}
		case errors.Is(err, http.ErrMissingFile):
			return upload{}, document.ErrNoFile
		}
		return upload{}, fmt.Errorf("reading upload: %w", err)
	}

	kind, err := policy.Check(header.Filename, header.Header.Get(echo.HeaderContentType), header.Size)
	if err != nil {
		return upload{}, err
	}

	f, err := header.Open()
	if err != nil {
		return upload{}, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return upload{}, fmt.Errorf("reading upload: %w", err)
	}
	return upload{Name: header.Filename, Kind: kind, Data: data}, nil
}
