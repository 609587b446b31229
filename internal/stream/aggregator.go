// Package stream turns a chunked newline-delimited upstream body into
// normalized chunks and case-law records.
package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/legal-assistant/internal/models"
)

// Handler receives each decoded chunk. Returning an error stops the stream.
type Handler func(chunk models.StreamChunk) error

// Aggregator reads an upstream body line by line. A partial line at a read
// boundary is held until its newline arrives, so the chunks produced do not
// depend on how the body was split on the wire.
type Aggregator struct {
	handle Handler
	logger *zap.Logger
}

func NewAggregator(handle Handler, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		handle: handle,
		logger: logger,
	}
}

// Consume reads r until EOF. The unterminated trailing line, if any, is
// handled at EOF. Read errors and handler errors end the stream; chunks
// already handled are not rolled back.
func (a *Aggregator) Consume(ctx context.Context, r io.Reader) error {
	reader := bufio.NewReader(r)
	lines := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			a.logger.Error("Upstream stream failed",
				zap.Int("lines", lines),
				zap.Error(err))
			return fmt.Errorf("reading upstream stream: %w", err)
		}

		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			lines++
			if chunk, ok := DecodeLine(line); ok {
				if hErr := a.handle(chunk); hErr != nil {
					return hErr
				}
			}
		}

		if errors.Is(err, io.EOF) {
			a.logger.Debug("Upstream stream finished", zap.Int("lines", lines))
			return nil
		}
	}
}

// TextHandler forwards the text of tool, text-delta and raw chunks to onText.
func TextHandler(onText func(text string) error) Handler {
	return func(chunk models.StreamChunk) error {
		if chunk.Value == "" {
			return nil
		}
		return onText(chunk.Value)
	}
}

// ResearchHandler extracts case-law records from tool chunks into set and
// calls onResult for every record not seen before. Other chunks are ignored.
func ResearchHandler(set *ResultSet, onResult func(models.ResearchResult) error) Handler {
	return func(chunk models.StreamChunk) error {
		if chunk.Type != models.ChunkTool {
			return nil
		}
		for _, result := range ExtractCaseLaw(chunk.Value) {
			if !set.Add(result) {
				continue
			}
			if onResult != nil {
				if err := onResult(result); err != nil {
					return err
				}
			}
		}
		return nil
	}
}
