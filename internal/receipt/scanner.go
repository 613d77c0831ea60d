package receipt

import (
	"context"

	"fintrack/internal/core"
)

// Scan is the outcome of reading one receipt.
type Scan struct {
	Text       string
	Extraction core.ReceiptExtraction
}

// Scanner loads an image, recognizes its text and extracts fields.
type Scanner struct {
	source     *Source
	recognizer Recognizer
	extractor  *Extractor
}

func NewScanner(source *Source, recognizer Recognizer, extractor *Extractor) *Scanner {
	return &Scanner{source: source, recognizer: recognizer, extractor: extractor}
}

// Scan fails only when the image cannot be loaded or recognized. Missing
// fields in the text are reported as nil, not as errors.
func (s *Scanner) Scan(ctx context.Context, ref string) (Scan, error) {
	img, mimeType, err := s.source.Load(ctx, ref)
	if err != nil {
		return Scan{}, core.Dependency("load receipt image", err)
	}
	text, err := s.recognizer.Recognize(ctx, img, mimeType)
	if err != nil {
		return Scan{}, core.Dependency("recognize receipt", err)
	}
	return Scan{Text: text, Extraction: s.extractor.Extract(text)}, nil
}
