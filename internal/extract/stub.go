package extract

import (
	"context"
	"fmt"
)

// StubExtractor returns fixed sample content instead of reading the image.
// It is the default engine: real document understanding is a substantially
// harder system and is deliberately not assumed here. Any real engine must
// preserve the same output shape.
type StubExtractor struct{}

func NewStubExtractor() *StubExtractor {
	return &StubExtractor{}
}

func (s *StubExtractor) Extract(_ context.Context, imageURL string) (*Result, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("missing image url")
	}

	return &Result{
		FullText:     "Texto simulado extraído del OCR",
		Materials:    []string{"Madera", "Tornillos"},
		Measurements: []string{"50cm", "20cm"},
		Instructions: []string{"Cortar la madera", "Unir las piezas"},
	}, nil
}
