package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/furniscan/furniscan-backend/internal/projects"
)

func sampleProject() *projects.Project {
	return &projects.Project{
		ID:           "project-1",
		Title:        "Mesa de centro",
		FullText:     "Texto simulado extraído del OCR",
		Materials:    []string{"Madera", "Tornillos"},
		Measurements: []string{"50cm", "20cm"},
		Instructions: []string{"Cortar la madera", "Unir las piezas"},
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "My-Plan-V1.pdf", Filename("My/Plan:V1", FormatPDF))
	assert.Equal(t, "Mesa de centro.xlsx", Filename("Mesa de centro", FormatXLSX))
	assert.Equal(t, "project.pdf", Filename("", FormatPDF))
	assert.Equal(t, "project.pdf", Filename("   ", FormatPDF))
	assert.Equal(t, `a-b-c-d-e-f-g-h-i.pdf`, Filename(`a/b\c:d*e?f"g<h>i`, FormatPDF))
}

func TestRenderPDF(t *testing.T) {
	data, err := RenderPDF(sampleProject())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Greater(t, len(data), 500)
}

func TestRenderPDFEmptySections(t *testing.T) {
	p := &projects.Project{ID: "p", Title: "Sin contenido"}
	data, err := RenderPDF(p)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRenderXLSX(t *testing.T) {
	data, err := RenderXLSX(sampleProject())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(sheetName, "B1")
	require.NoError(t, err)
	assert.Equal(t, "Mesa de centro", title)

	for _, cell := range []string{"A2", "B2"} {
		v, err := f.GetCellValue(sheetName, cell)
		require.NoError(t, err)
		assert.Empty(t, v, "row 2 separates the title from the sections")
	}

	section, err := f.GetCellValue(sheetName, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Materials", section)

	materials, err := f.GetCellValue(sheetName, "B3")
	require.NoError(t, err)
	assert.Equal(t, "Madera; Tornillos", materials)

	steps, err := f.GetCellValue(sheetName, "B5")
	require.NoError(t, err)
	assert.Equal(t, "Cortar la madera; Unir las piezas", steps)
}

type fakeExportStore struct {
	puts   []string
	signed []string
}

func (f *fakeExportStore) Put(_ context.Context, path string, _ []byte, _ string) (string, error) {
	f.puts = append(f.puts, path)
	return "https://bucket/" + path, nil
}

func (f *fakeExportStore) SignedURL(_ context.Context, path string, _ time.Duration, filename string) (string, error) {
	f.signed = append(f.signed, path)
	return fmt.Sprintf("https://signed/%s?dl=%s", path, filename), nil
}

type fakeRecorder struct {
	logs []Log
	err  error
}

func (f *fakeRecorder) Record(_ context.Context, log *Log) error {
	if f.err != nil {
		return f.err
	}
	f.logs = append(f.logs, *log)
	return nil
}

func TestExportProducesSignedDownload(t *testing.T) {
	store := &fakeExportStore{}
	recorder := &fakeRecorder{}
	svc := NewService(store, recorder, 0, nil)

	download, err := svc.Export(context.Background(), "user-1", sampleProject(), FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "Mesa de centro.pdf", download.Filename)
	assert.Contains(t, download.URL, "https://signed/exports/project-1/")

	require.Len(t, recorder.logs, 1)
	assert.Equal(t, FormatPDF, recorder.logs[0].Format)
	require.Len(t, store.puts, 1)
	assert.Equal(t, store.puts[0], recorder.logs[0].StoragePath)
}

func TestSequentialExportsUseDistinctPaths(t *testing.T) {
	store := &fakeExportStore{}
	svc := NewService(store, &fakeRecorder{}, 0, nil)

	ticks := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		ticks = ticks.Add(time.Millisecond)
		return ticks
	}

	_, err := svc.Export(context.Background(), "user-1", sampleProject(), FormatPDF)
	require.NoError(t, err)
	_, err = svc.Export(context.Background(), "user-1", sampleProject(), FormatPDF)
	require.NoError(t, err)

	require.Len(t, store.puts, 2)
	assert.NotEqual(t, store.puts[0], store.puts[1])
	for _, p := range store.puts {
		assert.True(t, strings.HasPrefix(p, "exports/project-1/"))
	}
}

func TestExportSurvivesAuditFailure(t *testing.T) {
	store := &fakeExportStore{}
	recorder := &fakeRecorder{err: fmt.Errorf("db down")}
	svc := NewService(store, recorder, 0, nil)

	download, err := svc.Export(context.Background(), "user-1", sampleProject(), FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "Mesa de centro.xlsx", download.Filename)
}

func TestExportUnknownFormat(t *testing.T) {
	svc := NewService(&fakeExportStore{}, &fakeRecorder{}, 0, nil)
	_, err := svc.Export(context.Background(), "user-1", sampleProject(), Format("csv"))
	assert.Error(t, err)
}
