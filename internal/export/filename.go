// Package export renders a saved project as a downloadable PDF or Excel file
// and hands back a time-limited download link.
package export

import "strings"

// Format is a supported export file format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

func (f Format) Extension() string {
	if f == FormatXLSX {
		return ".xlsx"
	}
	return ".pdf"
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

// Filename derives the download filename from the project title. Path-unsafe
// characters become hyphens so "My/Plan:V1" exports as "My-Plan-V1.pdf"; an
// empty title falls back to "project".
func Filename(title string, format Format) string {
	name := sanitize(title)
	if name == "" {
		name = "project"
	}
	return name + format.Extension()
}

func sanitize(title string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(title) {
		switch {
		case r < 0x20, r == 0x7f:
			b.WriteRune('-')
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
