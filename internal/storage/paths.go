package storage

import (
	"fmt"
	"path"
	"strings"
	"time"
)

const (
	ImagePrefix  = "images/"
	ExportPrefix = "exports/"
)

// ImagePath namespaces an upload by owner and timestamp so concurrent users
// and repeated uploads never collide.
func ImagePath(uid string, at time.Time, filename string) string {
	return fmt.Sprintf("%s%s/%d-%s", ImagePrefix, uid, at.UnixMilli(), safeName(filename))
}

// ThumbnailPath derives the thumbnail location for an image path.
func ThumbnailPath(imagePath string) string {
	ext := path.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + "_thumb.jpg"
}

// ExportPath keys export artifacts by project and timestamp: sequential
// exports of the same project land on distinct paths.
func ExportPath(projectID string, at time.Time, filename string) string {
	return fmt.Sprintf("%s%s/%d/%s", ExportPrefix, projectID, at.UnixMilli(), safeName(filename))
}

// safeName keeps the object key flat and predictable.
func safeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
