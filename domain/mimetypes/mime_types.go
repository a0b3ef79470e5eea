package mimetypes

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type MIME string

const (
	Unknown     MIME = "unknown"
	OctetStream MIME = "application/octet-stream"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"
	ImageWebP MIME = "image/webp"
	ImageHEIC MIME = "image/heic"
)

// Detect sniffs the content type of data.
func Detect(data []byte) MIME {
	return MIME(mimetype.Detect(data).String())
}

// IsImage reports whether a detected content type is an image, parameters ignored.
func IsImage(detected MIME) bool {
	mt, _, err := mime.ParseMediaType(string(detected))
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "image/")
}
