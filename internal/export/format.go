// Package export turns a field snapshot into a raster image. A Bridge drives
// one isolated render context per request through an Engine; the snapshot
// reaches the renderer only through the Inbox.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
)

// Format is an output raster format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"

	// JPEGQuality is used for every JPEG export.
	JPEGQuality = 92
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat accepts png, jpg and jpeg in any case. An empty string means png.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Extension is the file extension used in download names.
func (f Format) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return "png"
}

// ContentType is the response media type.
func (f Format) ContentType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Filename is the attachment name offered to the browser.
func (f Format) Filename() string {
	return "lineup-field." + f.Extension()
}

// Encode writes img in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	case FormatPNG, "":
		return png.Encode(w, img)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// Transcode re-encodes PNG bytes into f. PNG input with a PNG target is returned as is.
func Transcode(pngData []byte, f Format) ([]byte, error) {
	if f != FormatJPEG {
		return pngData, nil
	}
	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, img, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
