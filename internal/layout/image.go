package layout

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Image is an encoded raster image and its pixel geometry.
type Image struct {
	Format string // "jpeg" or "png"
	Data   []byte
	Width  int
	Height int
	Gray   bool
	CMYK   bool
}

// LoadImage reads src, a data URI or a file path (relative paths resolve
// against baseDir), and probes its format and size.
func LoadImage(src, baseDir string) (*Image, error) {
	if src == "" {
		return nil, errors.New("image has no src")
	}
	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(src, "data:"):
		data, err = decodeDataURI(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return nil, fmt.Errorf("remote image %q: only local files and data URIs are supported", src)
	default:
		path := src
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if format != "jpeg" && format != "png" {
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, errors.New("image has no pixels")
	}
	return &Image{
		Format: format,
		Data:   data,
		Width:  cfg.Width,
		Height: cfg.Height,
		Gray:   cfg.ColorModel == color.GrayModel,
		CMYK:   cfg.ColorModel == color.CMYKModel,
	}, nil
}

func decodeDataURI(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URI")
	}
	if strings.HasSuffix(meta, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	s, err := url.PathUnescape(payload)
	return []byte(s), err
}
