package pdf

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder

	"github.com/aretw0/quire/internal/layout"
)

// imageXObject returns the stream dictionary entries and data of an image.
// Baseline JPEGs pass through untouched; everything else is decoded,
// flattened onto white and stored as Flate-compressed RGB.
func imageXObject(img *layout.Image) (string, []byte, error) {
	if img.Format == "jpeg" && !img.CMYK {
		space := "/DeviceRGB"
		if img.Gray {
			space = "/DeviceGray"
		}
		dict := fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace %s /BitsPerComponent 8 /Filter /DCTDecode",
			img.Width, img.Height, space)
		return dict, img.Data, nil
	}

	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return "", nil, err
	}
	b := decoded.Bounds()
	pix := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := decoded.At(x, y).RGBA()
			// Premultiplied components over a white backdrop.
			white := 0xffff - a
			pix = append(pix, byte((r+white)>>8), byte((g+white)>>8), byte((bl+white)>>8))
		}
	}
	data, err := deflate(pix)
	if err != nil {
		return "", nil, err
	}
	dict := fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /FlateDecode",
		b.Dx(), b.Dy())
	return dict, data, nil
}
