// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/cogentcore/webgpu/wgpu"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the RGBA pixel data, 4 bytes per pixel, rows top to bottom.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// NewTextureStagingData stages an RGBA image for upload.
// The image is copied when its stride carries padding so rows are tightly packed.
//
// Parameters:
//   - img: the source image
//
// Returns:
//   - TextureStagingData: the staged pixel data
func NewTextureStagingData(img *image.RGBA) TextureStagingData {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := img.Pix
	if img.Stride != w*4 || b.Min != (image.Point{}) {
		packed := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(packed, packed.Bounds(), img, b.Min, draw.Src)
		pix = packed.Pix
	}
	return TextureStagingData{Pixels: pix, Width: uint32(w), Height: uint32(h)}
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// Zero fields fall back to linear/repeat defaults in the backend.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode outside [0, 1] per dimension.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level.
	MaxAnisotropy uint16
}

// DecodeImage decodes any registered image format (PNG, JPEG, GIF, BMP, WebP) and
// normalizes the result to a tightly packed RGBA image with its origin at (0, 0).
//
// Parameters:
//   - r: the encoded image stream
//
// Returns:
//   - *image.RGBA: the decoded image
//   - error: an error if the stream could not be decoded
func DecodeImage(r io.Reader) (*image.RGBA, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba, nil
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	if rgba.Bounds().Empty() {
		return nil, fmt.Errorf("decoded %s image is empty", format)
	}
	return rgba, nil
}

// FitImage downsamples img so neither dimension exceeds maxDim, preserving aspect ratio.
// Images already within bounds are returned unchanged.
//
// Parameters:
//   - img: the source image
//   - maxDim: the largest allowed width or height in pixels
//
// Returns:
//   - *image.RGBA: the image, scaled when necessary
func FitImage(img *image.RGBA, maxDim int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}
	scale := float64(maxDim) / float64(max(w, h))
	nw, nh := max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
