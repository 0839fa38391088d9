// Package vision implements the image pipeline around the detection model:
// decoding uploads, letterboxing to the fixed model input, and converting
// raw model output into a filtered, deduplicated set of detections.
package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	// Accepted upload formats.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/chewxy/math32"
	"github.com/disintegration/imaging"
)

// Gray pad value used by YOLO letterboxing.
const padValue = 114

// Decode parses an uploaded image (JPEG, PNG or WebP).
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Transform records the letterbox geometry of one prepared input so that
// boxes in model-input coordinates can be mapped back to original pixels.
type Transform struct {
	Scale float32 // uniform resize ratio applied to the original image
	PadX  float32 // left padding in model-input pixels
	PadY  float32 // top padding in model-input pixels
	OrigW int
	OrigH int
}

// Apply maps a box from model-input coordinates back to original image
// coordinates, clipped to the image bounds.
func (t Transform) Apply(b Box) Box {
	out := Box{
		X1: (b.X1 - t.PadX) / t.Scale,
		Y1: (b.Y1 - t.PadY) / t.Scale,
		X2: (b.X2 - t.PadX) / t.Scale,
		Y2: (b.Y2 - t.PadY) / t.Scale,
	}
	return out.Clip(float32(t.OrigW), float32(t.OrigH))
}

// Letterbox resizes img with a uniform scale onto a size x size gray canvas,
// centering it and padding the remainder.
func Letterbox(img image.Image, size int) (*image.NRGBA, Transform) {
	origW := img.Bounds().Dx()
	origH := img.Bounds().Dy()

	ratio := math32.Min(float32(size)/float32(origW), float32(size)/float32(origH))
	newW := int(float32(origW) * ratio)
	newH := int(float32(origH) * ratio)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	left := (size - newW) / 2
	top := (size - newH) / 2

	resized := imaging.Resize(img, newW, newH, imaging.Linear)
	canvas := imaging.New(size, size, color.NRGBA{padValue, padValue, padValue, 255})
	canvas = imaging.Paste(canvas, resized, image.Pt(left, top))

	tf := Transform{
		Scale: ratio,
		PadX:  float32(left),
		PadY:  float32(top),
		OrigW: origW,
		OrigH: origH,
	}
	return canvas, tf
}

// ToTensor writes canvas into dst as planar NCHW float32 in [0,1].
// dst must have length 3*size*size where size is the canvas side.
func ToTensor(canvas *image.NRGBA, dst []float32) error {
	size := canvas.Bounds().Dx()
	plane := size * size
	if len(dst) != 3*plane {
		return fmt.Errorf("tensor buffer length %d, want %d", len(dst), 3*plane)
	}
	for y := 0; y < size; y++ {
		row := canvas.Pix[y*canvas.Stride:]
		offset := y * size
		for x := 0; x < size; x++ {
			i := offset + x
			px := row[x*4:]
			dst[i] = float32(px[0]) / 255.0
			dst[plane+i] = float32(px[1]) / 255.0
			dst[2*plane+i] = float32(px[2]) / 255.0
		}
	}
	return nil
}

// TensorLen returns the number of float32 elements of a model input of the
// given square side.
func TensorLen(inputSize int) int {
	return 3 * inputSize * inputSize
}

// Prepare letterboxes a decoded image into dst and returns the inverse
// transform. dst must be sized with TensorLen.
func Prepare(img image.Image, inputSize int, dst []float32) (Transform, error) {
	canvas, tf := Letterbox(img, inputSize)
	if err := ToTensor(canvas, dst); err != nil {
		return Transform{}, err
	}
	return tf, nil
}
