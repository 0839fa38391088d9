package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestDecodePNG(t *testing.T) {
	data := encodePNG(t, solidImage(8, 8, color.NRGBA{255, 0, 0, 255}))
	img, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, 8, img.Bounds().Dx())
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte("not an image"))
	require.Error(t, err)
}

func TestLetterboxGeometry(t *testing.T) {
	img := solidImage(200, 100, color.NRGBA{10, 20, 30, 255})
	canvas, tf := Letterbox(img, 320)

	require.Equal(t, 320, canvas.Bounds().Dx())
	require.Equal(t, 320, canvas.Bounds().Dy())
	require.InDelta(t, 1.6, float64(tf.Scale), 1e-6)
	require.Equal(t, float32(0), tf.PadX)
	require.Equal(t, float32(80), tf.PadY)
	require.Equal(t, 200, tf.OrigW)
	require.Equal(t, 100, tf.OrigH)

	// Padded rows carry the gray fill.
	require.Equal(t, uint8(padValue), canvas.NRGBAAt(0, 0).R)
	// Content region carries the image.
	require.Equal(t, uint8(10), canvas.NRGBAAt(160, 160).R)
}

func TestTransformRoundTrip(t *testing.T) {
	tf := Transform{Scale: 1.6, PadX: 0, PadY: 80, OrigW: 200, OrigH: 100}

	// A box fully inside the unpadded region, forward-mapped into model
	// coordinates, must come back to its original location.
	orig := Box{X1: 10, Y1: 20, X2: 50, Y2: 60}
	model := Box{
		X1: orig.X1*tf.Scale + tf.PadX,
		Y1: orig.Y1*tf.Scale + tf.PadY,
		X2: orig.X2*tf.Scale + tf.PadX,
		Y2: orig.Y2*tf.Scale + tf.PadY,
	}
	back := tf.Apply(model)
	require.InDelta(t, float64(orig.X1), float64(back.X1), 1.0)
	require.InDelta(t, float64(orig.Y1), float64(back.Y1), 1.0)
	require.InDelta(t, float64(orig.X2), float64(back.X2), 1.0)
	require.InDelta(t, float64(orig.Y2), float64(back.Y2), 1.0)
}

func TestTransformClips(t *testing.T) {
	tf := Transform{Scale: 1, PadX: 0, PadY: 0, OrigW: 100, OrigH: 100}
	b := tf.Apply(Box{X1: -10, Y1: 5, X2: 150, Y2: 95})
	require.Equal(t, float32(0), b.X1)
	require.Equal(t, float32(100), b.X2)
}

func TestToTensor(t *testing.T) {
	img := solidImage(10, 10, color.NRGBA{255, 128, 0, 255})
	canvas, _ := Letterbox(img, 32)

	buf := make([]float32, TensorLen(32))
	require.NoError(t, ToTensor(canvas, buf))

	plane := 32 * 32
	center := 16*32 + 16
	require.InDelta(t, 1.0, float64(buf[center]), 0.02)               // R
	require.InDelta(t, 128.0/255.0, float64(buf[plane+center]), 0.02) // G
	require.InDelta(t, 0.0, float64(buf[2*plane+center]), 0.02)       // B
}

func TestToTensorBadBuffer(t *testing.T) {
	canvas, _ := Letterbox(solidImage(4, 4, color.NRGBA{}), 32)
	require.Error(t, ToTensor(canvas, make([]float32, 7)))
}
