package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

// twoPixelImage is a 2x1 image with a red left pixel and a blue right pixel,
// small enough to track through the orientation transforms.
func twoPixelImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{B: 255, A: 255})
	return img
}

func isRed(c color.Color) bool {
	r, _, b, _ := c.RGBA()
	return r > b
}

func TestApplyOrientation(t *testing.T) {
	src := twoPixelImage()

	cases := []struct {
		name        string
		orientation int
		wantW       int
		wantH       int
		redAt       image.Point
	}{
		{"normal untouched", 1, 2, 1, image.Pt(0, 0)},
		{"mirrored", 2, 2, 1, image.Pt(1, 0)},
		{"upside down", 3, 2, 1, image.Pt(1, 0)},
		{"rotated 90 cw", 6, 1, 2, image.Pt(0, 0)},
		{"rotated 90 ccw", 8, 1, 2, image.Pt(0, 1)},
		{"unknown value untouched", 9, 2, 1, image.Pt(0, 0)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := applyOrientation(src, tc.orientation)
			b := out.Bounds()
			if b.Dx() != tc.wantW || b.Dy() != tc.wantH {
				t.Fatalf("bounds = %dx%d, want %dx%d", b.Dx(), b.Dy(), tc.wantW, tc.wantH)
			}
			if !isRed(out.At(b.Min.X+tc.redAt.X, b.Min.Y+tc.redAt.Y)) {
				t.Fatalf("red pixel not at %v after orientation %d", tc.redAt, tc.orientation)
			}
		})
	}
}

// jpegWithOrientation splices a minimal EXIF APP1 segment carrying only the
// Orientation tag into a freshly encoded JPEG.
func jpegWithOrientation(t *testing.T, img image.Image, orientation byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	plain := buf.Bytes()

	tiff := []byte{
		0x49, 0x49, 0x2A, 0x00, // little-endian TIFF header
		0x08, 0x00, 0x00, 0x00, // IFD0 at offset 8
		0x01, 0x00, // one directory entry
		0x12, 0x01, // Orientation (0x0112)
		0x03, 0x00, // SHORT
		0x01, 0x00, 0x00, 0x00, // count 1
		orientation, 0x00, 0x00, 0x00, // value, padded
		0x00, 0x00, 0x00, 0x00, // no next IFD
	}
	app1 := append([]byte("Exif\x00\x00"), tiff...)

	segment := []byte{0xFF, 0xE1, byte((len(app1) + 2) >> 8), byte(len(app1) + 2)}
	segment = append(segment, app1...)

	out := make([]byte, 0, len(plain)+len(segment))
	out = append(out, plain[:2]...) // SOI
	out = append(out, segment...)
	out = append(out, plain[2:]...)
	return out
}

func TestEncodeJpegFitInsideAutoRotates(t *testing.T) {
	// 40x20 landscape tagged as rotated 90 cw must come out 20x40 portrait.
	src := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	data := jpegWithOrientation(t, src, 6)

	out, meta, err := EncodeJpegFitInside(data, 1200, 85)
	if err != nil {
		t.Fatalf("EncodeJpegFitInside: %v", err)
	}

	decoded, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() != 20 || b.Dy() != 40 {
		t.Fatalf("output = %dx%d, want 20x40", b.Dx(), b.Dy())
	}
	if meta.Width == nil || meta.Height == nil || *meta.Width != 20 || *meta.Height != 40 {
		t.Fatalf("meta = %+v, want 20x40", meta)
	}
}

func TestEncodeJpegFitInsideBounds(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 300, 150))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}

	out, _, err := EncodeJpegFitInside(buf.Bytes(), 100, 85)
	if err != nil {
		t.Fatalf("EncodeJpegFitInside: %v", err)
	}
	decoded, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("output = %dx%d, want 100x50", b.Dx(), b.Dy())
	}

	if _, _, err := EncodeJpegFitInside(buf.Bytes(), 0, 85); err == nil {
		t.Fatal("maxSide 0 must be rejected")
	}
}

func TestEncodeJpegCoverSquare(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 120, 60))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}

	out, _, err := EncodeJpegCoverSquare(buf.Bytes(), 40, 85)
	if err != nil {
		t.Fatalf("EncodeJpegCoverSquare: %v", err)
	}
	decoded, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() != 40 || b.Dy() != 40 {
		t.Fatalf("thumbnail = %dx%d, want 40x40", b.Dx(), b.Dy())
	}
}
