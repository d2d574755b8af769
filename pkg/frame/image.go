package frame

import (
	"fmt"
	"image"
	_ "image/jpeg" // decoder registration
	_ "image/png"  // decoder registration
	"io"
	"os"

	"github.com/disintegration/gift"
)

// FromImage converts any image to an 8-bit grayscale frame.
func FromImage(img image.Image) (*Frame, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmpty
	}

	g := gift.New(gift.Grayscale())
	gray := image.NewGray(g.Bounds(img.Bounds()))
	g.Draw(gray, img)

	return FromGray(gray)
}

// FromGray copies an 8-bit grayscale image into a frame.
func FromGray(gray *image.Gray) (*Frame, error) {
	b := gray.Bounds()
	rows, cols := b.Dy(), b.Dx()
	if rows == 0 || cols == 0 {
		return nil, ErrEmpty
	}

	data := make([]float64, rows*cols)
	for y := 0; y < rows; y++ {
		line := gray.Pix[y*gray.Stride : y*gray.Stride+cols]
		for x, v := range line {
			data[y*cols+x] = float64(v)
		}
	}
	return New(rows, cols, data, DefaultMaxValue)
}

// ToGray renders the frame back to an 8-bit image, clamping to [0, MaxValue].
func (f *Frame) ToGray() *image.Gray {
	rows, cols := f.Dims()
	gray := image.NewGray(image.Rect(0, 0, cols, rows))
	scale := 255 / f.maxValue
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := f.data.At(y, x) * scale
			switch {
			case v < 0:
				v = 0
			case v > 255:
				v = 255
			}
			gray.Pix[y*gray.Stride+x] = uint8(v + 0.5)
		}
	}
	return gray
}

// Decode reads a PNG or JPEG image and converts it to grayscale.
func Decode(r io.Reader) (*Frame, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return FromImage(img)
}

// Load decodes the image file at path.
func Load(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer file.Close()

	f, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Threshold renders the frame in black and white, splitting at percent of
// full scale.
func (f *Frame) Threshold(percent float32) (*Frame, error) {
	src := f.ToGray()
	g := gift.New(gift.Threshold(percent))
	dst := image.NewGray(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return FromGray(dst)
}
