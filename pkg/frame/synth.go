package frame

import (
	"fmt"
	"image"
	"math/rand/v2"

	"github.com/disintegration/gift"
)

// Noise returns a frame of uniform random intensities in [0, DefaultMaxValue).
// Values are not quantized, so every window has a unique appearance.
func Noise(rows, cols int, rng *rand.Rand) (*Frame, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmpty, cols, rows)
	}
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.Float64() * DefaultMaxValue
	}
	return New(rows, cols, data, DefaultMaxValue)
}

// Texture returns 8-bit noise smoothed by a Gaussian blur, which looks more
// like natural imagery than white noise. sigma <= 0 skips the blur.
func Texture(rows, cols int, sigma float32, rng *rand.Rand) (*Frame, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmpty, cols, rows)
	}
	src := image.NewGray(image.Rect(0, 0, cols, rows))
	for i := range src.Pix {
		src.Pix[i] = uint8(rng.IntN(256))
	}
	if sigma <= 0 {
		return FromGray(src)
	}

	g := gift.New(
		gift.GaussianBlur(sigma),
		gift.Contrast(40),
	)
	dst := image.NewGray(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return FromGray(dst)
}

// TranslatedPair cuts two equally sized windows out of src: the first at
// origin and the second at origin+offset. Estimating the motion from the
// first window to the second recovers offset.
func TranslatedPair(src *Frame, origin, size, offset image.Point) (*Frame, *Frame, error) {
	first, err := src.Crop(image.Rectangle{Min: origin, Max: origin.Add(size)})
	if err != nil {
		return nil, nil, fmt.Errorf("first window: %w", err)
	}
	shifted := origin.Add(offset)
	second, err := src.Crop(image.Rectangle{Min: shifted, Max: shifted.Add(size)})
	if err != nil {
		return nil, nil, fmt.Errorf("second window: %w", err)
	}
	return first, second, nil
}
