// Package cvmatch provides an OpenCV-backed matcher.
//
// Importing the package registers the "opencv" matcher:
//
//	import _ "github.com/teslashibe/go-odometry/pkg/odometry/cvmatch"
package cvmatch

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"runtime"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"

	"github.com/teslashibe/go-odometry/pkg/frame"
	"github.com/teslashibe/go-odometry/pkg/odometry"
)

// Name is the registry name of the OpenCV matcher.
const Name = "opencv"

func init() {
	odometry.RegisterMatcher(Name, func() odometry.Matcher { return Matcher{} })
}

// Matcher runs cv::matchTemplate with TM_CCOEFF_NORMED.
// OpenCV computes in single precision, so scores agree with the built-in
// matchers to about 1e-5.
type Matcher struct{}

func (Matcher) Name() string { return Name }

// Prepare uploads the frame into a CV_32F Mat.
func (Matcher) Prepare(f *mat.Dense) (odometry.Searcher, error) {
	img, err := toMat(f)
	if err != nil {
		return nil, err
	}
	return &searcher{frame: img}, nil
}

type searcher struct {
	frame gocv.Mat
}

func (s *searcher) Match(patch *mat.Dense) (odometry.Match, error) {
	pr, pc := patch.Dims()
	if pr == 0 || pc == 0 {
		return odometry.Match{}, fmt.Errorf("cvmatch: %w", frame.ErrEmpty)
	}
	if pr > s.frame.Rows() || pc > s.frame.Cols() {
		return odometry.Match{}, fmt.Errorf("%w: %dx%d in %dx%d",
			odometry.ErrPatchTooLarge, pc, pr, s.frame.Cols(), s.frame.Rows())
	}

	templ, err := toMat(patch)
	if err != nil {
		return odometry.Match{}, err
	}
	defer templ.Close()

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(s.frame, templ, &result, gocv.TmCcoeffNormed, mask)
	if result.Empty() {
		return odometry.Match{}, fmt.Errorf("cvmatch: matchTemplate produced no result")
	}

	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)
	return odometry.Match{
		Loc:   maxLoc,
		Score: clamp(float64(maxVal)),
	}, nil
}

func (s *searcher) Close() error {
	return s.frame.Close()
}

// toMat copies m into an OpenCV-owned CV_32F Mat. The pixels are packed in
// Go and handed over in a single call.
func toMat(m *mat.Dense) (gocv.Mat, error) {
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return gocv.Mat{}, fmt.Errorf("cvmatch: %w", frame.ErrEmpty)
	}

	raw := m.RawMatrix()
	buf := make([]byte, 4*rows*cols)
	for r := 0; r < rows; r++ {
		line := raw.Data[r*raw.Stride : r*raw.Stride+cols]
		for c, v := range line {
			binary.LittleEndian.PutUint32(buf[4*(r*cols+c):], math.Float32bits(float32(v)))
		}
	}

	// The wrapper may alias buf, so clone before buf can be collected.
	view, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV32F, buf)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("cvmatch: %w", err)
	}
	defer view.Close()
	out := view.Clone()
	runtime.KeepAlive(buf)
	return out, nil
}

func clamp(v float64) float64 {
	return max(-1, min(1, v))
}

// FrameFromMat converts an 8-bit OpenCV image into a frame. Colour images
// are converted to grayscale first.
func FrameFromMat(m gocv.Mat) (*frame.Frame, error) {
	if m.Empty() {
		return nil, fmt.Errorf("cvmatch: %w", frame.ErrEmpty)
	}

	src := m
	if m.Channels() > 1 {
		gray := gocv.NewMat()
		defer gray.Close()
		code := gocv.ColorBGRToGray
		if m.Channels() == 4 {
			code = gocv.ColorBGRAToGray
		}
		gocv.CvtColor(m, &gray, code)
		src = gray
	}

	img, err := src.ToImage()
	if err != nil {
		return nil, fmt.Errorf("cvmatch: convert mat: %w", err)
	}
	if g, ok := img.(*image.Gray); ok {
		return frame.FromGray(g)
	}
	return frame.FromImage(img)
}
