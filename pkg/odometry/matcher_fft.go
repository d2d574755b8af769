package odometry

import (
	"image"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

// FFTMatcher computes the correlation numerator for all windows at once by
// multiplying spectra. The frame spectrum is computed once in Prepare, so
// each match costs two 2-D transforms of frame size regardless of patch size.
type FFTMatcher struct{}

// Name implements Matcher.
func (FFTMatcher) Name() string { return MatcherFFT }

// Prepare implements Matcher.
func (FFTMatcher) Prepare(frame *mat.Dense) (Searcher, error) {
	rows, cols := frame.Dims()
	raw := frame.RawMatrix()

	spectrum := make([]complex128, rows*cols)
	for r := 0; r < rows; r++ {
		for c, v := range raw.Data[r*raw.Stride : r*raw.Stride+cols] {
			spectrum[r*cols+c] = complex(v, 0)
		}
	}
	newPlan2D(rows, cols).forward(spectrum)

	var owned mat.Dense
	owned.CloneFrom(frame)
	return &fftSearcher{
		rows:     rows,
		cols:     cols,
		spectrum: spectrum,
		integral: newIntegralImage(&owned),
	}, nil
}

type fftSearcher struct {
	rows, cols int
	spectrum   []complex128 // read-only after Prepare
	integral   *integralImage
}

func (s *fftSearcher) Match(patch *mat.Dense) (Match, error) {
	ph, pw := patch.Dims()
	if err := checkPatchFits(s.rows, s.cols, ph, pw); err != nil {
		return Match{}, err
	}

	tpl, energy := zeroMean(patch)
	n := float64(ph * pw)

	// cross[u] = Σx F[x+u]·T'[x] = IFFT(F̂ · conj(T̂'))[u]. Indices that wrap
	// around the frame are never read.
	var corr []complex128
	if energy != 0 {
		corr = make([]complex128, s.rows*s.cols)
		for r := 0; r < ph; r++ {
			for c := 0; c < pw; c++ {
				corr[r*s.cols+c] = complex(tpl[r*pw+c], 0)
			}
		}
		plan := newPlan2D(s.rows, s.cols)
		plan.forward(corr)
		for i, t := range corr {
			corr[i] = s.spectrum[i] * cmplx.Conj(t)
		}
		plan.inverse(corr)
	}

	best := Match{Score: math.Inf(-1)}
	for r := 0; r <= s.rows-ph; r++ {
		for c := 0; c <= s.cols-pw; c++ {
			var cross float64
			if corr != nil {
				cross = real(corr[r*s.cols+c])
			}
			sum, sumSq := s.integral.window(r, c, ph, pw)
			score := ccoeffNormed(cross, sum, sumSq, n, energy)
			if score > best.Score {
				best = Match{Loc: image.Pt(c, r), Score: score}
			}
		}
	}
	return best, nil
}

func (s *fftSearcher) Close() error { return nil }

// plan2D runs separable 2-D transforms over row-major data. Plans carry
// scratch space and must not be shared between goroutines.
type plan2D struct {
	rows, cols int
	rowFFT     *fourier.CmplxFFT
	colFFT     *fourier.CmplxFFT
	rowBuf     []complex128
	colIn      []complex128
	colOut     []complex128
}

func newPlan2D(rows, cols int) *plan2D {
	return &plan2D{
		rows:   rows,
		cols:   cols,
		rowFFT: fourier.NewCmplxFFT(cols),
		colFFT: fourier.NewCmplxFFT(rows),
		rowBuf: make([]complex128, cols),
		colIn:  make([]complex128, rows),
		colOut: make([]complex128, rows),
	}
}

func (p *plan2D) forward(data []complex128) {
	for r := 0; r < p.rows; r++ {
		line := data[r*p.cols : (r+1)*p.cols]
		p.rowFFT.Coefficients(p.rowBuf, line)
		copy(line, p.rowBuf)
	}
	for c := 0; c < p.cols; c++ {
		for r := 0; r < p.rows; r++ {
			p.colIn[r] = data[r*p.cols+c]
		}
		p.colFFT.Coefficients(p.colOut, p.colIn)
		for r := 0; r < p.rows; r++ {
			data[r*p.cols+c] = p.colOut[r]
		}
	}
}

// inverse applies the normalized inverse transform using
// IFFT(x) = conj(FFT(conj(x))) / N.
func (p *plan2D) inverse(data []complex128) {
	for i, v := range data {
		data[i] = cmplx.Conj(v)
	}
	p.forward(data)
	scale := 1 / float64(len(data))
	for i, v := range data {
		data[i] = complex(real(v)*scale, -imag(v)*scale)
	}
}
