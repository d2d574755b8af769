package odometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// flatTolerance is the relative variance below which a window or patch is
// treated as constant. Constant regions correlate with nothing and score 0.
const flatTolerance = 1e-9

// integralImage stores zero-padded summed-area tables of values and squared
// values, so any window sum is four lookups.
type integralImage struct {
	sum, sumSq []float64
	stride     int // cols + 1
}

func newIntegralImage(m *mat.Dense) *integralImage {
	rows, cols := m.Dims()
	raw := m.RawMatrix()
	stride := cols + 1
	ii := &integralImage{
		sum:    make([]float64, (rows+1)*stride),
		sumSq:  make([]float64, (rows+1)*stride),
		stride: stride,
	}
	for r := 0; r < rows; r++ {
		var rowSum, rowSumSq float64
		line := raw.Data[r*raw.Stride : r*raw.Stride+cols]
		for c, v := range line {
			rowSum += v
			rowSumSq += v * v
			off := (r+1)*stride + c + 1
			ii.sum[off] = ii.sum[off-stride] + rowSum
			ii.sumSq[off] = ii.sumSq[off-stride] + rowSumSq
		}
	}
	return ii
}

// window returns the sum and sum of squares over h×w values at (row, col).
func (ii *integralImage) window(row, col, h, w int) (sum, sumSq float64) {
	s := ii.stride
	a := row*s + col
	b := row*s + col + w
	c := (row+h)*s + col
	d := (row+h)*s + col + w
	return ii.sum[d] - ii.sum[b] - ii.sum[c] + ii.sum[a],
		ii.sumSq[d] - ii.sumSq[b] - ii.sumSq[c] + ii.sumSq[a]
}

// zeroMean copies m row-major with its mean removed and returns the sum of
// squared deviations. A near-constant patch reports zero energy.
func zeroMean(m *mat.Dense) (values []float64, energy float64) {
	rows, cols := m.Dims()
	raw := m.RawMatrix()
	values = make([]float64, rows*cols)

	var sum, sumSq float64
	for r := 0; r < rows; r++ {
		for c, v := range raw.Data[r*raw.Stride : r*raw.Stride+cols] {
			values[r*cols+c] = v
			sum += v
			sumSq += v * v
		}
	}
	mean := sum / float64(len(values))
	for i := range values {
		values[i] -= mean
		energy += values[i] * values[i]
	}
	if energy <= flatTolerance*sumSq {
		return values, 0
	}
	return values, energy
}

// ccoeffNormed turns the cross term Σ F·T' (T' zero-mean patch) into the
// normalized correlation coefficient of a window with the given sums.
func ccoeffNormed(cross, sumF, sumSqF, n, patchEnergy float64) float64 {
	if patchEnergy == 0 {
		return 0
	}
	windowEnergy := sumSqF - sumF*sumF/n
	if windowEnergy <= flatTolerance*sumSqF {
		return 0
	}
	score := cross / math.Sqrt(windowEnergy*patchEnergy)
	return math.Max(-1, math.Min(1, score))
}
