package odometry

import (
	"image"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SpatialMatcher slides the patch over every window and computes the
// correlation coefficient directly. Window means and variances come from
// integral images, so only the cross term costs patch-area work.
type SpatialMatcher struct{}

// Name implements Matcher.
func (SpatialMatcher) Name() string { return MatcherSpatial }

// Prepare implements Matcher.
func (SpatialMatcher) Prepare(frame *mat.Dense) (Searcher, error) {
	var owned mat.Dense
	owned.CloneFrom(frame)
	return &spatialSearcher{
		frame:    &owned,
		integral: newIntegralImage(&owned),
	}, nil
}

type spatialSearcher struct {
	frame    *mat.Dense
	integral *integralImage
}

func (s *spatialSearcher) Match(patch *mat.Dense) (Match, error) {
	fh, fw := s.frame.Dims()
	ph, pw := patch.Dims()
	if err := checkPatchFits(fh, fw, ph, pw); err != nil {
		return Match{}, err
	}

	tpl, energy := zeroMean(patch)
	n := float64(ph * pw)
	raw := s.frame.RawMatrix()

	best := Match{Score: math.Inf(-1)}
	for r := 0; r <= fh-ph; r++ {
		for c := 0; c <= fw-pw; c++ {
			var cross float64
			if energy != 0 {
				for i := 0; i < ph; i++ {
					line := raw.Data[(r+i)*raw.Stride+c : (r+i)*raw.Stride+c+pw]
					t := tpl[i*pw : (i+1)*pw]
					for j, v := range line {
						cross += v * t[j]
					}
				}
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

func (s *spatialSearcher) Close() error { return nil }
