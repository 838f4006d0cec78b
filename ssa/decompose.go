package ssa

import (
	"errors"
	"math/cmplx"

	mat_ "github.com/aouyang1/go-pcrforecast/mat"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var ErrDecomposition = errors.New("unable to factorize trajectory matrix")

const (
	// singular values below this fraction of the largest are treated as numerical zero
	singularCutoff = 1e-10

	// largest verticality coefficient allowed before the recurrence becomes ill-conditioned
	maxVerticality = 1.0 - 1e-6

	// characteristic roots with a modulus within this distance of 1 are left untouched
	rootTolerance = 1e-6
)

type decomposition struct {
	singular []float64
	u        *mat.Dense
	rank     int
	coef     []float64
}

// decompose factorizes the trajectory matrix of the window and derives the linear recurrence
// spanned by the leading left singular vectors.
func decompose(window []float64, l int, energyThreshold float64, maxRank int) (decomposition, error) {
	x, err := mat_.NewHankel(window, l)
	if err != nil {
		return decomposition{}, err
	}
	_, k := x.Dims()

	if floats.Norm(window, 2) == 0 {
		return decomposition{
			singular: make([]float64, min(l, k)),
			u:        mat.NewDense(l, min(l, k), nil),
			coef:     make([]float64, l-1),
		}, nil
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return decomposition{}, ErrDecomposition
	}
	sv := svd.Values(nil)
	u := new(mat.Dense)
	svd.UTo(u)

	d := decomposition{
		singular: sv,
		u:        u,
		coef:     make([]float64, l-1),
	}
	d.rank = selectRank(sv, energyThreshold, maxRank)

	// the recurrence divides by 1-nu^2 so drop trailing components until it is well defined
	for ; d.rank > 0; d.rank-- {
		if verticality(u, d.rank) < maxVerticality {
			break
		}
	}
	if d.rank == 0 {
		return d, nil
	}

	nu2 := verticality(u, d.rank)
	for i := 0; i < d.rank; i++ {
		pi := u.At(l-1, i)
		for j := 0; j < l-1; j++ {
			d.coef[j] += pi * u.At(j, i)
		}
	}
	floats.Scale(1.0/(1.0-nu2), d.coef)
	return d, nil
}

// selectRank returns the smallest number of leading components whose squared singular values
// reach the energy threshold, bounded by maxRank and by numerically non-zero components.
func selectRank(sv []float64, energyThreshold float64, maxRank int) int {
	if len(sv) == 0 || sv[0] == 0 {
		return 0
	}

	var total float64
	nonZero := 0
	for _, s := range sv {
		total += s * s
		if s > singularCutoff*sv[0] {
			nonZero++
		}
	}
	limit := min(maxRank, nonZero)

	var cum float64
	rank := 0
	for rank < limit {
		cum += sv[rank] * sv[rank]
		rank++
		if cum/total >= energyThreshold {
			break
		}
	}
	return rank
}

// verticality is the squared norm of the last row of the first rank left singular vectors
func verticality(u *mat.Dense, rank int) float64 {
	l, _ := u.Dims()
	var nu2 float64
	for i := 0; i < rank; i++ {
		pi := u.At(l-1, i)
		nu2 += pi * pi
	}
	return nu2
}

// reconstruct projects the trajectory matrix onto the first rank left singular vectors and
// averages the anti-diagonals back into a series
func (d decomposition) reconstruct(window []float64) ([]float64, error) {
	l, _ := d.u.Dims()
	if d.rank == 0 {
		return make([]float64, len(window)), nil
	}
	x, err := mat_.NewHankel(window, l)
	if err != nil {
		return nil, err
	}

	ur := d.u.Slice(0, l, 0, d.rank)
	var proj mat.Dense
	proj.Mul(ur, ur.T())

	var xr mat.Dense
	xr.Mul(&proj, x)
	return mat_.DiagonalAverage(&xr)
}

// stabilize moves characteristic roots of the recurrence lying outside the unit circle onto
// it and rebuilds the coefficients. coef is ordered oldest lag first, so coef[p-k] multiplies
// the value k steps back.
func stabilize(coef []float64) []float64 {
	p := len(coef)
	if p == 0 {
		return coef
	}

	comp := mat.NewDense(p, p, nil)
	for lag := 1; lag <= p; lag++ {
		comp.Set(0, lag-1, coef[p-lag])
	}
	for i := 1; i < p; i++ {
		comp.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(comp, mat.EigenNone); !ok {
		return coef
	}
	roots := eig.Values(nil)

	var unstable bool
	for i, r := range roots {
		if m := cmplx.Abs(r); m > 1+rootTolerance {
			roots[i] = r / complex(m, 0)
			unstable = true
		}
	}
	if !unstable {
		return coef
	}

	poly := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(poly)+1)
		for k, c := range poly {
			next[k] += c
			next[k+1] -= r * c
		}
		poly = next
	}

	res := make([]float64, p)
	for lag := 1; lag <= p; lag++ {
		res[p-lag] = -real(poly[lag])
	}
	return res
}

// impulseResponse returns the first n weights of the moving average representation of the
// recurrence, starting with psi_0 = 1
func impulseResponse(coef []float64, n int) []float64 {
	p := len(coef)
	psi := make([]float64, n)
	if n == 0 {
		return psi
	}
	psi[0] = 1
	for k := 1; k < n; k++ {
		for lag := 1; lag <= min(k, p); lag++ {
			psi[k] += coef[p-lag] * psi[k-lag]
		}
	}
	return psi
}
