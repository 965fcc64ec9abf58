package analysis

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/datalens-cli/internal/table"
)

var errEigen = errors.New("eigendecomposition did not converge")

func principalComponents(cols []*table.Column, w *warnings) (*PCAResult, error) {
	num := numericOnly(cols, w)
	if len(num) < 2 {
		return nil, &InsufficientColumnsError{Mode: ModePCA, Need: 2, Got: len(num), Numeric: true}
	}
	rows, kept := numericMatrix(num)
	if len(rows) < 2 {
		return nil, &InsufficientRowsError{Mode: ModePCA, Need: 2, Got: len(rows)}
	}
	if dropped := num[0].Len() - len(kept); dropped > 0 {
		w.add("%d rows with missing values excluded", dropped)
	}
	standardize(rows)

	n, p := len(rows), len(num)
	z := mat.NewDense(n, p, nil)
	for i, r := range rows {
		z.SetRow(i, r)
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, z, nil)

	var eig mat.EigenSym
	if ok := eig.Factorize(&cov, true); !ok {
		return nil, errEigen
	}
	values := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	order := make([]int, p)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] > values[order[b]] })

	k := p
	if n < k {
		k = n
	}
	total := 0.0
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}
	if total == 0 {
		w.add("all selected columns are constant; explained variance is zero")
	}

	res := &PCAResult{
		ExplainedVarianceRatio: make([]float64, k),
		Components:             make([][]float64, k),
		FeatureNames:           columnNames(num),
		Transformed:            make([][]float64, n),
	}
	for c := 0; c < k; c++ {
		idx := order[c]
		comp := mat.Col(nil, idx, &vecs)
		orientLoadings(comp)
		res.Components[c] = comp
		if total > 0 && values[idx] > 0 {
			res.ExplainedVarianceRatio[c] = values[idx] / total
		}
	}
	for i, r := range rows {
		proj := make([]float64, k)
		for c, comp := range res.Components {
			proj[c] = dot(r, comp)
		}
		res.Transformed[i] = proj
	}
	return res, nil
}

// orientLoadings flips v so that its largest-magnitude entry is positive.
func orientLoadings(v []float64) {
	best := 0
	for i := range v {
		if math.Abs(v[i]) > math.Abs(v[best]) {
			best = i
		}
	}
	if v[best] < 0 {
		for i := range v {
			v[i] = -v[i]
		}
	}
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
