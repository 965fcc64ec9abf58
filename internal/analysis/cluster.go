package analysis

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/datalens-cli/internal/table"
)

const (
	kmeansMaxIter = 300
	kmeansTol     = 1e-4
)

func (e *Engine) cluster(ctx context.Context, cols []*table.Column, k int, w *warnings) (*ClusteringResult, error) {
	if k < 1 {
		return nil, &InvalidOptionError{Option: "cluster count", Value: k, Reason: "must be at least 1"}
	}
	num := numericOnly(cols, w)
	if len(num) < 1 {
		return nil, &InsufficientColumnsError{Mode: ModeClustering, Need: 1, Got: 0, Numeric: true}
	}
	raw, kept := numericMatrix(num)
	if len(raw) < k {
		return nil, &InsufficientRowsError{Mode: ModeClustering, Need: k, Got: len(raw)}
	}
	if dropped := num[0].Len() - len(kept); dropped > 0 {
		w.add("%d rows with missing values excluded", dropped)
	}

	z := make([][]float64, len(raw))
	for i, r := range raw {
		z[i] = append([]float64(nil), r...)
	}
	standardize(z)

	km := kmeans{k: k, tol: kmeansTol * meanVariance(z), rng: rand.New(rand.NewSource(e.seed))}
	var best *kmeansRun
	for r := 0; r < e.restarts; r++ {
		run, err := km.run(ctx, z)
		if err != nil {
			return nil, err
		}
		if best == nil || run.inertia < best.inertia {
			best = run
		}
	}

	names := columnNames(num)
	res := &ClusteringResult{
		Labels:       best.labels,
		Clusters:     make([]ClusterStats, k),
		FeatureNames: names,
		Centroids:    best.centers,
		Inertia:      best.inertia,
	}
	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, len(names))
	}
	for i, lbl := range best.labels {
		res.Clusters[lbl].Size++
		for j, v := range raw[i] {
			sums[lbl][j] += v
		}
	}
	for c := range res.Clusters {
		res.Clusters[c].Label = c
		size := res.Clusters[c].Size
		if size == 0 {
			w.add("cluster %d is empty", c)
			continue
		}
		centroid := make(map[string]float64, len(names))
		for j, n := range names {
			centroid[n] = sums[c][j] / float64(size)
		}
		res.Clusters[c].Centroid = centroid
	}
	return res, nil
}

func meanVariance(x [][]float64) float64 {
	if len(x) == 0 {
		return 0
	}
	p := len(x[0])
	col := make([]float64, len(x))
	total := 0.0
	for j := 0; j < p; j++ {
		for i, r := range x {
			col[i] = r[j]
		}
		_, std := stat.PopMeanStdDev(col, nil)
		total += std * std
	}
	return total / float64(p)
}

type kmeans struct {
	k   int
	tol float64
	rng *rand.Rand
}

type kmeansRun struct {
	labels  []int
	centers [][]float64
	inertia float64
}

// run performs one k-means++ initialisation followed by Lloyd iterations.
func (km kmeans) run(ctx context.Context, x [][]float64) (*kmeansRun, error) {
	centers := km.seedCenters(x)
	labels := make([]int, len(x))
	for it := 0; it < kmeansMaxIter; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		assign(x, centers, labels)
		next := km.update(x, centers, labels)
		shift := 0.0
		for c := range centers {
			shift += sqDist(centers[c], next[c])
		}
		centers = next
		if shift <= km.tol {
			break
		}
	}
	inertia := assign(x, centers, labels)
	return &kmeansRun{labels: labels, centers: centers, inertia: inertia}, nil
}

// seedCenters picks k initial centers with D² weighting.
func (km kmeans) seedCenters(x [][]float64) [][]float64 {
	n := len(x)
	chosen := make([]bool, n)
	first := km.rng.Intn(n)
	chosen[first] = true
	centers := [][]float64{append([]float64(nil), x[first]...)}

	d2 := make([]float64, n)
	for i := range x {
		d2[i] = sqDist(x[i], centers[0])
	}
	for len(centers) < km.k {
		total := 0.0
		for _, d := range d2 {
			total += d
		}
		pick := -1
		if total > 0 {
			target := km.rng.Float64() * total
			acc := 0.0
			for i, d := range d2 {
				acc += d
				if d > 0 && acc >= target {
					pick = i
					break
				}
			}
		}
		if pick < 0 {
			// Every point coincides with a center; take the next unused one.
			for i := range chosen {
				if !chosen[i] {
					pick = i
					break
				}
			}
		}
		chosen[pick] = true
		c := append([]float64(nil), x[pick]...)
		centers = append(centers, c)
		for i := range x {
			if d := sqDist(x[i], c); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centers
}

// assign labels each point with its nearest center and returns the inertia.
func assign(x, centers [][]float64, labels []int) float64 {
	inertia := 0.0
	for i, p := range x {
		best, bestD := 0, math.Inf(1)
		for c, ctr := range centers {
			if d := sqDist(p, ctr); d < bestD {
				best, bestD = c, d
			}
		}
		labels[i] = best
		inertia += bestD
	}
	return inertia
}

// update recomputes centers as member means. An empty cluster is moved to
// the point farthest from its current center.
func (km kmeans) update(x, centers [][]float64, labels []int) [][]float64 {
	p := len(x[0])
	next := make([][]float64, len(centers))
	sizes := make([]int, len(centers))
	for c := range next {
		next[c] = make([]float64, p)
	}
	for i, lbl := range labels {
		sizes[lbl]++
		for j, v := range x[i] {
			next[lbl][j] += v
		}
	}
	var taken map[int]bool
	for c := range next {
		if sizes[c] > 0 {
			for j := range next[c] {
				next[c][j] /= float64(sizes[c])
			}
			continue
		}
		if taken == nil {
			taken = make(map[int]bool)
		}
		far, farD := -1, -1.0
		for i, pt := range x {
			if taken[i] {
				continue
			}
			if d := sqDist(pt, centers[labels[i]]); d > farD {
				far, farD = i, d
			}
		}
		if far < 0 {
			copy(next[c], centers[c])
			continue
		}
		taken[far] = true
		copy(next[c], x[far])
	}
	return next
}

func sqDist(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}
