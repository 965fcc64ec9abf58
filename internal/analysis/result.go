package analysis

import "github.com/KaramelBytes/datalens-cli/internal/table"

// Request is one analysis to run over a table.
type Request struct {
	Mode    Mode     `json:"mode" yaml:"mode"`
	Columns []string `json:"columns" yaml:"columns"`
	Options Options  `json:"options,omitempty" yaml:"options,omitempty"`
}

// Options holds mode-specific parameters. Zero values select the engine defaults.
type Options struct {
	// Clusters is k for clustering.
	Clusters int `json:"clusters,omitempty" yaml:"clusters,omitempty"`
}

// Result carries exactly one mode payload, matching Mode.
type Result struct {
	Mode    Mode     `json:"mode" yaml:"mode"`
	Columns []string `json:"columns" yaml:"columns"`

	Summary      *SummaryResult      `json:"summary,omitempty" yaml:"summary,omitempty"`
	Correlation  *CorrelationResult  `json:"correlation,omitempty" yaml:"correlation,omitempty"`
	Distribution *DistributionResult `json:"distribution,omitempty" yaml:"distribution,omitempty"`
	PCA          *PCAResult          `json:"pca,omitempty" yaml:"pca,omitempty"`
	Clustering   *ClusteringResult   `json:"clustering,omitempty" yaml:"clustering,omitempty"`

	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ValueCount is one entry of a frequency table.
type ValueCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// SummaryResult holds summary_stats output, one entry per requested column.
type SummaryResult struct {
	Columns []ColumnSummary `json:"columns" yaml:"columns"`
}

// ColumnSummary is the summary of one column. Exactly one of Numeric and
// Categorical is set.
type ColumnSummary struct {
	Name     string           `json:"name" yaml:"name"`
	Type     table.ColumnType `json:"type" yaml:"type"`
	NonNull  int              `json:"non_null" yaml:"non_null"`
	Nulls    int              `json:"nulls" yaml:"nulls"`
	Distinct int              `json:"distinct" yaml:"distinct"`

	Numeric     *NumericSummary     `json:"numeric,omitempty" yaml:"numeric,omitempty"`
	Categorical *CategoricalSummary `json:"categorical,omitempty" yaml:"categorical,omitempty"`
}

// NumericSummary holds location and spread of a numeric column.
type NumericSummary struct {
	Mean      float64   `json:"mean" yaml:"mean"`
	Median    float64   `json:"median" yaml:"median"`
	Std       float64   `json:"std" yaml:"std"`
	Min       float64   `json:"min" yaml:"min"`
	Max       float64   `json:"max" yaml:"max"`
	Quartiles Quartiles `json:"quartiles" yaml:"quartiles"`
}

// Quartiles are the 25th, 50th and 75th percentiles.
type Quartiles struct {
	Q1 float64 `json:"q1" yaml:"q1"`
	Q2 float64 `json:"q2" yaml:"q2"`
	Q3 float64 `json:"q3" yaml:"q3"`
}

// CategoricalSummary holds the most frequent values of a column.
type CategoricalSummary struct {
	MostFrequent ValueCount   `json:"most_frequent" yaml:"most_frequent"`
	Top          []ValueCount `json:"top" yaml:"top"`
}

// CorrelationResult is a symmetric Pearson matrix keyed by column name.
type CorrelationResult struct {
	Columns []string                      `json:"columns" yaml:"columns"`
	Matrix  map[string]map[string]float64 `json:"matrix" yaml:"matrix"`
}

// At returns the coefficient for a pair of columns.
func (c *CorrelationResult) At(a, b string) float64 { return c.Matrix[a][b] }

// DistributionResult holds one entry per requested column.
type DistributionResult struct {
	Columns []ColumnDistribution `json:"columns" yaml:"columns"`
}

// ColumnDistribution is the distribution of one column. Error is set when the
// numeric statistics could not be computed; the other payloads are then nil.
type ColumnDistribution struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`

	Categorical *CategoricalDistribution `json:"categorical,omitempty" yaml:"categorical,omitempty"`
	Numeric     *NumericDistribution     `json:"numeric,omitempty" yaml:"numeric,omitempty"`
	Error       string                   `json:"error,omitempty" yaml:"error,omitempty"`
}

// CategoricalDistribution is a full frequency table.
type CategoricalDistribution struct {
	Distribution []ValueCount `json:"distribution" yaml:"distribution"`
	TotalCount   int          `json:"total_count" yaml:"total_count"`
	UniqueCount  int          `json:"unique_count" yaml:"unique_count"`
}

// NumericDistribution holds shape statistics, a normality test and a histogram.
type NumericDistribution struct {
	Skewness  float64   `json:"skewness" yaml:"skewness"`
	Kurtosis  float64   `json:"kurtosis" yaml:"kurtosis"`
	PValue    float64   `json:"p_value" yaml:"p_value"`
	IsNormal  bool      `json:"is_normal" yaml:"is_normal"`
	Histogram Histogram `json:"histogram" yaml:"histogram"`
}

// Histogram has len(Edges) == len(Counts)+1. The last bin includes its right edge.
type Histogram struct {
	Counts []int     `json:"bins" yaml:"bins"`
	Edges  []float64 `json:"bin_edges" yaml:"bin_edges"`
}

// PCAResult holds a full principal component decomposition.
type PCAResult struct {
	ExplainedVarianceRatio []float64   `json:"explained_variance_ratio" yaml:"explained_variance_ratio"`
	Components             [][]float64 `json:"components" yaml:"components"`
	FeatureNames           []string    `json:"feature_names" yaml:"feature_names"`
	Transformed            [][]float64 `json:"transformed_data" yaml:"transformed_data"`
}

// ClusteringResult holds k-means output.
type ClusteringResult struct {
	Labels       []int          `json:"clusters" yaml:"clusters"`
	Clusters     []ClusterStats `json:"cluster_stats" yaml:"cluster_stats"`
	FeatureNames []string       `json:"feature_names" yaml:"feature_names"`
	// Centroids are in standardized units, one row per cluster.
	Centroids [][]float64 `json:"centroids" yaml:"centroids"`
	Inertia   float64     `json:"inertia" yaml:"inertia"`
}

// ClusterStats describes one cluster. Centroid is in original units and is
// nil for an empty cluster.
type ClusterStats struct {
	Label    int                `json:"label" yaml:"label"`
	Size     int                `json:"size" yaml:"size"`
	Centroid map[string]float64 `json:"centroid,omitempty" yaml:"centroid,omitempty"`
}
