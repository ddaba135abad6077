// Package transform implements the Yeo-Johnson power transform used to
// check how much of a column's skewness a power transformation removes.
package transform

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/alexanderjulianmartinez/outlier-watch/internal/table"
)

var eps = math.Nextafter(1, 2) - 1

// YeoJohnsonValue transforms a single value with the given lambda.
func YeoJohnsonValue(x, lambda float64) float64 {
	if x >= 0 {
		if math.Abs(lambda) < eps {
			return math.Log1p(x)
		}
		return (math.Pow(x+1, lambda) - 1) / lambda
	}
	if math.Abs(lambda-2) < eps {
		return -math.Log1p(-x)
	}
	return -(math.Pow(1-x, 2-lambda) - 1) / (2 - lambda)
}

// negLogLikelihood is the Yeo-Johnson profile log-likelihood of lambda,
// negated for minimisation.
func negLogLikelihood(values []float64, lambda float64) float64 {
	n := float64(len(values))
	trans := make([]float64, len(values))
	var jac float64
	for i, x := range values {
		trans[i] = YeoJohnsonValue(x, lambda)
		jac += math.Copysign(math.Log1p(math.Abs(x)), x)
	}
	_, variance := stat.PopMeanVariance(trans, nil)
	if math.IsNaN(variance) || math.IsInf(variance, 0) || variance < 1e-300 {
		return math.Inf(1)
	}
	ll := -n/2*math.Log(variance) + (lambda-1)*jac
	if math.IsNaN(ll) {
		return math.Inf(1)
	}
	return -ll
}

// FitLambda finds the maximum-likelihood lambda for values. A constant
// column has a flat likelihood and gets the identity lambda of 1.
func FitLambda(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("fit lambda: no values")
	}
	if floats.Min(values) == floats.Max(values) {
		return 1, nil
	}
	problem := optimize.Problem{
		Func: func(l []float64) float64 { return negLogLikelihood(values, l[0]) },
	}
	res, err := optimize.Minimize(problem, []float64{1}, nil, &optimize.NelderMead{})
	if res == nil || math.IsNaN(res.X[0]) || math.IsInf(res.X[0], 0) {
		if err == nil {
			err = fmt.Errorf("no finite optimum")
		}
		return 0, fmt.Errorf("fit lambda: %w", err)
	}
	return res.X[0], nil
}

type Lambda struct {
	Column string  `json:"column"`
	Value  float64 `json:"lambda"`
}

// YeoJohnson fits one lambda per column and transforms the column. With
// Standardize set the transformed values are scaled to zero mean and unit
// (population) variance. Missing values stay missing.
type YeoJohnson struct {
	Standardize bool
}

// FitTransform returns a new table with the named columns transformed,
// together with the fitted lambdas in column order.
func (y YeoJohnson) FitTransform(t *table.Table, columns []string) (*table.Table, []Lambda, error) {
	if err := t.Schema().RequireNumeric(columns); err != nil {
		return nil, nil, err
	}
	lambdas := make([]Lambda, 0, len(columns))
	out := t
	for _, name := range columns {
		values, err := t.Numbers(name)
		if err != nil {
			return nil, nil, err
		}
		if len(values) == 0 {
			return nil, nil, &table.EmptyColumnError{Column: name}
		}
		lambda, err := FitLambda(values)
		if err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", name, err)
		}
		lambdas = append(lambdas, Lambda{Column: name, Value: lambda})

		trans := make([]float64, len(values))
		for i, v := range values {
			trans[i] = YeoJohnsonValue(v, lambda)
		}
		mean, scale := 0.0, 1.0
		if y.Standardize {
			var variance float64
			mean, variance = stat.PopMeanVariance(trans, nil)
			if variance > 0 {
				scale = math.Sqrt(variance)
			}
		}

		cells := make([]table.Value, t.Len())
		k := 0
		for i := range cells {
			if _, ok := t.Row(i).Float(name); !ok {
				continue
			}
			cells[i] = table.Float((trans[k] - mean) / scale)
			k++
		}
		out, err = out.ReplaceColumn(name, cells)
		if err != nil {
			return nil, nil, err
		}
	}
	return out, lambdas, nil
}
