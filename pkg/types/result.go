package types

import (
	"encoding/json"
	"math"
)

// Skew is a skewness statistic that may be undefined. Undefined values
// marshal as JSON null.
type Skew struct {
	Value   float64
	Defined bool
}

func (s Skew) MarshalJSON() ([]byte, error) {
	if !s.Defined || math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

func (s *Skew) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Skew{Value: math.NaN()}
		return nil
	}
	if err := json.Unmarshal(data, &s.Value); err != nil {
		return err
	}
	s.Defined = true
	return nil
}

// ColumnResult holds the measurements of one column. The bounds are nil for
// a column skipped for having no values.
type ColumnResult struct {
	Column          string   `json:"column"`
	Q1              *float64 `json:"q1"`
	Q3              *float64 `json:"q3"`
	Lower           *float64 `json:"lower"`
	Upper           *float64 `json:"upper"`
	Outliers        int      `json:"outliers"`
	SkewBefore      Skew     `json:"skewBefore"`
	SkewAfter       Skew     `json:"skewAfter"`
	SkewTransformed *Skew    `json:"skewTransformed,omitempty"`
	Lambda          *float64 `json:"lambda,omitempty"`
	Severity        string   `json:"severity"`
}

type NullCount struct {
	Column  string `json:"column"`
	Missing int    `json:"missing"`
}

type GroupValue struct {
	Group string  `json:"group"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

type Insights struct {
	GroupBy          string       `json:"groupBy"`
	AveragePLU       []GroupValue `json:"averagePlu"`
	TopVolume        []GroupValue `json:"topVolume"`
	Budget           float64      `json:"budget"`
	AffordablePrices []GroupValue `json:"affordablePrices"`
	BestAffordable   *GroupValue  `json:"bestAffordable,omitempty"`
	DailyVolume      []GroupValue `json:"dailyVolume"`
	BestDailyVolume  *GroupValue  `json:"bestDailyVolume,omitempty"`
}

type AnalysisResult struct {
	Source         string         `json:"source"`
	RowsIn         int            `json:"rowsIn"`
	RowsAfterClean int            `json:"rowsAfterClean"`
	RowsOut        int            `json:"rowsOut"`
	NullCounts     []NullCount    `json:"nullCounts"`
	Columns        []ColumnResult `json:"columns"`
	Transform      string         `json:"transform"`
	Insights       *Insights      `json:"insights,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
}

// RowsRemoved is the number of rows dropped as outliers.
func (r *AnalysisResult) RowsRemoved() int {
	return r.RowsAfterClean - r.RowsOut
}
