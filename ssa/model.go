package ssa

import (
	"fmt"
	"io"

	"github.com/aouyang1/go-pcrforecast/stats"
	"github.com/aouyang1/go-pcrforecast/util"
)

// Model is the state of a fit SSA model
type Model struct {
	Options        Options       `json:"options"`
	Rank           int           `json:"rank"`
	SingularValues []float64     `json:"singular_values"`
	Coefficients   []float64     `json:"coefficients"`
	NoiseVariance  float64       `json:"noise_variance"`
	Observations   int           `json:"observations"`
	Scores         *stats.Scores `json:"scores"`
}

// TablePrint prints the model summary in a human readable form
func (m Model) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if err := m.Options.TablePrint(w, prefix, indent, indentGrowth); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sModel:\n", prefix, util.IndentExpand(indent, indentGrowth)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sRank: %d    Noise Variance: %.5f    Observations: %d\n",
		prefix, util.IndentExpand(indent, indentGrowth+1),
		m.Rank, m.NoiseVariance, m.Observations); err != nil {
		return err
	}
	if m.Scores != nil {
		if _, err := fmt.Fprintf(w, "%s%sMSE: %.5f    MAPE: %.5f    R2: %.5f\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			m.Scores.MSE, m.Scores.MAPE, m.Scores.R2); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "%s%sSingular Values:\n", prefix, util.IndentExpand(indent, indentGrowth+1)); err != nil {
		return err
	}
	for i, sv := range m.SingularValues {
		marker := ""
		if i < m.Rank {
			marker = "*"
		}
		if _, err := fmt.Fprintf(w, "%s%s%3d: %12.5f %s\n",
			prefix, util.IndentExpand(indent, indentGrowth+2), i, sv, marker); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "%s%sCoefficients:\n", prefix, util.IndentExpand(indent, indentGrowth+1)); err != nil {
		return err
	}
	p := len(m.Coefficients)
	for lag := 1; lag <= p; lag++ {
		if _, err := fmt.Fprintf(w, "%s%slag %2d: %12.5f\n",
			prefix, util.IndentExpand(indent, indentGrowth+2), lag, m.Coefficients[p-lag]); err != nil {
			return err
		}
	}
	return nil
}
