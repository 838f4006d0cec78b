package pcrforecast

import (
	"fmt"
	"io"

	"github.com/aouyang1/go-pcrforecast/ssa"
)

// Model is a serializable summary of a fit Forecaster
type Model struct {
	Options      *Options  `json:"options"`
	Observations int       `json:"observations"`
	SSA          ssa.Model `json:"ssa_model"`
}

func (m Model) TablePrint(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Forecast:\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  Rate Observations: %d\n", m.Observations); err != nil {
		return err
	}
	if m.Options != nil {
		pipelineOpt := *m.Options
		pipelineOpt.SSAOptions = nil
		if err := pipelineOpt.TablePrint(w, "", "  ", 1); err != nil {
			return err
		}
	}
	return m.SSA.TablePrint(w, "", "  ", 1)
}
