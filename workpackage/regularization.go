package workpackage

import (
	"github.com/shopspring/decimal"
	"github.com/warp/workpackage-engine/generic"
)

// =============================================================================
// REGULARIZATION TOTALS - Per-month split by kind
// =============================================================================

// MonthRegularizations are the regularization totals attributed to one
// calendar month.
type MonthRegularizations struct {
	Returns  decimal.Decimal // RETURN
	Excess   decimal.Decimal // billed EXCESS
	Sobrante decimal.Decimal // billed SOBRANTE_ANTERIOR
	Manual   decimal.Decimal // MANUAL_CONSUMPTION
	Puntual  decimal.Decimal // CONTRATACION_PUNTUAL
}

// ExcessTotal is billed EXCESS plus billed SOBRANTE_ANTERIOR.
func (m MonthRegularizations) ExcessTotal() decimal.Decimal {
	return m.Excess.Add(m.Sobrante)
}

// regularizationIndex groups regularizations by the month of their date.
type regularizationIndex map[generic.MonthKey]MonthRegularizations

func indexRegularizations(regs []Regularization) regularizationIndex {
	idx := make(regularizationIndex)
	for _, r := range regs {
		k := r.Date.MonthKey()
		m := idx[k]
		switch r.Kind {
		case RegReturn:
			m.Returns = m.Returns.Add(r.Quantity)
		case RegExcess:
			if r.Billed() {
				m.Excess = m.Excess.Add(r.Quantity)
			}
		case RegSobranteAnterior:
			if r.Billed() {
				m.Sobrante = m.Sobrante.Add(r.Quantity)
			}
		case RegManualConsumption:
			m.Manual = m.Manual.Add(r.Quantity)
		case RegContratacionPuntual:
			m.Puntual = m.Puntual.Add(r.Quantity)
		}
		idx[k] = m
	}
	return idx
}

func (idx regularizationIndex) month(k generic.MonthKey) MonthRegularizations {
	return idx[k]
}
