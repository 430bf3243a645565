package workpackage_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workpackage-engine/generic"
	"github.com/warp/workpackage-engine/workpackage"
)

// =============================================================================
// STANDARD LEDGER
// =============================================================================

func TestStandardLedger_EndToEnd(t *testing.T) {
	// GIVEN: Standard monthly contract, 120h over 2025, Jan=8 and Feb=12
	c := standardContract(yearPeriod("p", 2025, 120))
	c.Metrics = metrics(2025, 8, 12)

	// WHEN: Building the ledger in February
	rows := workpackage.BuildStandardLedger(c, c.Periods[0], decimal.Zero, day(2025, time.February, 15))

	// THEN: 10h contracted per month, balance runs 2 then 0
	require.Len(t, rows, 12)
	assertDec(t, d(10), rows[0].Contracted)
	assertDec(t, d(8), rows[0].Consumed)
	assertDec(t, d(2), rows[0].MonthlyBalance)
	assertDec(t, d(2), rows[0].Accumulated)

	assertDec(t, d(10), rows[1].Contracted)
	assertDec(t, d(12), rows[1].Consumed)
	assertDec(t, d(-2), rows[1].MonthlyBalance)
	assertDec(t, d(0), rows[1].Accumulated)
	assert.Equal(t, "2025-02", rows[1].Label())
}

func TestStandardLedger_BalanceConservation(t *testing.T) {
	// GIVEN: 1200h over 12 months, 100h consumed every month
	c := standardContract(yearPeriod("p", 2025, 1200))
	c.Metrics = metrics(2025, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100)

	rows := workpackage.BuildStandardLedger(c, c.Periods[0], decimal.Zero, day(2025, time.December, 31))

	for _, r := range rows {
		assertDec(t, d(100), r.Contracted, r.Label())
		assertDec(t, decimal.Zero, r.MonthlyBalance, r.Label())
	}
	assertDec(t, decimal.Zero, rows[len(rows)-1].Accumulated)
}

func TestStandardLedger_PuntualLumpSum(t *testing.T) {
	// GIVEN: Bolsa/Puntual period of three months with 300h
	c := standardContract(workpackage.ValidityPeriod{
		ID:            "p",
		Start:         day(2025, time.January, 1),
		End:           day(2025, time.March, 31),
		TotalQuantity: d(300),
	})
	c.Type = workpackage.ContractBolsa
	c.Billing = workpackage.BillingPuntual

	rows := workpackage.BuildStandardLedger(c, c.Periods[0], decimal.Zero, day(2025, time.March, 1))

	// THEN: All scope lands in the first month
	require.Len(t, rows, 3)
	assertDec(t, d(300), rows[0].Contracted)
	assertDec(t, decimal.Zero, rows[1].Contracted)
	assertDec(t, decimal.Zero, rows[2].Contracted)
}

func TestStandardLedger_ReturnNetsConsumption(t *testing.T) {
	c := standardContract(yearPeriod("p", 2025, 1200))
	c.Metrics = metrics(2025, 50)
	c.Regularizations = []workpackage.Regularization{
		{ID: "r", Date: day(2025, time.January, 20), Kind: workpackage.RegReturn, Quantity: d(10)},
	}

	rows := workpackage.BuildStandardLedger(c, c.Periods[0], decimal.Zero, day(2025, time.June, 1))

	assertDec(t, d(40), rows[0].Consumed)
	assertDec(t, d(10), rows[0].Returns)
}

func TestStandardLedger_RegularizationColumns(t *testing.T) {
	// GIVEN: Billed and unbilled excess, a sobrante and a one-off purchase
	c := standardContract(yearPeriod("p", 2025, 1200))
	c.Regularizations = []workpackage.Regularization{
		{Date: day(2025, time.March, 31), Kind: workpackage.RegExcess, Quantity: d(30), IsBilled: billed(true)},
		{Date: day(2025, time.March, 31), Kind: workpackage.RegExcess, Quantity: d(7), IsBilled: billed(false)},
		{Date: day(2025, time.March, 2), Kind: workpackage.RegSobranteAnterior, Quantity: d(5)},
		{Date: day(2025, time.April, 10), Kind: workpackage.RegContratacionPuntual, Quantity: d(40)},
	}

	rows := workpackage.BuildStandardLedger(c, c.Periods[0], decimal.Zero, day(2025, time.December, 1))

	// THEN: Only billed excess and sobrante enter the regularization column
	assertDec(t, d(35), rows[2].Regularization)
	// One-off purchases add to contracted scope
	assertDec(t, d(140), rows[3].Contracted)
	assertDec(t, d(40), rows[3].PuntualContracted)
}

func TestStandardLedger_CurrentMonthIsBanked(t *testing.T) {
	// GIVEN: Today is mid-February
	c := standardContract(yearPeriod("p", 2025, 120))
	c.Metrics = metrics(2025, 8, 6, 1)

	rows := workpackage.BuildStandardLedger(c, c.Periods[0], decimal.Zero, day(2025, time.February, 15))

	// THEN: February is not future and its balance is accumulated
	assert.False(t, rows[1].IsFuture)
	assertDec(t, d(6), rows[1].Accumulated)

	// March is future: its balance is computed but not banked
	assert.True(t, rows[2].IsFuture)
	assertDec(t, d(9), rows[2].MonthlyBalance)
	assertDec(t, d(6), rows[2].Accumulated)
}

func TestStandardLedger_InvertedPeriodIsEmpty(t *testing.T) {
	c := standardContract(workpackage.ValidityPeriod{
		ID:            "p",
		Start:         day(2025, time.June, 1),
		End:           day(2025, time.January, 31),
		TotalQuantity: d(100),
	})

	evo := workpackage.BuildEvolution(c, "", day(2025, time.March, 1))

	require.NotNil(t, evo)
	assert.Empty(t, evo.Months)
	assertDec(t, decimal.Zero, evo.KPIs.Percentage)
	assertDec(t, decimal.Zero, evo.KPIs.BilledPercentage)
	assert.Nil(t, evo.Forecast)
}

func TestBuildEvolution_Idempotent(t *testing.T) {
	c := standardContract(yearPeriod("p-2024", 2024, 600), yearPeriod("p-2025", 2025, 1200))
	c.Metrics = append(metrics(2024, 40, 55, 60), metrics(2025, 90, 120, 101)...)
	c.Regularizations = []workpackage.Regularization{
		{Date: day(2025, time.February, 3), Kind: workpackage.RegReturn, Quantity: d(4)},
	}
	today := day(2025, time.March, 10)

	first := workpackage.BuildEvolution(c, "", today)
	second := workpackage.BuildEvolution(c, "", today)

	assert.Equal(t, first, second)
}

func TestBuildEvolution_NilContract(t *testing.T) {
	assert.Nil(t, workpackage.BuildEvolution(nil, "", day(2025, time.March, 10)))
}

func TestBuildEvolution_SyntheticPeriod(t *testing.T) {
	// GIVEN: A contract without validity periods
	c := standardContract()
	c.Metrics = metrics(2025, 10)

	evo := workpackage.BuildEvolution(c, "", day(2025, time.May, 5))

	// THEN: The calendar year is used with zero scope
	assert.True(t, evo.SelectedPeriod.Synthetic)
	require.Len(t, evo.Months, 12)
	assertDec(t, decimal.Zero, evo.Months[0].Contracted)
	assertDec(t, d(-10), evo.KPIs.Remaining)
	assertDec(t, decimal.Zero, evo.KPIs.Percentage, "zero scope never divides")
}

// =============================================================================
// CARRYOVER
// =============================================================================

func TestCarryover_Continuity(t *testing.T) {
	// GIVEN: Two consecutive yearly periods, 2024 under-consumed by 2h/month
	c := standardContract(yearPeriod("p-2024", 2024, 120), yearPeriod("p-2025", 2025, 120))
	c.Metrics = metrics(2024, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8)
	c.Regularizations = []workpackage.Regularization{
		{Date: day(2024, time.September, 30), Kind: workpackage.RegExcess, Quantity: d(6), IsBilled: billed(true)},
	}
	today := day(2025, time.June, 15)

	// WHEN: Running 2024 standalone and computing the 2025 carryover
	standalone := workpackage.BuildStandardLedger(c, c.Periods[0], decimal.Zero, today)
	initial := workpackage.StandardInitialBalance(c, c.Periods[1], today)

	// THEN: The carryover is the last accumulated value of 2024
	assertDec(t, d(30), standalone[len(standalone)-1].Accumulated)
	assertDec(t, standalone[len(standalone)-1].Accumulated, initial)

	evo := workpackage.BuildEvolution(c, "p-2025", today)
	assertDec(t, d(30), evo.InitialBalance)
	assertDec(t, d(30), evo.Months[0].Accumulated.Sub(evo.Months[0].MonthlyBalance))
}

func TestCarryover_OrphanRegularizations(t *testing.T) {
	// GIVEN: Regularizations dated before the only period
	regs := []workpackage.Regularization{
		{Date: day(2024, time.November, 20), Kind: workpackage.RegReturn, Quantity: d(5)},
		{Date: day(2024, time.December, 1), Kind: workpackage.RegExcess, Quantity: d(10), IsBilled: billed(true)},
		{Date: day(2024, time.December, 2), Kind: workpackage.RegExcess, Quantity: d(7), IsBilled: billed(false)},
		{Date: day(2024, time.December, 3), Kind: workpackage.RegSobranteAnterior, Quantity: d(3)},
		{Date: day(2024, time.December, 4), Kind: workpackage.RegManualConsumption, Quantity: d(9)},
	}
	c := standardContract(yearPeriod("p", 2025, 120))
	c.Regularizations = regs
	today := day(2025, time.March, 1)

	// THEN: Hour pools add RETURN, event pools subtract it
	assertDec(t, d(18), workpackage.StandardInitialBalance(c, c.Periods[0], today))
	assertDec(t, d(8), workpackage.EventsInitialBalance(c, c.Periods[0], today))
}

func TestCarryover_FutureMonthsOfPriorPeriodNotBanked(t *testing.T) {
	// GIVEN: A prior period viewed while it is still running
	c := standardContract(yearPeriod("p-2025", 2025, 120), yearPeriod("p-2026", 2026, 120))
	c.Metrics = metrics(2025, 4, 4)

	initial := workpackage.StandardInitialBalance(c, c.Periods[1], day(2025, time.February, 10))

	// THEN: Only Jan and Feb are banked
	assertDec(t, d(12), initial)
}

// =============================================================================
// EVENTOS LEDGER
// =============================================================================

func TestEventsLedger_CountsQualifyingTickets(t *testing.T) {
	c := &workpackage.Contract{
		ID:   "wp-ev",
		Type: workpackage.ContractEventos,
		Inclusion: workpackage.InclusionFlags{
			IncludedTicketTypes: []string{"Incidencia"},
		},
		Periods: []workpackage.ValidityPeriod{{
			ID: "p", Start: day(2025, time.January, 1), End: day(2025, time.June, 30),
			TotalQuantity: d(60), ScopeUnit: generic.UnitEvents,
		}},
		Tickets: []workpackage.Ticket{
			{IssueKey: "A", IssueType: "Incidencia", Year: 2025, Month: time.January},
			{IssueKey: "B", IssueType: "incidencia", Year: 2025, Month: time.January},
			{IssueKey: "C", IssueType: "Consulta", Year: 2025, Month: time.January},
			{IssueKey: "D", IssueType: "Incidencia", BillingMode: workpackage.ModeTMContraBolsa, Year: 2025, Month: time.January},
			{IssueKey: "E", IssueType: "Incidencia", BillingMode: workpackage.ModeEstimado, Year: 2025, Month: time.January},
			{IssueKey: "F", IssueType: "Incidencia", Year: 2025, Month: time.February},
		},
		Regularizations: []workpackage.Regularization{
			{Date: day(2025, time.February, 5), Kind: workpackage.RegManualConsumption, Quantity: d(2)},
			{Date: day(2025, time.February, 6), Kind: workpackage.RegReturn, Quantity: d(1)},
			{Date: day(2025, time.March, 6), Kind: workpackage.RegExcess, Quantity: d(4), IsBilled: billed(true)},
			{Date: day(2025, time.March, 7), Kind: workpackage.RegSobranteAnterior, Quantity: d(9)},
		},
	}

	rows := workpackage.BuildEventsLedger(c, c.Periods[0], day(2025, time.March, 15))

	require.Len(t, rows, 6)
	assertDec(t, d(10), rows[0].Contracted)
	assertDec(t, d(2), rows[0].Consumed)
	assertDec(t, d(2), rows[1].Consumed, "1 ticket + 2 manual - 1 return")
	assertDec(t, d(4), rows[2].Regularization, "sobrante is not part of the event column")
	for _, r := range rows {
		assertDec(t, decimal.Zero, r.Accumulated)
	}
}

func TestEventsCarryover_ReplaysPriorPeriodTickets(t *testing.T) {
	// GIVEN: A 24-event 2024 period with one qualifying incident, an
	// excluded evolutive and an excluded T&M ticket, a RETURN dated before
	// any period, and a 12-event 2025 period with one incident in January
	c := &workpackage.Contract{
		ID:   "wp-ev",
		Type: workpackage.ContractEventos,
		Periods: []workpackage.ValidityPeriod{
			{ID: "ev-2024", Start: day(2024, time.January, 1), End: day(2024, time.December, 31),
				TotalQuantity: d(24), ScopeUnit: generic.UnitEvents},
			{ID: "ev-2025", Start: day(2025, time.January, 1), End: day(2025, time.December, 31),
				TotalQuantity: d(12), ScopeUnit: generic.UnitEvents},
		},
		Tickets: []workpackage.Ticket{
			{IssueKey: "A", IssueType: "Incidencia", Year: 2024, Month: time.March},
			{IssueKey: "B", IssueType: "Evolutivo", Year: 2024, Month: time.March},
			{IssueKey: "C", IssueType: "Incidencia", BillingMode: workpackage.ModeTMContraBolsa, Year: 2024, Month: time.April},
			{IssueKey: "D", IssueType: "Incidencia", Year: 2025, Month: time.January},
		},
		Regularizations: []workpackage.Regularization{
			{ID: "orphan-return", Date: day(2023, time.November, 20), Kind: workpackage.RegReturn, Quantity: d(3)},
		},
	}

	// WHEN: Building the 2025 evolution in February
	evo := workpackage.BuildEvolution(c, "ev-2025", day(2025, time.February, 10))

	// THEN: 24 contracted - 1 counted in 2024, minus the orphan RETURN
	require.NotNil(t, evo)
	assertDec(t, d(20), evo.EventInitialBalance)
	assertDec(t, decimal.Zero, evo.InitialBalance)

	// AND: KPIs use the event carryover while rows never accumulate
	require.Len(t, evo.Months, 12)
	for _, r := range evo.Months {
		assertDec(t, decimal.Zero, r.Accumulated)
	}
	assertDec(t, d(20), evo.KPIs.InitialBalance)
	assertDec(t, d(2), evo.KPIs.BilledAmount)
	assertDec(t, d(1), evo.KPIs.TotalConsumed)
	assertDec(t, d(21), evo.KPIs.Remaining, "billed 2 + carryover 20 - consumed 1")
	assertDec(t, decimal.RequireFromString("3.125"), evo.KPIs.Percentage, "1 / (12 + 20)")
}

func TestInclusionFlags_Counts(t *testing.T) {
	tests := []struct {
		name      string
		flags     workpackage.InclusionFlags
		issueType string
		mode      workpackage.TicketBillingMode
		want      bool
	}{
		{"plain incident", workpackage.InclusionFlags{}, "Incidencia", workpackage.ModeUnknown, true},
		{"unrecognized label counts as plain", workpackage.InclusionFlags{}, "Incidencia", workpackage.ParseTicketBillingMode(" Soporte 24x7 "), true},
		{"facturable is not evolutive", workpackage.InclusionFlags{}, "Incidencia", workpackage.ModeTMFacturable, true},
		{"evo T&M excluded", workpackage.InclusionFlags{}, "Evolutivo", workpackage.ModeTMContraBolsa, false},
		{"evo T&M included", workpackage.InclusionFlags{IncludeEvoTM: true}, "Evolutivo", workpackage.ModeTMContraBolsa, true},
		{"evolutivo type excluded", workpackage.InclusionFlags{}, "Evolutivo", workpackage.ModeUnknown, false},
		{"estimate mode excluded", workpackage.InclusionFlags{}, "Incidencia", workpackage.ModeBolsaDeHoras, false},
		{"lowercase estimate mode excluded", workpackage.InclusionFlags{}, "Incidencia", workpackage.ModeBolsaDeHorasLower, false},
		{"estimates included", workpackage.InclusionFlags{IncludeEvoEstimates: true}, "Evolutivo", workpackage.ModeEstimado, true},
		{"type not listed", workpackage.InclusionFlags{IncludedTicketTypes: []string{"Incidencia"}}, "Consulta", workpackage.ModeUnknown, false},
		{"type listed case-insensitive", workpackage.InclusionFlags{IncludedTicketTypes: []string{" incidencia "}}, "Incidencia", workpackage.ModeUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.flags.Counts(tt.issueType, tt.mode))
		})
	}
}

// =============================================================================
// KPIs
// =============================================================================

func TestSummarizeKPIs(t *testing.T) {
	c := standardContract(yearPeriod("p", 2025, 120))
	c.Metrics = metrics(2025, 8, 12, 30)
	c.Regularizations = []workpackage.Regularization{
		{Date: day(2025, time.March, 31), Kind: workpackage.RegExcess, Quantity: d(20), IsBilled: billed(true)},
	}
	today := day(2025, time.March, 15)
	rows := workpackage.BuildStandardLedger(c, c.Periods[0], d(10), today)

	k := workpackage.SummarizeKPIs(rows, d(10), today)

	assertDec(t, d(140), k.TotalScope)
	assertDec(t, d(50), k.BilledAmount, "three months of 10 plus billed excess")
	assertDec(t, d(50), k.TotalConsumed)
	assertDec(t, d(10), k.Remaining)
	assertDec(t, decimal.RequireFromString("33.33"), k.Percentage.Round(2))
	assertDec(t, decimal.RequireFromString("35.71"), k.BilledPercentage.Round(2))
}

func TestSummarizeKPIs_NoRows(t *testing.T) {
	k := workpackage.SummarizeKPIs(nil, decimal.Zero, day(2025, time.March, 15))

	assertDec(t, decimal.Zero, k.Percentage)
	assertDec(t, decimal.Zero, k.BilledPercentage)
	assertDec(t, decimal.Zero, k.Remaining)
}
