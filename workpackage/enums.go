package workpackage

import (
	"strings"

	"github.com/warp/workpackage-engine/generic"
)

// =============================================================================
// ENUM PARSING - The only place free text is compared as strings
// =============================================================================

// ParseContractType maps tracker/CRM labels onto a ContractType.
func ParseContractType(s string) (ContractType, error) {
	switch normalizeEnum(s) {
	case "BOLSA", "BOLSA DE HORAS", "BOLSA_HORAS", "":
		return ContractBolsa, nil
	case "STANDARD", "ESTANDAR", "ESTÁNDAR":
		return ContractStandard, nil
	case "EVENTOS", "EVENTS":
		return ContractEventos, nil
	}
	return "", &generic.EnumError{Field: "contract type", Value: s}
}

// ParseBillingType maps billing labels onto a BillingType. Unknown labels
// are recurring billing; only Puntual changes ledger math.
func ParseBillingType(s string) BillingType {
	switch normalizeEnum(s) {
	case "PUNTUAL":
		return BillingPuntual
	case "TRIMESTRAL":
		return BillingTrimestral
	case "SEMESTRAL":
		return BillingSemestral
	case "ANUAL":
		return BillingAnual
	default:
		return BillingMensual
	}
}

// ParseRegularizationKind maps a stored kind onto the closed set.
func ParseRegularizationKind(s string) (RegularizationKind, error) {
	switch k := RegularizationKind(normalizeEnum(s)); k {
	case RegReturn, RegExcess, RegSobranteAnterior, RegManualConsumption, RegContratacionPuntual:
		return k, nil
	}
	return "", &generic.EnumError{Field: "regularization kind", Value: s}
}

// ParseRegularizationType maps a cadence label onto a RegularizationType.
// Unrecognized cadences yield RegTypeNone, which never forecasts.
func ParseRegularizationType(s string) RegularizationType {
	switch n := normalizeEnum(s); n {
	case "MENSUAL":
		return RegTypeMensual
	case "TRIMESTRAL":
		return RegTypeTrimestral
	case "FIN_Q_NATURAL":
		return RegTypeFinQNatural
	case "SEMESTRAL":
		return RegTypeSemestral
	case "ANUAL":
		return RegTypeAnual
	case "FIN_AÑO_NATURAL", "FIN_ANO_NATURAL":
		return RegTypeFinAnoNatural
	case "FIN_JUNIO_DICIEMBRE":
		return RegTypeFinJunioDiciembre
	}
	return RegTypeNone
}

// ParseTicketBillingMode keeps the tracker's label, trimmed. Labels that are
// not a known member are kept verbatim and never match a billing rule.
func ParseTicketBillingMode(s string) TicketBillingMode {
	return TicketBillingMode(strings.TrimSpace(s))
}

// ParseReviewStatus maps a stored status onto ReviewStatus.
func ParseReviewStatus(s string) ReviewStatus {
	switch ReviewStatus(normalizeEnum(s)) {
	case ReviewApproved:
		return ReviewApproved
	case ReviewRejected:
		return ReviewRejected
	default:
		return ReviewPending
	}
}
