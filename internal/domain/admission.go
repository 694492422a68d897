package domain

// RejectReason is the filter pipeline's reason code for rejecting an observation.
type RejectReason string

// Reject reasons, in the order the pipeline checks them.
const (
	RejectNone                RejectReason = ""
	RejectRugSignal           RejectReason = "RUG_SIGNAL"
	RejectAboveHardCap        RejectReason = "MCAP_ABOVE_HARD_CAP"
	RejectMarketCapOutOfBand  RejectReason = "MCAP_OUT_OF_BAND"
	RejectHoldersBelowMin     RejectReason = "HOLDERS_BELOW_MIN"
	RejectDevHoldingTooHigh   RejectReason = "DEV_HOLDING_TOO_HIGH"
	RejectLiquidityBelowMin   RejectReason = "LIQUIDITY_BELOW_MIN"
	RejectMomentumRequired    RejectReason = "MOMENTUM_REQUIRED"
	RejectScoreBelowThreshold RejectReason = "SCORE_BELOW_THRESHOLD"
)

// AllRejectReasons lists every non-empty reject reason in check order.
var AllRejectReasons = []RejectReason{
	RejectRugSignal,
	RejectAboveHardCap,
	RejectMarketCapOutOfBand,
	RejectHoldersBelowMin,
	RejectDevHoldingTooHigh,
	RejectLiquidityBelowMin,
	RejectMomentumRequired,
	RejectScoreBelowThreshold,
}

// AdmissionOutcome is the portfolio's answer to an admitted observation.
type AdmissionOutcome string

// Admission outcomes. Only OutcomeOpened changes portfolio state.
const (
	OutcomeOpened              AdmissionOutcome = "OPENED"
	OutcomeAlreadyOpen         AdmissionOutcome = "ALREADY_OPEN"
	OutcomeCapacityExhausted   AdmissionOutcome = "CAPACITY_EXHAUSTED"
	OutcomeInsufficientCapital AdmissionOutcome = "INSUFFICIENT_CAPITAL"
	OutcomeInvalidObservation  AdmissionOutcome = "INVALID_OBSERVATION"
)
