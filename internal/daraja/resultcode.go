package daraja

import "github.com/kodisha/rentcore/internal/domain"

// Daraja STK callback ResultCode values this service distinguishes.
// Anything not in this table is treated as a generic failure.
const (
	ResultSuccess           = 0
	ResultInsufficientFunds = 1
	ResultCancelledBySIM    = 17
	ResultSystemBusy        = 26
	ResultCancelledByUser   = 1032
	ResultTimeoutInitiator  = 1037
	ResultInvalidInitiator  = 2001
	ResultStillProcessing   = 4999
)

// TerminalStatusForResultCode maps a Daraja STK query's numeric
// ResultCode to the PaymentIntent terminal status it causes. Cancellation
// codes (17, 1032) become cancelled, the PIN-entry timeout (1037) becomes
// timeout, and everything else non-zero is a failure. The live callback
// path does not use this mapping: per the callback contract every
// non-zero code there transitions the intent to failed, and timeout is
// reserved for the dedicated timeout webhook and TTL reclamation.
func TerminalStatusForResultCode(resultCode int) domain.IntentStatus {
	switch resultCode {
	case ResultSuccess:
		return domain.IntentSuccess
	case ResultCancelledBySIM, ResultCancelledByUser:
		return domain.IntentCancelled
	case ResultTimeoutInitiator:
		return domain.IntentTimeout
	default:
		return domain.IntentFailed
	}
}

// DescribeResultCode returns a human-readable summary for the codes the
// result-code table names; unknown codes fall through to a generic
// failure description.
func DescribeResultCode(resultCode int) string {
	switch resultCode {
	case ResultSuccess:
		return "The service request is processed successfully"
	case ResultInsufficientFunds:
		return "The balance is insufficient for the transaction"
	case ResultCancelledBySIM, ResultCancelledByUser:
		return "Request cancelled by user"
	case ResultSystemBusy:
		return "System busy, the request was not accepted"
	case ResultTimeoutInitiator:
		return "DS timeout, user cannot be reached"
	case ResultInvalidInitiator:
		return "The initiator information is invalid"
	case ResultStillProcessing:
		return "The transaction is still being processed"
	default:
		return "The transaction failed"
	}
}
