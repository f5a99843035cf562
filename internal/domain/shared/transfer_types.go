package shared

// Direction identifies which side of a transfer a ledger record represents
type Direction string

const (
	DirectionDebit  Direction = "DEBIT"  // Payer's copy
	DirectionCredit Direction = "CREDIT" // Payee's copy
)

// TransferStatus defines transfer processing states
type TransferStatus string

const (
	TransferStatusPending    TransferStatus = "PENDING"
	TransferStatusProcessing TransferStatus = "PROCESSING"
	TransferStatusCompleted  TransferStatus = "COMPLETED"
	TransferStatusFailed     TransferStatus = "FAILED"
)

// FailureReason defines transfer failure categories
type FailureReason string

const (
	FailureReasonPayerNotFound         FailureReason = "PAYER_NOT_FOUND"
	FailureReasonSelfTransfer          FailureReason = "RECIPIENT_SAME_AS_SENDER"
	FailureReasonInsufficientFunds     FailureReason = "INSUFFICIENT_FUNDS"
	FailureReasonInvalidAmount         FailureReason = "INVALID_AMOUNT"
	FailureReasonEmptyPayeeAddress     FailureReason = "EMPTY_PAYEE_ADDRESS"
	FailureReasonMalformedPayeeAddress FailureReason = "MALFORMED_PAYEE_ADDRESS"
	FailureReasonCurrencyMismatch      FailureReason = "CURRENCY_MISMATCH"
	FailureReasonCommitFailed          FailureReason = "TRANSFER_COMMIT_FAILED"
	FailureReasonUnknownError          FailureReason = "UNKNOWN_ERROR"
)

// OutboxStatus defines ledger-record publishing states. FAILED_TO_PUBLISH is
// the reconciliation-required state: the balance mutation committed but the
// ledger record could not be written after repeated attempts.
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
