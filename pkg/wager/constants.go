package wager

const (
	operationDebit     = "debit"
	operationCredit    = "credit"
	operationRefresh   = "refresh"
	operationPlay      = "play"
	operationReconcile = "reconcile"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	referenceDelimiter    = ":"
	referenceSuffixDebit  = "debit"
	referenceSuffixCredit = "credit"

	descriptionPrefixWager = "Wager"
	descriptionPrefixPrize = "Prize"
	descriptionSeparator   = " - "

	errorOperationPlay      = "play"
	errorOperationReconcile = "reconcile"
	errorSubjectWager       = "wager"
	errorSubjectDebit       = "debit"
	errorSubjectCredit      = "credit"
	errorSubjectJournal     = "journal"
	errorCodeInvalid        = "invalid"
	errorCodeInsufficient   = "insufficient_balance"
	errorCodeSubmit         = "submit"
	errorCodeList           = "list"
	errorCodeFind           = "find"

	payoutDecimalPlaces = 2
)
