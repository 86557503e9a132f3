package audithook

// Action constants for audit events.
const (
	// Collection actions
	ActionCollectionCreated = "collection.created"
	ActionPolicyUpdated     = "policy.updated"

	// Issuance actions
	ActionClaimAccepted   = "claim.accepted"
	ActionClaimRejected   = "claim.rejected"
	ActionGrantIssued     = "grant.issued"
	ActionSupplyExhausted = "supply.exhausted"

	// Treasury actions
	ActionFundsWithdrawn = "funds.withdrawn"

	// Journal actions
	ActionJournalFlushed = "journal.flushed"
)

// Resource constants for audit events.
const (
	ResourceCollection = "collection"
	ResourcePolicy     = "policy"
	ResourceClaim      = "claim"
	ResourceGrant      = "grant"
	ResourceTreasury   = "treasury"
	ResourceJournal    = "journal"
)

// Category constants for audit events.
const (
	CategoryIssuance = "issuance"
	CategoryAdmin    = "admin"
	CategoryTreasury = "treasury"
	CategoryAccess   = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
