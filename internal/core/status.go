package core

import "strings"

// StatusBucket is the cosmetic class a status string renders with.
type StatusBucket string

const (
	StatusSuccess StatusBucket = "success"
	StatusPending StatusBucket = "pending"
	StatusFailure StatusBucket = "failure"
	StatusNeutral StatusBucket = "neutral"
)

// TxnKind is the cosmetic class of a ledger transaction type.
type TxnKind string

const (
	TxnKindCredit  TxnKind = "credit"
	TxnKindDebit   TxnKind = "debit"
	TxnKindNeutral TxnKind = "neutral"
)

var statusBuckets = map[string]StatusBucket{
	"filed":       StatusSuccess,
	"completed":   StatusSuccess,
	"processed":   StatusSuccess,
	"paid":        StatusSuccess,
	"approved":    StatusSuccess,
	"active":      StatusSuccess,
	"pending":     StatusPending,
	"processing":  StatusPending,
	"partial":     StatusPending,
	"draft":       StatusPending,
	"in_progress": StatusPending,
	"overdue":     StatusFailure,
	"cancelled":   StatusFailure,
	"canceled":    StatusFailure,
	"rejected":    StatusFailure,
	"failed":      StatusFailure,
	"late":        StatusFailure,
}

// ClassifyStatus maps a filing, invoice, payment or credit-note status to a
// bucket. Unknown and empty statuses are neutral.
func ClassifyStatus(status string) StatusBucket {
	key := strings.ToLower(strings.TrimSpace(status))
	key = strings.ReplaceAll(key, " ", "_")
	if b, ok := statusBuckets[key]; ok {
		return b
	}
	return StatusNeutral
}

func ClassifyTxn(txnType string) TxnKind {
	switch strings.ToLower(strings.TrimSpace(txnType)) {
	case "credit", "payment":
		return TxnKindCredit
	case "debit", "invoice":
		return TxnKindDebit
	default:
		return TxnKindNeutral
	}
}
