package enums

// SalesRecordStatus tracks the lifecycle of one ledger entry.
type SalesRecordStatus string

const (
	SalesRecordStatusPending   SalesRecordStatus = "pending"
	SalesRecordStatusCompleted SalesRecordStatus = "completed"
	SalesRecordStatusRefunded  SalesRecordStatus = "refunded"
	SalesRecordStatusCancelled SalesRecordStatus = "cancelled"
)

func (s SalesRecordStatus) IsValid() bool {
	switch s {
	case SalesRecordStatusPending, SalesRecordStatusCompleted, SalesRecordStatusRefunded, SalesRecordStatusCancelled:
		return true
	default:
		return false
	}
}
