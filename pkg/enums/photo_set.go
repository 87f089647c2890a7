package enums

// PhotoSetState tracks a photo-set mutation from staging to its outcome.
type PhotoSetState string

const (
	PhotoSetStatePending   PhotoSetState = "pending"
	PhotoSetStateCommitted PhotoSetState = "committed"
	PhotoSetStateAborted   PhotoSetState = "aborted"
)

func (s PhotoSetState) String() string {
	return string(s)
}

// OrphanReason explains why a blob lost its ledger row without being deleted.
type OrphanReason string

const (
	OrphanReasonCompensation  OrphanReason = "compensation"
	OrphanReasonPhotoDeleted  OrphanReason = "photo_deleted"
	OrphanReasonPhotoReplaced OrphanReason = "photo_replaced"
	OrphanReasonItemDeleted   OrphanReason = "item_deleted"
)

func (r OrphanReason) String() string {
	return string(r)
}
