package model

// Sequence is one named counter row. Scope is either the global order
// counter or a per-supervisor request counter; Value is the last number
// issued. Allocation is serialized in the repository, never read-then-write.
type Sequence struct {
	Scope string `gorm:"type:varchar(100);primaryKey" json:"scope"`
	Value int64  `gorm:"not null" json:"value"`
}

// Sequence scope prefixes.
const (
	SequenceScopeOrders        = "purchase_orders"
	SequenceScopeRequestPrefix = "material_requests:" // + supervisor id
)
