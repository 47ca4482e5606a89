package aggregates

// WriteTxOwnership defines who owns write transaction boundaries.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate means aggregate write methods start/manage atomic DB transactions internally.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// WritePolicy names how an aggregate persists repeated actions by the same actor.
type WritePolicy string

const (
	// WritePolicyOverwrite keeps one live row per actor+target; later writes replace it.
	WritePolicyOverwrite WritePolicy = "overwrite"
	// WritePolicyAppend keeps every submission event as new rows.
	WritePolicyAppend WritePolicy = "append"
)

// Contract describes aggregate-level policy expectations.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	WritePolicy      WritePolicy
	Notes            string
}

// Aggregate is the common marker for all aggregate contracts.
// Implementations should return a stable contract description.
type Aggregate interface {
	Contract() Contract
}

// RequiresAggregateOwnedTx returns true when write transaction ownership is aggregate-owned.
func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}
