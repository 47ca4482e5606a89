// Package aggregates implements the ranking aggregate contracts.
//
// Every write runs in one transaction owned by the aggregate: the action
// ledger gate, eligibility checks over loaded facts, the business write and
// the tally read all share it, so a rejected or failed write leaves no ledger
// row behind.
package aggregates
