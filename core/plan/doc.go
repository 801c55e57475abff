// Package plan implements the daily planning engine: ranking unscheduled
// addresses by street priority, expanding technician availability into
// 30-minute slots, filtering out blocked or already-booked addresses and
// pairing the two lists positionally under the current stock cap. All
// functions are pure over snapshots handed in by the caller; committing a
// plan produces effects that a store applies in one transaction.
package plan
