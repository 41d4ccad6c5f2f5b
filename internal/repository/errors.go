// Package repository defines the persistence contracts of the booking
// backend together with their MySQL implementations.  Sentinel errors below
// are shared by every backend so that the service layer can branch on them
// without knowing which store is in use.
package repository

import "errors"

// ErrNotFound is returned by single-record lookups when no row matches.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert collides with a unique key, such
// as a second slot for the same (date, time, service_type).
var ErrDuplicate = errors.New("duplicate record")

// ErrSlotTaken is returned by BookSlot when the conditional
// available -> booked transition matched no row: the slot was booked (or
// otherwise changed) by someone else between the read and the write.
var ErrSlotTaken = errors.New("slot no longer available")
