package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The approve and reject paths execute against a live transaction, which
// these tests cannot open. They pin the statements instead: the slot row
// lock, the approved-only recount, and the status guards on both flips.
func TestApproveStatements(t *testing.T) {
	assert.Contains(t, queryLockSlot, "FOR UPDATE")
	assert.Contains(t, queryLockSlot, "FROM slots")

	assert.Contains(t, queryCountApproved, "SELECT COUNT(*) FROM bookings")
	assert.Contains(t, queryCountApproved, "slot_id = $1 AND status = $2")

	// Approve flips pending rows only, so a booking that already left
	// pending updates zero rows and surfaces an invalid transition.
	assert.Contains(t, queryApprove, "WHERE id = $3 AND status = $4")
}

func TestRejectStatement(t *testing.T) {
	// Reject is legal from pending and approved, nothing else.
	assert.Contains(t, queryReject, "WHERE id = $3 AND status IN ($4, $5)")
}
