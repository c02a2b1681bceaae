package resolve

import "errors"

var (
	ErrInvalidHash    = errors.New("seed hash must be 64 hex characters")
	ErrWindowClosed   = errors.New("commit window closed")
	ErrAlreadyScored  = errors.New("challenge already scored")
	ErrNoParticipants = errors.New("no participants to score")
	ErrUnknownType    = errors.New("unknown challenge type")

	// ErrClientSeedMismatch means a disclosed client seed does not hash to
	// the commitment the participant made while the window was open.
	ErrClientSeedMismatch = errors.New("disclosed client seed does not match commitment")

	// ErrTeamMismatch means a participant's team at scoring time differs
	// from the team recorded on their commitment.
	ErrTeamMismatch = errors.New("team differs from commitment")
)
