package back

import (
	"errors"
	"pongrank/internal/util"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrDuplicateTournament fails a whole submission whose tournament name
	// was already recorded.
	ErrDuplicateTournament = errors.New("tournament already recorded")

	// ErrInvalidInputFormat fails a whole submission whose payload is
	// malformed, before any player or rating is looked at.
	ErrInvalidInputFormat = errors.New("invalid input format")

	// ErrNotFound is returned by finders when nothing matches.
	ErrNotFound = errors.New("not found")

	// ErrInvalidPlayerName is returned when creating a player with an empty
	// or overly long name.
	ErrInvalidPlayerName = util.ErrPublic("player names must be between 1 and 64 characters")

	// ErrPlayerNameTaken is returned when registering an existing name.
	ErrPlayerNameTaken = util.ErrPublic("this name is taken already")

	// errRejected aborts the transaction of a submission that did not
	// validate, it never leaves this package.
	errRejected = errors.New("submission rejected")
)

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
