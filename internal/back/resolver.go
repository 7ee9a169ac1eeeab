package back

import (
	"errors"
	"strings"
)

// A PlayerResolver turns a player name from a submission into a Player.
// ok is false when the name can't be resolved, err is reserved for store
// failures.
type PlayerResolver interface {
	Resolve(name string) (player Player, ok bool, err error)
}

// NewPlayerResolver selects the resolution policy of a submission: create
// unknown players on the fly, or reject them.
func NewPlayerResolver(dir Directory, autoAddPlayers bool) PlayerResolver {
	if autoAddPlayers {
		return autoAddResolver{dir: dir}
	}

	return knownPlayerResolver{dir: dir}
}

type knownPlayerResolver struct {
	dir Directory
}

func (r knownPlayerResolver) Resolve(name string) (Player, bool, error) {
	return unresolvedAsNotOK(r.dir.FindPlayerByName(strings.TrimSpace(name)))
}

type autoAddResolver struct {
	dir Directory
}

func (r autoAddResolver) Resolve(name string) (Player, bool, error) {
	return unresolvedAsNotOK(r.dir.FindOrCreatePlayer(strings.TrimSpace(name)))
}

func unresolvedAsNotOK(player Player, err error) (Player, bool, error) {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidPlayerName) {
		return Player{}, false, nil
	}
	if err != nil {
		return Player{}, false, err
	}

	return player, true, nil
}
