package back

import (
	"errors"
	"pongrank/internal/util"
	"time"

	"github.com/jmoiron/sqlx"
)

// Directory resolves players and tournaments by name.
type Directory interface {
	FindPlayerByName(name string) (Player, error)
	CreatePlayer(name string) (Player, error)
	FindOrCreatePlayer(name string) (Player, error)
	FindTournamentByName(name string) (Tournament, error)
	CreateTournament(name string, date time.Time) (Tournament, error)
}

// HistoryStore is the append-only rating history of every player.
type HistoryStore interface {
	// LatestSnapshotForPlayer returns ErrNotFound for never-rated players.
	LatestSnapshotForPlayer(playerID util.UUIDAsBlob) (RatingSnapshot, error)
	SnapshotHistoryForPlayer(playerID util.UUIDAsBlob, limit int) ([]RatingSnapshot, error)
	SaveSnapshot(*RatingSnapshot) error
}

// Repository is everything the Engine reads and writes.
type Repository interface {
	Directory
	HistoryStore
}

// txRepository implements Repository on top of a single transaction, the
// Engine never sees anything outside of it.
type txRepository struct {
	tx *sqlx.Tx
}

func newTxRepository(tx *sqlx.Tx) txRepository {
	return txRepository{tx: tx}
}

func (r txRepository) FindPlayerByName(name string) (Player, error) {
	return getPlayerByName(r.tx, name)
}

func (r txRepository) CreatePlayer(name string) (Player, error) {
	name, err := normalizePlayerName(name)
	if err != nil {
		return Player{}, err
	}

	player := NewPlayer(name)
	if err := player.insert(r.tx); err != nil {
		return Player{}, err
	}

	return player, nil
}

func (r txRepository) FindOrCreatePlayer(name string) (Player, error) {
	player, err := r.FindPlayerByName(name)
	if errors.Is(err, ErrNotFound) {
		return r.CreatePlayer(name)
	}

	return player, err
}

func (r txRepository) FindTournamentByName(name string) (Tournament, error) {
	return getTournamentByName(r.tx, name)
}

func (r txRepository) CreateTournament(name string, date time.Time) (Tournament, error) {
	t := NewTournament(name, date)
	if err := t.insert(r.tx); err != nil {
		return Tournament{}, err
	}

	return t, nil
}

func (r txRepository) LatestSnapshotForPlayer(playerID util.UUIDAsBlob) (RatingSnapshot, error) {
	return getLatestSnapshotForPlayer(r.tx, playerID)
}

func (r txRepository) SnapshotHistoryForPlayer(playerID util.UUIDAsBlob, limit int) ([]RatingSnapshot, error) {
	return getSnapshotHistoryForPlayer(r.tx, playerID, limit)
}

func (r txRepository) SaveSnapshot(s *RatingSnapshot) error {
	if s.ID.IsZero() {
		s.ID = util.NewUUIDAsBlob()
	}

	return s.insert(r.tx)
}
