package back

import (
	"pongrank/internal/util"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// A RatingSnapshot is the immutable rating record of one player for one
// tournament. The FinalRating of a player's latest snapshot is their current
// rating.
type RatingSnapshot struct {
	ID util.UUIDAsBlob `json:"id"`
	// Seq is the insertion order, it breaks ties between snapshots sharing
	// the same SnapshotDate.
	Seq          int64                 `json:"-"`
	TournamentID util.UUIDAsBlob       `json:"tournament_id"`
	PlayerID     util.UUIDAsBlob       `json:"player_id"`
	SnapshotDate util.TimeAsDateTimeTZ `json:"snapshot_date"`

	InitialRating int `json:"initial_rating"`
	// FirstPassRating is the rating before any tournament-specific transfer,
	// equal to InitialRating until multi-pass adjustments exist.
	FirstPassRating int `json:"first_pass_rating"`
	FinalRating     int `json:"final_rating"`
}

// newRatingSnapshot creates a snapshot for a player entering a tournament
// with the given current rating, not yet bound to any tournament.
func newRatingSnapshot(playerID util.UUIDAsBlob, current int) RatingSnapshot {
	return RatingSnapshot{
		ID:              util.NewUUIDAsBlob(),
		PlayerID:        playerID,
		InitialRating:   current,
		FirstPassRating: current,
		FinalRating:     current,
	}
}

func (s *RatingSnapshot) stamp(t Tournament) {
	s.TournamentID = t.ID
	s.SnapshotDate = t.Date
}

func (s *RatingSnapshot) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("RatingSnapshot").SetMap(squirrel.Eq{
		"ID":              s.ID,
		"TournamentID":    s.TournamentID,
		"PlayerID":        s.PlayerID,
		"SnapshotDate":    s.SnapshotDate,
		"InitialRating":   s.InitialRating,
		"FirstPassRating": s.FirstPassRating,
		"FinalRating":     s.FinalRating,
	}).ToSql()
	if err != nil {
		return err
	}

	res, err := tx.Exec(query, args...)
	if err != nil {
		return err
	}

	s.Seq, err = res.LastInsertId()
	return err
}

func getLatestSnapshotForPlayer(tx *sqlx.Tx, playerID util.UUIDAsBlob) (RatingSnapshot, error) {
	var ret RatingSnapshot
	query := `SELECT * FROM RatingSnapshot WHERE PlayerID = ?
              ORDER BY SnapshotDate DESC, Seq DESC LIMIT 1`
	if err := tx.Get(&ret, query, playerID); err != nil {
		return RatingSnapshot{}, notFound(err)
	}

	return ret, nil
}

// getSnapshotHistoryForPlayer returns up to limit snapshots, most recent
// first. A limit ≤ 0 returns the whole history.
func getSnapshotHistoryForPlayer(tx *sqlx.Tx, playerID util.UUIDAsBlob, limit int) ([]RatingSnapshot, error) {
	builder := squirrel.Select("*").From("RatingSnapshot").
		Where(squirrel.Eq{"PlayerID": playerID}).
		OrderBy("SnapshotDate DESC", "Seq DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	ret := []RatingSnapshot{}
	if err := tx.Select(&ret, query, args...); err != nil {
		return nil, err
	}

	return ret, nil
}

func getSnapshotsForTournament(tx *sqlx.Tx, tournamentID util.UUIDAsBlob) ([]RatingSnapshot, error) {
	ret := []RatingSnapshot{}
	if err := tx.Select(
		&ret,
		`SELECT * FROM RatingSnapshot WHERE TournamentID = ? ORDER BY Seq ASC`,
		tournamentID,
	); err != nil {
		return nil, err
	}

	return ret, nil
}
