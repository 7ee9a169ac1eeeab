package back

import (
	"pongrank/internal/util"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// A Tournament is a rating event, its name is unique and it is never updated
// once created.
type Tournament struct {
	ID        util.UUIDAsBlob       `json:"id"`
	CreatedAt util.TimeAsTimestamp  `json:"created_at"`
	Name      string                `json:"name"`
	Date      util.TimeAsDateTimeTZ `json:"date"`
}

func NewTournament(name string, date time.Time) Tournament {
	return Tournament{
		ID:        util.NewUUIDAsBlob(),
		CreatedAt: util.Now(),
		Name:      name,
		Date:      util.TimeAsDateTimeTZ(date.UTC()),
	}
}

func (t *Tournament) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Tournament").SetMap(squirrel.Eq{
		"ID":        t.ID,
		"CreatedAt": t.CreatedAt,
		"Name":      t.Name,
		"Date":      t.Date,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		// Two submissions of the same tournament can't both get here as
		// writers are serialized, but the UNIQUE index has the final word.
		if isUniqueViolation(err) {
			return ErrDuplicateTournament
		}
		return err
	}

	return nil
}

func getTournamentByName(tx *sqlx.Tx, name string) (Tournament, error) {
	var ret Tournament
	query := `SELECT * FROM Tournament WHERE Tournament.Name = ? LIMIT 1`
	if err := tx.Get(&ret, query, name); err != nil {
		return Tournament{}, notFound(err)
	}

	return ret, nil
}
