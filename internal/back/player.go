package back

import (
	"database/sql"
	"errors"
	"pongrank/internal/util"
	"strings"
	"unicode/utf8"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

const (
	playerNameMinLength = 1
	playerNameMaxLength = 64
)

// A Player is a competitor identified by its unique name.
type Player struct {
	ID          util.UUIDAsBlob      `json:"id"`
	CreatedAt   util.TimeAsTimestamp `json:"created_at"`
	Name        string               `json:"name"`
	DisplayName null.String          `json:"display_name"`
}

func NewPlayer(name string) Player {
	return Player{
		ID:        util.NewUUIDAsBlob(),
		CreatedAt: util.Now(),
		Name:      name,
	}
}

func normalizePlayerName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if l := utf8.RuneCountInString(name); l < playerNameMinLength || l > playerNameMaxLength {
		return "", ErrInvalidPlayerName
	}

	return name, nil
}

func (p *Player) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Player").SetMap(squirrel.Eq{
		"ID":          p.ID,
		"CreatedAt":   p.CreatedAt,
		"Name":        p.Name,
		"DisplayName": p.DisplayName,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrPlayerNameTaken
		}
		return err
	}

	return nil
}

func getPlayerByName(tx *sqlx.Tx, name string) (Player, error) {
	var ret Player
	query := `SELECT * FROM Player WHERE Player.Name = ? LIMIT 1`
	if err := tx.Get(&ret, query, name); err != nil {
		return Player{}, notFound(err)
	}

	return ret, nil
}

// notFound converts sql.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	return err
}
