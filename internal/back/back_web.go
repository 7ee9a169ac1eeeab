package back

// This file contains read-side functions for the API and the CLI.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"pongrank/internal/util"

	"github.com/jmoiron/sqlx"
	chart "github.com/wcharczuk/go-chart/v2"
	"gopkg.in/guregu/null.v4"
)

// PlayerSummary is a player along with its current rating.
type PlayerSummary struct {
	Player
	Rating int  `json:"rating"`
	Rated  bool `json:"rated"`
}

func getPlayerSummary(tx *sqlx.Tx, name string) (PlayerSummary, error) {
	player, err := getPlayerByName(tx, name)
	if err != nil {
		return PlayerSummary{}, err
	}

	rating, rated, err := newEngineForRead(tx).currentRating(player.ID)
	if err != nil {
		return PlayerSummary{}, err
	}

	return PlayerSummary{Player: player, Rating: rating, Rated: rated}, nil
}

func newEngineForRead(tx *sqlx.Tx) *Engine {
	return NewEngine(newTxRepository(tx), false)
}

func (b *Back) GetPlayer(ctx context.Context, name string) (ret PlayerSummary, _ error) {
	return ret, b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		ret, err = getPlayerSummary(tx, name)
		return err
	})
}

// RegisterPlayer explicitly creates a player, its name must not be taken.
func (b *Back) RegisterPlayer(ctx context.Context, name, displayName string) (player Player, _ error) {
	name, err := normalizePlayerName(name)
	if err != nil {
		return Player{}, err
	}

	player = NewPlayer(name)
	player.DisplayName = null.NewString(displayName, displayName != "")
	if err := b.transaction(ctx, player.insert); err != nil {
		return Player{}, err
	}

	return player, nil
}

// GetPlayerHistory returns up to limit snapshots of a player, most recent
// first.
func (b *Back) GetPlayerHistory(ctx context.Context, name string, limit int) (player Player, history []RatingSnapshot, _ error) {
	if err := b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		player, err = getPlayerByName(tx, name)
		if err != nil {
			return err
		}

		history, err = getSnapshotHistoryForPlayer(tx, player.ID, limit)
		return err
	}); err != nil {
		return Player{}, nil, err
	}

	return player, history, nil
}

// GetTournament returns a tournament and the snapshots it created.
func (b *Back) GetTournament(ctx context.Context, name string) (tournament Tournament, snapshots []RatingSnapshot, _ error) {
	if err := b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		tournament, err = getTournamentByName(tx, name)
		if err != nil {
			return err
		}

		snapshots, err = getSnapshotsForTournament(tx, tournament.ID)
		return err
	}); err != nil {
		return Tournament{}, nil, err
	}

	return tournament, snapshots, nil
}

// ErrNotEnoughHistory is returned when a chart would have less than two
// points.
var ErrNotEnoughHistory = util.ErrPublic("not enough rating history to draw a chart")

// RatingHistoryChart renders the rating history of a player as SVG.
func (b *Back) RatingHistoryChart(ctx context.Context, name string) ([]byte, error) {
	_, history, err := b.GetPlayerHistory(ctx, name, 0)
	if err != nil {
		return nil, err
	}

	return renderRatingHistory(history)
}

func renderRatingHistory(history []RatingSnapshot) ([]byte, error) {
	if len(history) < 2 {
		return nil, ErrNotEnoughHistory
	}

	// History is most recent first, charts go left to right.
	x := make([]float64, len(history))
	y := make([]float64, len(history))
	dates := make([]string, len(history))
	min, max := math.MaxFloat64, -math.MaxFloat64
	for i := range history {
		s := history[len(history)-1-i]
		x[i] = float64(i)
		y[i] = float64(s.FinalRating)
		dates[i] = util.Date(s.SnapshotDate)
		min = math.Min(min, y[i])
		max = math.Max(max, y[i])
	}

	graph := chart.Chart{
		Width:      864,
		Height:     256,
		Canvas:     chart.Style{FillColor: chart.ColorTransparent},
		Background: chart.Style{FillColor: chart.ColorTransparent},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				f, ok := v.(float64)
				if !ok {
					return ""
				}
				i := int(math.Round(f))
				if i < 0 || i >= len(dates) {
					return ""
				}
				return dates[i]
			},
		},
		YAxis: chart.YAxis{
			// A flat history would yield an empty range.
			Range: &chart.ContinuousRange{Min: min - 10, Max: max + 10},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Rating",
				XValues: x,
				YValues: y,
			},
		},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.SVG, &buf); err != nil {
		return nil, fmt.Errorf("unable to render chart: %w", err)
	}

	return buf.Bytes(), nil
}

// IsNotFound reports whether err means the requested entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
