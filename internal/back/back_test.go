package back // nolint:testpackage

import (
	"context"
	"io/ioutil"
	"os"
	"pongrank/internal/config"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBack(t *testing.T, conf *config.Config) *Back {
	t.Helper()

	f, err := ioutil.TempFile("", "*.db")
	require.NoError(t, err)
	path := f.Name()
	f.Close()
	t.Cleanup(func() {
		os.Remove(path)
	})

	require.NoError(t, Migrate(path, "../../resources/migrations"))

	back, err := New("sqlite3", path, conf, prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(func() {
		back.Close()
	})

	return back
}

func registerPlayers(t *testing.T, b *Back, names ...string) {
	t.Helper()

	for _, v := range names {
		_, err := b.RegisterPlayer(context.Background(), v, "")
		require.NoError(t, err)
	}
}

func requireRating(t *testing.T, b *Back, name string, expected int) {
	t.Helper()

	summary, err := b.GetPlayer(context.Background(), name)
	require.NoError(t, err)
	assert.True(t, summary.Rated, name)
	assert.Equal(t, expected, summary.Rating, name)
}

func TestSubmitDirectAdjustment(t *testing.T) {
	ctx := context.Background()
	b := createTestBack(t, nil)
	registerPlayers(t, b, "a", "b")

	res, err := b.SubmitDirectAdjustment(ctx, AdjustmentRequest{
		Tournament: "T1",
		Date:       day(2),
		Items:      []AdjustmentItem{{"a", "1000"}, {"b", "1100"}},
	})
	require.NoError(t, err)
	require.True(t, res.Processed)

	requireRating(t, b, "a", 1000)
	requireRating(t, b, "b", 1100)

	tournament, snapshots, err := b.GetTournament(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, res.Tournament.ID, tournament.ID)
	assert.Equal(t, day(2), tournament.Date.Time())
	require.Len(t, snapshots, 2)
	for k, v := range snapshots {
		assert.Equal(t, res.Snapshots[k].ID, v.ID)
		assert.Equal(t, 0, v.InitialRating)
		assert.Equal(t, 0, v.FirstPassRating)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.submissions.WithLabelValues(modeDirect, outcomeCommitted)))
	assert.Equal(t, 2.0, testutil.ToFloat64(b.metrics.snapshots))
}

func TestSubmitDirectAdjustmentRejectedPersistsNothing(t *testing.T) {
	ctx := context.Background()
	b := createTestBack(t, nil)
	registerPlayers(t, b, "a")

	res, err := b.SubmitDirectAdjustment(ctx, AdjustmentRequest{
		Tournament: "T1",
		Date:       day(2),
		Items:      []AdjustmentItem{{"a", "1000"}, {"ghost", "1000"}},
	})
	require.NoError(t, err)

	assert.False(t, res.Processed)
	assert.Equal(t, StateRejected, res.State)
	assert.Equal(t, []ItemResult{{Line: 2, Player: "ghost", Rating: "1000", Reason: ReasonInvalidPlayer}}, res.Items)

	_, _, err = b.GetTournament(ctx, "T1")
	assert.True(t, IsNotFound(err))

	summary, err := b.GetPlayer(ctx, "a")
	require.NoError(t, err)
	assert.False(t, summary.Rated)

	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.submissions.WithLabelValues(modeDirect, outcomeRejected)))
}

func TestSubmitDirectAdjustmentRejectedDropsAutoAddedPlayers(t *testing.T) {
	ctx := context.Background()
	b := createTestBack(t, nil)

	res, err := b.SubmitDirectAdjustment(ctx, AdjustmentRequest{
		Tournament:     "T1",
		Date:           day(2),
		Items:          []AdjustmentItem{{"newcomer", "1000"}, {"other", "lots"}},
		AutoAddPlayers: true,
	})
	require.NoError(t, err)
	require.False(t, res.Processed)

	for _, name := range []string{"newcomer", "other"} {
		_, err := b.GetPlayer(ctx, name)
		assert.True(t, IsNotFound(err), name)
	}

	// The tournament name is still free.
	res, err = b.SubmitDirectAdjustment(ctx, AdjustmentRequest{
		Tournament:     "T1",
		Date:           day(2),
		Items:          []AdjustmentItem{{"newcomer", "1000"}},
		AutoAddPlayers: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Processed)
	requireRating(t, b, "newcomer", 1000)
}

func TestSubmitDuplicateTournament(t *testing.T) {
	ctx := context.Background()
	b := createTestBack(t, nil)
	registerPlayers(t, b, "a", "b")

	_, err := b.SubmitDirectAdjustment(ctx, AdjustmentRequest{
		Tournament: "T1",
		Date:       day(2),
		Items:      []AdjustmentItem{{"a", "1000"}, {"b", "1100"}},
	})
	require.NoError(t, err)

	_, err = b.SubmitDirectAdjustment(ctx, AdjustmentRequest{
		Tournament: "T1",
		Date:       day(3),
		Items:      []AdjustmentItem{{"a", "1500"}},
	})
	assert.ErrorIs(t, err, ErrDuplicateTournament)

	_, err = b.SubmitMatchResults(ctx, MatchResultsRequest{
		Tournament: "T1",
		Date:       day(3),
		Matches:    []MatchItem{{"b", "a"}},
	})
	assert.ErrorIs(t, err, ErrDuplicateTournament)

	requireRating(t, b, "a", 1000)
	requireRating(t, b, "b", 1100)
	assert.Equal(t, 2.0, testutil.ToFloat64(b.metrics.submissions.WithLabelValues(modeDirect, outcomeDuplicate))+
		testutil.ToFloat64(b.metrics.submissions.WithLabelValues(modeTransfer, outcomeDuplicate)))
}

func TestSubmitInvalidFormat(t *testing.T) {
	ctx := context.Background()
	b := createTestBack(t, nil)

	_, err := b.SubmitDirectAdjustment(ctx, AdjustmentRequest{Tournament: "T1", Date: day(2)})
	assert.ErrorIs(t, err, ErrInvalidInputFormat)

	_, err = b.SubmitMatchResults(ctx, MatchResultsRequest{
		Tournament: " ",
		Date:       day(2),
		Matches:    []MatchItem{{"a", "b"}},
	})
	assert.ErrorIs(t, err, ErrInvalidInputFormat)

	_, err = b.SubmitMatchResults(ctx, MatchResultsRequest{
		Tournament: "T1",
		Matches:    []MatchItem{{"a", "b"}},
	})
	assert.ErrorIs(t, err, ErrInvalidInputFormat)
}

func TestSubmitMatchResults(t *testing.T) {
	ctx := context.Background()
	b := createTestBack(t, nil)
	registerPlayers(t, b, "a", "b")

	_, err := b.SubmitDirectAdjustment(ctx, AdjustmentRequest{
		Tournament: "T1",
		Date:       day(2),
		Items:      []AdjustmentItem{{"a", "1000"}, {"b", "1100"}},
	})
	require.NoError(t, err)

	res, err := b.SubmitMatchResults(ctx, MatchResultsRequest{
		Tournament: "T2",
		Date:       day(9),
		Matches:    []MatchItem{{"a", "b"}, {"b", "a"}},
	})
	require.NoError(t, err)
	require.True(t, res.Processed)

	requireRating(t, b, "a", 1016)
	requireRating(t, b, "b", 1084)

	_, history, err := b.GetPlayerHistory(ctx, "a", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 1016, history[0].FinalRating)
	assert.Equal(t, 1000, history[0].InitialRating)
	assert.Equal(t, 1000, history[1].FinalRating)

	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.submissions.WithLabelValues(modeTransfer, outcomeCommitted)))
	assert.Equal(t, 4.0, testutil.ToFloat64(b.metrics.snapshots))
}

func TestSubmitMatchResultsSeedsUnratedWhenConfigured(t *testing.T) {
	ctx := context.Background()
	conf := config.Default()
	conf.SeedUnratedPlayers = true
	b := createTestBack(t, &conf)

	res, err := b.SubmitMatchResults(ctx, MatchResultsRequest{
		Tournament:     "T1",
		Date:           day(2),
		Matches:        []MatchItem{{"a", "b"}},
		AutoAddPlayers: true,
	})
	require.NoError(t, err)
	require.True(t, res.Processed)

	requireRating(t, b, "a", 8)
	requireRating(t, b, "b", -8)
}

func TestPlayerHistoryOrder(t *testing.T) {
	ctx := context.Background()
	b := createTestBack(t, nil)

	submissions := []AdjustmentRequest{
		{Tournament: "T1", Date: day(5), Items: []AdjustmentItem{{"a", "1100"}}},
		{Tournament: "T2", Date: day(1), Items: []AdjustmentItem{{"a", "900"}}},
		{Tournament: "T3", Date: day(5), Items: []AdjustmentItem{{"a", "1200"}}},
	}
	for _, v := range submissions {
		v.AutoAddPlayers = true
		res, err := b.SubmitDirectAdjustment(ctx, v)
		require.NoError(t, err)
		require.True(t, res.Processed)
	}

	// T2 is back-dated, T3 shares T1's date but was recorded later.
	requireRating(t, b, "a", 1200)

	_, history, err := b.GetPlayerHistory(ctx, "a", 0)
	require.NoError(t, err)
	var finals []int
	for _, v := range history {
		finals = append(finals, v.FinalRating)
	}
	assert.Equal(t, []int{1200, 1100, 900}, finals)

	_, history, err = b.GetPlayerHistory(ctx, "a", 2)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	// The back-dated tournament started from the rating at submission time.
	_, snapshots, err := b.GetTournament(ctx, "T2")
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 1100, snapshots[0].InitialRating)
}

func TestRegisterPlayer(t *testing.T) {
	ctx := context.Background()
	b := createTestBack(t, nil)

	player, err := b.RegisterPlayer(ctx, "  Waldner ", "J-O Waldner")
	require.NoError(t, err)
	assert.Equal(t, "Waldner", player.Name)
	assert.Equal(t, "J-O Waldner", player.DisplayName.String)

	_, err = b.RegisterPlayer(ctx, "Waldner", "")
	assert.ErrorIs(t, err, ErrPlayerNameTaken)

	_, err = b.RegisterPlayer(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidPlayerName)

	summary, err := b.GetPlayer(ctx, "Waldner")
	require.NoError(t, err)
	assert.Equal(t, player.ID, summary.ID)
	assert.False(t, summary.Rated)
	assert.Equal(t, 0, summary.Rating)
}

func TestRatingHistoryChart(t *testing.T) {
	ctx := context.Background()
	b := createTestBack(t, nil)
	require.NoError(t, b.LoadFixtures(ctx))

	_, err := b.RatingHistoryChart(ctx, "Waldner")
	assert.ErrorIs(t, err, ErrNotEnoughHistory)

	_, err = b.RatingHistoryChart(ctx, "nobody")
	assert.True(t, IsNotFound(err))

	_, err = b.SubmitMatchResults(ctx, MatchResultsRequest{
		Tournament: "Fixtures Closed",
		Date:       day(1),
		Matches:    []MatchItem{{"Saive", "Waldner"}},
	})
	require.NoError(t, err)

	svg, err := b.RatingHistoryChart(ctx, "Waldner")
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
}

// staleDirectory never sees existing tournaments, as if another writer had
// recorded one between the duplicate check and the insert.
type staleDirectory struct {
	txRepository
}

func (staleDirectory) FindTournamentByName(string) (Tournament, error) {
	return Tournament{}, ErrNotFound
}

func TestDuplicateTournamentCaughtAtInsert(t *testing.T) {
	ctx := context.Background()
	b := createTestBack(t, nil)
	registerPlayers(t, b, "a", "b")

	_, err := b.SubmitDirectAdjustment(ctx, AdjustmentRequest{
		Tournament: "T1",
		Date:       day(2),
		Items:      []AdjustmentItem{{"a", "1000"}, {"b", "1100"}},
	})
	require.NoError(t, err)

	err = b.transaction(ctx, func(tx *sqlx.Tx) error {
		engine := NewEngine(staleDirectory{newTxRepository(tx)}, false)
		_, err := engine.AdjustDirect(AdjustmentRequest{
			Tournament: "T1",
			Date:       day(3),
			Items:      []AdjustmentItem{{"a", "1500"}, {"b", "900"}},
		})
		return err
	})
	assert.ErrorIs(t, err, ErrDuplicateTournament)

	requireRating(t, b, "a", 1000)
	requireRating(t, b, "b", 1100)

	tournament, snapshots, err := b.GetTournament(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, day(2), tournament.Date.Time())
	assert.Len(t, snapshots, 2)

	for _, name := range []string{"a", "b"} {
		_, history, err := b.GetPlayerHistory(ctx, name, 0)
		require.NoError(t, err)
		assert.Len(t, history, 1, name)
	}
}

func TestWithSQLiteOptions(t *testing.T) {
	cases := []struct {
		dsn, expected string
	}{
		{"pongrank.db", "pongrank.db?_txlock=immediate&_foreign_keys=1"},
		{"pongrank.db?cache=shared", "pongrank.db?cache=shared&_txlock=immediate&_foreign_keys=1"},
		{"file:pongrank.db?_txlock=deferred", "file:pongrank.db?_txlock=deferred&_foreign_keys=1"},
		{"pongrank.db?_foreign_keys=0&_txlock=exclusive", "pongrank.db?_foreign_keys=0&_txlock=exclusive"},
	}

	for _, v := range cases {
		assert.Equal(t, v.expected, withSQLiteOptions(v.dsn), v.dsn)
	}
}
