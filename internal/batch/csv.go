package batch

import (
	"encoding/csv"
	"io"
	"pongrank/internal/back"
	"strings"
)

const (
	tournamentKey = "Tournament"
	dateKey       = "Date"
)

var (
	adjustmentColumns = [2]string{"Player", "Rating"} // nolint:gochecknoglobals
	matchColumns      = [2]string{"Winner", "Loser"}  // nolint:gochecknoglobals
)

// table is a two-column CSV payload:
//
//	Tournament,Spring Open
//	Date,2024-03-02
//	Player,Rating
//	alice,1000
//
// The column header row is optional.
type table struct {
	header
	rows [][2]string
}

// ParseAdjustmentCSV reads a direct rating assignment table.
func ParseAdjustmentCSV(r io.Reader, autoAddPlayers bool) (back.AdjustmentRequest, error) {
	t, err := readTable(r, adjustmentColumns)
	if err != nil {
		return back.AdjustmentRequest{}, err
	}

	items := make([]back.AdjustmentItem, len(t.rows))
	for k, v := range t.rows {
		items[k] = back.AdjustmentItem{Player: v[0], Rating: v[1]}
	}

	return back.AdjustmentRequest{
		Tournament:     t.tournament,
		Date:           t.date,
		Items:          items,
		AutoAddPlayers: autoAddPlayers,
	}, nil
}

// ParseMatchResultsCSV reads a winner,loser table, row order is match order.
func ParseMatchResultsCSV(r io.Reader, autoAddPlayers bool) (back.MatchResultsRequest, error) {
	t, err := readTable(r, matchColumns)
	if err != nil {
		return back.MatchResultsRequest{}, err
	}

	matches := make([]back.MatchItem, len(t.rows))
	for k, v := range t.rows {
		matches[k] = back.MatchItem{Winner: v[0], Loser: v[1]}
	}

	return back.MatchResultsRequest{
		Tournament:     t.tournament,
		Date:           t.date,
		Matches:        matches,
		AutoAddPlayers: autoAddPlayers,
	}, nil
}

func readTable(r io.Reader, columns [2]string) (table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	records, err := reader.ReadAll()
	if err != nil {
		return table{}, formatError("%s", err)
	}

	if len(records) < 2 {
		return table{}, formatError("expected %s and %s header lines", tournamentKey, dateKey)
	}

	tournament, err := headerValue(records[0], tournamentKey)
	if err != nil {
		return table{}, err
	}

	date, err := headerValue(records[1], dateKey)
	if err != nil {
		return table{}, err
	}

	h, err := newHeader(tournament, date)
	if err != nil {
		return table{}, err
	}

	body := records[2:]
	if len(body) > 0 && isColumnHeader(body[0], columns) {
		body = body[1:]
	}

	ret := table{header: h, rows: make([][2]string, 0, len(body))}
	for k, v := range body {
		if len(v) != 2 {
			return table{}, formatError("row %d: expected 2 fields, got %d", k+1, len(v))
		}

		ret.rows = append(ret.rows, [2]string{strings.TrimSpace(v[0]), strings.TrimSpace(v[1])})
	}

	return ret, nil
}

func headerValue(record []string, key string) (string, error) {
	if len(record) != 2 || !strings.EqualFold(strings.TrimSpace(record[0]), key) {
		return "", formatError("expected a %q header line", key+",…")
	}

	return strings.TrimSpace(record[1]), nil
}

func isColumnHeader(record []string, columns [2]string) bool {
	return len(record) == 2 &&
		strings.EqualFold(strings.TrimSpace(record[0]), columns[0]) &&
		strings.EqualFold(strings.TrimSpace(record[1]), columns[1])
}
