package batch

import (
	"encoding/json"
	"io"
	"pongrank/internal/back"
)

// ratingText accepts a rating given either as a JSON number or a string,
// validation is left to the back.
type ratingText string

func (t *ratingText) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = ""
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = ratingText(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = ratingText(n.String())

	return nil
}

type adjustmentPayload struct {
	Tournament     string `json:"tournament"`
	Date           string `json:"date"`
	AutoAddPlayers *bool  `json:"auto_add_players"`
	Items          []struct {
		Player string     `json:"player"`
		Rating ratingText `json:"rating"`
	} `json:"items"`
}

type matchResultsPayload struct {
	Tournament     string           `json:"tournament"`
	Date           string           `json:"date"`
	AutoAddPlayers *bool            `json:"auto_add_players"`
	Matches        []back.MatchItem `json:"matches"`
}

// DecodeAdjustmentJSON reads a direct rating assignment document, the
// auto-add policy falls back to autoAddDefault when the document omits it.
func DecodeAdjustmentJSON(r io.Reader, autoAddDefault bool) (back.AdjustmentRequest, error) {
	var payload adjustmentPayload
	if err := decodeStrict(r, &payload); err != nil {
		return back.AdjustmentRequest{}, err
	}

	h, err := newHeader(payload.Tournament, payload.Date)
	if err != nil {
		return back.AdjustmentRequest{}, err
	}

	items := make([]back.AdjustmentItem, len(payload.Items))
	for k, v := range payload.Items {
		items[k] = back.AdjustmentItem{Player: v.Player, Rating: string(v.Rating)}
	}

	return back.AdjustmentRequest{
		Tournament:     h.tournament,
		Date:           h.date,
		Items:          items,
		AutoAddPlayers: boolOr(payload.AutoAddPlayers, autoAddDefault),
	}, nil
}

// DecodeMatchResultsJSON reads a match list document.
func DecodeMatchResultsJSON(r io.Reader, autoAddDefault bool) (back.MatchResultsRequest, error) {
	var payload matchResultsPayload
	if err := decodeStrict(r, &payload); err != nil {
		return back.MatchResultsRequest{}, err
	}

	h, err := newHeader(payload.Tournament, payload.Date)
	if err != nil {
		return back.MatchResultsRequest{}, err
	}

	return back.MatchResultsRequest{
		Tournament:     h.tournament,
		Date:           h.date,
		Matches:        payload.Matches,
		AutoAddPlayers: boolOr(payload.AutoAddPlayers, autoAddDefault),
	}, nil
}

func decodeStrict(r io.Reader, dst interface{}) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return formatError("%s", err)
	}

	return nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}

	return *v
}
