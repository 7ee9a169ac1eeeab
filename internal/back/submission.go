package back

import (
	"fmt"
	"pongrank/internal/util"
	"strings"
	"time"
)

// AdjustmentItem assigns a final rating to a player. Rating is kept as given
// by the submitter, it is validated by the Engine.
type AdjustmentItem struct {
	Player string `json:"player"`
	Rating string `json:"rating"`
}

// AdjustmentRequest is a direct rating assignment submission.
type AdjustmentRequest struct {
	Tournament     string
	Date           time.Time
	Items          []AdjustmentItem
	AutoAddPlayers bool
}

func (r AdjustmentRequest) validate() error {
	if err := validateTournament(r.Tournament, r.Date); err != nil {
		return err
	}

	if len(r.Items) == 0 {
		return fmt.Errorf("%w: no ratings given", ErrInvalidInputFormat)
	}

	return nil
}

// MatchItem is the outcome of a single match.
type MatchItem struct {
	Winner string `json:"winner"`
	Loser  string `json:"loser"`
}

// MatchResultsRequest is a match-result submission, Matches are applied in
// the given order.
type MatchResultsRequest struct {
	Tournament     string
	Date           time.Time
	Matches        []MatchItem
	AutoAddPlayers bool
}

func (r MatchResultsRequest) validate() error {
	if err := validateTournament(r.Tournament, r.Date); err != nil {
		return err
	}

	if len(r.Matches) == 0 {
		return fmt.Errorf("%w: no matches given", ErrInvalidInputFormat)
	}

	return nil
}

func validateTournament(name string, date time.Time) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: missing tournament name", ErrInvalidInputFormat)
	}

	if date.IsZero() {
		return fmt.Errorf("%w: missing tournament date", ErrInvalidInputFormat)
	}

	return nil
}

// Reason tells why a line item was rejected, it is empty for accepted items.
type Reason string

const (
	ReasonInvalidPlayer Reason = "INVALID_PLAYER"
	ReasonInvalidRating Reason = "INVALID_RATING"
	ReasonInvalidWinner Reason = "INVALID_WINNER"
	ReasonInvalidLoser  Reason = "INVALID_LOSER"
)

// SubmissionState is the lifecycle of a submission, COMMITTED and REJECTED
// are terminal.
type SubmissionState string

const (
	StateReceived         SubmissionState = "RECEIVED"
	StateDuplicateChecked SubmissionState = "DUPLICATE_CHECKED"
	StateValidated        SubmissionState = "VALIDATED"
	StateCommitted        SubmissionState = "COMMITTED"
	StateRejected         SubmissionState = "REJECTED"
)

// ItemResult is the outcome of one AdjustmentItem.
type ItemResult struct {
	Line     int             `json:"line"` // 1-based
	Player   string          `json:"player"`
	Rating   string          `json:"rating"`
	Reason   Reason          `json:"reason,omitempty"`
	Snapshot *RatingSnapshot `json:"snapshot,omitempty"`
}

func (r ItemResult) Accepted() bool {
	return r.Reason == ""
}

// MatchOutcome is the rating transfer of one match, Delta points go from the
// loser to the winner.
type MatchOutcome struct {
	WinnerID util.UUIDAsBlob `json:"winner_id"`
	LoserID  util.UUIDAsBlob `json:"loser_id"`
	Delta    int             `json:"delta"`
}

// MatchResult is the outcome of one MatchItem. Outcome is nil for rejected
// matches and for matches involving a never-rated player.
type MatchResult struct {
	Line    int           `json:"line"` // 1-based
	Winner  string        `json:"winner"`
	Loser   string        `json:"loser"`
	Reason  Reason        `json:"reason,omitempty"`
	Outcome *MatchOutcome `json:"outcome,omitempty"`
}

func (r MatchResult) Accepted() bool {
	return r.Reason == ""
}

// Result is what a submission returns when it did not fail as a whole.
// When Processed is false nothing was persisted and Items/Matches only
// contain the rejected lines.
type Result struct {
	Processed  bool             `json:"processed"`
	State      SubmissionState  `json:"state"`
	Tournament *Tournament      `json:"tournament,omitempty"`
	Items      []ItemResult     `json:"items,omitempty"`
	Matches    []MatchResult    `json:"matches,omitempty"`
	Snapshots  []RatingSnapshot `json:"snapshots,omitempty"`
}
