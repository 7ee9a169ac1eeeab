package back

import (
	"errors"
	"log"
	"math"
	"pongrank/internal/util"
	"strconv"
	"strings"
)

// Engine applies tournament submissions to a Repository. It does not manage
// transactions, the caller must hand it a Repository bound to one and discard
// every write when the returned Result is not processed.
type Engine struct {
	repo Repository

	// seedUnrated gives players without history an implicit 0 rating in
	// match-result submissions, they are left out otherwise.
	seedUnrated bool
}

func NewEngine(repo Repository, seedUnrated bool) *Engine {
	return &Engine{
		repo:        repo,
		seedUnrated: seedUnrated,
	}
}

// AdjustDirect assigns the submitted final rating to every player.
func (e *Engine) AdjustDirect(req AdjustmentRequest) (Result, error) {
	e.advance(req.Tournament, StateReceived)
	if err := e.checkDuplicate(req.Tournament); err != nil {
		return Result{}, err
	}
	e.advance(req.Tournament, StateDuplicateChecked)

	resolver := NewPlayerResolver(e.repo, req.AutoAddPlayers)
	items := make([]ItemResult, len(req.Items))
	candidates := make([]RatingSnapshot, 0, len(req.Items))
	candidateLines := make([]int, 0, len(req.Items))
	rejected := false

	for k, v := range req.Items {
		items[k] = ItemResult{Line: k + 1, Player: v.Player, Rating: v.Rating}

		player, ok, err := resolver.Resolve(v.Player)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			items[k].Reason = ReasonInvalidPlayer
			rejected = true
			continue
		}

		final, ok := parseRating(v.Rating)
		if !ok {
			items[k].Reason = ReasonInvalidRating
			rejected = true
			continue
		}

		current, _, err := e.currentRating(player.ID)
		if err != nil {
			return Result{}, err
		}

		candidate := newRatingSnapshot(player.ID, current)
		candidate.FinalRating = final
		candidates = append(candidates, candidate)
		candidateLines = append(candidateLines, k)
	}

	if rejected {
		e.advance(req.Tournament, StateRejected)
		return rejectedResult(items, nil), nil
	}
	e.advance(req.Tournament, StateValidated)

	tournament, err := e.repo.CreateTournament(strings.TrimSpace(req.Tournament), req.Date)
	if err != nil {
		return Result{}, err
	}

	if err := e.saveSnapshots(tournament, candidates); err != nil {
		return Result{}, err
	}

	for k := range candidates {
		snapshot := candidates[k]
		items[candidateLines[k]].Snapshot = &snapshot
	}

	return Result{
		Processed:  true,
		State:      StateCommitted,
		Tournament: &tournament,
		Items:      items,
		Snapshots:  candidates,
	}, nil
}

// ratedPlayer is an entry of the rating map a match-result submission is
// computed against.
type ratedPlayer struct {
	id     util.UUIDAsBlob
	rating int
}

// ratingMap holds the current rating of the players of a submission in the
// order they are first referenced.
type ratingMap struct {
	order   []util.UUIDAsBlob
	ratings map[util.UUIDAsBlob]ratedPlayer
}

func newRatingMap(capacity int) *ratingMap {
	return &ratingMap{
		order:   make([]util.UUIDAsBlob, 0, capacity),
		ratings: make(map[util.UUIDAsBlob]ratedPlayer, capacity),
	}
}

func (m *ratingMap) add(id util.UUIDAsBlob, rating int) {
	if _, ok := m.ratings[id]; ok {
		return
	}

	m.order = append(m.order, id)
	m.ratings[id] = ratedPlayer{id: id, rating: rating}
}

func (m *ratingMap) get(id util.UUIDAsBlob) (ratedPlayer, bool) {
	p, ok := m.ratings[id]
	return p, ok
}

// fold builds fresh snapshots from the map and applies every outcome in
// order. The map itself is left untouched.
func (m *ratingMap) fold(outcomes []MatchOutcome) []RatingSnapshot {
	snapshots := make([]RatingSnapshot, len(m.order))
	index := make(map[util.UUIDAsBlob]int, len(m.order))
	for k, id := range m.order {
		snapshots[k] = newRatingSnapshot(id, m.ratings[id].rating)
		index[id] = k
	}

	for _, v := range outcomes {
		snapshots[index[v.WinnerID]].FinalRating += v.Delta
		snapshots[index[v.LoserID]].FinalRating -= v.Delta
	}

	return snapshots
}

// TransferMatches computes every match against the ratings the players had
// before the tournament, then folds the transfers in match order.
func (e *Engine) TransferMatches(req MatchResultsRequest) (Result, error) {
	e.advance(req.Tournament, StateReceived)
	if err := e.checkDuplicate(req.Tournament); err != nil {
		return Result{}, err
	}
	e.advance(req.Tournament, StateDuplicateChecked)

	ratings, err := e.resolveRatings(req.Matches)
	if err != nil {
		return Result{}, err
	}

	resolver := NewPlayerResolver(e.repo, req.AutoAddPlayers)
	results := make([]MatchResult, len(req.Matches))
	outcomes := make([]MatchOutcome, 0, len(req.Matches))
	rejected := false

	for k, v := range req.Matches {
		results[k] = MatchResult{Line: k + 1, Winner: v.Winner, Loser: v.Loser}

		winner, ok, err := resolver.Resolve(v.Winner)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			results[k].Reason = ReasonInvalidWinner
			rejected = true
			continue
		}

		loser, ok, err := resolver.Resolve(v.Loser)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			results[k].Reason = ReasonInvalidLoser
			rejected = true
			continue
		}

		if e.seedUnrated {
			ratings.add(winner.ID, 0)
			ratings.add(loser.ID, 0)
		}

		w, wok := ratings.get(winner.ID)
		l, lok := ratings.get(loser.ID)
		if !wok || !lok {
			log.Printf("debug: %s line %d: %s vs %s involves an unrated player, no transfer",
				req.Tournament, k+1, v.Winner, v.Loser)
			continue
		}

		outcome := MatchOutcome{
			WinnerID: winner.ID,
			LoserID:  loser.ID,
			Delta:    TransferDelta(w.rating, l.rating),
		}
		outcomes = append(outcomes, outcome)
		results[k].Outcome = &outcome
	}

	if rejected {
		e.advance(req.Tournament, StateRejected)
		return rejectedResult(nil, results), nil
	}
	e.advance(req.Tournament, StateValidated)

	snapshots := ratings.fold(outcomes)

	tournament, err := e.repo.CreateTournament(strings.TrimSpace(req.Tournament), req.Date)
	if err != nil {
		return Result{}, err
	}

	if err := e.saveSnapshots(tournament, snapshots); err != nil {
		return Result{}, err
	}

	return Result{
		Processed:  true,
		State:      StateCommitted,
		Tournament: &tournament,
		Matches:    results,
		Snapshots:  snapshots,
	}, nil
}

// resolveRatings returns the current rating of every already rated player
// referenced by the matches. Unknown and never-rated players are skipped.
func (e *Engine) resolveRatings(matches []MatchItem) (*ratingMap, error) {
	names := distinctPlayerNames(matches)
	ratings := newRatingMap(len(names))

	for _, name := range names {
		player, err := e.repo.FindPlayerByName(name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		rating, rated, err := e.currentRating(player.ID)
		if err != nil {
			return nil, err
		}
		if rated {
			ratings.add(player.ID, rating)
		}
	}

	return ratings, nil
}

func distinctPlayerNames(matches []MatchItem) []string {
	seen := make(map[string]struct{}, len(matches)*2)
	ret := make([]string, 0, len(matches)*2)
	for _, v := range matches {
		for _, name := range []string{v.Winner, v.Loser} {
			name = strings.TrimSpace(name)
			if _, ok := seen[name]; ok || name == "" {
				continue
			}
			seen[name] = struct{}{}
			ret = append(ret, name)
		}
	}

	return ret
}

func (e *Engine) checkDuplicate(name string) error {
	_, err := e.repo.FindTournamentByName(strings.TrimSpace(name))
	switch {
	case err == nil:
		return ErrDuplicateTournament
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return err
	}
}

// currentRating returns the final rating of the latest snapshot of a player,
// or 0 and rated=false if there is none.
func (e *Engine) currentRating(playerID util.UUIDAsBlob) (rating int, rated bool, _ error) {
	snapshot, err := e.repo.LatestSnapshotForPlayer(playerID)
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	return snapshot.FinalRating, true, nil
}

func (e *Engine) advance(tournament string, state SubmissionState) {
	log.Printf("debug: tournament %q: %s", tournament, state)
}

func (e *Engine) saveSnapshots(tournament Tournament, snapshots []RatingSnapshot) error {
	for k := range snapshots {
		snapshots[k].stamp(tournament)
		if err := e.repo.SaveSnapshot(&snapshots[k]); err != nil {
			return err
		}
	}

	return nil
}

// maxRating bounds submitted ratings so transfers can never overflow.
const maxRating = math.MaxInt32

// parseRating accepts base 10 integers between 0 and maxRating.
func parseRating(str string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(str))
	if err != nil || v < 0 || v > maxRating {
		return 0, false
	}

	return v, true
}

func rejectedResult(items []ItemResult, matches []MatchResult) Result {
	ret := Result{State: StateRejected}

	for _, v := range items {
		if !v.Accepted() {
			ret.Items = append(ret.Items, v)
		}
	}

	for _, v := range matches {
		if !v.Accepted() {
			ret.Matches = append(ret.Matches, v)
		}
	}

	return ret
}
