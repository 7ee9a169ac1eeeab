package back

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
)

// SubmitDirectAdjustment records a tournament where every player's new
// rating is given explicitly. Either the tournament and all of its snapshots
// are committed, or nothing is and the Result lists the rejected items.
func (b *Back) SubmitDirectAdjustment(ctx context.Context, req AdjustmentRequest) (Result, error) {
	if err := req.validate(); err != nil {
		b.metrics.observe(modeDirect, outcomeInvalid, Result{})
		return Result{}, err
	}

	var res Result
	err := b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		res, err = b.newEngine(tx).AdjustDirect(req)
		if err == nil && !res.Processed {
			return errRejected
		}
		return err
	})

	return b.finishSubmission(modeDirect, req.Tournament, res, err)
}

// SubmitMatchResults records a tournament from its match outcomes, ratings
// are transferred from losers to winners. Same all-or-nothing policy as
// SubmitDirectAdjustment.
func (b *Back) SubmitMatchResults(ctx context.Context, req MatchResultsRequest) (Result, error) {
	if err := req.validate(); err != nil {
		b.metrics.observe(modeTransfer, outcomeInvalid, Result{})
		return Result{}, err
	}

	var res Result
	err := b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		res, err = b.newEngine(tx).TransferMatches(req)
		if err == nil && !res.Processed {
			return errRejected
		}
		return err
	})

	return b.finishSubmission(modeTransfer, req.Tournament, res, err)
}

func (b *Back) finishSubmission(mode, tournament string, res Result, err error) (Result, error) {
	switch {
	case errors.Is(err, errRejected):
		log.Printf("info: %s submission %q rejected: %d invalid lines", mode, tournament, len(res.Items)+len(res.Matches))
		b.metrics.observe(mode, outcomeRejected, res)
		return res, nil
	case errors.Is(err, ErrDuplicateTournament):
		log.Printf("warning: %s submission %q: %s", mode, tournament, err)
		b.metrics.observe(mode, outcomeDuplicate, res)
		return Result{}, err
	case err != nil:
		log.Printf("error: %s submission %q: %s", mode, tournament, err)
		b.metrics.observe(mode, outcomeError, res)
		return Result{}, fmt.Errorf("unable to process tournament %q: %w", tournament, err)
	}

	log.Printf(
		"info: %s submission %q committed as %s with %d snapshots",
		mode, tournament, res.Tournament.ID, len(res.Snapshots),
	)
	b.metrics.observe(mode, outcomeCommitted, res)

	return res, nil
}
