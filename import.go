package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"pongrank/internal/back"
	"pongrank/internal/batch"
	"pongrank/internal/config"
	"pongrank/internal/util"
	"strings"
	"text/tabwriter"
)

var errSubmissionRejected = errors.New("submission rejected, nothing was recorded")

// importFile submits a CSV or JSON file, the format is picked from the
// file extension.
func importFile(conf *config.Config, results bool, path string, autoAdd bool) error {
	if path == "" {
		return errors.New("missing FILE argument")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := openBack(conf)
	if err != nil {
		return err
	}
	defer b.Close()

	isJSON := strings.EqualFold(filepath.Ext(path), ".json")
	ctx := context.Background()

	var res back.Result
	if results {
		var req back.MatchResultsRequest
		if isJSON {
			req, err = batch.DecodeMatchResultsJSON(f, autoAdd)
		} else {
			req, err = batch.ParseMatchResultsCSV(f, autoAdd)
		}
		if err != nil {
			return err
		}
		res, err = b.SubmitMatchResults(ctx, req)
	} else {
		var req back.AdjustmentRequest
		if isJSON {
			req, err = batch.DecodeAdjustmentJSON(f, autoAdd)
		} else {
			req, err = batch.ParseAdjustmentCSV(f, autoAdd)
		}
		if err != nil {
			return err
		}
		res, err = b.SubmitDirectAdjustment(ctx, req)
	}
	if err != nil {
		return err
	}

	if !res.Processed {
		printRejected(os.Stderr, res)
		return errSubmissionRejected
	}

	fmt.Fprintf(os.Stdout, "recorded %q (%s) with %d rating snapshots\n",
		res.Tournament.Name, util.Date(res.Tournament.Date), len(res.Snapshots))

	return nil
}

func printRejected(out io.Writer, res back.Result) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()

	for _, v := range res.Items {
		fmt.Fprintf(w, "line %d\t%s\t%s\t%s\n", v.Line, v.Player, v.Rating, v.Reason)
	}
	for _, v := range res.Matches {
		fmt.Fprintf(w, "line %d\t%s\t%s\t%s\n", v.Line, v.Winner, v.Loser, v.Reason)
	}
}

func printHistory(conf *config.Config, name string, limit int) error {
	if name == "" {
		return errors.New("missing NAME argument")
	}

	b, err := openBack(conf)
	if err != nil {
		return err
	}
	defer b.Close()

	player, history, err := b.GetPlayerHistory(context.Background(), name, limit)
	if err != nil {
		if back.IsNotFound(err) {
			return fmt.Errorf("no player named %q", name)
		}
		return err
	}

	if len(history) == 0 {
		fmt.Fprintf(os.Stdout, "%s has never been rated\n", player.Name)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "DATE\tBEFORE\tAFTER\tCHANGE")
	for _, v := range history {
		fmt.Fprintf(w, "%s\t%d\t%d\t%+d\n",
			util.Date(v.SnapshotDate), v.InitialRating, v.FinalRating, v.FinalRating-v.InitialRating)
	}

	return nil
}
