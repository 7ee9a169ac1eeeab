package web

import (
	"mime"
	"net/http"
	"pongrank/internal/back"
	"pongrank/internal/batch"
	"strconv"

	"github.com/go-chi/chi"
)

const maxBodySize = 1 << 20

func (s *Server) getTournament(w http.ResponseWriter, r *http.Request) {
	tournament, snapshots, err := s.back.GetTournament(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.backError(w, err)
		return
	}

	s.response(w, http.StatusOK, struct {
		Tournament back.Tournament       `json:"tournament"`
		Snapshots  []back.RatingSnapshot `json:"snapshots"`
	}{
		Tournament: tournament,
		Snapshots:  snapshots,
	})
}

func (s *Server) postAdjustments(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	autoAdd := s.autoAddPlayers(r)

	var (
		req back.AdjustmentRequest
		err error
	)
	if isCSV(r) {
		req, err = batch.ParseAdjustmentCSV(body, autoAdd)
	} else {
		req, err = batch.DecodeAdjustmentJSON(body, autoAdd)
	}
	if err != nil {
		s.backError(w, err)
		return
	}

	res, err := s.back.SubmitDirectAdjustment(r.Context(), req)
	s.submissionResponse(w, res, err)
}

func (s *Server) postResults(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	autoAdd := s.autoAddPlayers(r)

	var (
		req back.MatchResultsRequest
		err error
	)
	if isCSV(r) {
		req, err = batch.ParseMatchResultsCSV(body, autoAdd)
	} else {
		req, err = batch.DecodeMatchResultsJSON(body, autoAdd)
	}
	if err != nil {
		s.backError(w, err)
		return
	}

	res, err := s.back.SubmitMatchResults(r.Context(), req)
	s.submissionResponse(w, res, err)
}

func (s *Server) submissionResponse(w http.ResponseWriter, res back.Result, err error) {
	switch {
	case err != nil:
		s.backError(w, err)
	case !res.Processed:
		s.response(w, http.StatusUnprocessableEntity, res)
	default:
		s.response(w, http.StatusCreated, res)
	}
}

// autoAddPlayers reads the auto_add query parameter, falling back to the
// configured default. JSON payloads may still override it.
func (s *Server) autoAddPlayers(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("auto_add"))
	if err != nil {
		return s.config.AutoAddPlayersDefault
	}

	return v
}

func isCSV(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}

	return mediaType == "text/csv"
}
