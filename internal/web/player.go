package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"pongrank/internal/back"
	"pongrank/internal/config"
	"strconv"
	"time"

	"github.com/go-chi/chi"
)

// chartLinkLifetime is how long a signed chart link stays valid.
const chartLinkLifetime = 24 * time.Hour

func (s *Server) getPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := s.back.GetPlayer(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.backError(w, err)
		return
	}

	s.response(w, http.StatusOK, player)
}

func (s *Server) getPlayerHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if str := r.URL.Query().Get("limit"); str != "" {
		var err error
		limit, err = strconv.Atoi(str)
		if err != nil || limit < 0 {
			s.error(w, fmt.Errorf("invalid limit: %q", str), http.StatusBadRequest)
			return
		}
	}

	player, history, err := s.back.GetPlayerHistory(r.Context(), chi.URLParam(r, "name"), limit)
	if err != nil {
		s.backError(w, err)
		return
	}

	s.response(w, http.StatusOK, struct {
		Player  back.Player           `json:"player"`
		History []back.RatingSnapshot `json:"history"`
	}{
		Player:  player,
		History: history,
	})
}

func (s *Server) getPlayerHistoryChart(w http.ResponseWriter, r *http.Request) {
	if s.config.AuthEnabled() {
		if err := s.config.CheckURL(requestURL(r)); err != nil {
			if errors.Is(err, config.ErrTokenExpired) {
				s.error(w, err, http.StatusGone)
				return
			}
			s.error(w, errors.New("invalid link signature"), http.StatusForbidden)
			return
		}
	}

	svg, err := s.back.RatingHistoryChart(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.backError(w, err)
		return
	}

	s.cache(w, "private", 1*time.Hour)
	w.Header().Set("Content-Type", "image/svg+xml")
	if _, err := w.Write(svg); err != nil {
		log.Printf("error: unable to send chart: %s", err)
	}
}

// getPlayerChartLink returns a link to the rating chart of a player that can
// be shared without the API token.
func (s *Server) getPlayerChartLink(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.back.GetPlayer(r.Context(), name); err != nil {
		s.backError(w, err)
		return
	}

	link := fmt.Sprintf("https://%s/v1/player/%s/history.svg", r.Host, url.PathEscape(name))
	if s.config.AuthEnabled() {
		var err error
		link, err = s.config.SignURL(link, chartLinkLifetime)
		if err != nil {
			s.error(w, err, http.StatusInternalServerError)
			return
		}
	}

	s.response(w, http.StatusOK, struct {
		URL string `json:"url"`
	}{link})
}

func requestURL(r *http.Request) string {
	return "https://" + r.Host + r.URL.RequestURI()
}

func (s *Server) postPlayer(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
	}

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&payload); err != nil {
		s.error(w, fmt.Errorf("invalid JSON: %w", err), http.StatusBadRequest)
		return
	}

	player, err := s.back.RegisterPlayer(r.Context(), payload.Name, payload.DisplayName)
	if err != nil {
		s.backError(w, err)
		return
	}

	s.response(w, http.StatusCreated, player)
}
