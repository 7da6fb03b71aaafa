package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hookline/fishinge/internal/fish"
	"github.com/hookline/fishinge/internal/game"
	"github.com/hookline/fishinge/internal/store"
)

// Server is the HTTP front-end. All game logic lives behind the
// session facade; handlers only translate requests and outcomes.
type Server struct {
	log  *slog.Logger
	game *game.Session
	mux  *chi.Mux
}

func New(logger *slog.Logger, session *game.Session) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		log:  logger,
		game: session,
		mux:  chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/fish", s.handleFish)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/species", s.handleSpecies)
		r.Get("/players/{name}/catches", s.handleHistory)
		r.Get("/stats", s.handleStats)
	})
}

type catchResponse struct {
	Player   string   `json:"player"`
	Species  string   `json:"species"`
	Tier     string   `json:"tier"`
	Weight   *float64 `json:"weight,omitempty"`
	Value    float64  `json:"value"`
	NewScore float64  `json:"new_score"`
	Message  string   `json:"message"`
}

type refusedResponse struct {
	Refused          bool    `json:"refused"`
	RemainingSeconds float64 `json:"remaining_seconds"`
	Message          string  `json:"message"`
}

func (s *Server) handleFish(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Player string `json:"player"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	player := strings.TrimSpace(in.Player)
	if player == "" {
		writeError(w, http.StatusBadRequest, "player is required")
		return
	}

	res, err := s.game.AttemptFish(r.Context(), player, time.Now())
	if err != nil {
		s.fishError(w, err)
		return
	}

	if res.Refused {
		writeJSON(w, http.StatusTooManyRequests, refusedResponse{
			Refused:          true,
			RemainingSeconds: res.Remaining.Seconds(),
			Message:          fmt.Sprintf("you just fished! Try again in %s.", pretty(res.Remaining)),
		})
		return
	}

	out := res.Outcome
	resp := catchResponse{
		Player:   player,
		Species:  out.Species.Name,
		Tier:     s.tierOf(out.Species.Name),
		Value:    out.Value,
		NewScore: res.NewScore,
		Message:  fmt.Sprintf("%s caught %s %s!", player, indefArticle(out.Species.Name), catchDescription(out)),
	}
	if out.HasWeight {
		weight := out.Weight
		resp.Weight = &weight
	}

	s.log.Info("catch recorded",
		"player", player,
		"species", out.Species.Name,
		"value", out.Value,
		"score", res.NewScore,
	)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) fishError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fish.ErrEmptyCatalog):
		writeError(w, http.StatusServiceUnavailable, "the pond is empty, come back later")
	case errors.Is(err, store.ErrUnavailable):
		s.log.Error("ledger unavailable", "err", err)
		writeError(w, http.StatusServiceUnavailable, "could not record the catch, try again")
	default:
		s.log.Error("attempt failed", "err", err)
		writeError(w, http.StatusInternalServerError, "something went wrong")
	}
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	includeBots := r.URL.Query().Get("include_bots") == "true"

	ranks, err := s.game.Leaderboard(r.Context(), limit, includeBots)
	if err != nil {
		s.log.Error("leaderboard query failed", "err", err)
		writeError(w, http.StatusServiceUnavailable, "leaderboard unavailable")
		return
	}

	type row struct {
		Rank   int     `json:"rank"`
		Player string  `json:"player"`
		Score  float64 `json:"score"`
	}
	out := make([]row, len(ranks))
	for i, rk := range ranks {
		out[i] = row{Rank: i + 1, Player: rk.Player, Score: rk.Score}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": out})
}

func (s *Server) handleSpecies(w http.ResponseWriter, r *http.Request) {
	type row struct {
		Name      string  `json:"name"`
		ChancePct float64 `json:"chance_pct"`
		Tier      string  `json:"tier"`
		ValueMin  float64 `json:"value_min"`
		ValueMax  float64 `json:"value_max"`
		WeightMin float64 `json:"weight_min,omitempty"`
		WeightMax float64 `json:"weight_max,omitempty"`
		IsTrash   bool    `json:"is_trash"`
	}

	infos := s.game.SpeciesList()
	out := make([]row, len(infos))
	for i, info := range infos {
		out[i] = row{
			Name:      info.Name,
			ChancePct: info.Chance * 100,
			Tier:      info.Tier,
			ValueMin:  info.ValueMin,
			ValueMax:  info.ValueMax,
			WeightMin: info.WeightMin,
			WeightMax: info.WeightMax,
			IsTrash:   info.IsTrash,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"species": out})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	player := chi.URLParam(r, "name")
	limit := queryInt(r, "limit", 10)

	catches, err := s.game.History(r.Context(), player, limit)
	if err != nil {
		s.log.Error("history query failed", "err", err, "player", player)
		writeError(w, http.StatusServiceUnavailable, "history unavailable")
		return
	}

	type row struct {
		Species  string    `json:"species"`
		Weight   *float64  `json:"weight,omitempty"`
		Value    float64   `json:"value"`
		CaughtAt time.Time `json:"caught_at"`
	}
	out := make([]row, len(catches))
	for i, c := range catches {
		out[i] = row{Species: c.Species, Value: c.Value, CaughtAt: c.CaughtAt}
		if c.HasWeight {
			weight := c.Weight
			out[i].Weight = &weight
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"player": player, "catches": out})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.game.Stats(r.Context())
	if err != nil {
		s.log.Error("stats query failed", "err", err)
		writeError(w, http.StatusServiceUnavailable, "stats unavailable")
		return
	}

	resp := map[string]any{
		"catches": stats.Catches,
		"players": stats.Players,
	}
	if stats.HeaviestSpecies != "" {
		resp["heaviest"] = map[string]any{
			"species": stats.HeaviestSpecies,
			"weight":  stats.HeaviestWeight,
			"player":  stats.HeaviestPlayer,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) tierOf(species string) string {
	catalog := s.game.Catalog()
	if catalog == nil {
		return ""
	}
	return catalog.Tier(species).String()
}

// catchDescription adds the weight class to the outcome string, e.g.
// "big Duck (3.2kg) worth $7.31".
func catchDescription(out fish.Outcome) string {
	if !out.HasWeight {
		return out.String()
	}
	class := fish.WeightClassFor(out.Species, out.Weight)
	return fmt.Sprintf("%s %s", class, out.String())
}

// TODO: some words beginning with consonants use 'an' (hour, heir, honest).
func indefArticle(name string) string {
	if name == "" {
		return "a"
	}
	switch name[0] {
	case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
		return "an"
	}
	return "a"
}

func pretty(d time.Duration) string {
	// mm:ss
	if d < 0 {
		d = 0
	}
	m := int(d / time.Minute)
	sec := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%d:%02d", m, sec)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
