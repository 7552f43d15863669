// Package server implements the HTTP solve service: asynchronous
// cipher-recovery jobs over a shared language model.
package server

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"decipher/internal/anneal"
	"decipher/internal/config"
	"decipher/internal/corpus"
	"decipher/internal/lm"
	"decipher/internal/logging"
	"decipher/internal/store"
)

// Logger defines the logging interface used by the server.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// SolveState tracks one solve job. It is guarded by the server's mutex.
type SolveState struct {
	ID          string
	Status      string // "pending", "running", "completed", "failed", "cancelled"
	StartTime   time.Time
	EndTime     *time.Time
	Progress    float64
	Ciphertext  string
	Plaintext   string
	Key         map[string]string
	Energy      float64
	Iterations  int
	Error       string
	CancelFunc  context.CancelFunc
	LastUpdated time.Time
}

// Server manages solve jobs and serves the REST API.
type Server struct {
	cfg      *config.Config
	logger   Logger
	model    *lm.Model
	alphabet corpus.Alphabet
	results  *store.Store // optional; nil disables persistence

	jobs   map[string]*SolveState
	jobsMu sync.RWMutex

	entropy   *ulid.MonotonicEntropy
	entropyMu sync.Mutex
}

// NewServer creates a server over a trained model. The store may be nil.
func NewServer(cfg *config.Config, logger Logger, model *lm.Model, results *store.Store) *Server {
	return &Server{
		cfg:      cfg,
		logger:   logger,
		model:    model,
		alphabet: model.Alphabet(),
		results:  results,
		jobs:     make(map[string]*SolveState),
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
}

// RegisterRoutes mounts the API on the router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/solve", s.handleSolve)
		r.Get("/solve/{id}", s.handleStatus)
		r.Delete("/solve/{id}", s.handleCancel)
		r.Get("/results", s.handleResults)
		r.Get("/model", s.handleModel)
	})
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.results != nil {
		return s.results.Close()
	}
	return nil
}

func (s *Server) newID() string {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), s.entropy).String()
}

type solveRequest struct {
	Ciphertext         string   `json:"ciphertext"`
	InitialTemperature *float64 `json:"initial_temperature,omitempty"`
	CoolingRate        *float64 `json:"cooling_rate,omitempty"`
	Threshold          *float64 `json:"threshold,omitempty"`
	RandomSeed         *int64   `json:"random_seed,omitempty"`
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Ciphertext == "" {
		s.respondError(w, http.StatusBadRequest, "ciphertext is required")
		return
	}

	cfg := anneal.Config{
		InitialTemperature: s.cfg.Solver.InitialTemperature,
		CoolingRate:        s.cfg.Solver.CoolingRate,
		Threshold:          s.cfg.Solver.Threshold,
		RandomSeed:         s.cfg.Solver.RandomSeed,
	}
	if req.InitialTemperature != nil {
		cfg.InitialTemperature = *req.InitialTemperature
	}
	if req.CoolingRate != nil {
		cfg.CoolingRate = *req.CoolingRate
	}
	if req.Threshold != nil {
		cfg.Threshold = *req.Threshold
	}
	if req.RandomSeed != nil {
		cfg.RandomSeed = *req.RandomSeed
	}

	id := s.newID()
	ctx, cancel := context.WithCancel(context.Background())

	state := &SolveState{
		ID:          id,
		Status:      "pending",
		StartTime:   time.Now(),
		Ciphertext:  req.Ciphertext,
		CancelFunc:  cancel,
		LastUpdated: time.Now(),
	}

	s.jobsMu.Lock()
	s.jobs[id] = state
	s.jobsMu.Unlock()

	go s.runSolve(ctx, id, req.Ciphertext, cfg)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":     id,
		"status": "pending",
	})
}

func (s *Server) runSolve(ctx context.Context, id, ciphertext string, cfg anneal.Config) {
	logger := s.logger.WithFields(map[string]interface{}{"solve_id": id})

	cfg.Hook = func(iteration, planned int, energy, temperature float64) {
		if planned > 0 && iteration%100 == 0 {
			s.updateJob(id, func(st *SolveState) {
				st.Progress = float64(iteration) / float64(planned)
			})
		}
	}

	annealer, err := anneal.New(cfg)
	if err != nil {
		s.failJob(id, err)
		logger.Error("Invalid annealing schedule", map[string]interface{}{"error": err.Error()})
		return
	}

	s.updateJob(id, func(st *SolveState) { st.Status = "running" })
	solvesStarted.Inc()

	initial := anneal.NewIdentity(s.alphabet)
	result, err := annealer.Run(ctx, initial, ciphertext, s.model)
	if err != nil {
		if ctx.Err() != nil {
			s.updateJob(id, func(st *SolveState) {
				st.Status = "cancelled"
				now := time.Now()
				st.EndTime = &now
			})
			logger.Info("Solve cancelled")
			return
		}
		s.failJob(id, err)
		solvesFailed.Inc()
		logger.Error("Solve failed", map[string]interface{}{"error": err.Error()})
		return
	}

	plaintext := result.Best.Translate(ciphertext)
	key := keyStrings(result.Best.Mapping())

	s.updateJob(id, func(st *SolveState) {
		st.Status = "completed"
		st.Progress = 1
		st.Plaintext = plaintext
		st.Key = key
		st.Energy = result.Energy
		st.Iterations = result.Iterations
		now := time.Now()
		st.EndTime = &now
	})

	solvesCompleted.Inc()
	solveIterations.Observe(float64(result.Iterations))
	finalEnergy.Set(result.Energy)

	logger.Info("Solve completed", map[string]interface{}{
		"energy":     result.Energy,
		"iterations": result.Iterations,
		"accepted":   result.Accepted,
	})

	if s.results != nil {
		rec := store.Result{
			ID:         id,
			CreatedAt:  time.Now(),
			Ciphertext: ciphertext,
			Plaintext:  plaintext,
			Key:        key,
			Energy:     result.Energy,
			Iterations: result.Iterations,
		}
		if err := s.results.Save(context.Background(), rec); err != nil {
			logger.Error("Failed to persist solve result", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.jobsMu.RLock()
	state, ok := s.jobs[id]
	s.jobsMu.RUnlock()
	if !ok {
		s.respondError(w, http.StatusNotFound, "solve job not found")
		return
	}

	s.jobsMu.RLock()
	response := map[string]interface{}{
		"id":          state.ID,
		"status":      state.Status,
		"progress":    state.Progress,
		"start_time":  state.StartTime.Format(time.RFC3339),
		"last_update": state.LastUpdated.Format(time.RFC3339),
	}
	if state.EndTime != nil {
		response["end_time"] = state.EndTime.Format(time.RFC3339)
	}
	if state.Status == "completed" {
		response["plaintext"] = state.Plaintext
		response["key"] = state.Key
		response["energy"] = state.Energy
		response["iterations"] = state.Iterations
	}
	if state.Error != "" {
		response["error"] = state.Error
	}
	s.jobsMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.jobsMu.Lock()
	state, ok := s.jobs[id]
	if !ok {
		s.jobsMu.Unlock()
		s.respondError(w, http.StatusNotFound, "solve job not found")
		return
	}

	switch state.Status {
	case "completed", "failed", "cancelled":
		s.jobsMu.Unlock()
		s.respondError(w, http.StatusConflict, "solve job already finished")
		return
	}
	cancel := state.CancelFunc
	s.jobsMu.Unlock()

	if cancel != nil {
		cancel()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":     id,
		"status": "cancelling",
	})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		s.respondError(w, http.StatusNotImplemented, "result store disabled")
		return
	}

	list, err := s.results.List(r.Context(), 50)
	if err != nil {
		s.logger.Error("Failed to list results", map[string]interface{}{"error": err.Error()})
		s.respondError(w, http.StatusInternalServerError, "failed to list results")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	stats := s.model.Stats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"corpus_size":       stats.CorpusSize,
		"vocabulary_size":   stats.VocabularySize,
		"distinct_unigrams": stats.DistinctUnigram,
		"distinct_bigrams":  stats.DistinctBigram,
		"unigram_entropy":   s.model.Entropy(),
	})
}

func (s *Server) updateJob(id string, fn func(*SolveState)) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if state, ok := s.jobs[id]; ok {
		fn(state)
		state.LastUpdated = time.Now()
	}
}

func (s *Server) failJob(id string, err error) {
	s.updateJob(id, func(st *SolveState) {
		st.Status = "failed"
		st.Error = err.Error()
		now := time.Now()
		st.EndTime = &now
	})
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func keyStrings(mapping map[rune]rune) map[string]string {
	out := make(map[string]string, len(mapping))
	for k, v := range mapping {
		out[string(k)] = string(v)
	}
	return out
}
