package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/copyleftdev/randsearch/internal/config"
	apperrors "github.com/copyleftdev/randsearch/internal/errors"
	"github.com/copyleftdev/randsearch/internal/logging"
	"github.com/copyleftdev/randsearch/internal/metrics"
	"github.com/copyleftdev/randsearch/internal/objective"
	"github.com/copyleftdev/randsearch/internal/optimization"
	"github.com/copyleftdev/randsearch/internal/optimization/randomsearch"
)

// Logger defines the logging interface used by the server
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Job statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

// errInvalidParams marks request problems, as opposed to server faults.
var errInvalidParams = apperrors.New("invalid params")

// errNotFound is returned for unknown search ids.
var errNotFound = apperrors.New("search not found")

// SearchJob is one random search run owned by the server.
type SearchJob struct {
	ID          string
	Objective   string
	Goal        optimization.Goal
	Iterations  int
	Status      string
	StartTime   time.Time
	EndTime     *time.Time
	Best        *optimization.Solution
	Summary     *Summary
	Err         string
	// Optimizer is released once the job finishes; Progress keeps its
	// final value.
	Optimizer   *randomsearch.Optimizer
	Progress    float64
	CancelFunc  context.CancelFunc
	LastUpdated time.Time

	scores *runningSummary
}

// Summary describes the scores a finished search evaluated. Mean and
// StdDev cover the finite scores only.
type Summary struct {
	Evaluations  int     `json:"evaluations"`
	Improvements int     `json:"improvements"`
	NonFinite    int     `json:"non_finite"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
}

// runningSummary accumulates Summary statistics one evaluation at a time
// (Welford's update), so a job holds no per-iteration state. It is only
// touched by the goroutine running the search.
type runningSummary struct {
	evaluations  int
	improvements int
	nonFinite    int
	n            int
	mean         float64
	m2           float64
}

func (r *runningSummary) ObserveEvaluation(value float64, improved bool) {
	r.evaluations++
	if improved {
		r.improvements++
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		r.nonFinite++
		return
	}
	r.n++
	delta := value - r.mean
	r.mean += delta / float64(r.n)
	r.m2 += delta * (value - r.mean)
}

// Summary returns the statistics so far. StdDev is the sample standard
// deviation and is 0 below two finite scores.
func (r *runningSummary) Summary() *Summary {
	s := &Summary{
		Evaluations:  r.evaluations,
		Improvements: r.improvements,
		NonFinite:    r.nonFinite,
		Mean:         r.mean,
	}
	if r.n > 1 {
		s.StdDev = math.Sqrt(r.m2 / float64(r.n-1))
	}
	return s
}

// SearchRequest is the body of POST /api/v1/search and the search.start params.
type SearchRequest struct {
	Objective  string      `json:"objective"`
	Bounds     [][]float64 `json:"bounds"`
	Iterations *int        `json:"iterations,omitempty"`
	Seed       uint64      `json:"seed,omitempty"`
	Goal       string      `json:"goal,omitempty"`
}

// Server exposes random search over HTTP and JSON-RPC 2.0.
type Server struct {
	cfg        *config.Config
	logger     Logger
	zapLogger  *zap.Logger
	objectives *objective.Registry
	metrics    *metrics.Metrics

	jobs   map[string]*SearchJob
	jobsMu sync.RWMutex
	wg     sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics reports search activity to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithObjectives replaces the default objective registry.
func WithObjectives(r *objective.Registry) Option {
	return func(s *Server) { s.objectives = r }
}

// WithZapLogger sets the logger handed to each optimizer.
func WithZapLogger(l *zap.Logger) Option {
	return func(s *Server) { s.zapLogger = l }
}

// NewServer creates a new server instance with the given config and logger
func NewServer(cfg *config.Config, logger Logger, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		logger:     logger,
		zapLogger:  zap.NewNop(),
		objectives: objective.Default(),
		jobs:       make(map[string]*SearchJob),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRoutes mounts the REST API and the JSON-RPC endpoint on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/search/{id}", s.handleCancel)
		r.Get("/objectives", s.handleObjectives)
	})

	r.Post("/rpc", s.handleJSONRPC)
}

// Start validates req and launches the search in the background.
func (s *Server) Start(req SearchRequest) (*SearchJob, error) {
	name := req.Objective
	if name == "" {
		name = s.cfg.Search.Objective
	}
	entry, err := s.objectives.Lookup(name)
	if err != nil {
		return nil, apperrors.Wrap(errInvalidParams, err.Error())
	}

	bounds := make(optimization.Bounds, len(req.Bounds))
	for i, b := range req.Bounds {
		if len(b) != 2 {
			return nil, apperrors.Wrapf(errInvalidParams, "bounds[%d]: expected [low, high]", i)
		}
		bounds[i] = optimization.Bound{Low: b[0], High: b[1]}
	}
	if len(req.Bounds) == 0 {
		bounds = s.cfg.Search.Bounds()
	}
	if err := entry.CheckDimensions(bounds); err != nil {
		return nil, apperrors.Wrap(errInvalidParams, err.Error())
	}

	iterations := s.cfg.Search.Iterations
	if req.Iterations != nil {
		iterations = *req.Iterations
	}
	if iterations > s.cfg.Search.MaxIterations {
		return nil, apperrors.Wrapf(errInvalidParams, "iterations %d exceed the limit of %d", iterations, s.cfg.Search.MaxIterations)
	}

	goalName := req.Goal
	if goalName == "" {
		goalName = s.cfg.Search.Goal
	}
	goal, err := optimization.ParseGoal(goalName)
	if err != nil {
		return nil, apperrors.Wrap(errInvalidParams, err.Error())
	}

	seed := req.Seed
	if seed == 0 {
		seed = s.cfg.Search.Seed
	}

	id := uuid.NewString()
	scores := &runningSummary{}
	opts := []randomsearch.Option{
		randomsearch.WithLogger(s.zapLogger.With(zap.String("search_id", id))),
		randomsearch.WithObserver(scores),
	}
	if s.metrics != nil {
		opts = append(opts, randomsearch.WithObserver(s.metrics))
	}
	optimizer, err := randomsearch.NewOptimizer(optimization.OptimizerConfig{
		Objective:     entry.Func,
		Bounds:        bounds,
		MaxIterations: iterations,
		RandomSeed:    seed,
		Goal:          goal,
	}, opts...)
	if err != nil {
		return nil, apperrors.Wrap(errInvalidParams, err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	job := &SearchJob{
		ID:          id,
		Objective:   name,
		Goal:        goal,
		Iterations:  iterations,
		Status:      StatusPending,
		StartTime:   now,
		Optimizer:   optimizer,
		CancelFunc:  cancel,
		LastUpdated: now,
		scores:      scores,
	}

	s.jobsMu.Lock()
	s.jobs[id] = job
	s.jobsMu.Unlock()

	s.logger.Info("Search started", map[string]interface{}{
		"search_id":  id,
		"objective":  name,
		"dimensions": bounds.Dims(),
		"iterations": iterations,
		"goal":       goal.String(),
	})

	s.wg.Add(1)
	go s.run(ctx, job)

	return job, nil
}

// run executes job and records its outcome.
func (s *Server) run(ctx context.Context, job *SearchJob) {
	defer s.wg.Done()

	s.jobsMu.Lock()
	if job.Status != StatusPending {
		s.releaseLocked(job)
		s.jobsMu.Unlock()
		return
	}
	job.Status = StatusRunning
	job.LastUpdated = time.Now()
	optimizer := job.Optimizer
	s.jobsMu.Unlock()

	if s.metrics != nil {
		s.metrics.SearchStarted()
	}
	start := time.Now()
	result, err := optimizer.Optimize(ctx, optimization.OptimizerConfig{})

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	defer s.releaseLocked(job)

	now := time.Now()
	switch {
	case job.Status == StatusCancelled || (err != nil && ctx.Err() != nil):
		job.Status = StatusCancelled
	case err != nil:
		s.logger.Error("Search failed", map[string]interface{}{
			"search_id": job.ID,
			"error":     err.Error(),
		})
		job.Status = StatusFailed
		job.Err = err.Error()
	default:
		job.Status = StatusCompleted
		job.Best = result.BestSolution
		job.Summary = job.scores.Summary()
		s.logger.Info("Search completed", map[string]interface{}{
			"search_id": job.ID,
			"best":      result.BestSolution.Value,
			"point":     optimization.FormatPoint(result.BestSolution.Parameters),
		})
	}
	job.EndTime = &now
	job.LastUpdated = now

	if s.metrics != nil {
		s.metrics.SearchFinished(job.Goal.String(), job.Status, time.Since(start))
	}
}

// releaseLocked drops the finished job's optimizer and evicts the oldest
// finished jobs beyond the retention limit. Callers hold jobsMu.
func (s *Server) releaseLocked(job *SearchJob) {
	if job.Optimizer != nil {
		job.Progress = job.Optimizer.Progress()
		job.Optimizer = nil
	}
	job.scores = nil

	limit := s.cfg.Search.RetainedJobs
	if limit <= 0 {
		return
	}
	var finished []*SearchJob
	for _, j := range s.jobs {
		if j.Optimizer == nil && j.EndTime != nil {
			finished = append(finished, j)
		}
	}
	if len(finished) <= limit {
		return
	}
	slices.SortFunc(finished, func(a, b *SearchJob) int {
		return a.EndTime.Compare(*b.EndTime)
	})
	for _, j := range finished[:len(finished)-limit] {
		delete(s.jobs, j.ID)
		s.logger.Debug("Search evicted", map[string]interface{}{"search_id": j.ID})
	}
}

// Status returns a JSON-ready snapshot of the job with the given id.
func (s *Server) Status(id string) (map[string]interface{}, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, apperrors.Wrapf(errNotFound, "id %q", id)
	}

	response := map[string]interface{}{
		"search_id":   job.ID,
		"status":      job.Status,
		"objective":   job.Objective,
		"goal":        job.Goal.String(),
		"iterations":  job.Iterations,
		"progress":    job.Progress,
		"start_time":  job.StartTime.Format(time.RFC3339),
		"last_update": job.LastUpdated.Format(time.RFC3339),
	}
	if job.EndTime != nil {
		response["end_time"] = job.EndTime.Format(time.RFC3339)
	}
	if job.Err != "" {
		response["error"] = job.Err
	}
	if job.Optimizer != nil {
		response["progress"] = job.Optimizer.Progress()
	}
	if job.Best != nil {
		response["best_solution"] = solutionJSON(job.Best)
	} else if job.Optimizer != nil {
		if best := job.Optimizer.GetBestSolution(); best != nil {
			response["current_best"] = solutionJSON(best)
		}
	}
	if job.Summary != nil {
		response["summary"] = job.Summary
	}
	return response, nil
}

func solutionJSON(sol *optimization.Solution) map[string]interface{} {
	return map[string]interface{}{
		"parameters": sol.Parameters,
		"value":      jsonFloat(sol.Value),
		"formatted":  optimization.FormatPoint(sol.Parameters),
	}
}

// jsonFloat keeps NaN and infinities encodable.
func jsonFloat(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}
	return v
}

// Cancel stops a pending or running job.
func (s *Server) Cancel(id string) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return apperrors.Wrapf(errNotFound, "id %q", id)
	}

	switch job.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return apperrors.Wrapf(errInvalidParams, "cannot cancel search with status %s", job.Status)
	}

	wasPending := job.Status == StatusPending
	job.CancelFunc()
	job.Status = StatusCancelled
	now := time.Now()
	job.EndTime = &now
	job.LastUpdated = now

	// A pending job never reaches run's accounting.
	if wasPending && s.metrics != nil {
		s.metrics.SearchStarted()
		s.metrics.SearchFinished(job.Goal.String(), StatusCancelled, 0)
	}

	s.logger.Info("Search cancelled", map[string]interface{}{"search_id": id})
	return nil
}

// Close cancels all jobs and waits for their goroutines to exit.
func (s *Server) Close() error {
	s.jobsMu.Lock()
	for _, job := range s.jobs {
		if job.CancelFunc != nil {
			job.CancelFunc()
		}
	}
	s.jobsMu.Unlock()

	s.wg.Wait()
	return nil
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JSONRPC string            `json:"jsonrpc"`
		ID      interface{}       `json:"id"`
		Method  string            `json:"method"`
		Params  []json.RawMessage `json:"params,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, codeParseError, "Parse error", nil)
		return
	}
	if request.JSONRPC != "2.0" {
		s.respondWithError(w, codeInvalidRequest, "Invalid Request", request.ID)
		return
	}

	var result interface{}
	var err error

	switch request.Method {
	case "search.start":
		var req SearchRequest
		if err = decodeParams(request.Params, &req); err == nil {
			var job *SearchJob
			if job, err = s.Start(req); err == nil {
				result = map[string]interface{}{"search_id": job.ID, "status": StatusPending}
			}
		}
	case "search.status":
		var p struct {
			SearchID string `json:"search_id"`
		}
		if err = decodeParams(request.Params, &p); err == nil {
			result, err = s.Status(p.SearchID)
		}
	case "search.cancel":
		var p struct {
			SearchID string `json:"search_id"`
		}
		if err = decodeParams(request.Params, &p); err == nil {
			if err = s.Cancel(p.SearchID); err == nil {
				result = map[string]interface{}{"status": "cancellation requested"}
			}
		}
	case "search.objectives":
		result = s.objectives.Names()
	default:
		s.respondWithError(w, codeMethodNotFound, "Method not found", request.ID)
		return
	}

	if err != nil {
		code := codeServerError
		if apperrors.Is(err, errInvalidParams) || apperrors.Is(err, errNotFound) {
			code = codeInvalidParams
		}
		s.respondWithError(w, code, err.Error(), request.ID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	})
}

// decodeParams decodes the first positional parameter into v.
func decodeParams(params []json.RawMessage, v interface{}) error {
	if len(params) == 0 {
		return apperrors.Wrap(errInvalidParams, "missing required parameters")
	}
	if err := json.Unmarshal(params[0], v); err != nil {
		return apperrors.Wrap(errInvalidParams, fmt.Sprintf("invalid parameter format: %v", err))
	}
	return nil
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Warn("RPC error", map[string]interface{}{
		"code":    code,
		"message": message,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleSearch handles POST /api/v1/search
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	job, err := s.Start(req)
	if err != nil {
		status := http.StatusInternalServerError
		if apperrors.Is(err, errInvalidParams) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]interface{}{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"search_id": job.ID,
		"status":    StatusPending,
	})
}

// handleStatus handles GET /api/v1/status/{id}
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	result, err := s.Status(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCancel handles DELETE /api/v1/search/{id}
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	err := s.Cancel(chi.URLParam(r, "id"))
	switch {
	case apperrors.Is(err, errNotFound):
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": err.Error()})
	case err != nil:
		writeJSON(w, http.StatusConflict, map[string]interface{}{"error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancellation requested"})
	}
}

// handleObjectives handles GET /api/v1/objectives
func (s *Server) handleObjectives(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"objectives": s.objectives.Names()})
}
