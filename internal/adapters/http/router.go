package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lwchen/ragbench/internal/core/domain"
	"github.com/lwchen/ragbench/internal/core/ports"
	"github.com/lwchen/ragbench/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	retriever     ports.Retriever
	answerer      ports.Answerer
	queue         ports.MessageQueue
	reports       ports.ReportStore
	reportPathFor func(runID string) string
	metrics       *metrics.HTTPServerMetrics
	logger        *slog.Logger
}

func NewRouter(
	retriever ports.Retriever,
	answerer ports.Answerer,
	queue ports.MessageQueue,
	reports ports.ReportStore,
	reportPathFor func(runID string) string,
	m *metrics.HTTPServerMetrics,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		retriever:     retriever,
		answerer:      answerer,
		queue:         queue,
		reports:       reports,
		reportPathFor: reportPathFor,
		metrics:       m,
		logger:        logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/retrieve", rt.retrieve)
	mux.HandleFunc("/v1/answer", rt.answer)
	mux.HandleFunc("/v1/evaluations", rt.submitEvaluation)
	mux.HandleFunc("/v1/evaluations/", rt.getEvaluation)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(rt.logger, handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type retrievalRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
	Mode  string `json:"mode"`
}

func (rt *Router) retrieve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req retrievalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	mode, err := domain.ParseRetrievalMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	results, err := rt.retriever.Retrieve(r.Context(), req.Query, req.TopK, mode)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(serviceName, "retrieve", string(mode), len(results), time.Since(start))
	}
	if results == nil {
		results = []domain.RetrievalResult{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"mode":    mode,
		"results": results,
	})
}

type answerRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
	Mode     string `json:"mode"`
}

func (rt *Router) answer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	mode, err := domain.ParseRetrievalMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	answer, err := rt.answerer.Answer(r.Context(), req.Question, req.TopK, mode)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(serviceName, "answer", string(mode), len(answer.Contexts), time.Since(start))
	}

	writeJSON(w, http.StatusOK, answer)
}

type evaluationRequest struct {
	QueriesFile string `json:"queries_file"`
	Mode        string `json:"mode"`
	TopK        int    `json:"top_k"`
	Judge       bool   `json:"judge"`
}

func (rt *Router) submitEvaluation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req evaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.QueriesFile) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "queries_file is required"})
		return
	}
	mode, err := domain.ParseRetrievalMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}

	run := domain.EvaluationRun{
		RunID:       uuid.NewString(),
		QueriesFile: req.QueriesFile,
		Mode:        mode,
		TopK:        req.TopK,
		Judge:       req.Judge,
	}
	if err := rt.queue.PublishEvaluationRun(r.Context(), run); err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRunSubmitted(serviceName, string(mode))
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": run.RunID})
}

func (rt *Router) getEvaluation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	runID := strings.TrimPrefix(r.URL.Path, "/v1/evaluations/")
	if runID == "" || strings.ContainsAny(runID, "/\\") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "run id is required"})
		return
	}

	report, err := rt.reports.LoadReport(rt.reportPathFor(runID))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
