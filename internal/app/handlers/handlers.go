package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/devkekops/paymentopt/internal/app/entity"
	"github.com/devkekops/paymentopt/internal/app/loader"
	"github.com/devkekops/paymentopt/internal/app/logger"
	"github.com/devkekops/paymentopt/internal/app/optimizer"
	"github.com/devkekops/paymentopt/internal/app/storage"
)

type Charge struct {
	Method string `json:"method"`
	Amount string `json:"amount"`
}

type Outcome struct {
	Order    string   `json:"order"`
	Strategy string   `json:"strategy"`
	Charges  []Charge `json:"charges,omitempty"`
}

type RunResponse struct {
	RunID    string            `json:"runId"`
	Usage    map[string]string `json:"usage"`
	Unpaid   []string          `json:"unpaid"`
	Outcomes []Outcome         `json:"outcomes,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func newRunResponse(runID string, res *optimizer.Result) RunResponse {
	resp := RunResponse{
		RunID:    runID,
		Usage:    res.Usage.Format(),
		Unpaid:   res.Unpaid,
		Outcomes: make([]Outcome, 0, len(res.Outcomes)),
	}
	if resp.Unpaid == nil {
		resp.Unpaid = []string{}
	}
	for _, o := range res.Outcomes {
		resp.Outcomes = append(resp.Outcomes, newOutcome(o))
	}
	return resp
}

func newOutcome(o entity.OrderOutcome) Outcome {
	out := Outcome{Order: o.OrderID, Strategy: string(o.Strategy)}
	for _, c := range o.Charges {
		out.Charges = append(out.Charges, Charge{Method: c.MethodID, Amount: c.Amount.StringFixed(2)})
	}
	return out
}

func runResponseFromStorage(run storage.Run) RunResponse {
	resp := RunResponse{
		RunID:    run.RunID,
		Usage:    make(map[string]string, len(run.Usage)),
		Unpaid:   run.Unpaid,
		Outcomes: make([]Outcome, 0, len(run.Outcomes)),
	}
	if resp.Unpaid == nil {
		resp.Unpaid = []string{}
	}
	for _, u := range run.Usage {
		resp.Usage[u.MethodID] = u.Amount.StringFixed(2)
	}
	for _, o := range run.Outcomes {
		resp.Outcomes = append(resp.Outcomes, newOutcome(o))
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		logger.Logger.Err(err).Msg("encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// run optimizes one batch, persists it and records metrics.
func (bh *BaseHandler) run(req *http.Request, batch entity.Batch) (RunResponse, error) {
	res, err := optimizer.Optimize(batch.Orders, batch.PaymentMethods)
	if err != nil {
		return RunResponse{}, err
	}
	return bh.store(req, len(batch.Orders), res)
}

func (bh *BaseHandler) store(req *http.Request, orderCount int, res *optimizer.Result) (RunResponse, error) {
	runID := uuid.NewString()
	if err := bh.repo.SaveRun(req.Context(), storage.NewRun(runID, orderCount, res)); err != nil {
		return RunResponse{}, err
	}
	bh.metrics.Observe(res)

	logger.Logger.Info().
		Str("run", runID).
		Int("orders", orderCount).
		Int("unpaid", len(res.Unpaid)).
		Msg("run completed")
	return newRunResponse(runID, res), nil
}

func (bh *BaseHandler) optimize() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var doc loader.Document
		if err := json.NewDecoder(req.Body).Decode(&doc); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			logger.Logger.Info().Err(err).Msg("decode request")
			return
		}

		batch, err := doc.Batch()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp, err := bh.run(req, batch)
		if err != nil {
			if errors.Is(err, entity.ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			logger.Logger.Err(err).Msg("optimize")
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func (bh *BaseHandler) optimizeBatch() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var docs []loader.Document
		if err := json.NewDecoder(req.Body).Decode(&docs); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			logger.Logger.Info().Err(err).Msg("decode request")
			return
		}

		resps := make([]RunResponse, len(docs))
		batches := make([]entity.Batch, 0, len(docs))
		positions := make([]int, 0, len(docs))
		for i, doc := range docs {
			batch, err := doc.Batch()
			if err != nil {
				resps[i] = RunResponse{Error: err.Error()}
				continue
			}
			batches = append(batches, batch)
			positions = append(positions, i)
		}

		results := optimizer.OptimizeBatches(req.Context(), batches, bh.workers)
		for j, r := range results {
			i := positions[j]
			if r.Err != nil {
				resps[i] = RunResponse{Error: r.Err.Error()}
				continue
			}
			// a store failure only fails its own batch
			resp, err := bh.store(req, len(batches[j].Orders), r.Result)
			if err != nil {
				resps[i] = RunResponse{Error: "run not stored"}
				logger.Logger.Err(err).Int("batch", i).Msg("optimize batch")
				continue
			}
			resps[i] = resp
		}

		writeJSON(w, http.StatusOK, resps)
	}
}

func (bh *BaseHandler) getRun() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		runID := chi.URLParam(req, "runID")

		run, err := bh.repo.GetRun(req.Context(), runID)
		if err != nil {
			if errors.Is(err, storage.ErrRunNotFound) {
				http.Error(w, "Run not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			logger.Logger.Err(err).Str("run", runID).Msg("get run")
			return
		}

		writeJSON(w, http.StatusOK, runResponseFromStorage(run))
	}
}
