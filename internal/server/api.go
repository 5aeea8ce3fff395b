// Package server exposes the prediction API over HTTP: a prediction endpoint
// accepting single and batch payloads, a health probe, model metadata, and a
// WebSocket feed of served predictions.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"flightdelay/internal/analytics"
	"flightdelay/internal/features"
	"flightdelay/internal/flight"
	"flightdelay/internal/ml"
)

// FlightPayload is a single flight in the prediction request body.
type FlightPayload struct {
	Airline    string `json:"OPERA"`
	FlightType string `json:"TIPOVUELO"`
	Month      int    `json:"MES"`
}

// BatchRequest is the list-shaped request body kept for older clients.
type BatchRequest struct {
	Flights []FlightPayload `json:"flights"`
}

// SingleResponse echoes the flight back alongside its prediction.
type SingleResponse struct {
	DelayPrediction int            `json:"delay_prediction"`
	Details         PayloadDetails `json:"details"`
}

// PayloadDetails restates the request fields under stable names.
type PayloadDetails struct {
	Airline    string `json:"airline"`
	Month      int    `json:"month"`
	FlightType string `json:"flight_type"`
}

// BatchResponse carries one prediction per submitted flight, in order.
type BatchResponse struct {
	Predict []int `json:"predict"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// API serves prediction requests over HTTP.
type API struct {
	predictor  *ml.Predictor
	dispatcher *analytics.Dispatcher
	hub        *Hub
	server     *http.Server
}

// New wires the prediction API on the given port. The dispatcher and hub are
// optional; nil disables prediction logging and the WebSocket feed.
func New(predictor *ml.Predictor, dispatcher *analytics.Dispatcher, hub *Hub, port int) *API {
	a := &API{
		predictor:  predictor,
		dispatcher: dispatcher,
		hub:        hub,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/predict", a.handlePredict)
	mux.HandleFunc("/health", a.handleHealth)
	mux.HandleFunc("/model/info", a.handleModelInfo)
	if hub != nil {
		mux.HandleFunc("/ws/predictions", hub.handleWS)
	}

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return a
}

// Start begins serving HTTP requests. It blocks until the server stops.
func (a *API) Start() error {
	log.Info().Str("addr", a.server.Addr).Msg("starting prediction API")
	return a.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (a *API) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// Handler returns the configured HTTP handler, used by tests.
func (a *API) Handler() http.Handler {
	return a.server.Handler
}

func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Peek at the body shape: a "flights" key selects the batch form.
	var probe struct {
		Flights json.RawMessage `json:"flights"`
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if probe.Flights != nil {
		a.predictBatch(w, r, raw)
		return
	}
	a.predictSingle(w, r, raw)
}

func (a *API) predictSingle(w http.ResponseWriter, r *http.Request, raw json.RawMessage) {
	var payload FlightPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid flight payload: %v", err))
		return
	}

	rec := payload.record()
	if err := rec.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	labels, err := a.predict(r.Context(), []flight.Record{rec})
	if err != nil {
		a.writePredictError(w, err)
		return
	}

	a.publish(rec, labels[0])
	writeJSON(w, http.StatusOK, SingleResponse{
		DelayPrediction: labels[0],
		Details: PayloadDetails{
			Airline:    payload.Airline,
			Month:      payload.Month,
			FlightType: payload.FlightType,
		},
	})
}

func (a *API) predictBatch(w http.ResponseWriter, r *http.Request, raw json.RawMessage) {
	var req BatchRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid batch payload: %v", err))
		return
	}
	if len(req.Flights) == 0 {
		writeError(w, http.StatusBadRequest, "flights list cannot be empty")
		return
	}

	records := make([]flight.Record, len(req.Flights))
	for i, p := range req.Flights {
		rec := p.record()
		if err := rec.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("flight %d: %v", i, err))
			return
		}
		records[i] = rec
	}

	labels, err := a.predict(r.Context(), records)
	if err != nil {
		a.writePredictError(w, err)
		return
	}

	for i, rec := range records {
		a.publish(rec, labels[i])
	}
	writeJSON(w, http.StatusOK, BatchResponse{Predict: labels})
}

func (a *API) predict(ctx context.Context, records []flight.Record) ([]int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return a.predictor.Predict(ctx, records)
}

func (a *API) writePredictError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ml.ErrResolutionExhausted):
		log.Error().Err(err).Msg("no model available")
		writeError(w, http.StatusServiceUnavailable, "no model available")
	case errors.Is(err, features.ErrEncodingMismatch):
		log.Error().Err(err).Msg("artifact column mismatch")
		writeError(w, http.StatusInternalServerError, "model artifact is unusable")
	default:
		log.Error().Err(err).Msg("prediction failed")
		writeError(w, http.StatusInternalServerError, "prediction failed")
	}
}

// publish hands the served prediction to the analytics dispatcher and the
// WebSocket feed. Both are best effort.
func (a *API) publish(rec flight.Record, label int) {
	ev := analytics.Event{
		Airline:    rec.Airline,
		FlightType: rec.FlightType,
		Month:      rec.Month,
		Prediction: label,
		Source:     a.modelSource(),
		Timestamp:  time.Now().UTC(),
	}
	if a.dispatcher != nil {
		a.dispatcher.Publish(ev)
	}
	if a.hub != nil {
		a.hub.Broadcast(ev)
	}
}

// modelSource reports which tier served the prediction. Called right after a
// successful prediction, so the model reference is already set.
func (a *API) modelSource() string {
	if m, err := a.predictor.Model(context.Background()); err == nil {
		return m.Source
	}
	return ""
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	m, err := a.predictor.Model(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "no model available")
		return
	}

	info := map[string]interface{}{
		"estimator": m.Estimator.Kind(),
		"source":    m.Source,
		"columns":   len(m.Columns),
	}
	if !m.TrainedAt.IsZero() {
		info["trained_at"] = m.TrainedAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, info)
}

func (p FlightPayload) record() flight.Record {
	return flight.Record{
		Airline:    p.Airline,
		FlightType: p.FlightType,
		Month:      p.Month,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
