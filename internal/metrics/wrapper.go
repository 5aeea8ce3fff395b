package metrics

// Wrapper adapts Metrics to the narrow interfaces consumed by the ml,
// analytics and server packages, avoiding import cycles.
type Wrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

// ml.MetricsInterface

func (w *Wrapper) PredictionsInc()                    { w.m.PredictionsTotal.Inc() }
func (w *Wrapper) PredictionFailuresInc()             { w.m.PredictionFailures.Inc() }
func (w *Wrapper) PredictionLatencyObserve(s float64) { w.m.PredictionLatency.Observe(s) }
func (w *Wrapper) BatchSizeObserve(size float64)      { w.m.BatchSize.Observe(size) }
func (w *Wrapper) EncodeErrorsInc()                   { w.m.EncodeErrors.Inc() }

// ml.ResolutionTracker

func (w *Wrapper) ResolutionAttemptInc(source string) {
	w.m.ResolutionAttempts.WithLabelValues(source).Inc()
}

func (w *Wrapper) ResolutionFailureInc(source string) {
	w.m.ResolutionFailures.WithLabelValues(source).Inc()
}

func (w *Wrapper) StandInUseInc() { w.m.StandInUses.Inc() }

func (w *Wrapper) ModelLoadedSet(loaded bool) {
	if loaded {
		w.m.ModelLoaded.Set(1)
	} else {
		w.m.ModelLoaded.Set(0)
	}
}

func (w *Wrapper) ModelAgeSet(seconds float64) { w.m.ModelAge.Set(seconds) }

// analytics.SinkTracker

func (w *Wrapper) SinkFailuresInc()  { w.m.SinkFailures.Inc() }
func (w *Wrapper) EventsDroppedInc() { w.m.EventsDropped.Inc() }
