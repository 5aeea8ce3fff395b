// Command delaytrain trains a delay model from a historical CSV dataset and
// writes the versioned artifact, optionally scoring a dataset with it.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"flightdelay/internal/cfg"
	"flightdelay/internal/flight"
	"flightdelay/internal/ml"
)

func main() {
	_ = godotenv.Load()

	var (
		dataPath  = flag.String("data", "", "historical flights CSV (required)")
		outPath   = flag.String("out", "", "artifact path (default from config)")
		mode      = flag.String("mode", "train", "train, predict, or both")
		scoreOut  = flag.String("scores", "predictions.csv", "output CSV for predict mode")
		estimator = flag.String("estimator", "", "logistic or boosted (default from config)")
		topCols   = flag.Int("top", -1, "keep the N most balanced columns, 0 keeps all (default from config)")
		seed      = flag.Int64("seed", 0, "training seed for a reproducible split (unset: non-deterministic)")
	)
	flag.Parse()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	artifactPath := c.ArtifactPath
	if *outPath != "" {
		artifactPath = *outPath
	}
	if *estimator != "" {
		c.Estimator = *estimator
	}
	if *topCols >= 0 {
		c.TopColumns = *topCols
	}
	if flagWasSet("seed") {
		c.Seed = seed
	}

	if *dataPath == "" {
		log.Fatal().Msg("-data is required")
	}
	records, err := flight.LoadCSV(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *dataPath).Msg("dataset load failed")
	}
	log.Info().Int("records", len(records)).Str("path", *dataPath).Msg("dataset loaded")

	store := ml.NewArtifactStore()

	switch *mode {
	case "train", "both":
		train(c, store, records, artifactPath)
		if *mode == "both" {
			predict(store, records, artifactPath, *scoreOut)
		}
	case "predict":
		predict(store, records, artifactPath, *scoreOut)
	default:
		log.Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}

func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func train(c cfg.Settings, store *ml.ArtifactStore, records []flight.Record, artifactPath string) {
	result, err := ml.Train(records, ml.TrainerConfig{
		Strategy:        c.Estimator,
		TopColumns:      c.TopColumns,
		HoldoutFraction: ml.DefaultHoldoutFraction,
		Seed:            c.Seed,
		LearningRate:    c.LearningRate,
		Epochs:          c.Epochs,
		BatchSize:       c.BatchSize,
		Rounds:          c.Rounds,
		MaxDepth:        c.MaxDepth,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("training failed")
	}

	if err := store.Save(result.Artifact, artifactPath); err != nil {
		log.Fatal().Err(err).Str("path", artifactPath).Msg("artifact save failed")
	}

	acc := holdoutAccuracy(result)
	log.Info().
		Str("estimator", result.Artifact.Estimator).
		Int("columns", len(result.Artifact.Columns)).
		Int("trainingRows", result.Artifact.TrainingRows).
		Float64("holdoutAccuracy", acc).
		Str("path", artifactPath).
		Msg("artifact written")
}

// holdoutAccuracy scores the trained model on the held-out partition. Returns
// NaN-free 0 when there is no holdout data.
func holdoutAccuracy(result *ml.TrainResult) float64 {
	if len(result.HoldoutY) == 0 {
		return 0
	}
	est, err := result.Artifact.Model()
	if err != nil {
		return 0
	}
	probs := est.PredictProba(result.HoldoutX)
	correct := 0
	for i, p := range probs {
		label := 0
		if p >= 0.5 {
			label = 1
		}
		if label == result.HoldoutY[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(result.HoldoutY))
}

func predict(store *ml.ArtifactStore, records []flight.Record, artifactPath, outPath string) {
	resolver := ml.NewResolver(ml.ResolverConfig{
		ArtifactPath:  artifactPath,
		DisableRemote: true,
	}, store, nil)
	predictor := ml.NewPredictor(resolver, nil)

	labels, err := predictor.Predict(context.Background(), records)
	if err != nil {
		log.Fatal().Err(err).Msg("scoring failed")
	}

	if err := writeScores(outPath, records, labels); err != nil {
		log.Fatal().Err(err).Str("path", outPath).Msg("score output failed")
	}
	log.Info().Int("rows", len(labels)).Str("path", outPath).Msg("scores written")
}

func writeScores(path string, records []flight.Record, labels []int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"OPERA", "TIPOVUELO", "MES", "delay_prediction"}); err != nil {
		return err
	}
	for i, rec := range records {
		row := []string{rec.Airline, rec.FlightType, strconv.Itoa(rec.Month), strconv.Itoa(labels[i])}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
