// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package recommend

import (
	"context"
	"errors"
	"math"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/senergy/internal/recommend/blend"
	"github.com/tomtom215/senergy/internal/recommend/embedding"
	"github.com/tomtom215/senergy/internal/recommend/embedding/embeddingtest"
	"github.com/tomtom215/senergy/internal/recommend/features"
	"github.com/tomtom215/senergy/internal/recommend/heuristic"
	"github.com/tomtom215/senergy/internal/recommend/retrain"
	"github.com/tomtom215/senergy/internal/recommend/storage"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Architecture = embeddingtest.Architecture()
	cfg.Training = embeddingtest.TrainOptions(3)
	return cfg
}

func newTestEngine(t *testing.T, store storage.ModelStore) *Engine {
	t.Helper()

	if store == nil {
		fs, err := storage.NewFileStore(t.TempDir(), 2, zerolog.Nop())
		if err != nil {
			t.Fatalf("NewFileStore() error = %v", err)
		}
		store = fs
	}
	e, err := NewEngine(testConfig(), store, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func requestFor(ratings []features.Rating, i int) blend.Request {
	users, places := features.Aggregate(ratings)
	r := ratings[i]
	return blend.Request{
		UserID:  r.UserID,
		PlaceID: r.PlaceID,
		User:    users[r.UserID],
		Place:   places[r.PlaceID],
		SimilarRatings: []heuristic.SimilarRating{
			{UserID: "peer", AdjustmentFactor: r.UserAdjustmentFactor, OverallScore: 7},
		},
	}
}

// failingStore wraps a store and fails every Save.
type failingStore struct {
	storage.ModelStore
}

func (failingStore) Save(context.Context, *embedding.Snapshot) error {
	return &storage.PersistenceError{Op: "save", Err: errors.New("disk full")}
}

// blockingStore holds Save until release is closed.
type blockingStore struct {
	storage.ModelStore
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) Save(ctx context.Context, snap *embedding.Snapshot) error {
	close(s.entered)
	<-s.release
	return s.ModelStore.Save(ctx, snap)
}

// countingObserver records prediction events.
type countingObserver struct {
	nopObserver
	mu        sync.Mutex
	cached    int
	uncached  int
	snapshots int
}

func (o *countingObserver) ObservePrediction(_ blend.Method, cached bool, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if cached {
		o.cached++
	} else {
		o.uncached++
	}
}

func (o *countingObserver) ObserveSnapshot(*embedding.Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshots++
}

func TestNewEngine(t *testing.T) {
	t.Parallel()

	if _, err := NewEngine(testConfig(), nil, zerolog.Nop()); err == nil {
		t.Error("NewEngine without a store should fail")
	}

	bad := testConfig()
	bad.Training.Epochs = 0
	fs, _ := storage.NewFileStore(t.TempDir(), 1, zerolog.Nop())
	if _, err := NewEngine(bad, fs, zerolog.Nop()); err == nil {
		t.Error("NewEngine with invalid config should fail")
	}
}

func TestEngine_PredictWithoutModel(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	ratings := embeddingtest.Ratings(8, 8, 1)

	res, err := e.Predict(requestFor(ratings, 0))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if res.Method != blend.MethodHeuristicOnly || res.Breakdown.Model.Available {
		t.Errorf("Predict() without model = %+v", res)
	}
	if res.PredictedScore < 1 || res.PredictedScore > 10 {
		t.Errorf("PredictedScore = %v out of range", res.PredictedScore)
	}
}

func TestEngine_PredictValidation(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	_, err := e.Predict(blend.Request{})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Predict({}) error = %v, want *ValidationError", err)
	}
	if len(verr.Fields) != 2 {
		t.Errorf("Fields = %v, want userId and placeId", verr.Fields)
	}
}

func TestEngine_PredictRejectsBadFeatures(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	_, err := e.Predict(blend.Request{
		UserID:  "u",
		PlaceID: "p",
		User:    features.UserAggregate{AvgRating: math.NaN(), TotalRatings: -1},
		Place:   features.PlaceAggregate{AvgScore: 8, AvgService: math.Inf(1)},
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Predict() error = %v, want *ValidationError", err)
	}
	want := []string{
		"userFeatures.avgRating must be a finite number",
		"placeFeatures.avgService must be a finite number",
		"userFeatures.totalRatings must not be negative",
	}
	if !slices.Equal(verr.Fields, want) {
		t.Errorf("Fields = %v, want %v", verr.Fields, want)
	}
}

func TestEngine_TrainSavesThenPublishes(t *testing.T) {
	t.Parallel()

	fs, err := storage.NewFileStore(t.TempDir(), 2, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	e := newTestEngine(t, fs)
	obs := &countingObserver{}
	e.SetObserver(obs)

	ratings := embeddingtest.Ratings(8, 8, 2)
	res, err := e.Train(context.Background(), ratings)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	if !e.ModelLoaded() || e.Snapshot().Version() != res.Version {
		t.Fatalf("snapshot not published after Train")
	}
	stored, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("store.Load() error = %v", err)
	}
	if stored.Version() != res.Version {
		t.Errorf("stored version = %s, want %s", stored.Version(), res.Version)
	}

	st := e.Status()
	if !st.ModelLoaded || st.TotalSamplesSeen != len(ratings) || st.LastTrained == nil {
		t.Errorf("Status() = %+v", st)
	}
	if st.Training.Runs != 1 || st.Training.IsTraining {
		t.Errorf("Training status = %+v", st.Training)
	}
	if obs.snapshots != 1 {
		t.Errorf("ObserveSnapshot calls = %d, want 1", obs.snapshots)
	}

	pred, err := e.Predict(requestFor(ratings, 0))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if pred.Method != blend.MethodHybrid {
		t.Fatalf("Method = %s, want hybrid after training", pred.Method)
	}
	if *pred.Breakdown.Model.Confidence != blend.FullFamiliarityConfidence {
		t.Errorf("model confidence = %v for known identities", *pred.Breakdown.Model.Confidence)
	}
}

func TestEngine_SaveFailureDoesNotPublish(t *testing.T) {
	t.Parallel()

	fs, _ := storage.NewFileStore(t.TempDir(), 2, zerolog.Nop())
	e := newTestEngine(t, failingStore{fs})

	_, err := e.Train(context.Background(), embeddingtest.Ratings(8, 8, 3))

	var terr *embedding.TrainingError
	if !errors.As(err, &terr) || terr.Stage != embedding.StageSave {
		t.Fatalf("Train() error = %v, want save-stage TrainingError", err)
	}
	if e.ModelLoaded() {
		t.Error("snapshot published despite failed save")
	}
	if st := e.Status(); st.Training.LastError == "" || st.Training.Runs != 0 {
		t.Errorf("Training status = %+v", st.Training)
	}
}

func TestEngine_TrainRejectsConcurrentPass(t *testing.T) {
	t.Parallel()

	fs, _ := storage.NewFileStore(t.TempDir(), 2, zerolog.Nop())
	bs := &blockingStore{ModelStore: fs, entered: make(chan struct{}), release: make(chan struct{})}
	e := newTestEngine(t, bs)
	ratings := embeddingtest.Ratings(8, 8, 4)

	done := make(chan error, 1)
	go func() {
		_, err := e.Train(context.Background(), ratings)
		done <- err
	}()

	<-bs.entered
	if !e.IsTraining() {
		t.Error("IsTraining() = false during a pass")
	}
	if _, err := e.Train(context.Background(), ratings); !errors.Is(err, ErrTrainingInProgress) {
		t.Errorf("second Train() error = %v, want ErrTrainingInProgress", err)
	}
	if e.ModelLoaded() {
		t.Error("snapshot published before save completed")
	}

	close(bs.release)
	if err := <-done; err != nil {
		t.Fatalf("first Train() error = %v", err)
	}
	if !e.ModelLoaded() {
		t.Error("snapshot not published after save completed")
	}
}

func TestEngine_MaybeTrain(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	ctx := context.Background()
	ratings := embeddingtest.Ratings(8, 8, 5)

	_, _, err := e.MaybeTrain(ctx, ratings[:5])
	if !errors.Is(err, embedding.ErrInsufficientData) {
		t.Fatalf("MaybeTrain(5 ratings) error = %v, want ErrInsufficientData", err)
	}

	d, res, err := e.MaybeTrain(ctx, ratings)
	if err != nil {
		t.Fatalf("MaybeTrain() error = %v", err)
	}
	if !d.Retrain || d.Reason != retrain.ReasonNoModel || res == nil {
		t.Fatalf("first MaybeTrain() = %s, %+v", d, res)
	}

	d, res, err = e.MaybeTrain(ctx, ratings)
	if err != nil || d.Retrain || d.Reason != retrain.ReasonUpToDate || res != nil {
		t.Fatalf("second MaybeTrain() = %s, %+v, %v", d, res, err)
	}

	grown := append(slices.Clone(ratings), embeddingtest.Ratings(20, 10, 6)...)
	d, res, err = e.MaybeTrain(ctx, grown)
	if err != nil {
		t.Fatalf("third MaybeTrain() error = %v", err)
	}
	if !d.Retrain || d.Reason != retrain.ReasonVolume || res == nil {
		t.Errorf("third MaybeTrain() = %s", d)
	}
	if st := e.Status(); st.Training.LastDecision == nil || st.Training.LastDecision.Reason != retrain.ReasonVolume {
		t.Errorf("LastDecision = %+v", st.Training.LastDecision)
	}
}

func TestEngine_MaybeTrainStaleness(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	ctx := context.Background()
	ratings := embeddingtest.Ratings(8, 8, 7)

	if _, err := e.Train(ctx, ratings); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	trainedAt := e.Snapshot().Metadata().LastTrained
	e.now = func() time.Time { return trainedAt.Add(8 * 24 * time.Hour) }

	d, _, err := e.MaybeTrain(ctx, ratings)
	if err != nil {
		t.Fatalf("MaybeTrain() error = %v", err)
	}
	if !d.Retrain || d.Reason != retrain.ReasonStaleness || d.AgeDays != 8 {
		t.Errorf("MaybeTrain() = %s, want staleness after 8 days", d)
	}
}

func TestEngine_LoadFromStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fs, _ := storage.NewFileStore(dir, 2, zerolog.Nop())

	empty := newTestEngine(t, fs)
	if err := empty.LoadFromStore(context.Background()); !errors.Is(err, storage.ErrModelNotFound) {
		t.Errorf("LoadFromStore(empty) error = %v, want ErrModelNotFound", err)
	}
	if empty.ModelLoaded() {
		t.Error("model loaded from empty store")
	}

	trainer := newTestEngine(t, fs)
	res, err := trainer.Train(context.Background(), embeddingtest.Ratings(8, 8, 8))
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	restarted := newTestEngine(t, fs)
	if err := restarted.LoadFromStore(context.Background()); err != nil {
		t.Fatalf("LoadFromStore() error = %v", err)
	}
	if restarted.Snapshot().Version() != res.Version {
		t.Errorf("loaded version = %s, want %s", restarted.Snapshot().Version(), res.Version)
	}
}

func TestEngine_PredictBatch(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	ratings := embeddingtest.Ratings(8, 8, 9)

	if _, err := e.PredictBatch(nil, nil); err == nil {
		t.Error("PredictBatch(empty) should fail")
	}

	reqs := []blend.Request{requestFor(ratings, 0), {UserID: "u"}}
	_, err := e.PredictBatch(reqs, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) != 1 || verr.Fields[0] != "predictions[1].placeId is required" {
		t.Fatalf("PredictBatch(invalid item) error = %v", err)
	}

	w := blend.Weights{Heuristic: 1, Model: 0}
	reqs = []blend.Request{requestFor(ratings, 0), requestFor(ratings, 1)}
	items, err := e.PredictBatch(reqs, &w)
	if err != nil {
		t.Fatalf("PredictBatch() error = %v", err)
	}
	if len(items) != 2 || items[1].UserID != ratings[1].UserID {
		t.Fatalf("items = %+v", items)
	}
	for _, it := range items {
		if it.Breakdown.Heuristic.Weight != 1 {
			t.Errorf("batch weights not applied: %+v", it.Breakdown.Heuristic)
		}
	}
}

func TestEngine_PredictionCache(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	obs := &countingObserver{}
	e.SetObserver(obs)
	ratings := embeddingtest.Ratings(8, 8, 10)
	req := requestFor(ratings, 0)

	first, _ := e.Predict(req)
	second, _ := e.Predict(req)
	if first.PredictedScore != second.PredictedScore {
		t.Error("cached prediction differs")
	}
	if obs.cached != 1 || obs.uncached != 1 {
		t.Errorf("cached=%d uncached=%d, want 1/1", obs.cached, obs.uncached)
	}

	if _, err := e.Train(context.Background(), ratings); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	after, _ := e.Predict(req)
	if after.Method != blend.MethodHybrid {
		t.Errorf("stale cached result served after publish: %s", after.Method)
	}
}

func TestEngine_ConcurrentPredictDuringTraining(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	ratings := embeddingtest.Ratings(8, 8, 12)
	ctx := context.Background()

	if _, err := e.Train(ctx, ratings); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	reqs := make([]blend.Request, len(ratings))
	for i := range ratings {
		reqs[i] = requestFor(ratings, i)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; ; i++ {
				select {
				case <-stop:
					return
				default:
				}
				res, err := e.Predict(reqs[(g+i)%len(reqs)])
				if err != nil {
					t.Errorf("Predict() error = %v", err)
					return
				}
				if res.Method != blend.MethodHybrid {
					t.Errorf("Method = %s while a model is published", res.Method)
					return
				}
			}
		}(g)
	}

	if _, err := e.Train(ctx, ratings); err != nil {
		t.Errorf("retrain error = %v", err)
	}
	close(stop)
	wg.Wait()
}
