// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/senergy/internal/recommend/features"
	"github.com/tomtom215/senergy/internal/recommend/nn"
)

// syntheticRatings produces ratings where extroverts prefer lively places.
func syntheticRatings(users, places int, seed int64) []features.Rating {
	rng := rand.New(rand.NewSource(seed))
	personalities := []string{
		features.PersonalityStrongIntrovert,
		features.PersonalityModerateIntrovert,
		features.PersonalityAmbivert,
		features.PersonalityModerateExtrovert,
		features.PersonalityStrongExtrovert,
	}

	var out []features.Rating
	for u := 0; u < users; u++ {
		p := rng.Intn(len(personalities))
		af := float64(p)/2 - 1
		for pl := 0; pl < places; pl++ {
			if rng.Float64() < 0.4 {
				continue
			}
			social := 1 + float64(pl%10)
			score := 5.5 + af*(social-5.5)*0.6 + rng.NormFloat64()*0.3
			score = math.Max(1, math.Min(10, score))
			out = append(out, features.Rating{
				UserID:               fmt.Sprintf("user-%02d", u),
				PlaceID:              fmt.Sprintf("place-%02d", pl),
				OverallScore:         score,
				UserAdjustmentFactor: af,
				UserPersonalityType:  personalities[p],
				Categories:           &features.Categories{SocialEnergy: &social},
			})
		}
	}
	return out
}

func testTrainer(t *testing.T, epochs int) *Trainer {
	t.Helper()

	arch := DefaultArchitecture()
	arch.EmbeddingDim = 8
	arch.TowerHidden = 16
	arch.TowerOutput = 8
	arch.HiddenLayers = []int{16, 8}
	arch.LearningRate = 0.01

	opts := DefaultTrainOptions()
	opts.Epochs = epochs
	opts.BatchSize = 16

	tr, err := NewTrainer(arch, opts, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewTrainer() error = %v", err)
	}
	return tr
}

func TestNewTrainer_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	badArch := DefaultArchitecture()
	badArch.DropoutRate = 1
	if _, err := NewTrainer(badArch, DefaultTrainOptions(), zerolog.Nop()); err == nil {
		t.Error("expected error for dropout rate 1")
	}

	badOpts := DefaultTrainOptions()
	badOpts.ValidationFraction = 1
	if _, err := NewTrainer(DefaultArchitecture(), badOpts, zerolog.Nop()); err == nil {
		t.Error("expected error for validation fraction 1")
	}
}

func TestTrainer_InsufficientData(t *testing.T) {
	t.Parallel()

	tr := testTrainer(t, 1)
	_, _, err := tr.Train(context.Background(), nil, syntheticRatings(1, 3, 1))

	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("error = %v, want ErrInsufficientData", err)
	}
	var te *TrainingError
	if !errors.As(err, &te) || te.Stage != StageValidate {
		t.Errorf("error = %v, want TrainingError at %s stage", err, StageValidate)
	}
}

func TestTrainer_TrainReducesLossAndRecordsMetadata(t *testing.T) {
	t.Parallel()

	tr := testTrainer(t, 40)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return fixed }

	ratings := syntheticRatings(20, 10, 2)
	snap, history, err := tr.Train(context.Background(), nil, ratings)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	first, last := history.Epochs[0], history.Epochs[len(history.Epochs)-1]
	if last.Loss >= first.Loss {
		t.Errorf("loss did not decrease: first %f, last %f", first.Loss, last.Loss)
	}
	if history.ValExamples == 0 || history.TrainExamples+history.ValExamples != len(ratings) {
		t.Errorf("split %d/%d does not cover %d examples", history.TrainExamples, history.ValExamples, len(ratings))
	}

	meta := snap.Metadata()
	if meta.TotalSamplesSeen != len(ratings) {
		t.Errorf("TotalSamplesSeen = %d, want %d", meta.TotalSamplesSeen, len(ratings))
	}
	if !meta.LastTrained.Equal(fixed) {
		t.Errorf("LastTrained = %v, want %v", meta.LastTrained, fixed)
	}
	if meta.EpochsCompleted != len(history.Epochs) {
		t.Errorf("EpochsCompleted = %d, want %d", meta.EpochsCompleted, len(history.Epochs))
	}
	if len(meta.LossHistory) != len(history.Epochs) || len(meta.ValidationLossHistory) != len(history.Epochs) {
		t.Errorf("history lengths %d/%d, want %d", len(meta.LossHistory), len(meta.ValidationLossHistory), len(history.Epochs))
	}
	users, places := features.Aggregate(ratings)
	if snap.KnownUsers() != len(users) || snap.KnownPlaces() != len(places) {
		t.Errorf("known = %d users, %d places; want %d, %d", snap.KnownUsers(), snap.KnownPlaces(), len(users), len(places))
	}
	if snap.Version() == "" {
		t.Error("snapshot has no version")
	}
}

func TestTrainer_WarmStartExtendsMapsAndAppendsMetadata(t *testing.T) {
	t.Parallel()

	tr := testTrainer(t, 3)
	first := syntheticRatings(8, 8, 3)
	prev, _, err := tr.Train(context.Background(), nil, first)
	if err != nil {
		t.Fatalf("first Train() error = %v", err)
	}
	prevMeta := prev.Metadata()
	prevUsers := prev.userMap.IDs()

	second := append(append([]features.Rating(nil), first...), features.Rating{
		UserID: "newcomer", PlaceID: "new-place", OverallScore: 7,
	})
	next, _, err := tr.Train(context.Background(), prev, second)
	if err != nil {
		t.Fatalf("second Train() error = %v", err)
	}

	for i, id := range prevUsers {
		if idx, ok := next.userMap.Index(id); !ok || idx != i {
			t.Errorf("user %q moved from %d to %d", id, i, idx)
		}
	}
	if idx, _ := next.userMap.Index("newcomer"); idx != len(prevUsers) {
		t.Errorf("newcomer index = %d, want %d", idx, len(prevUsers))
	}
	if prev.KnowsUser("newcomer") || prev.KnownUsers() != len(prevUsers) {
		t.Error("training mutated the previous snapshot's identity map")
	}

	meta := next.Metadata()
	if meta.TotalSamplesSeen != prevMeta.TotalSamplesSeen+len(second) {
		t.Errorf("TotalSamplesSeen = %d, want %d", meta.TotalSamplesSeen, prevMeta.TotalSamplesSeen+len(second))
	}
	if meta.EpochsCompleted <= prevMeta.EpochsCompleted {
		t.Errorf("EpochsCompleted = %d, want > %d", meta.EpochsCompleted, prevMeta.EpochsCompleted)
	}
	for i, v := range prevMeta.LossHistory {
		if meta.LossHistory[i] != v {
			t.Fatalf("loss history entry %d rewritten", i)
		}
	}
	if next.Version() == prev.Version() {
		t.Error("new snapshot reused the previous version")
	}
}

func TestTrainer_FitStopsEarlyAndRestoresBestWeights(t *testing.T) {
	t.Parallel()

	tr := testTrainer(t, 200)
	tr.opts.ValidationFraction = 0.3
	tr.opts.EarlyStoppingPatience = 4
	tr.opts.PlateauPatience = 2

	// Targets are pure noise, so validation loss stops improving once the
	// network has learned the mean.
	rng := rand.New(rand.NewSource(7))
	examples := make([]example, 150)
	for i := range examples {
		userRow := make([]float64, features.UserFeatureDim)
		for j := range userRow {
			userRow[j] = rng.NormFloat64()
		}
		placeRow := make([]float64, features.PlaceFeatureDim)
		for j := range placeRow {
			placeRow[j] = rng.NormFloat64()
		}
		examples[i] = example{
			userIdx:  i % 10,
			placeIdx: (i / 10) % 10,
			userRow:  userRow,
			placeRow: placeRow,
			target:   1 + 9*rng.Float64(),
		}
	}

	net := newNetwork(tr.arch, 10, 10, rng)
	history, err := tr.fit(context.Background(), net, examples, rng)
	if err != nil {
		t.Fatalf("fit() error = %v", err)
	}

	epochs := history.Epochs
	if !history.StoppedEarly {
		t.Fatalf("fit() ran all %d epochs without stopping early", len(epochs))
	}
	if len(epochs) != history.BestEpoch+tr.opts.EarlyStoppingPatience {
		t.Errorf("stopped after %d epochs, best %d, want best + patience %d",
			len(epochs), history.BestEpoch, tr.opts.EarlyStoppingPatience)
	}

	best := epochs[history.BestEpoch-1].ValLoss
	for _, e := range epochs {
		if e.ValLoss < best {
			t.Errorf("epoch %d val loss %v beats recorded best %v", e.Epoch, e.ValLoss, best)
		}
	}

	initial := tr.arch.LearningRate
	if epochs[0].LearningRate != initial {
		t.Errorf("first epoch learning rate = %v, want %v", epochs[0].LearningRate, initial)
	}
	for i := 1; i < len(epochs); i++ {
		if epochs[i].LearningRate > epochs[i-1].LearningRate {
			t.Errorf("learning rate rose at epoch %d: %v -> %v", epochs[i].Epoch, epochs[i-1].LearningRate, epochs[i].LearningRate)
		}
	}
	if last := epochs[len(epochs)-1].LearningRate; last >= initial {
		t.Errorf("learning rate never decayed on plateau, last = %v", last)
	}

	split := int(math.Ceil(float64(len(examples)) * (1 - tr.opts.ValidationFraction)))
	valBatch, valTargets := gather(examples, span(split, len(examples)))
	pred, err := net.infer(valBatch)
	if err != nil {
		t.Fatalf("infer() error = %v", err)
	}
	restored := nn.Evaluate(pred, valTargets).MSE + net.penalty()
	if math.Abs(restored-best) > 1e-9 {
		t.Errorf("restored validation loss = %v, want best epoch loss %v", restored, best)
	}
}

func TestTrainer_ContextCancelled(t *testing.T) {
	t.Parallel()

	tr := testTrainer(t, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := tr.Train(ctx, nil, syntheticRatings(8, 8, 4))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestSnapshot_Predict(t *testing.T) {
	t.Parallel()

	tr := testTrainer(t, 5)
	ratings := syntheticRatings(8, 8, 5)
	snap, _, err := tr.Train(context.Background(), nil, ratings)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	users, places := features.Aggregate(ratings)
	u, p := ratings[0].UserID, ratings[0].PlaceID

	tests := []struct {
		name    string
		userID  string
		placeID string
	}{
		{"known pair", u, p},
		{"cold start user", "stranger", p},
		{"cold start place", u, "nowhere"},
		{"cold start both", "stranger", "nowhere"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := snap.Predict(tt.userID, tt.placeID, users[u], places[p])
			if err != nil {
				t.Fatalf("Predict() error = %v", err)
			}
			if got < 1 || got > 10 {
				t.Errorf("Predict() = %f, outside [1, 10]", got)
			}
		})
	}

	// Out-of-scale features still produce a clamped score.
	extreme := features.PlaceAggregate{AvgScore: 1e6, TotalRatings: 1e6}
	got, err := snap.Predict(u, p, users[u], extreme)
	if err != nil {
		t.Fatalf("Predict(extreme) error = %v", err)
	}
	if got < 1 || got > 10 {
		t.Errorf("Predict(extreme) = %f, outside [1, 10]", got)
	}
}

func TestSnapshot_PredictNotTrained(t *testing.T) {
	t.Parallel()

	var snap *Snapshot
	_, err := snap.Predict("u", "p", features.UserAggregate{}, features.PlaceAggregate{})
	if !errors.Is(err, ErrNotTrained) {
		t.Errorf("error = %v, want ErrNotTrained", err)
	}
}

func TestSnapshot_ExportRoundTrip(t *testing.T) {
	t.Parallel()

	tr := testTrainer(t, 3)
	ratings := syntheticRatings(8, 8, 6)
	snap, _, err := tr.Train(context.Background(), nil, ratings)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	restored, err := FromState(snap.Export())
	if err != nil {
		t.Fatalf("FromState() error = %v", err)
	}

	users, places := features.Aggregate(ratings)
	for _, r := range ratings[:5] {
		a, errA := snap.Predict(r.UserID, r.PlaceID, users[r.UserID], places[r.PlaceID])
		b, errB := restored.Predict(r.UserID, r.PlaceID, users[r.UserID], places[r.PlaceID])
		if errA != nil || errB != nil {
			t.Fatalf("Predict() errors = %v, %v", errA, errB)
		}
		if a != b {
			t.Errorf("restored prediction %f != original %f", b, a)
		}
	}
	if restored.Version() != snap.Version() {
		t.Errorf("Version() = %q, want %q", restored.Version(), snap.Version())
	}
}

func TestFromState_RejectsPartialState(t *testing.T) {
	t.Parallel()

	tr := testTrainer(t, 1)
	snap, _, err := tr.Train(context.Background(), nil, syntheticRatings(8, 8, 7))
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*State)
	}{
		{"missing user scaling", func(s *State) { s.UserScaling = nil }},
		{"missing place map", func(s *State) { s.PlaceIDs = nil }},
		{"missing weights", func(s *State) { delete(s.Weights, "rating_prediction/kernel") }},
		{"map larger than embedding", func(s *State) { s.UserIDs = append(s.UserIDs, "extra") }},
		{"wrong scaling dimension", func(s *State) { s.PlaceScaling = s.UserScaling }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := snap.Export()
			tt.mutate(st)
			if _, err := FromState(st); err == nil {
				t.Error("FromState() accepted a partial state")
			}
		})
	}
}

func TestSnapshot_ConcurrentPredict(t *testing.T) {
	t.Parallel()

	tr := testTrainer(t, 2)
	ratings := syntheticRatings(8, 8, 8)
	snap, _, err := tr.Train(context.Background(), nil, ratings)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	users, places := features.Aggregate(ratings)
	r := ratings[0]
	want, _ := snap.Predict(r.UserID, r.PlaceID, users[r.UserID], places[r.PlaceID])

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got, err := snap.Predict(r.UserID, r.PlaceID, users[r.UserID], places[r.PlaceID])
				if err != nil || got != want {
					t.Errorf("concurrent Predict() = %f, %v; want %f", got, err, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}
