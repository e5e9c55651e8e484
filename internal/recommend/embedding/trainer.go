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
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/senergy/internal/recommend/features"
	"github.com/tomtom215/senergy/internal/recommend/nn"
)

// TrainOptions controls one training pass.
type TrainOptions struct {
	// Epochs is the maximum number of passes over the training split.
	// Default: 100.
	Epochs int `json:"epochs" koanf:"epochs"`

	// BatchSize is the number of examples per gradient step.
	// Default: 32.
	BatchSize int `json:"batch_size" koanf:"batch_size"`

	// ValidationFraction is the trailing share of examples held out for
	// early stopping and learning-rate decay. Default: 0.2.
	ValidationFraction float64 `json:"validation_fraction" koanf:"validation_fraction"`

	// MinRatings is the smallest rating set a pass will train on.
	// Default: 10.
	MinRatings int `json:"min_ratings" koanf:"min_ratings"`

	// EarlyStoppingPatience is the number of epochs without validation
	// improvement before training stops. Default: 10.
	EarlyStoppingPatience int `json:"early_stopping_patience" koanf:"early_stopping_patience"`

	// PlateauPatience is the number of epochs without improvement before the
	// learning rate is reduced. Default: 5.
	PlateauPatience int `json:"plateau_patience" koanf:"plateau_patience"`

	// PlateauFactor multiplies the learning rate on a plateau. Default: 0.5.
	PlateauFactor float64 `json:"plateau_factor" koanf:"plateau_factor"`

	// MinLearningRate bounds plateau decay. Default: 1e-7.
	MinLearningRate float64 `json:"min_learning_rate" koanf:"min_learning_rate"`

	// Seed makes weight init, dropout and shuffling deterministic.
	// Default: 42.
	Seed int64 `json:"seed" koanf:"seed"`
}

// DefaultTrainOptions returns the production training schedule.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Epochs:                100,
		BatchSize:             32,
		ValidationFraction:    0.2,
		MinRatings:            10,
		EarlyStoppingPatience: 10,
		PlateauPatience:       5,
		PlateauFactor:         0.5,
		MinLearningRate:       1e-7,
		Seed:                  42,
	}
}

// Validate checks option ranges.
func (o *TrainOptions) Validate() error {
	if o.Epochs < 1 {
		return fmt.Errorf("epochs must be positive, got %d", o.Epochs)
	}
	if o.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive, got %d", o.BatchSize)
	}
	if o.ValidationFraction < 0 || o.ValidationFraction >= 1 {
		return fmt.Errorf("validation_fraction must be in [0, 1), got %f", o.ValidationFraction)
	}
	if o.MinRatings < 1 {
		return fmt.Errorf("min_ratings must be positive, got %d", o.MinRatings)
	}
	if o.EarlyStoppingPatience < 1 || o.PlateauPatience < 1 {
		return fmt.Errorf("patience values must be positive, got %d and %d", o.EarlyStoppingPatience, o.PlateauPatience)
	}
	if o.PlateauFactor <= 0 || o.PlateauFactor >= 1 {
		return fmt.Errorf("plateau_factor must be in (0, 1), got %f", o.PlateauFactor)
	}
	if o.MinLearningRate < 0 {
		return fmt.Errorf("min_learning_rate must be non-negative, got %f", o.MinLearningRate)
	}
	return nil
}

// EpochMetrics records one epoch of training.
type EpochMetrics struct {
	Epoch        int     `json:"epoch"`
	Loss         float64 `json:"loss"`
	MAE          float64 `json:"mae"`
	RMSE         float64 `json:"rmse"`
	ValLoss      float64 `json:"val_loss,omitempty"`
	ValMAE       float64 `json:"val_mae,omitempty"`
	ValRMSE      float64 `json:"val_rmse,omitempty"`
	LearningRate float64 `json:"learning_rate"`
}

// History is the per-epoch record of a single training pass.
type History struct {
	Epochs        []EpochMetrics `json:"epochs"`
	BestEpoch     int            `json:"best_epoch"`
	StoppedEarly  bool           `json:"stopped_early"`
	TrainExamples int            `json:"train_examples"`
	ValExamples   int            `json:"val_examples"`
}

// Trainer builds new snapshots from rating data.
type Trainer struct {
	arch   Architecture
	opts   TrainOptions
	logger zerolog.Logger
	now    func() time.Time
}

// NewTrainer creates a trainer for the given architecture and schedule.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func NewTrainer(arch Architecture, opts TrainOptions, logger zerolog.Logger) (*Trainer, error) {
	if err := arch.Validate(); err != nil {
		return nil, fmt.Errorf("invalid architecture: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid training options: %w", err)
	}
	return &Trainer{
		arch:   arch.Clone(),
		opts:   opts,
		logger: logger.With().Str("component", "trainer").Logger(),
		now:    time.Now,
	}, nil
}

// Options returns the training schedule.
func (t *Trainer) Options() TrainOptions { return t.opts }

// Architecture returns the architecture new networks are built with.
func (t *Trainer) Architecture() Architecture { return t.arch.Clone() }

type example struct {
	userIdx  int
	placeIdx int
	userRow  []float64
	placeRow []float64
	target   float64
}

// Train runs one training pass and returns the next snapshot. prev may be nil;
// when set, its identity maps are extended (never reordered), its weights seed
// the new network and its metadata is appended to. prev itself is not
// modified. Nothing is persisted here.
func (t *Trainer) Train(ctx context.Context, prev *Snapshot, ratings []features.Rating) (*Snapshot, *History, error) {
	if len(ratings) < t.opts.MinRatings {
		return nil, nil, stageError(StageValidate, fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, len(ratings), t.opts.MinRatings))
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, stageError(StageValidate, err)
	}

	userAggs, placeAggs := features.Aggregate(ratings)

	var userMap, placeMap *IdentityMap
	var meta Metadata
	if prev != nil {
		userMap = prev.userMap.Clone()
		placeMap = prev.placeMap.Clone()
		meta = prev.metadata.Clone()
	} else {
		userMap = NewIdentityMap()
		placeMap = NewIdentityMap()
	}

	// First-seen order keeps index assignment deterministic.
	var userOrder, placeOrder []string
	seenUser := make(map[string]bool, len(userAggs))
	seenPlace := make(map[string]bool, len(placeAggs))
	for i := range ratings {
		r := &ratings[i]
		if !seenUser[r.UserID] {
			seenUser[r.UserID] = true
			userOrder = append(userOrder, r.UserID)
			userMap.Add(r.UserID)
		}
		if !seenPlace[r.PlaceID] {
			seenPlace[r.PlaceID] = true
			placeOrder = append(placeOrder, r.PlaceID)
			placeMap.Add(r.PlaceID)
		}
	}

	userVecs := make([][]float64, len(userOrder))
	for i, id := range userOrder {
		userVecs[i] = features.EncodeUser(userAggs[id])
	}
	placeVecs := make([][]float64, len(placeOrder))
	for i, id := range placeOrder {
		placeVecs[i] = features.EncodePlace(placeAggs[id])
	}

	userScaling, err := features.FitScaling(userVecs)
	if err != nil {
		return nil, nil, stageError(StageScaling, fmt.Errorf("fit user scaling: %w", err))
	}
	placeScaling, err := features.FitScaling(placeVecs)
	if err != nil {
		return nil, nil, stageError(StageScaling, fmt.Errorf("fit place scaling: %w", err))
	}

	scaledUser := make(map[string][]float64, len(userOrder))
	for i, id := range userOrder {
		if scaledUser[id], err = userScaling.Apply(userVecs[i]); err != nil {
			return nil, nil, stageError(StageScaling, err)
		}
	}
	scaledPlace := make(map[string][]float64, len(placeOrder))
	for i, id := range placeOrder {
		if scaledPlace[id], err = placeScaling.Apply(placeVecs[i]); err != nil {
			return nil, nil, stageError(StageScaling, err)
		}
	}

	examples := make([]example, 0, len(ratings))
	for i := range ratings {
		r := &ratings[i]
		ui, okU := userMap.Index(r.UserID)
		pi, okP := placeMap.Index(r.PlaceID)
		if !okU || !okP {
			continue
		}
		examples = append(examples, example{
			userIdx:  ui,
			placeIdx: pi,
			userRow:  scaledUser[r.UserID],
			placeRow: scaledPlace[r.PlaceID],
			target:   r.OverallScore,
		})
	}

	//nolint:gosec // G404: math/rand is acceptable for ML initialization (not security)
	rng := rand.New(rand.NewSource(t.opts.Seed))
	net, err := t.buildNetwork(prev, userMap.Len(), placeMap.Len(), rng)
	if err != nil {
		return nil, nil, stageError(StageBuild, err)
	}

	history, err := t.fit(ctx, net, examples, rng)
	if err != nil {
		return nil, nil, stageError(StageFit, err)
	}

	meta.TotalSamplesSeen += len(ratings)
	meta.LastTrained = t.now().UTC()
	meta.EpochsCompleted += len(history.Epochs)
	for _, e := range history.Epochs {
		meta.LossHistory = append(meta.LossHistory, e.Loss)
		if history.ValExamples > 0 {
			meta.ValidationLossHistory = append(meta.ValidationLossHistory, e.ValLoss)
		}
	}

	snap := &Snapshot{
		version:      uuid.NewString(),
		createdAt:    meta.LastTrained,
		net:          net,
		userScaling:  userScaling,
		placeScaling: placeScaling,
		userMap:      userMap,
		placeMap:     placeMap,
		metadata:     meta,
	}

	t.logger.Info().
		Str("version", snap.version).
		Int("ratings", len(ratings)).
		Int("users", userMap.Len()).
		Int("places", placeMap.Len()).
		Int("epochs", len(history.Epochs)).
		Int("best_epoch", history.BestEpoch).
		Bool("stopped_early", history.StoppedEarly).
		Msg("training pass complete")

	return snap, history, nil
}

// buildNetwork creates a fresh network sized for the identity maps and warm
// starts it from prev when the architectures are compatible.
func (t *Trainer) buildNetwork(prev *Snapshot, users, places int, rng *rand.Rand) (*network, error) {
	net := newNetwork(t.arch, users, places, rng)
	if prev == nil {
		return net, nil
	}
	if !prev.net.arch.Equal(t.arch) {
		t.logger.Warn().
			Str("previous_version", prev.version).
			Msg("architecture changed, training from fresh weights")
		return net, nil
	}
	if err := nn.LoadTensors(net.tensors(), nn.CopyTensors(prev.net.tensors()), net.growable()); err != nil {
		return nil, fmt.Errorf("warm start from %s: %w", prev.version, err)
	}
	return net, nil
}

func gather(examples []example, idx []int) (*batch, []float64) {
	n := len(idx)
	b := &batch{
		userIdx:   make([]int, n),
		placeIdx:  make([]int, n),
		userFeat:  mat.NewDense(n, features.UserFeatureDim, nil),
		placeFeat: mat.NewDense(n, features.PlaceFeatureDim, nil),
	}
	targets := make([]float64, n)
	for i, k := range idx {
		ex := &examples[k]
		b.userIdx[i] = ex.userIdx
		b.placeIdx[i] = ex.placeIdx
		b.userFeat.SetRow(i, ex.userRow)
		b.placeFeat.SetRow(i, ex.placeRow)
		targets[i] = ex.target
	}
	return b, targets
}

func span(from, to int) []int {
	out := make([]int, to-from)
	for i := range out {
		out[i] = from + i
	}
	return out
}

// fit trains net in place with early stopping and plateau decay, leaving it
// holding the best weights observed.
func (t *Trainer) fit(ctx context.Context, net *network, examples []example, rng *rand.Rand) (*History, error) {
	total := len(examples)
	split := int(math.Ceil(float64(total) * (1 - t.opts.ValidationFraction)))
	if split < 1 {
		return nil, errors.New("validation split leaves no training examples")
	}
	trainIdx := span(0, split)
	valIdx := span(split, total)

	history := &History{TrainExamples: len(trainIdx), ValExamples: len(valIdx)}

	var valBatch *batch
	var valTargets []float64
	if len(valIdx) > 0 {
		valBatch, valTargets = gather(examples, valIdx)
	}

	opt := nn.NewAdam(net.params(), t.arch.LearningRate)

	best := math.Inf(1)
	bestWeights := nn.CopyTensors(net.tensors())
	sinceBest := 0
	plateauBest := math.Inf(1)
	sincePlateau := 0

	for epoch := 1; epoch <= t.opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		order := rng.Perm(len(trainIdx))
		var sumSE, sumAE float64
		for start := 0; start < len(order); start += t.opts.BatchSize {
			end := min(start+t.opts.BatchSize, len(order))
			idx := make([]int, end-start)
			for i := range idx {
				idx[i] = trainIdx[order[start+i]]
			}
			b, targets := gather(examples, idx)

			pred, err := net.forward(b)
			if err != nil {
				return nil, err
			}
			m := nn.Evaluate(pred, targets)
			sumSE += m.MSE * float64(len(idx))
			sumAE += m.MAE * float64(len(idx))

			net.backward(nn.MSEGrad(pred, targets))
			opt.Step()
		}

		penalty := net.penalty()
		n := float64(len(trainIdx))
		metrics := EpochMetrics{
			Epoch:        epoch,
			Loss:         sumSE/n + penalty,
			MAE:          sumAE / n,
			RMSE:         math.Sqrt(sumSE / n),
			LearningRate: opt.LearningRate,
		}
		monitor := metrics.Loss

		if valBatch != nil {
			pred, err := net.infer(valBatch)
			if err != nil {
				return nil, err
			}
			vm := nn.Evaluate(pred, valTargets)
			metrics.ValLoss = vm.MSE + penalty
			metrics.ValMAE = vm.MAE
			metrics.ValRMSE = vm.RMSE
			monitor = metrics.ValLoss
		}
		if math.IsNaN(monitor) || math.IsInf(monitor, 0) {
			return nil, fmt.Errorf("loss diverged at epoch %d", epoch)
		}
		history.Epochs = append(history.Epochs, metrics)

		t.logger.Debug().
			Int("epoch", epoch).
			Float64("loss", metrics.Loss).
			Float64("mae", metrics.MAE).
			Float64("val_loss", metrics.ValLoss).
			Float64("lr", opt.LearningRate).
			Msg("epoch complete")

		if monitor < best {
			best = monitor
			bestWeights = nn.CopyTensors(net.tensors())
			history.BestEpoch = epoch
			sinceBest = 0
		} else {
			sinceBest++
		}

		if monitor < plateauBest-1e-4 {
			plateauBest = monitor
			sincePlateau = 0
		} else {
			sincePlateau++
			if sincePlateau >= t.opts.PlateauPatience && opt.LearningRate > t.opts.MinLearningRate {
				opt.LearningRate = math.Max(opt.LearningRate*t.opts.PlateauFactor, t.opts.MinLearningRate)
				sincePlateau = 0
				t.logger.Debug().Int("epoch", epoch).Float64("lr", opt.LearningRate).Msg("reduced learning rate on plateau")
			}
		}

		if sinceBest >= t.opts.EarlyStoppingPatience {
			history.StoppedEarly = true
			break
		}
	}

	if err := nn.LoadTensors(net.tensors(), bestWeights, nil); err != nil {
		return nil, fmt.Errorf("restore best weights: %w", err)
	}
	return history, nil
}
