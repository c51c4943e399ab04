package boost

import (
	"fmt"

	"fraudscore/ports"
)

// DefaultParams returns the production configuration: a large iteration budget with a low
// learning rate, depth 8 symmetric trees, AUC early stopping with a patience of 100.
func DefaultParams() ports.BoostParams {
	return ports.BoostParams{
		Iterations:          2000,
		LearningRate:        0.03,
		Depth:               8,
		L2LeafReg:           3,
		Subsample:           0.8,
		ScalePosWeight:      1,
		EarlyStoppingRounds: 100,
		UseBestModel:        true,
		EvalMetric:          "AUC",
		BorderCount:         254,
		RandomSeed:          42,
	}
}

func validateParams(p ports.BoostParams) error {
	switch {
	case p.Iterations <= 0:
		return fmt.Errorf("iterations must be positive, got %d", p.Iterations)
	case p.LearningRate <= 0:
		return fmt.Errorf("learning rate must be positive, got %g", p.LearningRate)
	case p.Depth < 1 || p.Depth > 16:
		return fmt.Errorf("depth must be in [1, 16], got %d", p.Depth)
	case p.L2LeafReg < 0:
		return fmt.Errorf("l2_leaf_reg must be non-negative, got %g", p.L2LeafReg)
	case p.Subsample <= 0 || p.Subsample > 1:
		return fmt.Errorf("subsample must be in (0, 1], got %g", p.Subsample)
	case p.ScalePosWeight < 0:
		return fmt.Errorf("scale_pos_weight must be non-negative, got %g", p.ScalePosWeight)
	case p.BorderCount < 1 || p.BorderCount > 254:
		return fmt.Errorf("border count must be in [1, 254], got %d", p.BorderCount)
	case p.EvalMetric != "" && p.EvalMetric != "AUC":
		return fmt.Errorf("unsupported eval metric %q", p.EvalMetric)
	}
	return nil
}
