package ports

import (
	"context"
	"time"

	"fraudscore/domain/core"
)

// TrainingRun is the registry row of one completed training run
type TrainingRun struct {
	ID                 core.RunID `db:"id" json:"id"`
	DatasetFingerprint string     `db:"dataset_fingerprint" json:"dataset_fingerprint"`
	TargetColumn       string     `db:"target_column" json:"target_column"`
	SplitStrategy      string     `db:"split_strategy" json:"split_strategy"`
	TrainRows          int        `db:"train_rows" json:"train_rows"`
	EvalRows           int        `db:"eval_rows" json:"eval_rows"`
	ClassWeight        float64    `db:"class_weight" json:"class_weight"`
	BestIteration      int        `db:"best_iteration" json:"best_iteration"`
	ROCAUC             float64    `db:"roc_auc" json:"roc_auc"`
	Precision          float64    `db:"precision_score" json:"precision"`
	Recall             float64    `db:"recall_score" json:"recall"`
	F1                 float64    `db:"f1_score" json:"f1"`
	ArtifactPath       string     `db:"artifact_path" json:"artifact_path"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
}

// RunRepository stores the training run history
type RunRepository interface {
	Record(ctx context.Context, run *TrainingRun) error
	Get(ctx context.Context, id core.RunID) (*TrainingRun, error)
	Latest(ctx context.Context) (*TrainingRun, error)
	List(ctx context.Context, limit int) ([]TrainingRun, error)
}
