package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/poiesic/stancewatch/core"
	"github.com/poiesic/stancewatch/storage"
)

// reconcile compares a freshly persisted statement against the most recent
// prior statement for the same (politician, topic) pair and records a stance
// change when the absolute score delta reaches the threshold. The boundary is
// closed: a delta of exactly the threshold fires. A pair with no prior
// statement never produces a change.
func (a *Analyzer) reconcile(ctx context.Context, statement *core.Statement, rawLen int) (*core.StanceChange, error) {
	previous, err := a.statements.LatestStatement(ctx, statement.PoliticianId, statement.TopicId, statement.Id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if previous.Id == statement.Id {
		return nil, nil
	}

	delta := statement.StanceScore - previous.StanceScore
	if math.Abs(delta) < a.changeThreshold {
		return nil, nil
	}

	change, err := a.changes.AddStanceChange(ctx, &core.StanceChange{
		PoliticianId:    statement.PoliticianId,
		TopicId:         statement.TopicId,
		FromStatementId: previous.Id,
		ToStatementId:   statement.Id,
		DeltaScore:      delta,
		Note:            fmt.Sprintf("Raw model output length=%d", rawLen),
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("stance change recorded",
		"politician_id", statement.PoliticianId,
		"topic_id", statement.TopicId,
		"delta", delta)
	return change, nil
}
