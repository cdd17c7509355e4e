package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quizwizz-play/internal/domain"
)

// PlayResult is one finished play session.
type PlayResult struct {
	bun.BaseModel `bun:"table:play_results"`

	ID         int64         `bun:"id,pk,autoincrement"`
	UserID     string        `bun:"user_id,notnull"`
	QuizID     string        `bun:"quiz_id,notnull"`
	Score      int           `bun:"score,notnull"`
	WrongCount int           `bun:"wrong_count,notnull"`
	Result     domain.Result `bun:"result,type:jsonb,notnull"`
	CreatedAt  time.Time     `bun:"created_at,notnull,default:current_timestamp"`
}

// ResultHistory stores play results through bun.
type ResultHistory struct {
	db  *bun.DB
	now func() time.Time
}

func NewResultHistory(db *bun.DB) *ResultHistory {
	return &ResultHistory{db: db, now: time.Now}
}

func (h *ResultHistory) SaveResult(ctx context.Context, userID string, result domain.Result) error {
	row := &PlayResult{
		UserID:     userID,
		QuizID:     result.QuizID,
		Score:      result.Score,
		WrongCount: len(result.WrongQuestionIDs),
		Result:     result,
		CreatedAt:  h.now().UTC(),
	}
	if _, err := h.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// History returns the newest results of userID, at most limit (default 20).
func (h *ResultHistory) History(ctx context.Context, userID string, limit int) ([]domain.ResultRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []PlayResult
	err := h.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC, id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select results: %w", err)
	}

	out := make([]domain.ResultRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ResultRecord{
			ID:         row.ID,
			UserID:     row.UserID,
			QuizID:     row.QuizID,
			Score:      row.Score,
			WrongCount: row.WrongCount,
			Result:     row.Result,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out, nil
}
