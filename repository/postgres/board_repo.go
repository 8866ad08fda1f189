package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/repository"
)

type boardRepository struct {
	pool *pgxpool.Pool
}

// NewBoardRepository returns a Postgres-backed implementation of BoardRepository.
func NewBoardRepository(pool *pgxpool.Pool) repository.BoardRepository {
	return &boardRepository{pool: pool}
}

func (r *boardRepository) Load(ctx context.Context, userID string) (*domain.Board, error) {
	const tasksQuery = `
	SELECT id, kind, user_id, name, start_time, end_time, duration_label, points,
		completed, tip, expanded, period, last_reset
	FROM tasks
	WHERE user_id = $1
	ORDER BY kind, position, id
	`
	rows, err := r.pool.Query(ctx, tasksQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	board := &domain.Board{UserID: userID}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		if task.Type == domain.TaskLong {
			board.LongTasks = append(board.LongTasks, *task)
		} else {
			board.ShortTasks = append(board.ShortTasks, *task)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	const pointsQuery = `SELECT total, ledger FROM points WHERE user_id = $1`
	board.Points.UserID = userID
	err = r.pool.QueryRow(ctx, pointsQuery, userID).Scan(&board.Points.Total, &board.Points.Ledger)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("query points: %w", err)
	}

	return board, nil
}

func (r *boardRepository) Save(ctx context.Context, board *domain.Board) error {
	if board == nil || board.UserID == "" {
		return domain.ErrInvalidPayload
	}

	const upsertTask = `
	INSERT INTO tasks (id, kind, user_id, position, name, start_time, end_time, duration_label,
		points, completed, tip, expanded, period, last_reset, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
	ON CONFLICT (kind, id) DO UPDATE
	SET position = EXCLUDED.position,
		name = EXCLUDED.name,
		start_time = EXCLUDED.start_time,
		end_time = EXCLUDED.end_time,
		duration_label = EXCLUDED.duration_label,
		points = EXCLUDED.points,
		completed = EXCLUDED.completed,
		tip = EXCLUDED.tip,
		expanded = EXCLUDED.expanded,
		period = EXCLUDED.period,
		last_reset = EXCLUDED.last_reset,
		updated_at = NOW()
	WHERE tasks.user_id = EXCLUDED.user_id
	`
	const upsertPoints = `
	INSERT INTO points (user_id, total, ledger, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET total = EXCLUDED.total, ledger = EXCLUDED.ledger, updated_at = NOW()
	`

	type taskRef struct {
		kind domain.TaskType
		id   int64
	}
	batch := &pgx.Batch{}
	var refs []taskRef
	for _, kind := range []domain.TaskType{domain.TaskShort, domain.TaskLong} {
		for pos, t := range board.Tasks(kind) {
			batch.Queue(upsertTask,
				t.ID,
				string(kind),
				board.UserID,
				pos,
				t.Name,
				t.Start,
				t.End,
				t.Duration,
				t.Point,
				t.Completed,
				t.Tip,
				t.Expanded,
				string(t.Period),
				t.LastReset,
			)
			refs = append(refs, taskRef{kind: kind, id: t.ID})
		}
	}
	batch.Queue(upsertPoints, board.UserID, board.Points.Total, board.Points.Ledger)

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for _, ref := range refs {
			tag, err := results.Exec()
			if err != nil {
				results.Close()
				return fmt.Errorf("save %s task %d: %w", ref.kind, ref.id, err)
			}
			// The guarded upsert touches nothing when another user owns the row.
			if tag.RowsAffected() == 0 {
				results.Close()
				return domain.ErrTaskOwnership.With(fmt.Errorf("%s task %d", ref.kind, ref.id))
			}
		}
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("save points: %w", err)
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("save board: %w", err)
		}
		return nil
	})
}

func (r *boardRepository) DeleteTask(ctx context.Context, kind domain.TaskType, id int64) error {
	const query = `DELETE FROM tasks WHERE kind = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, query, string(kind), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var (
		task   domain.Task
		kind   string
		period string
	)

	if err := row.Scan(
		&task.ID,
		&kind,
		&task.UserID,
		&task.Name,
		&task.Start,
		&task.End,
		&task.Duration,
		&task.Point,
		&task.Completed,
		&task.Tip,
		&task.Expanded,
		&period,
		&task.LastReset,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Type = domain.TaskType(kind)
	task.Period = domain.Period(period)
	return &task, nil
}
