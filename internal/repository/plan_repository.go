package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"travelplanner/internal/model"

	"github.com/jmoiron/sqlx"
)

// PlanRepository обеспечивает доступ к данным планов поездок в базе данных.
type PlanRepository struct {
	db *sqlx.DB
}

// NewPlanRepository создает новый репозиторий для планов.
func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

const planColumns = `id, user_id, destination, start_date, end_date, activities, notes, status, duration, budget, created_at, updated_at`

// Create сохраняет новый план и заполняет ID и отметки времени.
func (r *PlanRepository) Create(ctx context.Context, plan *model.Plan) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`INSERT INTO plans (user_id, destination, start_date, end_date, activities, notes, status, duration, budget, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := r.db.QueryRowxContext(ctx, query,
		plan.UserID, plan.Destination, plan.StartDate, plan.EndDate, plan.Activities, plan.Notes,
		plan.Status, plan.Duration, plan.Budget, now, now).Scan(&plan.ID)
	if err != nil {
		return fmt.Errorf("не удалось создать план: %w", err)
	}
	plan.CreatedAt, plan.UpdatedAt = now, now
	return nil
}

// GetForUser возвращает план, только если он принадлежит пользователю.
func (r *PlanRepository) GetForUser(ctx context.Context, userID, planID int64) (*model.Plan, error) {
	var plan model.Plan
	err := r.db.GetContext(ctx, &plan, r.db.Rebind(`SELECT `+planColumns+` FROM plans WHERE id=? AND user_id=?`), planID, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &plan, nil
}

// ListByUser возвращает планы пользователя, новые первыми.
func (r *PlanRepository) ListByUser(ctx context.Context, userID int64) ([]model.Plan, error) {
	plans := []model.Plan{}
	err := r.db.SelectContext(ctx, &plans, r.db.Rebind(`SELECT `+planColumns+` FROM plans WHERE user_id=? ORDER BY id DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении списка планов: %w", err)
	}
	return plans, nil
}

// Update сохраняет изменяемые поля плана. Владелец и duration не меняются.
func (r *PlanRepository) Update(ctx context.Context, plan *model.Plan) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE plans
		SET destination=?, start_date=?, end_date=?, activities=?, notes=?, status=?, budget=?, updated_at=?
		WHERE id=? AND user_id=?`),
		plan.Destination, plan.StartDate, plan.EndDate, plan.Activities, plan.Notes, plan.Status, plan.Budget, now,
		plan.ID, plan.UserID)
	if err != nil {
		return fmt.Errorf("не удалось обновить план: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	plan.UpdatedAt = now
	return nil
}

// Delete удаляет план пользователя.
func (r *PlanRepository) Delete(ctx context.Context, userID, planID int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM plans WHERE id=? AND user_id=?`), planID, userID)
	if err != nil {
		return fmt.Errorf("не удалось удалить план: %w", err)
	}
	return requireRow(res)
}

// requireRow возвращает ErrNotFound, если запрос не затронул ни одной строки.
func requireRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("не удалось получить число строк: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
