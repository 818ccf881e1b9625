package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"travelplanner/internal/model"
	"travelplanner/internal/repository"
)

const maxDestinationLen = 255

// PlanService содержит бизнес-логику планов поездок.
type PlanService struct {
	plans *repository.PlanRepository
}

// NewPlanService создает новый сервис планов.
func NewPlanService(plans *repository.PlanRepository) *PlanService {
	return &PlanService{plans: plans}
}

// PlanInput поля плана из запроса. nil означает, что поле не передано.
type PlanInput struct {
	Destination *string
	StartDate   *string
	EndDate     *string
	Activities  *string
	Notes       *string
	Status      *string
	Budget      *int64
}

// Create создает план пользователя. Длительность вычисляется один раз здесь.
func (s *PlanService) Create(ctx context.Context, userID int64, in PlanInput) (*model.Plan, error) {
	plan := &model.Plan{UserID: userID, Status: model.PlanStatusDraft}
	if err := apply(plan, in, true); err != nil {
		return nil, err
	}
	plan.Duration = model.DaysBetween(plan.StartDate, plan.EndDate)
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// List возвращает планы пользователя.
func (s *PlanService) List(ctx context.Context, userID int64) ([]model.Plan, error) {
	return s.plans.ListByUser(ctx, userID)
}

// Get возвращает план, если он принадлежит пользователю.
func (s *PlanService) Get(ctx context.Context, userID, planID int64) (*model.Plan, error) {
	plan, err := s.plans.GetForUser(ctx, userID, planID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return plan, err
}

// Update изменяет план. При partial == false обязательные поля должны быть переданы.
// Длительность не пересчитывается.
func (s *PlanService) Update(ctx context.Context, userID, planID int64, in PlanInput, partial bool) (*model.Plan, error) {
	plan, err := s.Get(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	if err := apply(plan, in, !partial); err != nil {
		return nil, err
	}
	if err := s.plans.Update(ctx, plan); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return plan, nil
}

// Delete удаляет план пользователя.
func (s *PlanService) Delete(ctx context.Context, userID, planID int64) error {
	err := s.plans.Delete(ctx, userID, planID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// apply проверяет вход и переносит переданные поля в план.
// План не меняется, если есть хотя бы одна ошибка.
func apply(plan *model.Plan, in PlanInput, requireAll bool) error {
	errs := fieldErrors{}
	next := *plan

	if in.Destination != nil {
		dest := strings.TrimSpace(*in.Destination)
		switch {
		case dest == "":
			errs.add("destination", msgRequired)
		case utf8.RuneCountInString(dest) > maxDestinationLen:
			errs.add("destination", msgMaxLength255)
		default:
			next.Destination = dest
		}
	} else if requireAll {
		errs.add("destination", msgRequired)
	}

	parseDate := func(field string, raw *string, dst *model.Date) {
		if raw == nil {
			if requireAll {
				errs.add(field, msgRequired)
			}
			return
		}
		d, err := model.ParseDate(strings.TrimSpace(*raw))
		if err != nil {
			errs.add(field, msgDateFormat)
			return
		}
		*dst = d
	}
	parseDate("start_date", in.StartDate, &next.StartDate)
	parseDate("end_date", in.EndDate, &next.EndDate)

	if in.Status != nil {
		status := model.PlanStatus(strings.ToLower(strings.TrimSpace(*in.Status)))
		if !status.Valid() {
			errs.add("status", fmt.Sprintf("%q is not a valid choice.", *in.Status))
		} else {
			next.Status = status
		}
	}
	if in.Budget != nil {
		if *in.Budget < 0 {
			errs.add("budget", msgNonNegative)
		} else {
			next.Budget = *in.Budget
		}
	}
	if in.Activities != nil {
		next.Activities = in.Activities
	}
	if in.Notes != nil {
		next.Notes = in.Notes
	}

	if _, bad := errs["start_date"]; !bad {
		if _, bad := errs["end_date"]; !bad && next.StartDate.After(next.EndDate) {
			errs.add("end_date", msgEndBeforeStart)
		}
	}
	if err := errs.err(); err != nil {
		return err
	}
	*plan = next
	return nil
}
