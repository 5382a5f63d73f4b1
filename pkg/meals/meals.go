// Package meals persists the user's goal and meal log.
package meals

import (
	"errors"
	"fmt"
	"time"

	"github.com/korjavin/nutritrack/pkg/logger"
	"github.com/korjavin/nutritrack/pkg/models"
	"github.com/korjavin/nutritrack/pkg/storage"
)

const goalKey = "goal"

// ErrMealNotFound is returned when a meal index is out of range
var ErrMealNotFound = errors.New("no meal at that index")

// Service provides goal and meal-log persistence
type Service struct {
	store  *storage.Store
	logger *logger.Logger
}

// New creates a new meals service
func New(store *storage.Store) *Service {
	return &Service{
		store:  store,
		logger: logger.New("meals"),
	}
}

// SetGoal stores the goal, replacing any previous one
func (s *Service) SetGoal(goal models.Goal) error {
	if err := s.store.Set(goalKey, goal); err != nil {
		return fmt.Errorf("failed to save goal: %w", err)
	}
	s.logger.Info("Goal saved: target %.1fkg over %d days (%s activity)",
		goal.TargetWeight, goal.PeriodDays, goal.ActivityLevel)
	return nil
}

// GetGoal retrieves the stored goal, or nil when none is set
func (s *Service) GetGoal() (*models.Goal, error) {
	var goal models.Goal
	err := s.store.Get(goalKey, &goal)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return &goal, nil
}

// AddMeal appends a meal to the log, assigning its ID and creation time.
// Keys are zero-padded creation timestamps so key order is insertion order.
func (s *Service) AddMeal(meal models.Meal) (models.Meal, error) {
	now := time.Now()
	meal.ID = fmt.Sprintf("meal:%019d", now.UnixNano())
	meal.CreatedAt = now

	if err := s.store.Set(meal.ID, meal); err != nil {
		return models.Meal{}, fmt.Errorf("failed to save meal: %w", err)
	}

	s.logger.Info("Logged %s meal with %d items (%.0f kcal)",
		meal.Type, len(meal.Items), meal.Nutrition.Kcal)
	return meal, nil
}

// ListMeals returns all logged meals in insertion order
func (s *Service) ListMeals() ([]models.Meal, error) {
	keys, err := s.store.List("meal:")
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}

	meals := make([]models.Meal, 0, len(keys))
	for _, key := range keys {
		var meal models.Meal
		if err := s.store.Get(key, &meal); err != nil {
			s.logger.Error("Failed to get meal %s: %v", key, err)
			continue
		}
		meals = append(meals, meal)
	}
	return meals, nil
}

// MealsForDate returns the meals logged for a date (YYYY-MM-DD)
func (s *Service) MealsForDate(date string) ([]models.Meal, error) {
	all, err := s.ListMeals()
	if err != nil {
		return nil, err
	}

	meals := make([]models.Meal, 0, len(all))
	for _, meal := range all {
		if meal.Date == date {
			meals = append(meals, meal)
		}
	}
	return meals, nil
}

// DeleteMealByIndex removes the idx-th meal in insertion order and returns it
func (s *Service) DeleteMealByIndex(idx int) (models.Meal, error) {
	meals, err := s.ListMeals()
	if err != nil {
		return models.Meal{}, err
	}

	if idx < 0 || idx >= len(meals) {
		return models.Meal{}, ErrMealNotFound
	}

	meal := meals[idx]
	if err := s.store.Delete(meal.ID); err != nil {
		return models.Meal{}, fmt.Errorf("failed to delete meal: %w", err)
	}

	s.logger.Info("Deleted %s meal from %s", meal.Type, meal.Date)
	return meal, nil
}
