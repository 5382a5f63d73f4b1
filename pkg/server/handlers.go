package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/korjavin/nutritrack/pkg/budget"
	"github.com/korjavin/nutritrack/pkg/meals"
	"github.com/korjavin/nutritrack/pkg/models"
	"github.com/korjavin/nutritrack/pkg/snacks"
)

// mealRequest is the payload for logging a meal
type mealRequest struct {
	Date  string   `json:"date" binding:"required"`
	Type  string   `json:"type" binding:"required"`
	Items []string `json:"items" binding:"required"`
}

// handleSetGoal validates and stores the goal, replacing any previous one.
// Numeric range validation happens here at the boundary; the engine assumes
// validated values.
func (s *Server) handleSetGoal(c *gin.Context) {
	var goal models.Goal
	if err := c.ShouldBindJSON(&goal); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if goal.CurrentWeight <= 0 || goal.TargetWeight <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weights must be positive"})
		return
	}
	if goal.PeriodDays <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period_days must be positive"})
		return
	}

	if err := s.meals.SetGoal(goal); err != nil {
		s.logger.Error("Failed to save goal: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save goal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "goal saved", "goal": goal})
}

// handleUploadMeal resolves a meal's items through the engine and logs it.
// The response always includes the matched and unmatched breakdown so the
// caller can explain partial nutrition data.
func (s *Server) handleUploadMeal(c *gin.Context) {
	var req mealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	totals, err := s.engine.Aggregate(c.Request.Context(), req.Items)
	if err != nil {
		s.logger.Error("Failed to aggregate meal: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve meal items"})
		return
	}

	meal, err := s.meals.AddMeal(models.Meal{
		Date:      req.Date,
		Type:      req.Type,
		Items:     req.Items,
		Nutrition: totals.Totals,
		Matched:   totals.MatchedItems,
		Unmatched: totals.UnmatchedItems,
	})
	if err != nil {
		s.logger.Error("Failed to save meal: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save meal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   req.Type + " logged",
		"meal":      meal,
		"nutrition": totals,
	})
}

// handleDeleteMeal removes a meal by its position in the log
func (s *Server) handleDeleteMeal(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}

	meal, err := s.meals.DeleteMealByIndex(idx)
	if err != nil {
		if errors.Is(err, meals.ErrMealNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no meal at that index"})
			return
		}
		s.logger.Error("Failed to delete meal: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete meal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": meal.Type + " meal deleted"})
}

// handleSummary returns the goal, all meals, today's meals and the remaining
// calorie budget computed from today's stored totals
func (s *Server) handleSummary(c *gin.Context) {
	goal, err := s.meals.GetGoal()
	if err != nil {
		s.logger.Error("Failed to get goal: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load goal"})
		return
	}

	allMeals, err := s.meals.ListMeals()
	if err != nil {
		s.logger.Error("Failed to list meals: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load meals"})
		return
	}

	today := time.Now().Format("2006-01-02")
	todayMeals := make([]models.Meal, 0, len(allMeals))
	var total models.Nutrients
	for _, meal := range allMeals {
		if meal.Date == today {
			todayMeals = append(todayMeals, meal)
			total.Add(meal.Nutrition)
		}
	}

	if goal == nil {
		c.JSON(http.StatusOK, gin.H{
			"goal":            nil,
			"nutrition_total": total,
			"remaining_kcal":  0,
			"meals":           allMeals,
			"today_meals":     todayMeals,
			"message":         "set a goal to see your remaining calorie budget",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"goal":            goal,
		"nutrition_total": total,
		"remaining_kcal":  budget.RemainingKcal(*goal, total.Kcal),
		"meals":           allMeals,
		"today_meals":     todayMeals,
	})
}

// handleSearchFoods searches the reference database for foods similar to a
// free-text query
func (s *Server) handleSearchFoods(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
		return
	}

	results, err := s.engine.Search(c.Request.Context(), query, snacks.DefaultTopK)
	if err != nil {
		s.logger.Error("Food search failed for %q: %v", query, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "food search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"query": query, "results": results})
}

// handleRecommendSnacks estimates consumed calories from the logged meals and
// returns snacks that fit the remaining budget
func (s *Server) handleRecommendSnacks(c *gin.Context) {
	goal, err := s.meals.GetGoal()
	if err != nil {
		s.logger.Error("Failed to get goal: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load goal"})
		return
	}
	if goal == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no goal set"})
		return
	}

	allMeals, err := s.meals.ListMeals()
	if err != nil {
		s.logger.Error("Failed to list meals: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load meals"})
		return
	}

	var consumed float64
	for _, meal := range allMeals {
		kcal, err := s.engine.EstimateKcal(c.Request.Context(), meal.Items)
		if err != nil {
			s.logger.Error("Failed to estimate kcal: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to estimate consumed calories"})
			return
		}
		consumed += kcal
	}

	remaining, candidates := s.engine.RecommendSnacks(*goal, consumed, snacks.DefaultTopK)
	c.JSON(http.StatusOK, gin.H{
		"remaining_kcal": remaining,
		"snacks":         candidates,
	})
}
