package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/nutritrack/pkg/budget"
	"github.com/korjavin/nutritrack/pkg/catalog"
	"github.com/korjavin/nutritrack/pkg/config"
	"github.com/korjavin/nutritrack/pkg/embedding"
	"github.com/korjavin/nutritrack/pkg/engine"
	"github.com/korjavin/nutritrack/pkg/logger"
	"github.com/korjavin/nutritrack/pkg/meals"
	"github.com/korjavin/nutritrack/pkg/models"
	"github.com/korjavin/nutritrack/pkg/server"
	"github.com/korjavin/nutritrack/pkg/snacks"
	"github.com/korjavin/nutritrack/pkg/storage"
	"github.com/korjavin/nutritrack/pkg/telegram"
)

func main() {
	// Initialize logger
	log := logger.Global
	log.Info("Starting nutritrack server...")

	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// Initialize storage
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		log.Error("Failed to initialize storage: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	// Start BadgerDB garbage collection
	store.StartGCRoutine(10 * time.Minute)

	// Load the reference food catalog. A missing catalog is only fatal when
	// the index must be rebuilt, so keep going with an empty one and let the
	// engine decide.
	records, err := catalog.Load(cfg.FoodDBPath)
	if err != nil {
		log.Error("Failed to load food catalog from %s: %v", cfg.FoodDBPath, err)
		records = nil
	} else {
		log.Info("Loaded %d food records from %s", len(records), cfg.FoodDBPath)
	}

	// Initialize the embedding provider
	provider := embedding.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIAPIBase, cfg.EmbeddingModel, cfg.EmbeddingDimensions)

	// Initialize the engine: load the persisted index or build it
	eng := engine.New(provider, store, records, cfg.MatchThreshold)
	if err := eng.Init(context.Background()); err != nil {
		log.Error("Failed to initialize engine: %v", err)
		os.Exit(1)
	}

	// Initialize services
	mealService := meals.New(store)

	// Start the Telegram bot when a token is configured
	if cfg.BotToken != "" {
		bot, err := telegram.New(cfg.BotToken)
		if err != nil {
			log.Error("Failed to initialize Telegram bot: %v", err)
			os.Exit(1)
		}

		go runBot(bot, eng, mealService)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutting down...")
		store.Close()
		os.Exit(0)
	}()

	// Start the HTTP server
	srv := server.New(eng, mealService, cfg.StaticDir)
	if err := srv.Run(cfg.ListenAddr); err != nil {
		log.Error("Error running HTTP server: %v", err)
		os.Exit(1)
	}
}

// runBot wires the chat commands to the engine and the meal log
func runBot(bot *telegram.Bot, eng *engine.Engine, mealService *meals.Service) {
	log := logger.New("bot")

	commandHandlers := map[string]telegram.CommandHandler{
		"start": func(message *tgbotapi.Message) {
			bot.SendMessage(message.Chat.ID,
				"🥗 Hi! I track your meals and calorie budget.\n\n"+
					"/goal <current_kg> <target_kg> <days> <low|medium|high>\n"+
					"/meal <type> item1, item2, ...\n"+
					"/summary — today's totals\n"+
					"/snacks — what fits your remaining budget")
		},
		"goal": func(message *tgbotapi.Message) {
			chatID := message.Chat.ID
			fields := strings.Fields(message.CommandArguments())
			if len(fields) != 4 {
				bot.SendMessage(chatID, "Usage: /goal <current_kg> <target_kg> <days> <low|medium|high>")
				return
			}

			current, err1 := strconv.ParseFloat(fields[0], 64)
			target, err2 := strconv.ParseFloat(fields[1], 64)
			days, err3 := strconv.Atoi(fields[2])
			if err1 != nil || err2 != nil || err3 != nil || current <= 0 || target <= 0 || days <= 0 {
				bot.SendMessage(chatID, "Weights and days must be positive numbers.")
				return
			}

			goal := models.Goal{
				CurrentWeight: current,
				TargetWeight:  target,
				PeriodDays:    days,
				ActivityLevel: fields[3],
			}
			if err := mealService.SetGoal(goal); err != nil {
				log.Error("Failed to save goal: %v", err)
				bot.SendMessage(chatID, "😢 Sorry, I couldn't save your goal.")
				return
			}

			bot.SendMessage(chatID, fmt.Sprintf("✅ Goal saved! Daily target: %.0f kcal.", budget.TargetKcal(goal)))
		},
		"meal": func(message *tgbotapi.Message) {
			chatID := message.Chat.ID
			args := strings.TrimSpace(message.CommandArguments())
			parts := strings.SplitN(args, " ", 2)
			if len(parts) < 2 {
				bot.SendMessage(chatID, "Usage: /meal <breakfast|lunch|dinner|snack> item1, item2, ...")
				return
			}

			mealType := parts[0]
			var items []string
			for _, item := range strings.Split(parts[1], ",") {
				if trimmed := strings.TrimSpace(item); trimmed != "" {
					items = append(items, trimmed)
				}
			}
			if len(items) == 0 {
				bot.SendMessage(chatID, "Please list at least one food item.")
				return
			}

			totals, err := eng.Aggregate(context.Background(), items)
			if err != nil {
				log.Error("Failed to aggregate meal: %v", err)
				bot.SendMessage(chatID, "😢 Sorry, I couldn't resolve those items.")
				return
			}

			_, err = mealService.AddMeal(models.Meal{
				Date:      time.Now().Format("2006-01-02"),
				Type:      mealType,
				Items:     items,
				Nutrition: totals.Totals,
				Matched:   totals.MatchedItems,
				Unmatched: totals.UnmatchedItems,
			})
			if err != nil {
				log.Error("Failed to save meal: %v", err)
				bot.SendMessage(chatID, "😢 Sorry, I couldn't save that meal.")
				return
			}

			reply := fmt.Sprintf("✅ %s logged: %.0f kcal, %.1fg protein, %.1fg fat, %.1fg carbs.",
				mealType, totals.Totals.Kcal, totals.Totals.Protein, totals.Totals.Fat, totals.Totals.Carbs)
			if len(totals.UnmatchedItems) > 0 {
				reply += fmt.Sprintf("\n⚠️ I couldn't find: %s", strings.Join(totals.UnmatchedItems, ", "))
			}
			bot.SendMessage(chatID, reply)
		},
		"summary": func(message *tgbotapi.Message) {
			chatID := message.Chat.ID

			todayMeals, err := mealService.MealsForDate(time.Now().Format("2006-01-02"))
			if err != nil {
				log.Error("Failed to list meals: %v", err)
				bot.SendMessage(chatID, "😢 Sorry, I couldn't load your meals.")
				return
			}

			var total models.Nutrients
			for _, meal := range todayMeals {
				total.Add(meal.Nutrition)
			}

			reply := fmt.Sprintf("📊 Today: %d meals, %.0f kcal, %.1fg protein, %.1fg fat, %.1fg carbs.",
				len(todayMeals), total.Kcal, total.Protein, total.Fat, total.Carbs)

			goal, err := mealService.GetGoal()
			if err == nil && goal != nil {
				reply += fmt.Sprintf("\n🎯 Remaining budget: %.0f kcal.", budget.RemainingKcal(*goal, total.Kcal))
			}
			bot.SendMessage(chatID, reply)
		},
		"snacks": func(message *tgbotapi.Message) {
			chatID := message.Chat.ID

			goal, err := mealService.GetGoal()
			if err != nil || goal == nil {
				bot.SendMessage(chatID, "Set a goal first with /goal.")
				return
			}

			allMeals, err := mealService.ListMeals()
			if err != nil {
				log.Error("Failed to list meals: %v", err)
				bot.SendMessage(chatID, "😢 Sorry, I couldn't load your meals.")
				return
			}

			var consumed float64
			for _, meal := range allMeals {
				kcal, err := eng.EstimateKcal(context.Background(), meal.Items)
				if err != nil {
					log.Error("Failed to estimate kcal: %v", err)
					bot.SendMessage(chatID, "😢 Sorry, I couldn't estimate your consumed calories.")
					return
				}
				consumed += kcal
			}

			remaining, candidates := eng.RecommendSnacks(*goal, consumed, snacks.DefaultTopK)
			if len(candidates) == 0 {
				bot.SendMessage(chatID, fmt.Sprintf("🚫 No snacks fit your remaining budget (%.0f kcal).", remaining))
				return
			}

			lines := make([]string, 0, len(candidates))
			for _, snack := range candidates {
				lines = append(lines, fmt.Sprintf("• %s (%.0f kcal)", snack.Name, snack.Nutrients.Kcal))
			}
			bot.SendMessage(chatID, fmt.Sprintf("🍿 Within your %.0f kcal budget:\n%s", remaining, strings.Join(lines, "\n")))
		},
	}

	log.Info("Telegram bot is now running")
	if err := bot.Start(commandHandlers, nil); err != nil {
		log.Error("Error running bot: %v", err)
	}
}
