package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"diet-planner/internal/models"
	"diet-planner/internal/session"
	"diet-planner/pkg/logger"
)

const (
	StateStart    = "start"
	StateAge      = "age"
	StateSex      = "sex"
	StateWeight   = "weight"
	StateHeight   = "height"
	StateActivity = "activity"
	StateGoal     = "goal"
	StateDiet     = "diet"
	StateBudget   = "budget"
	StateConfirm  = "confirm"
	StateComplete = "complete"

	callbackRegenerate = "regenerate"
)

var (
	sexOptions = map[string]models.Sex{
		"Male":   models.SexMale,
		"Female": models.SexFemale,
	}
	activityOptions = map[string]models.ActivityLevel{
		"Sedentary":   models.ActivitySedentary,
		"Light":       models.ActivityLight,
		"Moderate":    models.ActivityModerate,
		"Active":      models.ActivityActive,
		"Very active": models.ActivityVeryActive,
	}
	goalOptions = map[string]models.Goal{
		"Lose weight":     models.GoalLose,
		"Maintain weight": models.GoalMaintain,
		"Gain weight":     models.GoalGain,
	}
	dietOptions = map[string]models.DietPreference{
		"Veg":     models.PreferVeg,
		"Non-Veg": models.PreferNonVeg,
		"Both":    models.PreferBoth,
	}
)

// sender is the subset of tgbotapi.BotAPI used to talk to users.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TipsGenerator writes short advice for a finished plan.
type TipsGenerator interface {
	GenerateTips(ctx context.Context, profile models.Profile, plan *models.MealPlan) ([]string, error)
}

type conversation struct {
	state   string
	profile models.Profile
	// ready is set once the profile has been confirmed at least once.
	ready bool
}

type TelegramBot struct {
	api        *tgbotapi.BotAPI
	sender     sender
	tracker    *session.Tracker
	tips       TipsGenerator
	logger     *logger.Logger
	userStates map[int64]*conversation
	stateMutex sync.Mutex
	wg         sync.WaitGroup
}

func NewTelegramBot(token string, tracker *session.Tracker, tips TipsGenerator, logger *logger.Logger) (*TelegramBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	logger.Info("Authorized on Telegram", "username", api.Self.UserName)

	t := newTelegramBot(api, tracker, tips, logger)
	t.api = api
	return t, nil
}

func newTelegramBot(s sender, tracker *session.Tracker, tips TipsGenerator, logger *logger.Logger) *TelegramBot {
	return &TelegramBot{
		sender:     s,
		tracker:    tracker,
		tips:       tips,
		logger:     logger.With("component", "telegram"),
		userStates: make(map[int64]*conversation),
	}
}

// Start begins receiving updates from Telegram via polling
func (t *TelegramBot) Start(ctx context.Context) error {
	t.logger.Info("Removing any existing webhook")
	_, err := t.api.Request(tgbotapi.DeleteWebhookConfig{
		DropPendingUpdates: true,
	})
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := t.api.GetUpdatesChan(updateConfig)
	t.logger.Info("Started receiving Telegram updates")

	go t.handleUpdates(updates)

	return nil
}

func (t *TelegramBot) handleUpdates(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		go func(update tgbotapi.Update) {
			defer func() {
				if r := recover(); r != nil {
					t.logger.Error("Recovered from panic while processing update", "error", r)
				}
			}()
			t.handleUpdate(update)
		}(update)
	}
}

func (t *TelegramBot) handleUpdate(update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		t.handleCommand(update.Message)
	case update.Message != nil:
		t.handleMessage(update.Message)
	case update.CallbackQuery != nil:
		t.handleCallbackQuery(update.CallbackQuery)
	}
}

func (t *TelegramBot) send(c tgbotapi.Chattable) {
	if _, err := t.sender.Send(c); err != nil {
		t.logger.Error("Failed to send message", "error", err)
	}
}

func keyboard(rows ...[]string) tgbotapi.ReplyKeyboardMarkup {
	var buttons [][]tgbotapi.KeyboardButton
	for _, row := range rows {
		var r []tgbotapi.KeyboardButton
		for _, label := range row {
			r = append(r, tgbotapi.NewKeyboardButton(label))
		}
		buttons = append(buttons, tgbotapi.NewKeyboardButtonRow(r...))
	}
	return tgbotapi.NewReplyKeyboard(buttons...)
}

var (
	sexKeyboard      = keyboard([]string{"Male", "Female"})
	activityKeyboard = keyboard([]string{"Sedentary", "Light", "Moderate"}, []string{"Active", "Very active"})
	goalKeyboard     = keyboard([]string{"Lose weight", "Maintain weight"}, []string{"Gain weight"})
	dietKeyboard     = keyboard([]string{"Veg", "Non-Veg", "Both"})
	confirmKeyboard  = keyboard([]string{"Yes, generate", "No, start over"})
)

func prompt(chatID int64, text string, markup interface{}) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	return msg
}

func (t *TelegramBot) handleCommand(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	userID := message.From.ID

	t.logger.Info("Handling command", "command", message.Command(), "user_id", userID)

	switch message.Command() {
	case "start":
		t.stateMutex.Lock()
		t.userStates[userID] = &conversation{state: StateAge}
		t.stateMutex.Unlock()

		t.send(prompt(chatID, "👋 Hi! I'll build a personalised Indian diet plan for your goal and budget.\n\nFirst, how old are you? (15-100)", tgbotapi.NewRemoveKeyboard(true)))

	case "plan":
		t.stateMutex.Lock()
		conv, ok := t.userStates[userID]
		ready := ok && conv.ready
		var profile models.Profile
		if ready {
			profile = conv.profile
		}
		t.stateMutex.Unlock()

		if !ready {
			t.send(tgbotapi.NewMessage(chatID, "I don't have your profile yet. Use /start to set it up."))
			return
		}
		t.generate(chatID, userID, profile)

	case "help":
		t.send(tgbotapi.NewMessage(chatID, "I create daily meal plans from your profile and budget.\n/start - enter your profile\n/plan - get a fresh plan for your saved profile"))

	default:
		t.send(tgbotapi.NewMessage(chatID, "Unknown command. Use /start to begin."))
	}
}

func parseInRange(text string, lo, hi float64) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(text, ",", ".")), 64)
	if err != nil || v < lo || v > hi {
		return 0, false
	}
	return v, true
}

// advance applies one answer to the conversation and returns the reply.
// generate is true once the user confirmed the profile.
func advance(conv *conversation, chatID int64, text string) (reply tgbotapi.MessageConfig, generate bool) {
	text = strings.TrimSpace(text)

	switch conv.state {
	case StateAge:
		age, ok := parseInRange(text, 15, 100)
		if !ok || age != float64(int(age)) {
			return prompt(chatID, "Please enter your age as a whole number between 15 and 100:", nil), false
		}
		conv.profile.Age = int(age)
		conv.state = StateSex
		return prompt(chatID, "What is your sex?", sexKeyboard), false

	case StateSex:
		sex, ok := sexOptions[text]
		if !ok {
			return prompt(chatID, "Please choose using the buttons below.", sexKeyboard), false
		}
		conv.profile.Sex = sex
		conv.state = StateWeight
		return prompt(chatID, "Your weight in kilograms? (30-200)", tgbotapi.NewRemoveKeyboard(true)), false

	case StateWeight:
		weight, ok := parseInRange(text, 30, 200)
		if !ok {
			return prompt(chatID, "Please enter a weight between 30 and 200 kg (for example 70):", nil), false
		}
		conv.profile.Weight = weight
		conv.state = StateHeight
		return prompt(chatID, "Your height in centimetres? (120-250)", nil), false

	case StateHeight:
		height, ok := parseInRange(text, 120, 250)
		if !ok {
			return prompt(chatID, "Please enter a height between 120 and 250 cm (for example 175):", nil), false
		}
		conv.profile.Height = height
		conv.state = StateActivity
		return prompt(chatID, "How active are you?", activityKeyboard), false

	case StateActivity:
		level, ok := activityOptions[text]
		if !ok {
			return prompt(chatID, "Please choose your activity level using the buttons below.", activityKeyboard), false
		}
		conv.profile.ActivityLevel = level
		conv.state = StateGoal
		return prompt(chatID, "What is your goal?", goalKeyboard), false

	case StateGoal:
		goal, ok := goalOptions[text]
		if !ok {
			return prompt(chatID, "Please choose your goal using the buttons below.", goalKeyboard), false
		}
		conv.profile.Goal = goal
		conv.state = StateDiet
		return prompt(chatID, "Diet preference?", dietKeyboard), false

	case StateDiet:
		diet, ok := dietOptions[text]
		if !ok {
			return prompt(chatID, "Please choose a diet preference using the buttons below.", dietKeyboard), false
		}
		conv.profile.DietPreference = diet
		conv.state = StateBudget
		return prompt(chatID, "Daily food budget in ₹ (0-5000, send 0 for no preference):", tgbotapi.NewRemoveKeyboard(true)), false

	case StateBudget:
		budget, ok := parseInRange(text, 0, 5000)
		if !ok {
			return prompt(chatID, "Please enter a budget between 0 and 5000:", nil), false
		}
		conv.profile.Budget = budget
		conv.state = StateConfirm
		return prompt(chatID, summary(conv.profile), confirmKeyboard), false

	case StateConfirm:
		switch text {
		case "Yes, generate":
			conv.state = StateComplete
			conv.ready = true
			return prompt(chatID, "⏳ Building your plan...", tgbotapi.NewRemoveKeyboard(true)), true
		case "No, start over":
			*conv = conversation{state: StateAge}
			return prompt(chatID, "Let's start again. How old are you?", tgbotapi.NewRemoveKeyboard(true)), false
		default:
			return prompt(chatID, "Please choose one of the options.", confirmKeyboard), false
		}

	case StateComplete:
		return prompt(chatID, "Send /plan for a fresh plan or /start to change your profile.", nil), false

	default:
		*conv = conversation{state: StateAge}
		return prompt(chatID, "Sorry, something went wrong. How old are you?", tgbotapi.NewRemoveKeyboard(true)), false
	}
}

func summary(p models.Profile) string {
	budget := "no preference"
	if p.Budget > 0 {
		budget = fmt.Sprintf("₹%.0f", p.Budget)
	}
	return fmt.Sprintf("Please check your details:\n\nAge: %d\nSex: %s\nWeight: %.0f kg\nHeight: %.0f cm\nActivity: %s\nGoal: %s\nDiet: %s\nDaily budget: %s\n\nIs this correct?",
		p.Age, p.Sex, p.Weight, p.Height, p.ActivityLevel, p.GoalLabel(), p.DietLabel(), budget)
}

func (t *TelegramBot) handleMessage(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	userID := message.From.ID

	t.stateMutex.Lock()
	conv, exists := t.userStates[userID]
	if !exists {
		t.stateMutex.Unlock()
		t.send(tgbotapi.NewMessage(chatID, "Please use /start to begin."))
		return
	}
	t.logger.Debug("Processing message", "user_id", userID, "state", conv.state)
	reply, generate := advance(conv, chatID, message.Text)
	profile := conv.profile
	t.stateMutex.Unlock()

	t.send(reply)
	if generate {
		t.generate(chatID, userID, profile)
	}
}

func (t *TelegramBot) handleCallbackQuery(callbackQuery *tgbotapi.CallbackQuery) {
	t.logger.Info("Received callback query", "from", callbackQuery.From.UserName, "data", callbackQuery.Data)

	if _, err := t.sender.Request(tgbotapi.NewCallback(callbackQuery.ID, "")); err != nil {
		t.logger.Error("Failed to answer callback", "error", err)
	}
	if callbackQuery.Data != callbackRegenerate || callbackQuery.Message == nil {
		return
	}

	userID := callbackQuery.From.ID
	t.stateMutex.Lock()
	conv, ok := t.userStates[userID]
	ready := ok && conv.ready
	var profile models.Profile
	if ready {
		profile = conv.profile
	}
	t.stateMutex.Unlock()

	if !ready {
		t.send(tgbotapi.NewMessage(callbackQuery.Message.Chat.ID, "Use /start to set up your profile first."))
		return
	}
	t.generate(callbackQuery.Message.Chat.ID, userID, profile)
}

// generate runs planning in the background. A newer request from the same
// user cancels this one and nothing is sent for it.
func (t *TelegramBot) generate(chatID, userID int64, profile models.Profile) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		key := "tg:" + strconv.FormatInt(userID, 10)
		plan, _, err := t.tracker.Run(ctx, key, profile)
		if errors.Is(err, session.ErrSuperseded) {
			return
		}
		if err != nil {
			t.logger.Error("Failed to generate diet plan", "error", err, "user_id", userID)
			t.send(tgbotapi.NewMessage(chatID, "Sorry, something went wrong while building your plan. Please try /plan again."))
			return
		}

		for _, text := range renderPlan(plan) {
			t.send(tgbotapi.NewMessage(chatID, text))
		}

		tips := t.planTips(ctx, profile, plan)
		msg := tgbotapi.NewMessage(chatID, renderTips(tips))
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔄 Regenerate", callbackRegenerate),
			),
		)
		t.send(msg)
	}()
}

func (t *TelegramBot) planTips(ctx context.Context, profile models.Profile, plan *models.MealPlan) []string {
	if t.tips == nil || plan.IsEmpty() {
		return nil
	}
	tipsCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	tips, err := t.tips.GenerateTips(tipsCtx, profile, plan)
	if err != nil {
		t.logger.Warn("Falling back to static tips", "error", err)
		return nil
	}
	return tips
}

// Stop gracefully shuts down the bot
func (t *TelegramBot) Stop(ctx context.Context) error {
	if t.api != nil {
		t.api.StopReceivingUpdates()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
