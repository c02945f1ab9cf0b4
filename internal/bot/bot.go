package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"nutrition-diary/internal/llm"
	"nutrition-diary/internal/model"
	"nutrition-diary/internal/nutrition"
	"nutrition-diary/internal/repository"
)

const (
	msgWelcome = "👋 Привет! Я твой дневник питания.\n\n" +
		"📌 Напиши, что ты съел — я определю КБЖУ и сохраню это!\n" +
		"📸 Или пришли фото еды.\n\n" +
		"Команды:\n" +
		"/meals [day|week|month|all] — записи за период\n" +
		"/delete <id> — удалить запись"
	msgProcessingText  = "⏳ Определяю калорийность..."
	msgProcessingPhoto = "📸 Обрабатываю фото..."
	msgReminder        = "👋 Ты сегодня ещё ничего не записал. Не забудь отметить приёмы пищи!"

	photoPlaceholderDescription = "Блюдо с фото"
)

// Bot maps Telegram updates onto the extractor and the meal store.
type Bot struct {
	api       *tgbotapi.BotAPI
	userRepo  *repository.UserRepository
	mealRepo  *repository.MealRepository
	extractor *nutrition.Extractor
	log       *zap.SugaredLogger
}

func New(token string, userRepo *repository.UserRepository, mealRepo *repository.MealRepository, extractor *nutrition.Extractor, log *zap.SugaredLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Infow("bot authorized", "account", api.Self.UserName)

	return &Bot{
		api:       api,
		userRepo:  userRepo,
		mealRepo:  mealRepo,
		extractor: extractor,
		log:       log,
	}, nil
}

// RegisterWebhook points Telegram at the given public URL.
func (b *Bot) RegisterWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("register webhook: %w", err)
	}
	b.log.Infow("webhook registered", "url", url)
	return nil
}

// HandleUpdate processes one inbound update. Failures are converted to a
// user-facing message and logged; they never propagate to the transport.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	var err error
	switch {
	case msg.IsCommand():
		b.log.Infow("command", "user_id", msg.From.ID, "command", msg.Command())
		err = b.handleCommand(ctx, msg)
	case len(msg.Photo) > 0:
		err = b.handlePhoto(ctx, msg)
	case msg.Text != "":
		err = b.handleText(ctx, msg)
	}
	if err != nil {
		b.log.Errorw("handle update", "user_id", msg.From.ID, "error", err)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		if _, err := b.userRepo.UpsertFromTelegram(ctx, msg.From.ID, msg.From.FirstName, msg.From.LastName, msg.From.UserName); err != nil {
			b.log.Warnw("upsert user", "user_id", msg.From.ID, "error", err)
		}
		return b.sendText(msg.Chat.ID, msgWelcome)
	case "help":
		return b.sendText(msg.Chat.ID, msgWelcome)
	case "meals":
		return b.handleMeals(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Неизвестная команда. Набери /help для списка команд.")
	}
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.sendText(msg.Chat.ID, msgProcessingText); err != nil {
		return err
	}

	est, err := b.extractor.FromText(ctx, msg.Text)
	if err != nil {
		return b.sendText(msg.Chat.ID, errorText(err))
	}

	meal := mealFromEstimate(msg.From.ID, est, time.Now())
	if err := b.mealRepo.Create(ctx, meal); err != nil {
		b.log.Errorw("save meal", "user_id", msg.From.ID, "error", err)
		return b.sendText(msg.Chat.ID, errorText(err))
	}

	return b.sendText(msg.Chat.ID, formatConfirmation("✅ Записано:", meal))
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) error {
	// Telegram sends several sizes; the last one is the largest.
	photo := msg.Photo[len(msg.Photo)-1]
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: photo.FileID})
	if err != nil {
		b.log.Errorw("resolve photo", "user_id", msg.From.ID, "error", err)
		return b.sendText(msg.Chat.ID, "❌ Не удалось получить фото. Попробуй ещё раз.")
	}
	fileURL := file.Link(b.api.Token)

	if err := b.sendText(msg.Chat.ID, msgProcessingPhoto); err != nil {
		return err
	}

	est, err := b.extractor.FromImage(ctx, fileURL)
	if err != nil {
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	if est.Description == "" {
		est.Description = photoPlaceholderDescription
	}

	meal := mealFromEstimate(msg.From.ID, est, time.Now())
	if err := b.mealRepo.Create(ctx, meal); err != nil {
		b.log.Errorw("save meal", "user_id", msg.From.ID, "error", err)
		return b.sendText(msg.Chat.ID, errorText(err))
	}

	return b.sendText(msg.Chat.ID, formatConfirmation("✅ Записано по фото:", meal))
}

func (b *Bot) handleMeals(ctx context.Context, msg *tgbotapi.Message) error {
	period, err := repository.ParsePeriod(strings.TrimSpace(msg.CommandArguments()))
	if err != nil {
		return b.sendText(msg.Chat.ID, "Использование: /meals [day|week|month|all]")
	}

	meals, err := b.mealRepo.ListByPeriod(ctx, msg.From.ID, period, time.Now())
	if err != nil {
		b.log.Errorw("list meals", "user_id", msg.From.ID, "error", err)
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	if len(meals) == 0 {
		return b.sendText(msg.Chat.ID, "Записей за этот период нет.")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🍽 Записи (%s):\n", periodLabel(period)))
	for _, meal := range meals {
		sb.WriteString(fmt.Sprintf("#%d 📅 %s ⏰ %s — %s", meal.ID, meal.Date, meal.Time, meal.Description))
		if meal.Calories != nil {
			sb.WriteString(fmt.Sprintf(" (🔥 %d ккал)", *meal.Calories))
		}
		sb.WriteByte('\n')
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	arg := strings.TrimSpace(msg.CommandArguments())
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Использование: /delete <id записи>")
	}

	if err := b.mealRepo.DeleteByID(ctx, uint(id)); err != nil {
		b.log.Errorw("delete meal", "user_id", msg.From.ID, "meal_id", id, "error", err)
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 Запись #%d удалена.", id))
}

// SendDailyReminders pings every known user who has not logged a meal today.
func (b *Bot) SendDailyReminders(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	today := time.Now().Format("2006-01-02")
	for _, user := range users {
		count, err := b.mealRepo.CountForDate(ctx, user.TelegramID, today)
		if err != nil {
			b.log.Warnw("reminder count", "user_id", user.TelegramID, "error", err)
			continue
		}
		if count > 0 {
			continue
		}
		if err := b.sendText(user.TelegramID, msgReminder); err != nil {
			b.log.Warnw("reminder send", "user_id", user.TelegramID, "error", err)
		}
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func mealFromEstimate(userID int64, est nutrition.Estimate, now time.Time) *model.Meal {
	return &model.Meal{
		UserID:      userID,
		Date:        now.Format("2006-01-02"),
		Time:        now.Format("15:04"),
		Description: est.Description,
		Calories:    est.Calories,
		Proteins:    est.Proteins,
		Fats:        est.Fats,
		Carbs:       est.Carbs,
	}
}

func formatConfirmation(header string, meal *model.Meal) string {
	return fmt.Sprintf("%s\n📅 %s ⏰ %s\n🍽️ %s\n🔥 Калории: %s ккал\n💪 Белки: %s г\n🥑 Жиры: %s г\n🍞 Углеводы: %s г",
		header, meal.Date, meal.Time, meal.Description,
		formatInt(meal.Calories), formatFloat(meal.Proteins), formatFloat(meal.Fats), formatFloat(meal.Carbs))
}

func formatInt(v *int) string {
	if v == nil {
		return "—"
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return "—"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func periodLabel(period repository.Period) string {
	switch period {
	case repository.PeriodDay:
		return "за день"
	case repository.PeriodWeek:
		return "за неделю"
	case repository.PeriodMonth:
		return "за месяц"
	default:
		return "за всё время"
	}
}

// errorText converts pipeline failures into user-facing messages.
func errorText(err error) string {
	var malformed *nutrition.MalformedJSONError
	switch {
	case errors.Is(err, nutrition.ErrEmptyResponse):
		return "❌ Модель вернула пустой ответ. Попробуй ещё раз."
	case errors.Is(err, nutrition.ErrNoJSONFound), errors.As(err, &malformed):
		return "❌ Не удалось разобрать ответ модели. Попробуй переформулировать."
	case errors.Is(err, nutrition.ErrNoProductsRecognized):
		return "❌ Не удалось распознать еду на фото."
	case errors.Is(err, llm.ErrUpstreamTimeout):
		return "❌ Модель не ответила вовремя. Попробуй ещё раз."
	case errors.Is(err, repository.ErrStorageUnavailable):
		return "❌ Не удалось сохранить данные. Попробуй позже."
	default:
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
}
