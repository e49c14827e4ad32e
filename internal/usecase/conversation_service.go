package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vglazkov/euro-oracle/internal/domain/match"
	"github.com/vglazkov/euro-oracle/internal/domain/prediction"
	"github.com/vglazkov/euro-oracle/internal/domain/user"
	"github.com/vglazkov/euro-oracle/internal/domain/userlog"
	"github.com/vglazkov/euro-oracle/internal/platform/cache"
	"github.com/vglazkov/euro-oracle/internal/platform/logging"
)

// MessageSender delivers an outgoing chat message, optionally with a
// one-time reply keyboard.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard []string) error
}

// IncomingMessage is one inbound chat message, already stripped of
// transport specifics.
type IncomingMessage struct {
	ChatID    int64
	FirstName string
	UserName  string
	Text      string
}

var groupKeyboard = []string{"A", "B", "C", "D", "E", "F"}
var stageKeyboard = []string{"1 тур", "2 тур", "3 тур", "1/8 финала", "1/4 финала", "1/2 финала", "Финал"}

const defaultLeaderboardLimit = 30

// Leaderboard aggregates over every prediction; a short cache keeps a
// burst of /leaders requests from hammering the aggregation query.
const leaderboardCacheTTL = time.Minute

// ConversationService drives the per-user dialog: command dispatch
// plus a small persisted state machine for multi-turn flows. State
// lives on the user row, so restarts and interleaved sync runs cannot
// lose a pending prompt.
type ConversationService struct {
	userRepo       user.Repository
	matchRepo      match.Repository
	predictionRepo prediction.Repository
	logRepo        userlog.Repository
	sender         MessageSender
	loc            *time.Location
	leaders        *cache.Store
	log            *logging.Logger
	now            func() time.Time

	commands map[string]func(ctx context.Context, conv *conversation) error
	stages   map[user.ChatStage]func(ctx context.Context, conv *conversation) error
}

// conversation is the per-message working set.
type conversation struct {
	user    user.User
	text    string
	payload string
	logID   int64
}

func NewConversationService(
	userRepo user.Repository,
	matchRepo match.Repository,
	predictionRepo prediction.Repository,
	logRepo userlog.Repository,
	sender MessageSender,
	loc *time.Location,
	log *logging.Logger,
) *ConversationService {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logging.NewNop()
	}
	s := &ConversationService{
		userRepo:       userRepo,
		matchRepo:      matchRepo,
		predictionRepo: predictionRepo,
		logRepo:        logRepo,
		sender:         sender,
		loc:            loc,
		leaders:        cache.NewStore(leaderboardCacheTTL),
		log:            log,
		now:            time.Now,
	}
	s.commands = map[string]func(ctx context.Context, conv *conversation) error{
		"/start":         s.handleStart,
		"/help":          s.handleHelp,
		"/matches":       s.handleAllMatches,
		"/matchestoday":  s.handleMatchesToday,
		"/matchesgroup":  s.handleMatchesGroupSelect,
		"/matchesstage":  s.handleMatchesStageSelect,
		"/predict":       s.handlePredictNext,
		"/predictmatch":  s.handlePredictMatchSelect,
		"/me":            s.handleOwnPredictions,
		"/leaders":       s.handleLeaders,
		"/notifications": s.handleNotificationsToggle,
	}
	s.stages = map[user.ChatStage]func(ctx context.Context, conv *conversation) error{
		user.StageEnteringScore: s.continueEnterScore,
		user.StageAwaitingGroup: s.continueGroup,
		user.StageAwaitingStage: s.continueStage,
		user.StageAwaitingMatch: s.continueMatchID,
	}
	return s
}

// HandleMessage processes one inbound message end to end: resolve the
// user, log the request, then either resume a pending flow or dispatch
// a command.
func (s *ConversationService) HandleMessage(ctx context.Context, in IncomingMessage) error {
	ctx, span := startUsecaseSpan(ctx, "ConversationService.HandleMessage")
	defer span.End()

	u, err := s.resolveUser(ctx, in)
	if err != nil {
		return err
	}

	entry := userlog.Entry{UserID: u.ID, UserName: u.UserName, Request: in.Text}
	if err := s.logRepo.Insert(ctx, &entry); err != nil {
		s.log.WarnContext(ctx, "write request log failed", "chat_id", in.ChatID, "error", err)
	}

	conv := &conversation{user: u, text: in.Text, logID: entry.ID}

	if u.ChatStage != user.StageSimple {
		// Clear the pending state before validating the answer, so an
		// abandoned flow can never wedge the user.
		conv.payload = u.ChatStagePayload
		stage := u.ChatStage
		if err := s.setStage(ctx, conv, user.StageSimple, ""); err != nil {
			return err
		}
		if handler, ok := s.stages[stage]; ok {
			return handler(ctx, conv)
		}
		s.log.WarnContext(ctx, "unknown chat stage cleared", "chat_id", u.ChatID, "stage", int(stage))
	}

	if cmd, ok := parseCommand(in.Text); ok {
		if handler, found := s.commands[cmd]; found {
			return handler(ctx, conv)
		}
	}
	return s.reply(ctx, conv, unknownText)
}

func parseCommand(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", false
	}
	cmd := strings.ToLower(fields[0])
	// Commands in group chats arrive as /cmd@botname.
	if at := strings.IndexByte(cmd, '@'); at > 0 {
		cmd = cmd[:at]
	}
	return cmd, true
}

func (s *ConversationService) resolveUser(ctx context.Context, in IncomingMessage) (user.User, error) {
	u, found, err := s.userRepo.GetByChatID(ctx, in.ChatID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user chat_id=%d: %w", in.ChatID, err)
	}
	if found {
		return u, nil
	}

	u = user.User{
		ChatID:    in.ChatID,
		FirstName: in.FirstName,
		UserName:  in.UserName,
		ChatStage: user.StageSimple,
		Notify:    true,
	}
	if err := s.userRepo.Upsert(ctx, &u); err != nil {
		return user.User{}, fmt.Errorf("create user chat_id=%d: %w", in.ChatID, err)
	}
	return u, nil
}

func (s *ConversationService) setStage(ctx context.Context, conv *conversation, stage user.ChatStage, payload string) error {
	if err := s.userRepo.SetChatStage(ctx, conv.user.ChatID, stage, payload); err != nil {
		return fmt.Errorf("set chat stage chat_id=%d: %w", conv.user.ChatID, err)
	}
	conv.user.ChatStage = stage
	conv.user.ChatStagePayload = payload
	return nil
}

// reply sends the response and, on successful delivery, attaches it to
// the request's log entry. Delivery failure is not an error of the
// handled message: state mutations are already committed.
func (s *ConversationService) reply(ctx context.Context, conv *conversation, text string, keyboard ...string) error {
	if err := s.sender.SendMessage(ctx, conv.user.ChatID, text, keyboard); err != nil {
		s.log.WarnContext(ctx, "send message failed", "chat_id", conv.user.ChatID, "error", err)
		return nil
	}
	if conv.logID != 0 {
		if err := s.logRepo.SetResponse(ctx, conv.logID, userlog.TruncateResponse(text)); err != nil {
			s.log.WarnContext(ctx, "write response log failed", "chat_id", conv.user.ChatID, "error", err)
		}
	}
	return nil
}

func (s *ConversationService) handleStart(ctx context.Context, conv *conversation) error {
	return s.reply(ctx, conv, startText)
}

func (s *ConversationService) handleHelp(ctx context.Context, conv *conversation) error {
	return s.reply(ctx, conv, helpText)
}

func (s *ConversationService) handleAllMatches(ctx context.Context, conv *conversation) error {
	matches, err := s.matchRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	header := fmt.Sprintf("*Все матчи %s* (указано время %s)\n\n", tournamentTitle, s.loc.String())
	return s.reply(ctx, conv, s.matchListing(header, matches))
}

func (s *ConversationService) handleMatchesToday(ctx context.Context, conv *conversation) error {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	matches, err := s.matchRepo.ListBetween(ctx, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return fmt.Errorf("list matches today: %w", err)
	}
	header := fmt.Sprintf("*Матчи %s за сегодня*\n\n", tournamentTitle)
	return s.reply(ctx, conv, s.matchListing(header, matches))
}

func (s *ConversationService) handleMatchesGroupSelect(ctx context.Context, conv *conversation) error {
	if arg, ok := CommandArg(conv.text); ok {
		conv.text = arg
		return s.continueGroup(ctx, conv)
	}
	if err := s.setStage(ctx, conv, user.StageAwaitingGroup, ""); err != nil {
		return err
	}
	return s.reply(ctx, conv, "Выберите или укажите группу:", groupKeyboard...)
}

func (s *ConversationService) continueGroup(ctx context.Context, conv *conversation) error {
	group, ok := ParseGroup(conv.text)
	if !ok {
		return s.reply(ctx, conv, "Группа не найдена")
	}
	matches, err := s.matchRepo.ListByGroup(ctx, group)
	if err != nil {
		return fmt.Errorf("list matches group=%s: %w", group, err)
	}
	header := fmt.Sprintf("*Матчи группы %s на %s*\n\n", group, tournamentTitle)
	return s.reply(ctx, conv, s.matchListing(header, matches))
}

func (s *ConversationService) handleMatchesStageSelect(ctx context.Context, conv *conversation) error {
	if arg, ok := CommandArg(conv.text); ok {
		conv.text = arg
		return s.continueStage(ctx, conv)
	}
	if err := s.setStage(ctx, conv, user.StageAwaitingStage, ""); err != nil {
		return err
	}
	return s.reply(ctx, conv, "Выберите или укажите стадию:", stageKeyboard...)
}

func (s *ConversationService) continueStage(ctx context.Context, conv *conversation) error {
	stage, ok := ParseStage(conv.text)
	if !ok {
		return s.reply(ctx, conv, "Стадия не найдена")
	}
	matches, err := s.matchRepo.ListByStage(ctx, stage)
	if err != nil {
		return fmt.Errorf("list matches stage=%d: %w", stage, err)
	}
	header := fmt.Sprintf("*Матчи выбранной стадии на %s*\n\n", tournamentTitle)
	return s.reply(ctx, conv, s.matchListing(header, matches))
}

func (s *ConversationService) handlePredictNext(ctx context.Context, conv *conversation) error {
	m, found, err := s.predictionRepo.NextUnpredictedMatch(ctx, conv.user.ID, s.now().UTC())
	if err != nil {
		return fmt.Errorf("find next unpredicted match user_id=%d: %w", conv.user.ID, err)
	}
	if !found {
		return s.reply(ctx, conv, "Следующий матч для прогнозирования не найден")
	}
	return s.promptScore(ctx, conv, m)
}

func (s *ConversationService) handlePredictMatchSelect(ctx context.Context, conv *conversation) error {
	if arg, ok := CommandArg(conv.text); ok {
		conv.text = arg
		return s.continueMatchID(ctx, conv)
	}
	if err := s.setStage(ctx, conv, user.StageAwaitingMatch, ""); err != nil {
		return err
	}
	return s.reply(ctx, conv, "Укажите ID матча:")
}

func (s *ConversationService) continueMatchID(ctx context.Context, conv *conversation) error {
	id, err := strconv.ParseInt(strings.TrimSpace(conv.text), 10, 64)
	if err != nil {
		return s.reply(ctx, conv, "Алло, надо число набрать")
	}
	m, found, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get match id=%d: %w", id, err)
	}
	if !found {
		return s.reply(ctx, conv, "Матч не найден")
	}
	return s.promptScore(ctx, conv, m)
}

func (s *ConversationService) promptScore(ctx context.Context, conv *conversation, m match.WithTeams) error {
	if err := s.setStage(ctx, conv, user.StageEnteringScore, strconv.FormatInt(m.ID, 10)); err != nil {
		return err
	}
	text := fmt.Sprintf("Укажите счет матча\n%s\n\nПоддерживаются различные варианты ('2 2', '3:3', '2 - 1' и т.д.)",
		FormatMatch(m, s.loc))
	return s.reply(ctx, conv, text)
}

func (s *ConversationService) continueEnterScore(ctx context.Context, conv *conversation) error {
	home, away, ok := ParseScore(conv.text)
	if !ok {
		return s.reply(ctx, conv, "Неверный формат счета")
	}

	matchID, err := strconv.ParseInt(conv.payload, 10, 64)
	if err != nil {
		s.log.WarnContext(ctx, "bad chat stage payload", "chat_id", conv.user.ChatID, "payload", conv.payload)
		return s.reply(ctx, conv, "Матч не найден")
	}
	// Re-fetch: sync may have moved the kickoff since the prompt.
	m, found, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("get match id=%d: %w", matchID, err)
	}
	if !found {
		return s.reply(ctx, conv, "Матч не найден")
	}
	if !m.StartAt.After(s.now().UTC()) {
		return s.reply(ctx, conv, "Прогнозы на данный матч больше не принимаются")
	}

	p, found, err := s.predictionRepo.GetByUserAndMatch(ctx, conv.user.ID, m.ID)
	if err != nil {
		return fmt.Errorf("get prediction user_id=%d match_id=%d: %w", conv.user.ID, m.ID, err)
	}
	if !found {
		p = prediction.Prediction{UserID: conv.user.ID, MatchID: m.ID}
	}
	p.HomeScore = home
	p.AwayScore = away
	if err := s.predictionRepo.Upsert(ctx, &p); err != nil {
		return fmt.Errorf("upsert prediction user_id=%d match_id=%d: %w", conv.user.ID, m.ID, err)
	}

	text := fmt.Sprintf("Прогноз принят\n%s %d - %d %s", m.HomeTeamName, home, away, m.AwayTeamName)
	return s.reply(ctx, conv, text)
}

func (s *ConversationService) handleOwnPredictions(ctx context.Context, conv *conversation) error {
	predictions, err := s.predictionRepo.ListByUser(ctx, conv.user.ID)
	if err != nil {
		return fmt.Errorf("list predictions user_id=%d: %w", conv.user.ID, err)
	}

	total, err := s.predictionRepo.TotalPoints(ctx, conv.user.ID)
	if err != nil {
		return fmt.Errorf("total points user_id=%d: %w", conv.user.ID, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Ваши прогнозы на матчи %s*\n\n", tournamentTitle)
	for _, p := range predictions {
		b.WriteString(FormatPrediction(p, s.loc))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n*ВСЕГО ОЧКОВ: %d*", total)
	return s.reply(ctx, conv, b.String())
}

func (s *ConversationService) handleLeaders(ctx context.Context, conv *conversation) error {
	cached, err := s.leaders.GetOrLoad(ctx, "leaderboard", func(ctx context.Context) (any, error) {
		return s.predictionRepo.Leaderboard(ctx, defaultLeaderboardLimit)
	})
	if err != nil {
		return fmt.Errorf("load leaderboard: %w", err)
	}
	standings, _ := cached.([]prediction.Standing)
	if len(standings) == 0 {
		return s.reply(ctx, conv, "*На данный момент прогнозы отсутствуют*")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Лидеры прогнозов на матчи %s*\n\n", tournamentTitle)
	for i, row := range standings {
		fmt.Fprintf(&b, "%d. _%s_: *%d*\n", i+1, row.Name, row.Points)
	}
	return s.reply(ctx, conv, b.String())
}

func (s *ConversationService) handleNotificationsToggle(ctx context.Context, conv *conversation) error {
	next := !conv.user.Notify
	if err := s.userRepo.SetNotify(ctx, conv.user.ChatID, next); err != nil {
		return fmt.Errorf("toggle notifications chat_id=%d: %w", conv.user.ChatID, err)
	}
	if next {
		return s.reply(ctx, conv, "Уведомления о результатах матчей включены")
	}
	return s.reply(ctx, conv, "Уведомления о результатах матчей отключены")
}

func (s *ConversationService) matchListing(header string, matches []match.WithTeams) string {
	var b strings.Builder
	b.WriteString(header)
	if len(matches) == 0 {
		b.WriteString("Матчи не найдены")
		return b.String()
	}
	for _, m := range matches {
		b.WriteString(FormatMatch(m, s.loc))
		b.WriteString("\n")
	}
	return b.String()
}
