package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/vglazkov/euro-oracle/internal/domain/match"
	"github.com/vglazkov/euro-oracle/internal/domain/prediction"
)

const tournamentTitle = "UEFA EURO 2020"

const startText = `Бот для игры в прогнозы на матчи UEFA EURO 2020 приветствует Вас!

Для просмотра доступных команд начните набирать "/" или введите "/help"`

const helpText = `Доступные команды:

/matches - список всех матчей турнира
/matchestoday - матчи сегодняшнего игрового дня
/matchesgroup - список матчей группы
/matchesstage - список матчей стадии турнира
/predict - прогнозировать следующий матч
/predictmatch - создание или редактирование прогноза на любой матч
/me - ваши результаты и прогнозы
/leaders - текущая таблица лидеров (ТОП-30)
/notifications - включить или отключить уведомления о результатах
/help - это сообщение

Подсчет очков осуществляется по следующим правилам:
- за угаданный точный счет матча при крупной победе одной из команд (с разницей в 3 и более мяча) - *5 очков*
- за угаданную разницу и победителя матча при крупной победе одной из команд - *4 очка*
- за угаданный точный счет матча - *3 очка*
- за угаданную разницу и победителя матча (или ничейного исхода) - *2 очка*
- за угаданного победителя матча - *1 очко*

*В плей-офф прогнозы принимаются на результат основного времени матча!*`

const unknownText = `Бот Вас не понял :( Для просмотра доступных команд начните набирать "/" или введите "/help"`

// PluralPoints renders a point count with the correct Russian plural
// form: 1 очко, 2 очка, 5 очков, with the 11-14 exception.
func PluralPoints(n int) string {
	word := "очков"
	switch {
	case n%100 >= 11 && n%100 <= 14:
		word = "очков"
	case n%10 == 1:
		word = "очко"
	case n%10 >= 2 && n%10 <= 4:
		word = "очка"
	}
	return fmt.Sprintf("%d %s", n, word)
}

// StageLabel is the display name of a match's tournament phase.
func StageLabel(m match.WithTeams) string {
	switch m.Stage {
	case match.StageRoundOf16:
		return "1/8 финала"
	case match.StageQuarter:
		return "1/4 финала"
	case match.StageSemi:
		return "1/2 финала"
	case match.StageFinal:
		return "Финал"
	default:
		return "Группа " + m.Group
	}
}

// FormatMatch renders one fixture line, kickoff converted to the
// configured display zone. Finished matches show the total score,
// extra time included.
func FormatMatch(m match.WithTeams, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*ID %d*. %s _%s_", m.ID, m.StartAt.In(loc).Format("02.01.2006 15:04"), StageLabel(m))

	switch {
	case m.Status == match.StatusFinished && m.HomeScoreTotal != nil && m.AwayScoreTotal != nil:
		fmt.Fprintf(&b, " : %s  *%d* - *%d*  %s", m.HomeTeamName, *m.HomeScoreTotal, *m.AwayScoreTotal, m.AwayTeamName)
	case m.Status == match.StatusInProgress:
		fmt.Fprintf(&b, " : %s - %s *(идет матч)*", m.HomeTeamName, m.AwayTeamName)
	default:
		fmt.Fprintf(&b, " : %s - %s *(не начался)*", m.HomeTeamName, m.AwayTeamName)
	}
	return b.String()
}

// FormatPrediction renders one line of the /me listing.
func FormatPrediction(p prediction.WithMatch, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(FormatMatch(p.Match, loc))
	fmt.Fprintf(&b, "\n*Ваш прогноз: _%d - %d_*", p.HomeScore, p.AwayScore)
	if p.Match.Status == match.StatusFinished && p.Points != nil {
		fmt.Fprintf(&b, " (%s)", PluralPoints(*p.Points))
	}
	return b.String()
}

// ResultMessage is the notification sent when a prediction earns
// points on a finished match.
func ResultMessage(m match.WithTeams, sp ScoredPrediction) string {
	home, away := 0, 0
	if m.HomeScoreTotal != nil && m.AwayScoreTotal != nil {
		home, away = *m.HomeScoreTotal, *m.AwayScoreTotal
	} else if m.HomeScore90 != nil && m.AwayScore90 != nil {
		home, away = *m.HomeScore90, *m.AwayScore90
	}
	return fmt.Sprintf("*Матч завершен*\n%s *%d* - *%d* %s\nВаш прогноз: _%d - %d_\nВы заработали: *%s*",
		m.HomeTeamName, home, away, m.AwayTeamName,
		sp.PredictedHome, sp.PredictedAway,
		PluralPoints(sp.Points),
	)
}
