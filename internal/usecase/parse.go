package usecase

import (
	"regexp"
	"strings"

	"github.com/vglazkov/euro-oracle/internal/domain/match"
)

var tournamentGroups = []string{"A", "B", "C", "D", "E", "F"}

var scorePattern = regexp.MustCompile(`\d+`)

// ParseScore scans free text for exactly two numbers, in any order and
// with any separator ("2 2", "3:3", "2 - 1"). Anything else is
// rejected.
func ParseScore(text string) (home, away int, ok bool) {
	numbers := scorePattern.FindAllString(text, -1)
	if len(numbers) != 2 {
		return 0, 0, false
	}
	home = atoiDigits(numbers[0])
	away = atoiDigits(numbers[1])
	return home, away, true
}

func atoiDigits(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
		if n > 1_000_000 {
			return 1_000_000
		}
	}
	return n
}

// ParseGroup validates a group answer against the six tournament
// groups.
func ParseGroup(text string) (string, bool) {
	g := strings.ToUpper(strings.TrimSpace(text))
	for _, known := range tournamentGroups {
		if g == known {
			return g, true
		}
	}
	return "", false
}

// ParseStage maps a stage answer ("2 тур", "1/8 финала", "Финал") onto
// a tournament stage.
func ParseStage(text string) (match.Stage, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, false
	}
	key := strings.ToUpper(fields[0])
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.ReplaceAll(key, "ФИНАЛ", "FINAL")

	switch key {
	case "1":
		return match.StageGroupRound1, true
	case "2":
		return match.StageGroupRound2, true
	case "3":
		return match.StageGroupRound3, true
	case "1/8":
		return match.StageRoundOf16, true
	case "1/4":
		return match.StageQuarter, true
	case "1/2":
		return match.StageSemi, true
	case "FINAL":
		return match.StageFinal, true
	default:
		return 0, false
	}
}

// CommandArg returns the first argument after a command, if any
// ("/matchesgroup B" -> "B").
func CommandArg(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return "", false
	}
	return fields[1], true
}
