package bot

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/arenalabs/debatebot/internal/ai"
	"github.com/arenalabs/debatebot/internal/debate"
	"github.com/arenalabs/debatebot/internal/keystore"
)

// Callback uniques. Payloads ride after the unique, separated by "|".
const (
	cbAddKey  = "cmd_addkey"
	cbMyKeys  = "cmd_mykeys"
	cbDebate  = "cmd_debate"
	cbService = "srv"
	cbRounds  = "rnd"
	cbPickKey = "pick"
	cbDelKey  = "delkey"
	cbNext    = "next"
	cbResult  = "result"
)

func mainMenu() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data("🔑 My keys", cbMyKeys)),
		m.Row(m.Data("➕ Add a key", cbAddKey)),
		m.Row(m.Data("⚔️ Start a debate", cbDebate)),
	)
	return m
}

func serviceMenu() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, 4)
	for _, tag := range []string{ai.ServiceGemini, ai.ServiceGroq, ai.ServiceClaude, ai.ServiceDeepSeek} {
		rows = append(rows, m.Row(m.Data(ai.ServiceLabels[tag], cbService, tag)))
	}
	m.Inline(rows...)
	return m
}

func roundsMenu() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(
			m.Data("2", cbRounds, "2"),
			m.Data("3", cbRounds, "3"),
			m.Data("5", cbRounds, "5"),
			m.Data("10", cbRounds, "10"),
		),
	)
	return m
}

func keyPickMenu(keys []keystore.KeyInfo, exclude uint64) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(keys))
	for _, k := range keys {
		if k.ID == exclude {
			continue
		}
		label := fmt.Sprintf("%s (%s, %s)", k.Alias, ai.ServiceLabels[k.Service], remainingLabel(k))
		rows = append(rows, m.Row(m.Data(label, cbPickKey, strconv.FormatUint(k.ID, 10))))
	}
	m.Inline(rows...)
	return m
}

func keyListMenu(keys []keystore.KeyInfo) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(keys)+1)
	for _, k := range keys {
		rows = append(rows, m.Row(m.Data("🗑 Delete "+k.Alias, cbDelKey, strconv.FormatUint(k.ID, 10))))
	}
	rows = append(rows, m.Row(m.Data("➕ Add a key", cbAddKey)))
	m.Inline(rows...)
	return m
}

func nextRoundMenu(finished bool) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	if finished {
		m.Inline(m.Row(m.Data("🏁 Show the verdict", cbResult)))
	} else {
		m.Inline(m.Row(m.Data("➡️ Next round", cbNext)))
	}
	return m
}

func remainingLabel(k keystore.KeyInfo) string {
	if k.Quota == 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%d calls left", k.Remaining)
}

func renderKeyList(keys []keystore.KeyInfo) string {
	if len(keys) == 0 {
		return "You have no stored keys yet."
	}
	var b strings.Builder
	b.WriteString("Your keys:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "🔹 %s (%s) — %s\n", k.Alias, ai.ServiceLabels[k.Service], remainingLabel(k))
	}
	return b.String()
}

func renderRound(s *debate.Session, r debate.Round) string {
	p1, p2 := s.Participants()
	var b strings.Builder
	fmt.Fprintf(&b, "🔥 Round %d of %d\n\n", s.Round(), s.MaxRounds)
	for _, p := range []debate.Participant{p1, p2} {
		fmt.Fprintf(&b, "🗣 %s:\n%s\n\n", p.Name, r[p.Name])
	}
	return b.String()
}
