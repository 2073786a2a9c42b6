package debate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/arenalabs/debatebot/internal/ai"
)

type State int

const (
	StateNotStarted State = iota
	StateInRound
	StateRoundComplete
	StateFinished
)

var (
	ErrFinished      = errors.New("debate already finished")
	ErrRoundInFlight = errors.New("a round is already running")
	ErrNotFinished   = errors.New("debate not finished yet")
)

// Participant binds a display name, a stored-key ID and a vendor provider to
// one side of the debate. P1 argues for the topic, P2 against; the order is
// fixed at session creation.
type Participant struct {
	Name     string
	KeyID    uint64
	Provider ai.Provider
}

// Round maps participant name to the response generated that round. A round
// is recorded whole or not at all.
type Round map[string]string

// Charger is the quota side of the Key Store: one atomic charge for both
// participants, with a typed exhaustion error.
type Charger interface {
	ChargePair(ctx context.Context, id1, id2 uint64) error
}

// Session drives one debate for one chat. It is owned by a single chat
// context; the mutex only guards against a stray double-tap on the advance
// button while a round is in flight.
type Session struct {
	ID        string
	Topic     string
	MaxRounds int

	p1, p2  Participant
	charger Charger

	mu      sync.Mutex
	round   int
	running bool
	history []Round
}

func NewSession(topic string, p1, p2 Participant, maxRounds int, charger Charger) (*Session, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("debate: topic is required")
	}
	if maxRounds < 2 {
		return nil, errors.New("debate: at least 2 rounds required")
	}
	if p1.Name == p2.Name {
		return nil, errors.New("debate: participants must have distinct names")
	}
	if p1.Provider == nil || p2.Provider == nil {
		return nil, errors.New("debate: both participants need a provider")
	}
	return &Session{
		ID:        ulid.Make().String(),
		Topic:     topic,
		MaxRounds: maxRounds,
		p1:        p1,
		p2:        p2,
		charger:   charger,
	}, nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.running:
		return StateInRound
	case s.round >= s.MaxRounds:
		return StateFinished
	case s.round == 0:
		return StateNotStarted
	default:
		return StateRoundComplete
	}
}

func (s *Session) Round() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round
}

func (s *Session) Participants() (Participant, Participant) {
	return s.p1, s.p2
}

// History returns a copy of all completed rounds in order.
func (s *Session) History() []Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Round, len(s.history))
	copy(out, s.history)
	return out
}

// HistoryText renders completed rounds into the shared context blob both
// participants receive.
func (s *Session) HistoryText() string {
	s.mu.Lock()
	hist := make([]Round, len(s.history))
	copy(hist, s.history)
	s.mu.Unlock()
	return renderHistory(hist, s.p1.Name, s.p2.Name)
}

func renderHistory(hist []Round, name1, name2 string) string {
	var b strings.Builder
	for i, r := range hist {
		fmt.Fprintf(&b, "--- Round %d ---\n", i+1)
		for _, name := range []string{name1, name2} {
			if text, ok := r[name]; ok {
				fmt.Fprintf(&b, "%s: %s\n", name, text)
			}
		}
	}
	return b.String()
}

// NextRound runs one round: both participants generate concurrently against
// the same pre-round history, then both keys are charged atomically. If the
// charge fails nothing is committed, so the same round can be retried. A
// vendor error string counts as a legitimate response: it is recorded and
// charged like any other turn.
func (s *Session) NextRound(ctx context.Context) (Round, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrRoundInFlight
	}
	if s.round >= s.MaxRounds {
		s.mu.Unlock()
		return nil, ErrFinished
	}
	s.running = true
	index := s.round
	hist := make([]Round, len(s.history))
	copy(hist, s.history)
	s.mu.Unlock()

	histText := renderHistory(hist, s.p1.Name, s.p2.Name)
	prompt1 := s.advocacyPrompt(s.p1, s.p2, "for", index+1)
	prompt2 := s.advocacyPrompt(s.p2, s.p1, "against", index+1)

	var res1, res2 string
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		res1 = ai.SafeGenerate(ctx, s.p1.Provider, prompt1, histText, s.Topic)
	}()
	go func() {
		defer wg.Done()
		res2 = ai.SafeGenerate(ctx, s.p2.Provider, prompt2, histText, s.Topic)
	}()
	wg.Wait()

	if err := s.charger.ChargePair(ctx, s.p1.KeyID, s.p2.KeyID); err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return nil, err
	}

	round := Round{s.p1.Name: res1, s.p2.Name: res2}
	s.mu.Lock()
	s.history = append(s.history, round)
	s.round++
	s.running = false
	s.mu.Unlock()
	return round, nil
}

// Summary asks P1's backend, reframed as a neutral moderator, for a single
// synthesized conclusion. It is only available once the debate is finished
// and does not consume quota.
func (s *Session) Summary(ctx context.Context) (string, error) {
	if s.State() != StateFinished {
		return "", ErrNotFinished
	}
	prompt := fmt.Sprintf(
		"You are a neutral debate moderator. The debate between %s (for) and %s (against) is over after %d rounds. "+
			"Synthesize the full history into one balanced conclusion: the strongest points of each side and, if one side argued better, say which and why. Be concise.",
		s.p1.Name, s.p2.Name, s.MaxRounds,
	)
	return ai.SafeGenerate(ctx, s.p1.Provider, prompt, s.HistoryText(), s.Topic), nil
}

func (s *Session) advocacyPrompt(self, opponent Participant, side string, round int) string {
	return fmt.Sprintf(
		"You are %s. You are debating %s on the topic below and you argue %s it. "+
			"This is round %d of %d. Defend your side, answer your opponent's last points, and be concise.",
		self.Name, opponent.Name, side, round, s.MaxRounds,
	)
}
