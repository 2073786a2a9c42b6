// Package dialog holds the conversation state machine for the multi-step
// flows (key registration and debate setup). Transitions are pure: the
// transport adapter turns incoming messages and button presses into events,
// applies them, and interprets the resulting effects.
package dialog

import (
	"strconv"
	"strings"
)

type Phase string

const (
	PhaseIdle Phase = "idle"

	// add-key flow
	PhaseAwaitingService Phase = "awaiting_service"
	PhaseAwaitingKey     Phase = "awaiting_key"
	PhaseAwaitingAlias   Phase = "awaiting_alias"
	PhaseAwaitingQuota   Phase = "awaiting_quota"

	// debate setup flow
	PhaseAwaitingTopic     Phase = "awaiting_topic"
	PhaseAwaitingRounds    Phase = "awaiting_rounds"
	PhaseAwaitingFirstKey  Phase = "awaiting_first_key"
	PhaseAwaitingSecondKey Phase = "awaiting_second_key"
)

// State is one user's dialog position plus collected input. It is JSON
// encoded when kept in Redis, so every field must marshal cleanly.
type State struct {
	Phase Phase `json:"phase"`

	Service string `json:"service,omitempty"`
	RawKey  string `json:"raw_key,omitempty"`
	Alias   string `json:"alias,omitempty"`

	Topic    string `json:"topic,omitempty"`
	Rounds   int    `json:"rounds,omitempty"`
	FirstKey uint64 `json:"first_key,omitempty"`
}

func Idle() State { return State{Phase: PhaseIdle} }

// Events.

type Event interface{ isEvent() }

type BeginAddKey struct{}
type BeginDebate struct{}
type Cancel struct{}
type ServicePicked struct{ Service string }
type RoundsPicked struct{ Rounds int }
type KeyPicked struct{ ID uint64 }
type TextInput struct{ Text string }

func (BeginAddKey) isEvent()   {}
func (BeginDebate) isEvent()   {}
func (Cancel) isEvent()        {}
func (ServicePicked) isEvent() {}
func (RoundsPicked) isEvent()  {}
func (KeyPicked) isEvent()     {}
func (TextInput) isEvent()     {}

// Effects. The adapter renders prompts and executes the terminal actions
// against the key store and the debate service.

type Effect interface{ isEffect() }

// AskService prompts with the vendor keyboard.
type AskService struct{}

// AskText prompts for free-form input.
type AskText struct{ Text string }

// AskRounds prompts with the round-count keyboard.
type AskRounds struct{}

// AskKeyPick prompts with the stored-key keyboard. Exclude hides the key
// already chosen for the first slot.
type AskKeyPick struct {
	Slot    int
	Exclude uint64
}

// SaveKey is the terminal effect of the add-key flow.
type SaveKey struct {
	Service string
	RawKey  string
	Alias   string
	Quota   int
}

// StartDebate is the terminal effect of the debate setup flow.
type StartDebate struct {
	Topic  string
	Rounds int
	Key1   uint64
	Key2   uint64
}

// Notice is a plain informational message.
type Notice struct{ Text string }

func (AskService) isEffect()  {}
func (AskText) isEffect()     {}
func (AskRounds) isEffect()   {}
func (AskKeyPick) isEffect()  {}
func (SaveKey) isEffect()     {}
func (StartDebate) isEffect() {}
func (Notice) isEffect()      {}

const minKeyLength = 5

// Apply advances the dialog by one event. Unexpected events leave the state
// unchanged with no effects; invalid input re-prompts without advancing.
func Apply(st State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case Cancel:
		if st.Phase == PhaseIdle {
			return Idle(), nil
		}
		return Idle(), []Effect{Notice{Text: "Cancelled."}}

	case BeginAddKey:
		return State{Phase: PhaseAwaitingService}, []Effect{AskService{}}

	case BeginDebate:
		return State{Phase: PhaseAwaitingTopic}, []Effect{AskText{Text: "Send the debate topic:"}}

	case ServicePicked:
		if st.Phase != PhaseAwaitingService {
			return st, nil
		}
		st.Service = e.Service
		st.Phase = PhaseAwaitingKey
		return st, []Effect{AskText{Text: "Send the API key for this service:"}}

	case RoundsPicked:
		if st.Phase != PhaseAwaitingRounds {
			return st, nil
		}
		if e.Rounds < 2 {
			return st, []Effect{AskText{Text: "Round count must be at least 2. Try again:"}}
		}
		st.Rounds = e.Rounds
		st.Phase = PhaseAwaitingFirstKey
		return st, []Effect{AskKeyPick{Slot: 1}}

	case KeyPicked:
		switch st.Phase {
		case PhaseAwaitingFirstKey:
			st.FirstKey = e.ID
			st.Phase = PhaseAwaitingSecondKey
			return st, []Effect{AskKeyPick{Slot: 2, Exclude: e.ID}}
		case PhaseAwaitingSecondKey:
			if e.ID == st.FirstKey {
				return st, []Effect{
					Notice{Text: "Pick a different key for the second debater."},
					AskKeyPick{Slot: 2, Exclude: st.FirstKey},
				}
			}
			out := StartDebate{Topic: st.Topic, Rounds: st.Rounds, Key1: st.FirstKey, Key2: e.ID}
			return Idle(), []Effect{out}
		default:
			return st, nil
		}

	case TextInput:
		return applyText(st, strings.TrimSpace(e.Text))
	}
	return st, nil
}

func applyText(st State, text string) (State, []Effect) {
	switch st.Phase {
	case PhaseAwaitingKey:
		if len(text) < minKeyLength {
			return st, []Effect{AskText{Text: "That key looks too short. Try again:"}}
		}
		st.RawKey = text
		st.Phase = PhaseAwaitingAlias
		return st, []Effect{AskText{Text: "Give this key a name (e.g. \"my gemini\"):"}}

	case PhaseAwaitingAlias:
		if text == "" {
			return st, []Effect{AskText{Text: "The name cannot be empty. Try again:"}}
		}
		st.Alias = text
		st.Phase = PhaseAwaitingQuota
		return st, []Effect{AskText{Text: "How many calls may this key spend? (0 = unlimited)"}}

	case PhaseAwaitingQuota:
		quota, err := strconv.Atoi(text)
		if err != nil || quota < 0 {
			return st, []Effect{AskText{Text: "Send a whole number, 0 or greater:"}}
		}
		out := SaveKey{Service: st.Service, RawKey: st.RawKey, Alias: st.Alias, Quota: quota}
		return Idle(), []Effect{out}

	case PhaseAwaitingTopic:
		if text == "" {
			return st, []Effect{AskText{Text: "The topic cannot be empty. Try again:"}}
		}
		st.Topic = text
		st.Phase = PhaseAwaitingRounds
		return st, []Effect{AskRounds{}}

	case PhaseAwaitingRounds:
		// manual round entry next to the keyboard shortcuts
		rounds, err := strconv.Atoi(text)
		if err != nil || rounds < 2 {
			return st, []Effect{AskText{Text: "Send a number greater than 1:"}}
		}
		return Apply(st, RoundsPicked{Rounds: rounds})
	}
	return st, nil
}
