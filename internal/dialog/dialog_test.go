package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddKeyHappyPath(t *testing.T) {
	st, effs := Apply(Idle(), BeginAddKey{})
	assert.Equal(t, PhaseAwaitingService, st.Phase)
	require.Len(t, effs, 1)
	assert.IsType(t, AskService{}, effs[0])

	st, effs = Apply(st, ServicePicked{Service: "gemini"})
	assert.Equal(t, PhaseAwaitingKey, st.Phase)
	require.Len(t, effs, 1)
	assert.IsType(t, AskText{}, effs[0])

	st, effs = Apply(st, TextInput{Text: "  AIzaSy-example-key  "})
	assert.Equal(t, PhaseAwaitingAlias, st.Phase)
	assert.Equal(t, "AIzaSy-example-key", st.RawKey)
	require.Len(t, effs, 1)

	st, effs = Apply(st, TextInput{Text: "work gemini"})
	assert.Equal(t, PhaseAwaitingQuota, st.Phase)
	require.Len(t, effs, 1)

	st, effs = Apply(st, TextInput{Text: "25"})
	assert.Equal(t, PhaseIdle, st.Phase)
	require.Len(t, effs, 1)
	assert.Equal(t, SaveKey{
		Service: "gemini",
		RawKey:  "AIzaSy-example-key",
		Alias:   "work gemini",
		Quota:   25,
	}, effs[0])
}

func TestAddKeyInvalidInputsReprompt(t *testing.T) {
	st, _ := Apply(Idle(), BeginAddKey{})
	st, _ = Apply(st, ServicePicked{Service: "groq"})

	// too-short key does not advance
	next, effs := Apply(st, TextInput{Text: "abc"})
	assert.Equal(t, PhaseAwaitingKey, next.Phase)
	assert.Empty(t, next.RawKey)
	require.Len(t, effs, 1)
	assert.IsType(t, AskText{}, effs[0])

	st, _ = Apply(next, TextInput{Text: "gsk_valid_key"})

	// empty alias does not advance
	next, effs = Apply(st, TextInput{Text: "   "})
	assert.Equal(t, PhaseAwaitingAlias, next.Phase)
	require.Len(t, effs, 1)

	st, _ = Apply(next, TextInput{Text: "main"})

	// quota must be a non-negative integer
	for _, bad := range []string{"many", "-1", "2.5", ""} {
		next, effs = Apply(st, TextInput{Text: bad})
		assert.Equal(t, PhaseAwaitingQuota, next.Phase, "input %q", bad)
		require.Len(t, effs, 1, "input %q", bad)
		assert.IsType(t, AskText{}, effs[0])
	}

	// zero means unlimited and is accepted
	st, effs = Apply(st, TextInput{Text: "0"})
	assert.Equal(t, PhaseIdle, st.Phase)
	require.Len(t, effs, 1)
	save, ok := effs[0].(SaveKey)
	require.True(t, ok)
	assert.Equal(t, 0, save.Quota)
}

func TestDebateSetupHappyPath(t *testing.T) {
	st, effs := Apply(Idle(), BeginDebate{})
	assert.Equal(t, PhaseAwaitingTopic, st.Phase)
	require.Len(t, effs, 1)

	st, effs = Apply(st, TextInput{Text: "Remote work beats the office"})
	assert.Equal(t, PhaseAwaitingRounds, st.Phase)
	require.Len(t, effs, 1)
	assert.IsType(t, AskRounds{}, effs[0])

	st, effs = Apply(st, RoundsPicked{Rounds: 3})
	assert.Equal(t, PhaseAwaitingFirstKey, st.Phase)
	require.Len(t, effs, 1)
	assert.Equal(t, AskKeyPick{Slot: 1}, effs[0])

	st, effs = Apply(st, KeyPicked{ID: 11})
	assert.Equal(t, PhaseAwaitingSecondKey, st.Phase)
	require.Len(t, effs, 1)
	assert.Equal(t, AskKeyPick{Slot: 2, Exclude: 11}, effs[0])

	st, effs = Apply(st, KeyPicked{ID: 12})
	assert.Equal(t, PhaseIdle, st.Phase)
	require.Len(t, effs, 1)
	assert.Equal(t, StartDebate{
		Topic:  "Remote work beats the office",
		Rounds: 3,
		Key1:   11,
		Key2:   12,
	}, effs[0])
}

func TestDebateSetupManualRoundEntry(t *testing.T) {
	st, _ := Apply(Idle(), BeginDebate{})
	st, _ = Apply(st, TextInput{Text: "topic"})

	next, effs := Apply(st, TextInput{Text: "1"})
	assert.Equal(t, PhaseAwaitingRounds, next.Phase)
	require.Len(t, effs, 1)
	assert.IsType(t, AskText{}, effs[0])

	next, effs = Apply(st, TextInput{Text: "4"})
	assert.Equal(t, PhaseAwaitingFirstKey, next.Phase)
	assert.Equal(t, 4, next.Rounds)
	require.Len(t, effs, 1)
	assert.IsType(t, AskKeyPick{}, effs[0])
}

func TestSecondKeyMustDiffer(t *testing.T) {
	st, _ := Apply(Idle(), BeginDebate{})
	st, _ = Apply(st, TextInput{Text: "topic"})
	st, _ = Apply(st, RoundsPicked{Rounds: 2})
	st, _ = Apply(st, KeyPicked{ID: 5})

	next, effs := Apply(st, KeyPicked{ID: 5})
	assert.Equal(t, PhaseAwaitingSecondKey, next.Phase)
	require.Len(t, effs, 2)
	assert.IsType(t, Notice{}, effs[0])
	assert.Equal(t, AskKeyPick{Slot: 2, Exclude: 5}, effs[1])
}

func TestCancelFromAnyPhase(t *testing.T) {
	st, _ := Apply(Idle(), BeginAddKey{})
	st, _ = Apply(st, ServicePicked{Service: "claude"})

	st, effs := Apply(st, Cancel{})
	assert.Equal(t, Idle(), st)
	require.Len(t, effs, 1)
	assert.Equal(t, Notice{Text: "Cancelled."}, effs[0])

	// cancel while idle stays silent
	st, effs = Apply(st, Cancel{})
	assert.Equal(t, Idle(), st)
	assert.Empty(t, effs)
}

func TestUnexpectedEventsAreIgnored(t *testing.T) {
	st, _ := Apply(Idle(), BeginAddKey{})

	next, effs := Apply(st, KeyPicked{ID: 9})
	assert.Equal(t, st, next)
	assert.Empty(t, effs)

	next, effs = Apply(st, RoundsPicked{Rounds: 3})
	assert.Equal(t, st, next)
	assert.Empty(t, effs)

	next, effs = Apply(Idle(), TextInput{Text: "stray message"})
	assert.Equal(t, Idle(), next)
	assert.Empty(t, effs)
}

func TestStartingANewFlowReplacesTheOld(t *testing.T) {
	st, _ := Apply(Idle(), BeginAddKey{})
	st, _ = Apply(st, ServicePicked{Service: "deepseek"})

	st, effs := Apply(st, BeginDebate{})
	assert.Equal(t, PhaseAwaitingTopic, st.Phase)
	assert.Empty(t, st.Service)
	require.Len(t, effs, 1)
	assert.IsType(t, AskText{}, effs[0])
}
