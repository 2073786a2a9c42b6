// Package bot adapts Telegram updates into dialog events and debate
// operations, and renders their effects back as messages with inline
// keyboards. All sequencing lives here; the decisions live in the dialog
// machine and the debate session.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/arenalabs/debatebot/internal/ai"
	"github.com/arenalabs/debatebot/internal/debate"
	"github.com/arenalabs/debatebot/internal/dialog"
	"github.com/arenalabs/debatebot/internal/keystore"
)

type Bot struct {
	tb         *tele.Bot
	keys       *keystore.Service
	registry   *ai.Registry
	sessions   *debate.Store
	dialogs    dialog.Store
	genTimeout time.Duration
}

func New(tb *tele.Bot, keys *keystore.Service, registry *ai.Registry, sessions *debate.Store, dialogs dialog.Store, genTimeout time.Duration) *Bot {
	b := &Bot{
		tb:         tb,
		keys:       keys,
		registry:   registry,
		sessions:   sessions,
		dialogs:    dialogs,
		genTimeout: genTimeout,
	}
	b.setupHandlers()
	return b
}

func (b *Bot) Start() { b.tb.Start() }
func (b *Bot) Stop()  { b.tb.Stop() }

// ProcessUpdate feeds one decoded update into the handler chain. Used by the
// webhook server.
func (b *Bot) ProcessUpdate(u tele.Update) { b.tb.ProcessUpdate(u) }

func (b *Bot) setupHandlers() {
	b.tb.Handle("/start", b.handleStart)
	b.tb.Handle("/addkey", func(c tele.Context) error { return b.dispatch(c, dialog.BeginAddKey{}) })
	b.tb.Handle("/mykeys", b.handleMyKeys)
	b.tb.Handle("/debate", func(c tele.Context) error { return b.dispatch(c, dialog.BeginDebate{}) })
	b.tb.Handle("/cancel", func(c tele.Context) error { return b.dispatch(c, dialog.Cancel{}) })
	b.tb.Handle(tele.OnText, b.handleText)
	b.tb.Handle(tele.OnCallback, b.handleCallback)
}

func (b *Bot) handleStart(c tele.Context) error {
	user := c.Sender()
	b.keys.EnsureProfile(context.Background(), user.ID, displayName(user))
	text := fmt.Sprintf(
		"Hi, %s! I run debates between AI models using YOUR API keys.\nAdd a couple of keys and let them argue.",
		user.FirstName,
	)
	return c.Send(text, mainMenu())
}

func (b *Bot) handleMyKeys(c tele.Context) error {
	keys := b.keys.ListKeys(context.Background(), c.Sender().ID)
	return c.Send(renderKeyList(keys), keyListMenu(keys))
}

func (b *Bot) handleText(c tele.Context) error {
	ctx := context.Background()
	uid := c.Sender().ID
	st, err := b.dialogs.Get(ctx, uid)
	if err != nil {
		log.Printf("bot: dialog load failed user=%d: %v", uid, err)
		st = dialog.Idle()
	}
	if st.Phase == dialog.PhaseIdle {
		return c.Send("Use the menu below.", mainMenu())
	}
	return b.dispatch(c, dialog.TextInput{Text: c.Text()})
}

func (b *Bot) handleCallback(c tele.Context) error {
	defer func() {
		if err := c.Respond(&tele.CallbackResponse{}); err != nil {
			log.Printf("bot: callback ack failed: %v", err)
		}
	}()

	unique, payload := parseCallback(c.Callback().Data)
	switch unique {
	case cbAddKey:
		return b.dispatch(c, dialog.BeginAddKey{})
	case cbDebate:
		return b.dispatch(c, dialog.BeginDebate{})
	case cbMyKeys:
		return b.handleMyKeys(c)
	case cbService:
		if !b.registry.Known(payload) {
			return c.Send("Unknown service.", mainMenu())
		}
		return b.dispatch(c, dialog.ServicePicked{Service: payload})
	case cbRounds:
		n, err := strconv.Atoi(payload)
		if err != nil {
			return nil
		}
		return b.dispatch(c, dialog.RoundsPicked{Rounds: n})
	case cbPickKey:
		id, err := strconv.ParseUint(payload, 10, 64)
		if err != nil {
			return nil
		}
		return b.dispatch(c, dialog.KeyPicked{ID: id})
	case cbDelKey:
		return b.handleDeleteKey(c, payload)
	case cbNext:
		return b.handleNextRound(c)
	case cbResult:
		return b.handleResult(c)
	}
	return nil
}

// parseCallback splits telebot's "\f<unique>|<payload>" callback data.
func parseCallback(data string) (unique, payload string) {
	data = strings.TrimPrefix(data, "\f")
	if i := strings.IndexByte(data, '|'); i >= 0 {
		return data[:i], data[i+1:]
	}
	return data, ""
}

// dispatch runs one event through the dialog machine, persists the new
// state and interprets the effects.
func (b *Bot) dispatch(c tele.Context, ev dialog.Event) error {
	ctx := context.Background()
	uid := c.Sender().ID

	st, err := b.dialogs.Get(ctx, uid)
	if err != nil {
		log.Printf("bot: dialog load failed user=%d: %v", uid, err)
		st = dialog.Idle()
	}

	next, effects := dialog.Apply(st, ev)

	if next.Phase == dialog.PhaseIdle {
		err = b.dialogs.Delete(ctx, uid)
	} else {
		err = b.dialogs.Set(ctx, uid, next)
	}
	if err != nil {
		log.Printf("bot: dialog save failed user=%d: %v", uid, err)
	}

	return b.runEffects(c, effects)
}

func (b *Bot) runEffects(c tele.Context, effects []dialog.Effect) error {
	for _, eff := range effects {
		var err error
		switch e := eff.(type) {
		case dialog.AskService:
			err = c.Send("Choose a service:", serviceMenu())
		case dialog.AskText:
			err = c.Send(e.Text)
		case dialog.AskRounds:
			err = c.Send("How many rounds? Pick one or send a number:", roundsMenu())
		case dialog.AskKeyPick:
			err = b.askKeyPick(c, e)
		case dialog.SaveKey:
			err = b.saveKey(c, e)
		case dialog.StartDebate:
			err = b.startDebate(c, e)
		case dialog.Notice:
			err = c.Send(e.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) askKeyPick(c tele.Context, e dialog.AskKeyPick) error {
	uid := c.Sender().ID
	usable := usableKeys(b.keys.ListKeys(context.Background(), uid), e.Exclude)
	if len(usable) == 0 {
		if err := b.dialogs.Delete(context.Background(), uid); err != nil {
			log.Printf("bot: dialog delete failed user=%d: %v", uid, err)
		}
		return c.Send("❌ You need more stored keys with calls left. Add one first.", mainMenu())
	}
	label := "Pick the first debater's key:"
	if e.Slot == 2 {
		label = "Pick the second debater's key:"
	}
	return c.Send(label, keyPickMenu(usable, e.Exclude))
}

func usableKeys(keys []keystore.KeyInfo, exclude uint64) []keystore.KeyInfo {
	out := make([]keystore.KeyInfo, 0, len(keys))
	for _, k := range keys {
		if k.ID == exclude {
			continue
		}
		if k.Quota != 0 && k.Remaining <= 0 {
			continue
		}
		out = append(out, k)
	}
	return out
}

func (b *Bot) saveKey(c tele.Context, e dialog.SaveKey) error {
	ctx := context.Background()
	uid := c.Sender().ID

	warning := ""
	if prov, err := b.registry.Get(e.Service, e.RawKey); err == nil {
		if !prov.ValidateKey(ctx) {
			warning = "\n⚠️ I could not verify this key with the vendor. It is stored anyway."
		}
	}

	if !b.keys.AddKey(ctx, uid, e.Service, e.RawKey, e.Alias, e.Quota) {
		return c.Send("❌ Could not store the key. Maybe that name is already taken.", mainMenu())
	}
	return c.Send(fmt.Sprintf("✅ Key %q stored.%s", e.Alias, warning), mainMenu())
}

func (b *Bot) handleDeleteKey(c tele.Context, payload string) error {
	id, err := strconv.ParseUint(payload, 10, 64)
	if err != nil {
		return nil
	}
	uid := c.Sender().ID
	if !b.keys.DeleteKey(context.Background(), uid, id) {
		return c.Send("❌ Could not delete that key.")
	}
	keys := b.keys.ListKeys(context.Background(), uid)
	return c.Send("🗑 Key deleted.\n\n"+renderKeyList(keys), keyListMenu(keys))
}

func (b *Bot) startDebate(c tele.Context, e dialog.StartDebate) error {
	ctx := context.Background()
	uid := c.Sender().ID

	byID := make(map[uint64]keystore.KeyInfo)
	for _, k := range b.keys.ListKeys(ctx, uid) {
		byID[k.ID] = k
	}

	p1, err := b.resolveParticipant(ctx, uid, e.Key1, byID)
	if err != nil {
		return c.Send("❌ "+err.Error(), mainMenu())
	}
	p2, err := b.resolveParticipant(ctx, uid, e.Key2, byID)
	if err != nil {
		return c.Send("❌ "+err.Error(), mainMenu())
	}

	sess, err := debate.NewSession(e.Topic, p1, p2, e.Rounds, b.keys)
	if err != nil {
		return c.Send("❌ Could not start the debate: "+err.Error(), mainMenu())
	}
	b.sessions.Put(c.Chat().ID, uid, sess)

	intro := fmt.Sprintf("⚔️ Debate started: %q\nRounds: %d\n%s argues for, %s argues against.",
		e.Topic, e.Rounds, p1.Name, p2.Name)
	if err := c.Send(intro); err != nil {
		return err
	}
	return b.runRound(c, sess)
}

func (b *Bot) resolveParticipant(ctx context.Context, uid int64, keyID uint64, byID map[uint64]keystore.KeyInfo) (debate.Participant, error) {
	info, ok := byID[keyID]
	if !ok {
		return debate.Participant{}, errors.New("that key no longer exists")
	}
	credential, service, ok := b.keys.GetDecrypted(ctx, keyID, uid)
	if !ok {
		return debate.Participant{}, fmt.Errorf("could not load key %q", info.Alias)
	}
	prov, err := b.registry.Get(service, credential)
	if err != nil {
		return debate.Participant{}, err
	}
	return debate.Participant{
		Name:     fmt.Sprintf("%s (%s)", info.Alias, ai.ServiceLabels[service]),
		KeyID:    keyID,
		Provider: prov,
	}, nil
}

func (b *Bot) handleNextRound(c tele.Context) error {
	sess, ok := b.sessions.Get(c.Chat().ID, c.Sender().ID)
	if !ok {
		return c.Send("No active debate here. Start one from the menu.", mainMenu())
	}
	return b.runRound(c, sess)
}

func (b *Bot) runRound(c tele.Context, sess *debate.Session) error {
	if err := c.Send(fmt.Sprintf("⏳ Round %d is running...", sess.Round()+1)); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*b.genTimeout)
	defer cancel()

	round, err := sess.NextRound(ctx)
	if err != nil {
		var exhausted *keystore.QuotaExhaustedError
		switch {
		case errors.Is(err, debate.ErrFinished):
			return c.Send("🏁 The debate is over.", nextRoundMenu(true))
		case errors.Is(err, debate.ErrRoundInFlight):
			return c.Send("⏳ Hold on, this round is still running.")
		case errors.As(err, &exhausted):
			name := b.participantByKey(sess, exhausted.KeyID)
			return c.Send(fmt.Sprintf("❌ Quota exhausted for %s. The round was not counted.", name), mainMenu())
		default:
			log.Printf("bot: round failed session=%s: %v", sess.ID, err)
			return c.Send("❌ The round failed. Nothing was counted; you can retry.", nextRoundMenu(false))
		}
	}

	finished := sess.State() == debate.StateFinished
	return c.Send(renderRound(sess, round), nextRoundMenu(finished))
}

func (b *Bot) participantByKey(sess *debate.Session, keyID uint64) string {
	p1, p2 := sess.Participants()
	switch keyID {
	case p1.KeyID:
		return p1.Name
	case p2.KeyID:
		return p2.Name
	}
	return "a participant"
}

func (b *Bot) handleResult(c tele.Context) error {
	chatID, uid := c.Chat().ID, c.Sender().ID
	sess, ok := b.sessions.Get(chatID, uid)
	if !ok {
		return c.Send("No finished debate here.", mainMenu())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*b.genTimeout)
	defer cancel()

	verdict, err := sess.Summary(ctx)
	if err != nil {
		if errors.Is(err, debate.ErrNotFinished) {
			return c.Send("The debate is still running.", nextRoundMenu(false))
		}
		return c.Send("❌ Could not produce the verdict.", mainMenu())
	}

	b.sessions.Delete(chatID, uid)
	return c.Send("🏁 Verdict:\n\n"+verdict, mainMenu())
}

func displayName(u *tele.User) string {
	if u.Username != "" {
		return u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
