// Package conversation drives the per-call order-taking state machine.
// Each turn takes the caller's utterance and the call's session, resolves
// an intent, mutates the session, and produces the next thing to say plus
// whether the transport should keep listening.
package conversation

import (
	"context"
	"fmt"
	"log"

	"comanda/internal/fulfillment"
	"comanda/internal/interpreter"
	"comanda/internal/menu"
	"comanda/internal/monitoring"
	"comanda/internal/pricing"
	"comanda/internal/session"
)

// escalateAfterMisses is how many consecutive unintelligible turns are
// tolerated while taking an order before handing off to a human.
const escalateAfterMisses = 2

// IntentResolver resolves one utterance into an intent.
type IntentResolver interface {
	Interpret(ctx context.Context, utterance string, sess *session.OrderSession) interpreter.Intent
}

// Finalizer receives confirmed orders. Dispatch must not block.
type Finalizer interface {
	Dispatch(order fulfillment.Order)
}

// Result is what one turn tells the transport layer: the text to speak,
// whether to reopen the microphone afterwards, and the phase reached.
type Result struct {
	Prompt            string        `json:"prompt"`
	ContinueListening bool          `json:"continue_listening"`
	Phase             session.Phase `json:"phase"`
}

// Controller is the order-conversation state machine. It holds no per-call
// state itself; everything mutable lives in the session.
type Controller struct {
	catalog   *menu.Catalog
	resolver  IntentResolver
	finalizer Finalizer
	persona   Persona
	taxRate   float64
	pickupETA string
	metrics   *monitoring.Metrics
}

// NewController wires the state machine to its collaborators.
func NewController(catalog *menu.Catalog, resolver IntentResolver, finalizer Finalizer, persona Persona, taxRate float64, pickupETA string, metrics *monitoring.Metrics) *Controller {
	return &Controller{
		catalog:   catalog,
		resolver:  resolver,
		finalizer: finalizer,
		persona:   persona.Normalized(),
		taxRate:   taxRate,
		pickupETA: pickupETA,
		metrics:   metrics,
	}
}

// Persona returns the persona in use, with defaults backfilled.
func (c *Controller) Persona() Persona {
	return c.persona
}

// Greet produces the opening line for a freshly answered call. A closed
// session gets no greeting and no open microphone.
func (c *Controller) Greet(sess *session.OrderSession) Result {
	if sess.Phase.Terminal() {
		return Result{ContinueListening: false, Phase: sess.Phase}
	}
	return Result{Prompt: c.persona.Greeting, ContinueListening: true, Phase: sess.Phase}
}

// HandleUtterance processes one caller speech turn.
func (c *Controller) HandleUtterance(ctx context.Context, sess *session.OrderSession, utterance string) Result {
	if sess.Phase.Terminal() {
		// The session is closed; whatever arrives now is ignored.
		return Result{ContinueListening: false, Phase: sess.Phase}
	}

	sess.NoInputCount = 0
	intent := c.resolver.Interpret(ctx, utterance, sess)
	c.metrics.TurnResolved(string(intent.Kind))

	// A request for a human wins from any non-terminal phase.
	if intent.Kind == interpreter.KindRequestHuman {
		return c.escalate(sess)
	}

	switch sess.Phase {
	case session.PhaseTakingOrder:
		return c.handleTakingOrder(sess, intent)
	case session.PhaseAwaitingConfirmation:
		return c.handleAwaitingConfirmation(sess, intent)
	default:
		return Result{ContinueListening: false, Phase: sess.Phase}
	}
}

// HandleNoInput processes a silent turn: one re-prompt, then goodbye.
func (c *Controller) HandleNoInput(sess *session.OrderSession) Result {
	if sess.Phase.Terminal() {
		return Result{ContinueListening: false, Phase: sess.Phase}
	}
	sess.NoInputCount++
	if sess.NoInputCount > 1 {
		return Result{Prompt: c.persona.NoInputGoodbye, ContinueListening: false, Phase: sess.Phase}
	}
	if sess.Phase == session.PhaseAwaitingConfirmation {
		return c.stay(sess, c.persona.ConfirmAgain)
	}
	return c.stay(sess, c.persona.NoInputRetry)
}

func (c *Controller) handleTakingOrder(sess *session.OrderSession, intent interpreter.Intent) Result {
	switch intent.Kind {
	case interpreter.KindAddItem:
		return c.addItem(sess, intent)

	case interpreter.KindRemoveItem:
		return c.removeItem(sess, intent)

	case interpreter.KindProvideCustomerInfo:
		sess.MergeCustomer(intent.CustomerName, intent.CustomerPhone)
		sess.MissCount = 0
		return c.stay(sess, c.persona.CustomerNoted)

	case interpreter.KindRequestTotal:
		if len(sess.Lines) == 0 {
			return c.stay(sess, c.persona.EmptyOrder)
		}
		sess.Phase = session.PhaseAwaitingConfirmation
		return Result{Prompt: c.recap(sess), ContinueListening: true, Phase: sess.Phase}

	case interpreter.KindUnintelligible:
		sess.MissCount++
		if sess.MissCount >= escalateAfterMisses {
			return c.escalate(sess)
		}
		return c.stay(sess, c.persona.Reprompt)

	default:
		// Affirm or Deny with nothing pending to confirm: a parseable
		// answer to a question that was not asked. Re-prompt without
		// counting it as a miss.
		return c.stay(sess, c.persona.Reprompt)
	}
}

func (c *Controller) handleAwaitingConfirmation(sess *session.OrderSession, intent interpreter.Intent) Result {
	switch intent.Kind {
	case interpreter.KindAffirm:
		return c.finalize(sess)

	case interpreter.KindDeny:
		sess.Phase = session.PhaseTakingOrder
		sess.MissCount = 0
		return c.stay(sess, c.persona.ChangeAsk)

	case interpreter.KindAddItem:
		// A change spoken at the confirmation question is an implicit
		// rejection; fall back to taking the order and apply it.
		sess.Phase = session.PhaseTakingOrder
		sess.MissCount = 0
		return c.addItem(sess, intent)

	case interpreter.KindRemoveItem:
		sess.Phase = session.PhaseTakingOrder
		sess.MissCount = 0
		return c.removeItem(sess, intent)

	case interpreter.KindProvideCustomerInfo:
		sess.MergeCustomer(intent.CustomerName, intent.CustomerPhone)
		return c.stay(sess, c.persona.ConfirmAgain)

	case interpreter.KindRequestTotal:
		// Repeating the recap is harmless; totals are recomputed, never
		// cached.
		return c.stay(sess, c.recap(sess))

	default:
		// Ambiguity alone never abandons a recap already spoken.
		return c.stay(sess, c.persona.ConfirmAgain)
	}
}

func (c *Controller) addItem(sess *session.OrderSession, intent interpreter.Intent) Result {
	item, err := c.catalog.Find(intent.ItemName)
	if err != nil {
		// Out-of-menu is a conversational miss for the caller but not an
		// unintelligible turn; the escalation counter is untouched.
		return c.stay(sess, fmt.Sprintf(c.persona.OffMenu, intent.ItemName))
	}
	sess.AddLine(session.OrderLine{
		ItemID:         item.ID,
		Name:           item.Name,
		UnitPriceCents: item.PriceCents,
		Quantity:       intent.Quantity,
		Modifications:  intent.Modifications,
	})
	sess.MissCount = 0
	return c.stay(sess, fmt.Sprintf(c.persona.ItemAdded, intent.Quantity, item.Name))
}

func (c *Controller) removeItem(sess *session.OrderSession, intent interpreter.Intent) Result {
	if !sess.RemoveLine(intent.ItemName) {
		return c.stay(sess, fmt.Sprintf(c.persona.NotInOrder, intent.ItemName))
	}
	sess.MissCount = 0
	return c.stay(sess, fmt.Sprintf(c.persona.ItemRemoved, intent.ItemName))
}

// recap speaks the itemized order, the total, and the confirmation ask.
func (c *Controller) recap(sess *session.OrderSession) string {
	return sess.Summary(c.taxRate) + "\n" + c.persona.ConfirmAsk
}

// finalize closes the order: totals are computed one last time, the
// fulfillment sink is notified, and the call ends confirmed.
func (c *Controller) finalize(sess *session.OrderSession) Result {
	totals := pricing.ComputeTotals(sess.PricingLines(), c.taxRate)
	sess.Phase = session.PhaseCompleted

	order := fulfillment.NewOrder(sess, totals)
	if c.finalizer != nil {
		c.finalizer.Dispatch(order)
	}
	c.metrics.CallCompleted()
	log.Printf("conversation: call %s completed, order %s, total %d cents", sess.CallID, order.OrderID, totals.TotalCents)

	prompt := fmt.Sprintf(c.persona.Confirmed, formatCents(totals.TotalCents), c.pickupETA)
	return Result{Prompt: prompt, ContinueListening: false, Phase: sess.Phase}
}

func (c *Controller) escalate(sess *session.OrderSession) Result {
	sess.Phase = session.PhaseEscalated
	c.metrics.CallEscalated()
	log.Printf("conversation: call %s escalated to a human", sess.CallID)
	return Result{Prompt: c.persona.Transfer, ContinueListening: false, Phase: sess.Phase}
}

func (c *Controller) stay(sess *session.OrderSession, prompt string) Result {
	return Result{Prompt: prompt, ContinueListening: true, Phase: sess.Phase}
}
