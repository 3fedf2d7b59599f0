// Package session holds per-call order state. Each session is owned by a
// single call; the Store isolates sessions from each other and evicts the
// ones whose callers went away.
package session

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"comanda/internal/pricing"
)

// Phase is the conversation's state in the order-taking state machine.
type Phase string

const (
	PhaseTakingOrder          Phase = "taking_order"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseCompleted            Phase = "completed"
	PhaseEscalated            Phase = "escalated"
)

// Terminal reports whether the phase accepts no further transitions.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseEscalated
}

// OrderLine is one distinct item entry in the order. The price is a
// snapshot taken when the line was added, so later menu changes never
// reprice an order already in flight.
type OrderLine struct {
	ItemID         string   `json:"item_id"`
	Name           string   `json:"name"`
	UnitPriceCents int      `json:"unit_price_cents"`
	Quantity       int      `json:"quantity"`
	Modifications  []string `json:"modifications,omitempty"`
}

// CustomerInfo is filled in piecemeal as the caller volunteers it.
type CustomerInfo struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// OrderSession is the mutable state of one phone call. Turns within a
// call are sequential and need no coordination among themselves; the
// mutex exists for out-of-turn readers (the session query endpoint),
// which must use Snapshot while turn handlers hold Lock for the duration
// of a turn.
type OrderSession struct {
	mu sync.Mutex

	CallID       string       `json:"call_id"`
	Lines        []OrderLine  `json:"lines"`
	Customer     CustomerInfo `json:"customer"`
	Phase        Phase        `json:"phase"`
	CreatedAt    time.Time    `json:"created_at"`
	LastActivity time.Time    `json:"last_activity"`

	// MissCount tracks consecutive unintelligible turns while taking the
	// order; two in a row escalate to a human.
	MissCount int `json:"-"`
	// NoInputCount tracks consecutive silent turns; one re-prompt is
	// allowed before the call is ended.
	NoInputCount int `json:"-"`
}

// New creates a session for a call, starting in the order-taking phase.
func New(callID string, now time.Time) *OrderSession {
	return &OrderSession{
		CallID:       callID,
		Phase:        PhaseTakingOrder,
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Lock takes the session's turn lock. The transport serializes turns per
// call, so this never contends with another turn; it fences concurrent
// Snapshot readers.
func (s *OrderSession) Lock() { s.mu.Lock() }

// Unlock releases the turn lock.
func (s *OrderSession) Unlock() { s.mu.Unlock() }

// Snapshot returns a deep copy safe to read and marshal while a turn is
// mutating the live session. Lines and their modifications are copied,
// never aliased.
func (s *OrderSession) Snapshot() *OrderSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := &OrderSession{
		CallID:       s.CallID,
		Customer:     s.Customer,
		Phase:        s.Phase,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
		MissCount:    s.MissCount,
		NoInputCount: s.NoInputCount,
	}
	out.Lines = make([]OrderLine, len(s.Lines))
	copy(out.Lines, s.Lines)
	for i := range out.Lines {
		if mods := out.Lines[i].Modifications; mods != nil {
			out.Lines[i].Modifications = append([]string(nil), mods...)
		}
	}
	return out
}

// AddLine appends a line, merging with an existing line of the same item
// and modification set by summing quantities. Repeated "add another taco"
// turns converge to one line instead of N parallel ones.
func (s *OrderSession) AddLine(line OrderLine) {
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	key := mergeKey(line.ItemID, line.Modifications)
	for i := range s.Lines {
		if mergeKey(s.Lines[i].ItemID, s.Lines[i].Modifications) == key {
			s.Lines[i].Quantity += line.Quantity
			return
		}
	}
	s.Lines = append(s.Lines, line)
}

// RemoveLine removes the first line whose item name matches, returning
// false when nothing matched. Corrections are modeled as remove + re-add,
// so the whole line goes, never a zero-quantity placeholder.
func (s *OrderSession) RemoveLine(itemName string) bool {
	want := normalizeName(itemName)
	for i := range s.Lines {
		if normalizeName(s.Lines[i].Name) == want {
			s.Lines = append(s.Lines[:i], s.Lines[i+1:]...)
			return true
		}
	}
	return false
}

// MergeCustomer overwrites only the fields the caller actually provided.
func (s *OrderSession) MergeCustomer(name, phone string) {
	if name != "" {
		s.Customer.Name = name
	}
	if phone != "" {
		s.Customer.Phone = phone
	}
}

// PricingLines projects the order into the pricing engine's input shape.
func (s *OrderSession) PricingLines() []pricing.Line {
	out := make([]pricing.Line, len(s.Lines))
	for i, l := range s.Lines {
		out[i] = pricing.Line{UnitCents: l.UnitPriceCents, Quantity: l.Quantity}
	}
	return out
}

// Summary renders the running order the way it is spoken back to the
// caller and fed to the language model as conversational memory.
func (s *OrderSession) Summary(taxRate float64) string {
	if len(s.Lines) == 0 {
		return "No items ordered yet."
	}

	var b strings.Builder
	b.WriteString("Items ordered:\n")
	for i, l := range s.Lines {
		fmt.Fprintf(&b, "%d. %dx %s - %s\n", i+1, l.Quantity, l.Name, formatCents(l.UnitPriceCents*l.Quantity))
		if len(l.Modifications) > 0 {
			fmt.Fprintf(&b, "   Modifications: %s\n", strings.Join(l.Modifications, ", "))
		}
	}

	totals := pricing.ComputeTotals(s.PricingLines(), taxRate)
	fmt.Fprintf(&b, "Subtotal: %s\n", formatCents(totals.SubtotalCents))
	fmt.Fprintf(&b, "Tax: %s\n", formatCents(totals.TaxCents))
	fmt.Fprintf(&b, "Total: %s", formatCents(totals.TotalCents))

	if s.Customer.Name != "" {
		fmt.Fprintf(&b, "\nCustomer: %s", s.Customer.Name)
	}
	if s.Customer.Phone != "" {
		fmt.Fprintf(&b, "\nPhone: %s", s.Customer.Phone)
	}
	return b.String()
}

func formatCents(cents int) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func mergeKey(itemID string, mods []string) string {
	normalized := make([]string, len(mods))
	for i, m := range mods {
		normalized[i] = normalizeName(m)
	}
	sort.Strings(normalized)
	return itemID + "|" + strings.Join(normalized, "|")
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
