package conversation

import (
	"fmt"
	"strings"
)

// Persona holds everything the agent says. Prompt wording, voice and
// language are configuration, not code, so a different restaurant or
// persona is a config change rather than a fork of the controller.
type Persona struct {
	AgentName string `yaml:"agent_name"`
	Voice     string `yaml:"voice"`
	Language  string `yaml:"language"`

	Greeting       string `yaml:"greeting"`
	ItemAdded      string `yaml:"item_added"`       // %d quantity, %s item
	OffMenu        string `yaml:"off_menu"`         // %s item
	ItemRemoved    string `yaml:"item_removed"`     // %s item
	NotInOrder     string `yaml:"not_in_order"`     // %s item
	CustomerNoted  string `yaml:"customer_noted"`
	EmptyOrder     string `yaml:"empty_order"`
	ConfirmAsk     string `yaml:"confirm_ask"`
	ChangeAsk      string `yaml:"change_ask"`
	ConfirmAgain   string `yaml:"confirm_again"`
	Reprompt       string `yaml:"reprompt"`
	Transfer       string `yaml:"transfer"`
	Confirmed      string `yaml:"confirmed"` // %s total, %s pickup estimate
	NoInputRetry   string `yaml:"no_input_retry"`
	NoInputGoodbye string `yaml:"no_input_goodbye"`
}

// DefaultPersona is Maria, the Los Dos Gallos agent.
func DefaultPersona() Persona {
	return Persona{
		AgentName: "Maria",
		Voice:     "alice",
		Language:  "en-US",

		Greeting:       "Thank you for calling Los Dos Gallos! This is Maria. What can I get started for you today?",
		ItemAdded:      "Got it, %d %s. Anything else?",
		OffMenu:        "I'm sorry, we don't have %s on our menu. Is there something else I can get you?",
		ItemRemoved:    "No problem, I took the %s off your order. Anything else?",
		NotInOrder:     "I don't see %s in your order. Could you tell me what you'd like to change?",
		CustomerNoted:  "Thank you! Anything else for your order?",
		EmptyOrder:     "You haven't ordered anything yet. What would you like?",
		ConfirmAsk:     "Is that correct? Say yes to confirm, or tell me what you'd like to change.",
		ChangeAsk:      "No problem! What would you like to change or add to your order?",
		ConfirmAgain:   "Sorry, is that order correct? Please say yes or no.",
		Reprompt:       "I'm sorry, I didn't catch that. Could you say it again?",
		Transfer:       "Let me transfer you to one of our staff members. One moment please.",
		Confirmed:      "Perfect! Your total is %s. Your order will be ready for pickup in about %s. Thank you for choosing Los Dos Gallos!",
		NoInputRetry:   "I'm sorry, I didn't hear anything. What would you like to order?",
		NoInputGoodbye: "I still can't hear you. Please call back when you're ready to order. Goodbye!",
	}
}

// merge fills empty fields from defaults so a config file only has to
// override the lines it wants to change.
func (p Persona) merge(defaults Persona) Persona {
	out := p
	if strings.TrimSpace(out.AgentName) == "" {
		out.AgentName = defaults.AgentName
	}
	if out.Voice == "" {
		out.Voice = defaults.Voice
	}
	if out.Language == "" {
		out.Language = defaults.Language
	}
	fill := func(dst *string, def string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = def
		}
	}
	fill(&out.Greeting, defaults.Greeting)
	fill(&out.ItemAdded, defaults.ItemAdded)
	fill(&out.OffMenu, defaults.OffMenu)
	fill(&out.ItemRemoved, defaults.ItemRemoved)
	fill(&out.NotInOrder, defaults.NotInOrder)
	fill(&out.CustomerNoted, defaults.CustomerNoted)
	fill(&out.EmptyOrder, defaults.EmptyOrder)
	fill(&out.ConfirmAsk, defaults.ConfirmAsk)
	fill(&out.ChangeAsk, defaults.ChangeAsk)
	fill(&out.ConfirmAgain, defaults.ConfirmAgain)
	fill(&out.Reprompt, defaults.Reprompt)
	fill(&out.Transfer, defaults.Transfer)
	fill(&out.Confirmed, defaults.Confirmed)
	fill(&out.NoInputRetry, defaults.NoInputRetry)
	fill(&out.NoInputGoodbye, defaults.NoInputGoodbye)
	return out
}

// Normalized returns the persona with any missing lines backfilled from
// the default persona.
func (p Persona) Normalized() Persona {
	return p.merge(DefaultPersona())
}

func formatCents(cents int) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
