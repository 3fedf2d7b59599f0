// Package interpreter turns raw caller speech into structured intents by
// way of a language model. The model's output is untrusted free text;
// everything that fails strict validation collapses to an unintelligible
// intent so the conversation controller can simply re-prompt.
package interpreter

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"comanda/internal/menu"
	"comanda/internal/monitoring"
	"comanda/internal/session"
)

// Config holds the interpreter's tunables and the restaurant facts the
// model is grounded on.
type Config struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	Timeout        time.Duration
	RestaurantName string
	AgentName      string
	Address        string
	Phone          string
	PickupEstimate string
	TaxRate        float64
}

// Interpreter sends caller utterances to a language model and validates
// the replies into intents.
type Interpreter struct {
	llm     llms.Model
	catalog *menu.Catalog
	cfg     Config
	metrics *monitoring.Metrics
}

// New creates an interpreter backed by the given model.
func New(llm llms.Model, catalog *menu.Catalog, cfg Config, metrics *monitoring.Metrics) *Interpreter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 300
	}
	return &Interpreter{llm: llm, catalog: catalog, cfg: cfg, metrics: metrics}
}

// Interpret resolves one utterance against the session's running order.
// It never returns an error: model failures, timeouts and malformed
// replies all come back as an unintelligible intent.
func (i *Interpreter) Interpret(ctx context.Context, utterance string, sess *session.OrderSession) Intent {
	ctx, cancel := context.WithTimeout(ctx, i.cfg.Timeout)
	defer cancel()

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, i.systemPrompt(sess)),
		llms.TextParts(llms.ChatMessageTypeHuman, utterance),
	}
	opts := []llms.CallOption{
		llms.WithMaxTokens(i.cfg.MaxTokens),
		llms.WithTemperature(i.cfg.Temperature),
	}
	if i.cfg.Model != "" {
		opts = append(opts, llms.WithModel(i.cfg.Model))
	}

	start := time.Now()
	response, err := i.llm.GenerateContent(ctx, messages, opts...)
	i.metrics.InterpreterObserve(time.Since(start))

	if err != nil {
		log.Printf("interpreter: model call failed for call %s: %v", sess.CallID, err)
		i.metrics.InterpreterError("model_error")
		return Unintelligible()
	}
	if response == nil || len(response.Choices) == 0 {
		log.Printf("interpreter: empty response for call %s", sess.CallID)
		i.metrics.InterpreterError("empty_response")
		return Unintelligible()
	}

	intent, err := parseReply(response.Choices[0].Content)
	if err != nil {
		log.Printf("interpreter: unparseable reply for call %s: %v", sess.CallID, err)
		i.metrics.InterpreterError("parse_error")
		return Unintelligible()
	}
	return intent
}

// systemPrompt grounds the stateless model with the menu, the restaurant
// facts and the order accumulated so far, plus the strict output contract.
func (i *Interpreter) systemPrompt(sess *session.OrderSession) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a friendly phone agent for %s.\n\n", i.cfg.AgentName, i.cfg.RestaurantName)
	fmt.Fprintf(&b, "RESTAURANT INFO:\n- Address: %s\n- Phone: %s\n- Service: PICKUP ONLY (no delivery)\n- Pickup time: usually %s\n- Tax rate: %.0f%%\n\n",
		i.cfg.Address, i.cfg.Phone, i.cfg.PickupEstimate, i.cfg.TaxRate*100)
	fmt.Fprintf(&b, "CURRENT MENU:\n%s\n\n", i.catalog.FormatForPrompt())
	fmt.Fprintf(&b, "CURRENT ORDER:\n%s\n\n", sess.Summary(i.cfg.TaxRate))
	b.WriteString(`Classify the caller's next utterance. Respond with ONLY a JSON object, no prose, in this shape:
{
  "action": "add_item|remove_item|customer_info|request_total|affirm|deny|transfer_human|unintelligible",
  "item": {"name": "menu item name", "quantity": 1, "modifications": ["no onions"]},
  "customer": {"name": "caller name", "phone": "caller phone"}
}

Rules:
- "add_item": the caller orders something. Use the exact menu item name. Include quantity and any modifications.
- "remove_item": the caller removes something already in the order.
- "customer_info": the caller gives their name and/or phone number.
- "request_total": the caller is done ordering ("that's all", "that's it").
- "affirm"/"deny": the caller answers a yes/no confirmation question.
- "transfer_human": the caller asks for a person, a manager, or has a complaint.
- "unintelligible": you cannot map the utterance to any of the above.
- Omit "item" and "customer" unless the action needs them.`)
	return b.String()
}

// modelReply is the wire shape the model is instructed to produce. Every
// field is optional; validation happens after decoding.
type modelReply struct {
	Action string `json:"action"`
	Item   struct {
		Name          string   `json:"name"`
		Quantity      int      `json:"quantity"`
		Modifications []string `json:"modifications"`
	} `json:"item"`
	Customer struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	} `json:"customer"`
}

// parseReply validates the model's free text into an intent, failing
// closed on anything unexpected.
func parseReply(raw string) (Intent, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return Intent{}, fmt.Errorf("no JSON object in reply %q", truncate(raw, 120))
	}

	var reply modelReply
	if err := json.Unmarshal([]byte(payload), &reply); err != nil {
		return Intent{}, fmt.Errorf("decoding reply: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(reply.Action)) {
	case "add_item":
		if strings.TrimSpace(reply.Item.Name) == "" {
			return Intent{}, fmt.Errorf("add_item without an item name")
		}
		qty := reply.Item.Quantity
		if qty < 1 {
			qty = 1
		}
		return Intent{
			Kind:          KindAddItem,
			ItemName:      reply.Item.Name,
			Quantity:      qty,
			Modifications: reply.Item.Modifications,
		}, nil
	case "remove_item":
		if strings.TrimSpace(reply.Item.Name) == "" {
			return Intent{}, fmt.Errorf("remove_item without an item name")
		}
		return Intent{Kind: KindRemoveItem, ItemName: reply.Item.Name}, nil
	case "customer_info":
		if reply.Customer.Name == "" && reply.Customer.Phone == "" {
			return Intent{}, fmt.Errorf("customer_info without any fields")
		}
		return Intent{
			Kind:          KindProvideCustomerInfo,
			CustomerName:  reply.Customer.Name,
			CustomerPhone: reply.Customer.Phone,
		}, nil
	case "request_total":
		return Intent{Kind: KindRequestTotal}, nil
	case "affirm":
		return Intent{Kind: KindAffirm}, nil
	case "deny":
		return Intent{Kind: KindDeny}, nil
	case "transfer_human":
		return Intent{Kind: KindRequestHuman}, nil
	case "unintelligible":
		return Unintelligible(), nil
	default:
		return Intent{}, fmt.Errorf("unknown action %q", reply.Action)
	}
}

// extractJSON pulls the first top-level JSON object out of a reply that
// may be wrapped in code fences or prose.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
