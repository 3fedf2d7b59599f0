package interpreter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"comanda/internal/menu"
	"comanda/internal/session"
)

// MockLLM is a mock implementation of the llms.Model interface.
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	args := m.Called(ctx, messages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llms.ContentResponse), args.Error(1)
}

func reply(content string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content}}}
}

func testConfig() Config {
	return Config{
		RestaurantName: "Los Dos Gallos",
		AgentName:      "Maria",
		Address:        "2205 1st Ave SE, Moultrie, GA 31788",
		Phone:          "(229) 890-9426",
		PickupEstimate: "20-25 minutes",
		TaxRate:        0.07,
		Timeout:        time.Second,
	}
}

func newTestInterpreter(llm llms.Model) *Interpreter {
	return New(llm, menu.DefaultCatalog(), testConfig(), nil)
}

func TestInterpretAddItem(t *testing.T) {
	llm := new(MockLLM)
	llm.On("GenerateContent", mock.Anything, mock.Anything).
		Return(reply(`{"action":"add_item","item":{"name":"Street Tacos","quantity":2,"modifications":["no cilantro"]}}`), nil)

	got := newTestInterpreter(llm).Interpret(context.Background(), "two street tacos no cilantro", session.New("CA1", time.Now()))

	assert.Equal(t, KindAddItem, got.Kind)
	assert.Equal(t, "Street Tacos", got.ItemName)
	assert.Equal(t, 2, got.Quantity)
	assert.Equal(t, []string{"no cilantro"}, got.Modifications)
}

func TestInterpretClampsQuantity(t *testing.T) {
	llm := new(MockLLM)
	llm.On("GenerateContent", mock.Anything, mock.Anything).
		Return(reply(`{"action":"add_item","item":{"name":"Horchata","quantity":0}}`), nil)

	got := newTestInterpreter(llm).Interpret(context.Background(), "a horchata", session.New("CA1", time.Now()))

	assert.Equal(t, KindAddItem, got.Kind)
	assert.Equal(t, 1, got.Quantity)
}

func TestInterpretToleratesCodeFences(t *testing.T) {
	llm := new(MockLLM)
	llm.On("GenerateContent", mock.Anything, mock.Anything).
		Return(reply("Sure! Here is the classification:\n```json\n{\"action\":\"request_total\"}\n```"), nil)

	got := newTestInterpreter(llm).Interpret(context.Background(), "that's all", session.New("CA1", time.Now()))

	assert.Equal(t, KindRequestTotal, got.Kind)
}

func TestInterpretSimpleActions(t *testing.T) {
	cases := map[string]Kind{
		`{"action":"affirm"}`:         KindAffirm,
		`{"action":"deny"}`:           KindDeny,
		`{"action":"request_total"}`:  KindRequestTotal,
		`{"action":"transfer_human"}`: KindRequestHuman,
		`{"action":"unintelligible"}`: KindUnintelligible,
	}
	for raw, want := range cases {
		llm := new(MockLLM)
		llm.On("GenerateContent", mock.Anything, mock.Anything).Return(reply(raw), nil)

		got := newTestInterpreter(llm).Interpret(context.Background(), "whatever", session.New("CA1", time.Now()))
		assert.Equal(t, want, got.Kind, raw)
	}
}

func TestInterpretCustomerInfo(t *testing.T) {
	llm := new(MockLLM)
	llm.On("GenerateContent", mock.Anything, mock.Anything).
		Return(reply(`{"action":"customer_info","customer":{"name":"Ana","phone":"229-555-0147"}}`), nil)

	got := newTestInterpreter(llm).Interpret(context.Background(), "it's Ana, 229 555 0147", session.New("CA1", time.Now()))

	assert.Equal(t, KindProvideCustomerInfo, got.Kind)
	assert.Equal(t, "Ana", got.CustomerName)
	assert.Equal(t, "229-555-0147", got.CustomerPhone)
}

func TestInterpretFailsClosed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "I would love to help you with that order!"},
		{"truncated json", `{"action":"add_item","item":{"name":`},
		{"unknown action", `{"action":"make_coffee"}`},
		{"add without name", `{"action":"add_item","item":{"quantity":2}}`},
		{"remove without name", `{"action":"remove_item"}`},
		{"customer info without fields", `{"action":"customer_info","customer":{}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			llm := new(MockLLM)
			llm.On("GenerateContent", mock.Anything, mock.Anything).Return(reply(tc.raw), nil)

			got := newTestInterpreter(llm).Interpret(context.Background(), "hm", session.New("CA1", time.Now()))
			assert.Equal(t, KindUnintelligible, got.Kind)
		})
	}
}

func TestInterpretModelErrorIsUnintelligible(t *testing.T) {
	llm := new(MockLLM)
	llm.On("GenerateContent", mock.Anything, mock.Anything).
		Return(nil, errors.New("upstream 503"))

	got := newTestInterpreter(llm).Interpret(context.Background(), "hello", session.New("CA1", time.Now()))
	assert.Equal(t, KindUnintelligible, got.Kind)
}

func TestInterpretEmptyResponseIsUnintelligible(t *testing.T) {
	llm := new(MockLLM)
	llm.On("GenerateContent", mock.Anything, mock.Anything).
		Return(&llms.ContentResponse{}, nil)

	got := newTestInterpreter(llm).Interpret(context.Background(), "hello", session.New("CA1", time.Now()))
	assert.Equal(t, KindUnintelligible, got.Kind)
}

func TestInterpretGroundsModelWithMenuAndOrder(t *testing.T) {
	var captured []llms.MessageContent
	llm := new(MockLLM)
	llm.On("GenerateContent", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).([]llms.MessageContent)
		}).
		Return(reply(`{"action":"affirm"}`), nil)

	sess := session.New("CA1", time.Now())
	sess.AddLine(session.OrderLine{ItemID: "horchata", Name: "Horchata", UnitPriceCents: 300, Quantity: 1})

	newTestInterpreter(llm).Interpret(context.Background(), "yes", sess)

	require.Len(t, captured, 2)
	system, ok := captured[0].Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Contains(t, system.Text, "Los Dos Gallos")
	assert.Contains(t, system.Text, "Street Tacos", "system prompt carries the menu")
	assert.Contains(t, system.Text, "1x Horchata", "system prompt carries the running order")
	assert.Contains(t, system.Text, `"action"`, "system prompt carries the output contract")

	user, ok := captured[1].Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Equal(t, "yes", user.Text)
}

func TestInterpretAppliesTimeout(t *testing.T) {
	llm := new(MockLLM)
	llm.On("GenerateContent", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			_, ok := ctx.Deadline()
			assert.True(t, ok, "model call must carry a deadline")
		}).
		Return(reply(`{"action":"affirm"}`), nil)

	newTestInterpreter(llm).Interpret(context.Background(), "yes", session.New("CA1", time.Now()))
	llm.AssertExpectations(t)
}
