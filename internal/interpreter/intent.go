package interpreter

// Kind identifies the structured meaning extracted from an utterance.
type Kind string

const (
	KindAddItem             Kind = "add_item"
	KindRemoveItem          Kind = "remove_item"
	KindProvideCustomerInfo Kind = "customer_info"
	KindRequestTotal        Kind = "request_total"
	KindAffirm              Kind = "affirm"
	KindDeny                Kind = "deny"
	KindUnintelligible      Kind = "unintelligible"
	KindRequestHuman        Kind = "request_human"
)

// Intent is the tagged result of interpreting one caller turn. Only the
// fields relevant to the Kind are populated.
type Intent struct {
	Kind Kind

	// AddItem / RemoveItem
	ItemName      string
	Quantity      int
	Modifications []string

	// ProvideCustomerInfo
	CustomerName  string
	CustomerPhone string
}

// Unintelligible is the uniform fallback for anything that could not be
// interpreted: model errors, timeouts, malformed replies.
func Unintelligible() Intent {
	return Intent{Kind: KindUnintelligible}
}
