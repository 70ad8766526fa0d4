package core

// Ledger is the append-only, insertion-ordered list of expenses of a session.
// There is no identity on entries: identical expenses may be added twice and
// are indistinguishable. Entries cannot be edited or removed.
type Ledger struct {
	items []Expense
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Add appends e. The category is not checked against any registry.
func (l *Ledger) Add(e Expense) {
	l.items = append(l.items, e)
}

// All returns a snapshot of every expense in insertion order.
func (l *Ledger) All() []Expense {
	return append([]Expense(nil), l.items...)
}

// IsEmpty reports whether no expense has been recorded.
func (l *Ledger) IsEmpty() bool {
	return len(l.items) == 0
}

// Len returns the number of recorded expenses.
func (l *Ledger) Len() int {
	return len(l.items)
}
