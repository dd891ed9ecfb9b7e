// Package bill implements the in-progress transaction: line items, the
// running total and the finalize step that commits stock to disk and
// produces a receipt.
package bill

import (
	"fmt"
	"time"

	poserrors "github.com/skarthikeyan/gopos/internal/errors"
)

// Ledger is the slice of the stock ledger the session depends on.
type Ledger interface {
	// CheckAndReserve decrements stock and returns the unit price to lock
	// into the line item.
	CheckAndReserve(name string, qty int) (int64, error)
	// Save persists the ledger after a finalized bill.
	Save() error
}

// Renderer turns a finalized snapshot into a receipt document and returns
// its path.
type Renderer interface {
	Render(s Snapshot) (string, error)
}

// LineItem is one product/quantity entry on the bill. The unit price is
// captured at add time and never re-read from the catalog.
type LineItem struct {
	Product   string `json:"product"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	LineTotal int64  `json:"line_total"`
}

// Snapshot is the immutable view of a finalized bill handed to rendering.
// Amounts are whole currency units except SurchargePaise, which carries the
// display-only surcharge in hundredths.
type Snapshot struct {
	BillID         string     `json:"bill_id"`
	Items          []LineItem `json:"items"`
	Subtotal       int64      `json:"subtotal"`
	SurchargeBP    int        `json:"surcharge_bp,omitempty"`
	SurchargePaise int64      `json:"surcharge_paise,omitempty"`
	GeneratedAt    time.Time  `json:"generated_at"`
}

// Session is one in-progress bill. A process owns exactly one; methods are
// not safe for concurrent use beyond what the ledger itself serializes.
type Session struct {
	ledger      Ledger
	renderer    Renderer
	surchargeBP int

	items    []LineItem
	total    int64
	document string

	now func() time.Time
}

// NewSession creates an empty session over the given ledger and renderer.
// surchargeBP is a display-only flat surcharge in basis points (500 = 5%);
// zero disables it.
func NewSession(ledger Ledger, renderer Renderer, surchargeBP int) *Session {
	return &Session{
		ledger:      ledger,
		renderer:    renderer,
		surchargeBP: surchargeBP,
		now:         time.Now,
	}
}

// AddItem validates the quantity, reserves stock through the ledger and
// appends a line item with the price locked in. Ledger failures pass
// through unchanged; on any failure the session is untouched.
func (s *Session) AddItem(name string, qty int) (LineItem, error) {
	if qty <= 0 {
		return LineItem{}, poserrors.ErrInvalidQuantity
	}
	price, err := s.ledger.CheckAndReserve(name, qty)
	if err != nil {
		return LineItem{}, err
	}
	item := LineItem{
		Product:   name,
		Quantity:  qty,
		UnitPrice: price,
		LineTotal: price * int64(qty),
	}
	s.items = append(s.items, item)
	s.total += item.LineTotal
	return item, nil
}

// Finalize closes the bill: it persists the ledger, renders the receipt and
// records the document handle. The stock decrements already happened at
// AddItem time, so calling Finalize twice re-renders without re-decrementing.
func (s *Session) Finalize() (Snapshot, error) {
	if len(s.items) == 0 {
		return Snapshot{}, poserrors.ErrEmptyBill
	}

	ts := s.now()
	snap := Snapshot{
		BillID:      ts.Format("20060102150405"),
		Items:       append([]LineItem(nil), s.items...),
		Subtotal:    s.total,
		SurchargeBP: s.surchargeBP,
		GeneratedAt: ts,
	}
	if s.surchargeBP > 0 {
		snap.SurchargePaise = surchargePaise(s.total, s.surchargeBP)
	}

	if err := s.ledger.Save(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to persist stock: %w", err)
	}
	doc, err := s.renderer.Render(snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to render receipt: %w", err)
	}
	s.document = doc
	return snap, nil
}

// Refresh discards all line items and resets the total and document handle.
// Stock already reserved by AddItem is not returned to the ledger; that
// matches the till's historical behavior and is flagged for product review
// rather than changed here.
func (s *Session) Refresh() {
	s.items = nil
	s.total = 0
	s.document = ""
}

// Items returns a copy of the current line items in add order.
func (s *Session) Items() []LineItem {
	return append([]LineItem(nil), s.items...)
}

// Total returns the running total in whole currency units.
func (s *Session) Total() int64 {
	return s.total
}

// Document returns the path of the receipt produced by the last Finalize.
// Returns ErrNoReceipt if no bill has been finalized since the last Refresh.
func (s *Session) Document() (string, error) {
	if s.document == "" {
		return "", poserrors.ErrNoReceipt
	}
	return s.document, nil
}

// GrandTotalPaise is the subtotal plus surcharge in hundredths of a unit.
func (s Snapshot) GrandTotalPaise() int64 {
	return s.Subtotal*100 + s.SurchargePaise
}

// surchargePaise computes subtotal*bp with half-up rounding to two decimal
// places. Integer math only; currency amounts never touch floats.
func surchargePaise(subtotal int64, bp int) int64 {
	return (subtotal*100*int64(bp) + 5000) / 10000
}
