package bill

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	poserrors "github.com/skarthikeyan/gopos/internal/errors"
	"github.com/skarthikeyan/gopos/internal/ledger"
)

// mockLedger is a mock implementation of the Ledger interface
type mockLedger struct {
	price      int64
	reserveErr error
	saveErr    error

	reserved  map[string]int
	saveCalls int
}

func (m *mockLedger) CheckAndReserve(name string, qty int) (int64, error) {
	if m.reserveErr != nil {
		return 0, m.reserveErr
	}
	if m.reserved == nil {
		m.reserved = make(map[string]int)
	}
	m.reserved[name] += qty
	return m.price, nil
}

func (m *mockLedger) Save() error {
	m.saveCalls++
	return m.saveErr
}

// mockRenderer is a mock implementation of the Renderer interface
type mockRenderer struct {
	path     string
	error    error
	rendered []Snapshot
}

func (m *mockRenderer) Render(s Snapshot) (string, error) {
	if m.error != nil {
		return "", m.error
	}
	m.rendered = append(m.rendered, s)
	return m.path, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func Test_Session_AddItem(t *testing.T) {
	reserveErr := errors.New("not enough stock")
	testCases := []struct {
		name          string
		mockLedger    *mockLedger
		product       string
		qty           int
		expectedItem  LineItem
		expectedTotal int64
		expectedErr   error
	}{
		{
			name:          "Success - price locked at add time",
			mockLedger:    &mockLedger{price: 35},
			product:       "Idli Batter",
			qty:           2,
			expectedItem:  LineItem{Product: "Idli Batter", Quantity: 2, UnitPrice: 35, LineTotal: 70},
			expectedTotal: 70,
		},
		{
			name:        "Error - zero quantity rejected before the ledger",
			mockLedger:  &mockLedger{price: 35},
			product:     "Idli Batter",
			qty:         0,
			expectedErr: poserrors.ErrInvalidQuantity,
		},
		{
			name:        "Error - negative quantity rejected before the ledger",
			mockLedger:  &mockLedger{price: 35},
			product:     "Idli Batter",
			qty:         -1,
			expectedErr: poserrors.ErrInvalidQuantity,
		},
		{
			name:        "Error - ledger failure passes through unchanged",
			mockLedger:  &mockLedger{reserveErr: reserveErr},
			product:     "Oil",
			qty:         1,
			expectedErr: reserveErr,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			session := NewSession(tc.mockLedger, &mockRenderer{}, 0)
			// when
			item, err := session.AddItem(tc.product, tc.qty)
			// then
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Empty(t, session.Items(), "failed add must not change the bill")
				assert.Zero(t, session.Total())
				if errors.Is(tc.expectedErr, poserrors.ErrInvalidQuantity) {
					assert.Empty(t, tc.mockLedger.reserved, "invalid quantity must never reach the ledger")
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedItem, item)
			assert.Equal(t, []LineItem{tc.expectedItem}, session.Items())
			assert.Equal(t, tc.expectedTotal, session.Total())
			assert.Equal(t, tc.qty, tc.mockLedger.reserved[tc.product])
		})
	}
}

func Test_Session_Finalize(t *testing.T) {
	saveErr := errors.New("disk full")
	renderErr := errors.New("font missing")
	generatedAt := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

	t.Run("Error - empty bill", func(t *testing.T) {
		session := NewSession(&mockLedger{}, &mockRenderer{}, 0)
		_, err := session.Finalize()
		assert.ErrorIs(t, err, poserrors.ErrEmptyBill)
	})

	t.Run("Success - snapshot, save and document handle", func(t *testing.T) {
		// given
		mLedger := &mockLedger{price: 35}
		mRenderer := &mockRenderer{path: "receipts/bill_20250314_150926.pdf"}
		session := NewSession(mLedger, mRenderer, 0)
		session.now = fixedClock(generatedAt)
		_, err := session.AddItem("Idli Batter", 2)
		require.NoError(t, err)
		// when
		snap, err := session.Finalize()
		// then
		require.NoError(t, err)
		assert.Equal(t, "20250314150926", snap.BillID)
		assert.Equal(t, int64(70), snap.Subtotal)
		assert.Equal(t, generatedAt, snap.GeneratedAt)
		assert.Equal(t, 1, mLedger.saveCalls)
		require.Len(t, mRenderer.rendered, 1)

		doc, err := session.Document()
		require.NoError(t, err)
		assert.Equal(t, mRenderer.path, doc)
	})

	t.Run("Error - save failure aborts before rendering", func(t *testing.T) {
		// given
		mRenderer := &mockRenderer{path: "x.pdf"}
		session := NewSession(&mockLedger{price: 35, saveErr: saveErr}, mRenderer, 0)
		_, err := session.AddItem("Idli Batter", 1)
		require.NoError(t, err)
		// when
		_, err = session.Finalize()
		// then
		assert.ErrorIs(t, err, saveErr)
		assert.Empty(t, mRenderer.rendered)
		_, docErr := session.Document()
		assert.ErrorIs(t, docErr, poserrors.ErrNoReceipt)
	})

	t.Run("Error - render failure leaves no document handle", func(t *testing.T) {
		// given
		session := NewSession(&mockLedger{price: 35}, &mockRenderer{error: renderErr}, 0)
		_, err := session.AddItem("Idli Batter", 1)
		require.NoError(t, err)
		// when
		_, err = session.Finalize()
		// then
		assert.ErrorIs(t, err, renderErr)
		_, docErr := session.Document()
		assert.ErrorIs(t, docErr, poserrors.ErrNoReceipt)
	})

	t.Run("Finalize twice re-renders without re-decrementing", func(t *testing.T) {
		// given
		mLedger := &mockLedger{price: 35}
		mRenderer := &mockRenderer{path: "x.pdf"}
		session := NewSession(mLedger, mRenderer, 0)
		_, err := session.AddItem("Idli Batter", 2)
		require.NoError(t, err)
		// when
		_, err = session.Finalize()
		require.NoError(t, err)
		_, err = session.Finalize()
		require.NoError(t, err)
		// then
		assert.Equal(t, 2, mLedger.saveCalls)
		assert.Len(t, mRenderer.rendered, 2)
		assert.Equal(t, 2, mLedger.reserved["Idli Batter"], "stock reserved once, at add time")
	})
}

func Test_Session_Refresh(t *testing.T) {
	// given
	mLedger := &mockLedger{price: 35}
	session := NewSession(mLedger, &mockRenderer{path: "x.pdf"}, 0)
	_, err := session.AddItem("Idli Batter", 2)
	require.NoError(t, err)
	_, err = session.Finalize()
	require.NoError(t, err)
	// when
	session.Refresh()
	// then
	assert.Empty(t, session.Items())
	assert.Zero(t, session.Total())
	_, docErr := session.Document()
	assert.ErrorIs(t, docErr, poserrors.ErrNoReceipt)
	// cleared items do not go back to the ledger
	assert.Equal(t, 2, mLedger.reserved["Idli Batter"])
}

func Test_Session_Surcharge(t *testing.T) {
	testCases := []struct {
		name          string
		subtotal      int64
		bp            int
		expectedPaise int64
	}{
		{name: "5% of 310", subtotal: 310, bp: 500, expectedPaise: 1550},
		{name: "half rounds up", subtotal: 7, bp: 250, expectedPaise: 18},
		{name: "rounds down below half", subtotal: 33, bp: 125, expectedPaise: 41},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			session := NewSession(&mockLedger{price: tc.subtotal}, &mockRenderer{path: "x.pdf"}, tc.bp)
			_, err := session.AddItem("Idli Batter", 1)
			require.NoError(t, err)
			// when
			snap, err := session.Finalize()
			// then
			require.NoError(t, err)
			assert.Equal(t, tc.expectedPaise, snap.SurchargePaise)
			assert.Equal(t, tc.subtotal*100+tc.expectedPaise, snap.GrandTotalPaise())
		})
	}
}

// The end-to-end till scenario over a real ledger file: two items, finalize,
// and the persisted stock reflects both decrements.
func Test_Session_DefaultCatalogScenario(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "stock.json")
	stockLedger := ledger.New(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	stockLedger.Load()
	mRenderer := &mockRenderer{path: "receipts/bill.pdf"}
	session := NewSession(stockLedger, mRenderer, 0)

	// when
	item, err := session.AddItem("Idli Batter", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(70), item.LineTotal)
	assert.Equal(t, int64(70), session.Total())
	stock, err := stockLedger.Stock("Idli Batter")
	require.NoError(t, err)
	assert.Equal(t, 98, stock)

	item, err = session.AddItem("Oil", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(240), item.LineTotal)
	assert.Equal(t, int64(310), session.Total())
	stock, err = stockLedger.Stock("Oil")
	require.NoError(t, err)
	assert.Equal(t, 74, stock)

	snap, err := session.Finalize()

	// then
	require.NoError(t, err)
	require.Len(t, snap.Items, 2)
	assert.Equal(t, int64(310), snap.Subtotal)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var persisted map[string]struct {
		Price int64 `json:"price"`
		Stock int   `json:"stock"`
	}
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, 98, persisted["Idli Batter"].Stock)
	assert.Equal(t, 74, persisted["Oil"].Stock)
}
