// Package ledger owns the authoritative mapping of product name to unit
// price and remaining stock, persisted to a JSON file between runs.
package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	poserrors "github.com/skarthikeyan/gopos/internal/errors"
)

// Product holds the persisted attributes of one catalog entry. The file
// format is a map of product name to this struct, so the name lives in
// the map key, not here.
type Product struct {
	Price int64 `json:"price"`
	Stock int   `json:"stock"`
}

// Entry is a Product together with its name, used for catalog listings.
type Entry struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Stock int    `json:"stock"`
}

// Ledger is the single authorization point for stock decrements. All
// mutations go through its methods; the mutex makes it the serialization
// seam should a second operator ever be added.
type Ledger struct {
	mu       sync.RWMutex
	path     string
	products map[string]Product
	logger   *slog.Logger
}

// New creates a Ledger persisted at path. Call Load before first use.
func New(path string, logger *slog.Logger) *Ledger {
	return &Ledger{
		path:     path,
		products: make(map[string]Product),
		logger:   logger.With("component", "ledger"),
	}
}

// defaultCatalog returns the built-in starting stock, used when no valid
// stock file exists yet.
func defaultCatalog() map[string]Product {
	return map[string]Product{
		"Idli Batter":  {Price: 35, Stock: 100},
		"Masala Items": {Price: 200, Stock: 50},
		"Oil":          {Price: 240, Stock: 75},
		"Ice Creams":   {Price: 50, Stock: 200},
	}
}

// Load reads the persisted product map. A missing or malformed file (or one
// holding negative stock or non-positive prices, which only a direct edit
// can produce) falls back to the default catalog, which is persisted right
// away. Load never fails the caller: it always leaves a usable in-memory map.
func (l *Ledger) Load() {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn("failed to read stock file, using default catalog", "path", l.path, "error", err)
		}
		l.resetToDefaults()
		return
	}

	var products map[string]Product
	if err := json.Unmarshal(data, &products); err != nil {
		l.logger.Warn("stock file is malformed, using default catalog", "path", l.path, "error", err)
		l.resetToDefaults()
		return
	}
	for name, p := range products {
		if name == "" || p.Price <= 0 || p.Stock < 0 {
			l.logger.Warn("stock file holds an invalid entry, using default catalog", "product", name, "price", p.Price, "stock", p.Stock)
			l.resetToDefaults()
			return
		}
	}
	l.products = products
}

// resetToDefaults replaces the in-memory map with the default catalog and
// persists it. Callers must hold the write lock.
func (l *Ledger) resetToDefaults() {
	l.products = defaultCatalog()
	if err := l.persistLocked(); err != nil {
		l.logger.Error("failed to persist default catalog", "path", l.path, "error", err)
	} else {
		l.logger.Info("default stock data created", "path", l.path)
	}
}

// Save writes the current product map to the stock file, replacing prior
// content wholesale.
func (l *Ledger) Save() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.persistLocked()
}

// persistLocked writes to a temp file in the same directory and renames it
// over the target, so a crash mid-write never corrupts the previous valid
// file. Callers must hold at least the read lock.
func (l *Ledger) persistLocked() error {
	data, err := json.MarshalIndent(l.products, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode stock data: %w", err)
	}

	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp stock file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp stock file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp stock file: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace stock file: %w", err)
	}
	return nil
}

// CheckAndReserve verifies availability and decrements stock in one step,
// returning the unit price locked in for the sale. It is the only way stock
// is ever decremented.
func (l *Ledger) CheckAndReserve(name string, qty int) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if qty <= 0 {
		return 0, poserrors.ErrInvalidQuantity
	}
	p, ok := l.products[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", poserrors.ErrUnknownProduct, name)
	}
	if qty > p.Stock {
		return 0, fmt.Errorf("%w: only %d of %s available", poserrors.ErrOutOfStock, p.Stock, name)
	}
	p.Stock -= qty
	l.products[name] = p
	return p.Price, nil
}

// SetStock overwrites the remaining quantity of an existing product. The new
// quantity is absolute, not a delta.
func (l *Ledger) SetStock(name string, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if qty < 0 {
		return fmt.Errorf("%w: stock cannot be negative", poserrors.ErrInvalidQuantity)
	}
	p, ok := l.products[name]
	if !ok {
		return fmt.Errorf("%w: %s", poserrors.ErrUnknownProduct, name)
	}
	p.Stock = qty
	l.products[name] = p
	return nil
}

// AddProduct registers a new catalog entry with its starting price and stock.
func (l *Ledger) AddProduct(name string, price int64, stock int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if price <= 0 {
		return fmt.Errorf("%w: %d", poserrors.ErrInvalidPrice, price)
	}
	if stock < 0 {
		return fmt.Errorf("%w: initial stock cannot be negative", poserrors.ErrInvalidQuantity)
	}
	if _, exists := l.products[name]; exists {
		return fmt.Errorf("%w: %s", poserrors.ErrDuplicateProduct, name)
	}
	l.products[name] = Product{Price: price, Stock: stock}
	return nil
}

// Products returns the catalog sorted by name for stable display.
func (l *Ledger) Products() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	list := make([]Entry, 0, len(l.products))
	for name, p := range l.products {
		list = append(list, Entry{Name: name, Price: p.Price, Stock: p.Stock})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Stock reports the remaining quantity of a product.
// Returns ErrUnknownProduct if the name is absent.
func (l *Ledger) Stock(name string) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.products[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", poserrors.ErrUnknownProduct, name)
	}
	return p.Stock, nil
}
