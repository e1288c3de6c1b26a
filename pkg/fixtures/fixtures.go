// Package fixtures loads YAML seed documents for the collaborator tables the
// engine reads but does not own, plus optional starter cycles and offers.
package fixtures

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"github.com/redeciclos/ciclos-backend/pkg/enums"
)

// Document is a seed file. Records reference each other by Key.
type Document struct {
	DeliveryPoints []DeliveryPoint `yaml:"deliveryPoints"`
	Markets        []Market        `yaml:"markets"`
	BasketTypes    []BasketType    `yaml:"basketTypes"`
	Products       []Product       `yaml:"products"`
	Users          []User          `yaml:"users"`
	Cycles         []Cycle         `yaml:"cycles"`
	Offers         []Offer         `yaml:"offers"`
}

type DeliveryPoint struct {
	Key     string `yaml:"key"`
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

type Market struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type BasketType struct {
	Key      string `yaml:"key"`
	Name     string `yaml:"name"`
	MaxPrice string `yaml:"maxPrice"`
	Status   string `yaml:"status"`
}

type Product struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
	Unit string `yaml:"unit"`
}

type User struct {
	Key   string `yaml:"key"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
}

type Cycle struct {
	Key           string    `yaml:"key"`
	Name          string    `yaml:"name"`
	OfferStartsAt time.Time `yaml:"offerStartsAt"`
	OfferEndsAt   time.Time `yaml:"offerEndsAt"`
	DeliveryPoint string    `yaml:"deliveryPoint"`
}

type Offer struct {
	Cycle    string      `yaml:"cycle"`
	Market   string      `yaml:"market"`
	Supplier string      `yaml:"supplier"`
	Lines    []OfferLine `yaml:"lines"`
}

type OfferLine struct {
	Product   string `yaml:"product"`
	Quantity  string `yaml:"quantity"`
	UnitPrice string `yaml:"unitPrice"`
}

// Summary counts inserted rows per table.
type Summary map[string]int

// Load reads and parses the seed file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a seed document. Unknown fields are rejected.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return &doc, nil
}

// Validate reports every problem in the document at once.
func (d *Document) Validate() error {
	var errs error
	add := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	keys := map[string]map[string]bool{}
	register := func(kind, key string, i int) {
		if key == "" {
			add("%s[%d]: key is required", kind, i)
			return
		}
		if keys[kind] == nil {
			keys[kind] = map[string]bool{}
		}
		if keys[kind][key] {
			add("%s[%d]: duplicate key %q", kind, i, key)
		}
		keys[kind][key] = true
	}
	ref := func(kind, key, at string) {
		if key == "" {
			add("%s: %s reference is required", at, kind)
			return
		}
		if !keys[kind][key] {
			add("%s: unknown %s %q", at, kind, key)
		}
	}
	amount := func(value, field, at string) {
		v, err := decimal.NewFromString(value)
		switch {
		case err != nil:
			add("%s: %s %q is not a number", at, field, value)
		case v.IsNegative():
			add("%s: %s must not be negative", at, field)
		}
	}

	for i, dp := range d.DeliveryPoints {
		register("deliveryPoint", dp.Key, i)
		if dp.Name == "" {
			add("deliveryPoints[%d]: name is required", i)
		}
	}
	for i, m := range d.Markets {
		register("market", m.Key, i)
		if m.Name == "" {
			add("markets[%d]: name is required", i)
		}
	}
	for i, b := range d.BasketTypes {
		register("basketType", b.Key, i)
		at := fmt.Sprintf("basketTypes[%d]", i)
		if b.Name == "" {
			add("%s: name is required", at)
		}
		amount(b.MaxPrice, "maxPrice", at)
		if b.Status != "" {
			if _, err := enums.ParseBasketStatus(b.Status); err != nil {
				add("%s: %v", at, err)
			}
		}
	}
	for i, p := range d.Products {
		register("product", p.Key, i)
		if p.Name == "" || p.Unit == "" {
			add("products[%d]: name and unit are required", i)
		}
	}
	for i, u := range d.Users {
		register("user", u.Key, i)
		at := fmt.Sprintf("users[%d]", i)
		if u.Name == "" || u.Email == "" {
			add("%s: name and email are required", at)
		}
		if _, err := enums.ParseUserRole(u.Role); err != nil {
			add("%s: %v", at, err)
		}
	}
	for i, c := range d.Cycles {
		register("cycle", c.Key, i)
		at := fmt.Sprintf("cycles[%d]", i)
		if c.Name == "" {
			add("%s: name is required", at)
		}
		if c.OfferStartsAt.IsZero() || !c.OfferEndsAt.After(c.OfferStartsAt) {
			add("%s: offerEndsAt must be after offerStartsAt", at)
		}
		ref("deliveryPoint", c.DeliveryPoint, at)
	}
	for i, o := range d.Offers {
		at := fmt.Sprintf("offers[%d]", i)
		ref("cycle", o.Cycle, at)
		ref("market", o.Market, at)
		ref("user", o.Supplier, at)
		if len(o.Lines) == 0 {
			add("%s: at least one line is required", at)
		}
		for j, l := range o.Lines {
			lineAt := fmt.Sprintf("%s.lines[%d]", at, j)
			ref("product", l.Product, lineAt)
			amount(l.Quantity, "quantity", lineAt)
			amount(l.UnitPrice, "unitPrice", lineAt)
		}
	}
	return errs
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Apply validates the document and inserts it in a single transaction.
func Apply(ctx context.Context, runner txRunner, doc *Document) (Summary, error) {
	if doc == nil {
		return nil, fmt.Errorf("fixtures document is nil")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	summary := Summary{}
	err := runner.WithTx(ctx, func(tx *gorm.DB) error {
		s := &seeder{tx: tx.WithContext(ctx), ids: map[string]map[string]int64{}, summary: summary}
		return s.run(doc)
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

type seeder struct {
	tx      *gorm.DB
	ids     map[string]map[string]int64
	summary Summary
}

func (s *seeder) create(table, kind, key string, row any, id func() int64) error {
	if err := s.tx.Create(row).Error; err != nil {
		return fmt.Errorf("insert %s %q: %w", kind, key, err)
	}
	if key != "" {
		if s.ids[kind] == nil {
			s.ids[kind] = map[string]int64{}
		}
		s.ids[kind][key] = id()
	}
	s.summary[table]++
	return nil
}

func (s *seeder) run(doc *Document) error {
	for _, dp := range doc.DeliveryPoints {
		row := &models.DeliveryPoint{Name: dp.Name, Address: dp.Address}
		if err := s.create("delivery_points", "deliveryPoint", dp.Key, row, func() int64 { return row.ID }); err != nil {
			return err
		}
	}
	for _, m := range doc.Markets {
		row := &models.Market{Name: m.Name, Description: m.Description}
		if err := s.create("markets", "market", m.Key, row, func() int64 { return row.ID }); err != nil {
			return err
		}
	}
	for _, b := range doc.BasketTypes {
		status := enums.BasketStatusActive
		if b.Status != "" {
			status = enums.BasketStatus(b.Status)
		}
		row := &models.BasketType{Name: b.Name, MaxPrice: decimal.RequireFromString(b.MaxPrice), Status: status}
		if err := s.create("basket_types", "basketType", b.Key, row, func() int64 { return row.ID }); err != nil {
			return err
		}
	}
	for _, p := range doc.Products {
		row := &models.Product{Name: p.Name, Unit: p.Unit}
		if err := s.create("products", "product", p.Key, row, func() int64 { return row.ID }); err != nil {
			return err
		}
	}
	for _, u := range doc.Users {
		row := &models.User{Name: u.Name, Email: u.Email, Role: enums.UserRole(u.Role)}
		if err := s.create("users", "user", u.Key, row, func() int64 { return row.ID }); err != nil {
			return err
		}
	}
	for _, c := range doc.Cycles {
		row := &models.Cycle{
			Name:            c.Name,
			OfferStartsAt:   c.OfferStartsAt.UTC(),
			OfferEndsAt:     c.OfferEndsAt.UTC(),
			DeliveryPointID: s.ids["deliveryPoint"][c.DeliveryPoint],
			Status:          enums.CycleStatusOffer,
			Active:          true,
		}
		if err := s.create("cycles", "cycle", c.Key, row, func() int64 { return row.ID }); err != nil {
			return err
		}
	}
	for i, o := range doc.Offers {
		row := &models.SupplierOffer{
			CycleID:    s.ids["cycle"][o.Cycle],
			MarketID:   s.ids["market"][o.Market],
			SupplierID: s.ids["user"][o.Supplier],
		}
		for _, l := range o.Lines {
			row.Lines = append(row.Lines, models.OfferLine{
				ProductID: s.ids["product"][l.Product],
				Quantity:  decimal.RequireFromString(l.Quantity),
				UnitPrice: decimal.RequireFromString(l.UnitPrice),
			})
		}
		if err := s.create("supplier_offers", "offer", "", row, nil); err != nil {
			return fmt.Errorf("offers[%d]: %w", i, err)
		}
		s.summary["offer_lines"] += len(row.Lines)
	}
	return nil
}
