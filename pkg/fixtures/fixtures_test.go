package fixtures

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/redeciclos/ciclos-backend/pkg/db/dbtest"
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
)

func TestDevSeedFileIsValid(t *testing.T) {
	doc, err := Load("../../seeds/dev.yaml")
	require.NoError(t, err)
	require.NoError(t, doc.Validate())
	assert.Len(t, doc.Markets, 2)
	assert.Len(t, doc.Offers, 2)
}

func TestApplyInsertsWithResolvedKeys(t *testing.T) {
	client, conn := dbtest.Client(t)
	doc, err := Load("../../seeds/dev.yaml")
	require.NoError(t, err)

	summary, err := Apply(context.Background(), client, doc)
	require.NoError(t, err)
	assert.Equal(t, 2, summary["markets"])
	assert.Equal(t, 4, summary["users"])
	assert.Equal(t, 1, summary["cycles"])
	assert.Equal(t, 2, summary["supplier_offers"])
	assert.Equal(t, 4, summary["offer_lines"])
	assert.EqualValues(t, 4, dbtest.Count(t, conn, "offer_lines"))

	var cycle models.Cycle
	require.NoError(t, conn.Where("name = ?", "Ciclo de Março").First(&cycle).Error)
	var dp models.DeliveryPoint
	require.NoError(t, conn.First(&dp, cycle.DeliveryPointID).Error)
	assert.Equal(t, "Armazém do Centro", dp.Name)

	var offers []models.SupplierOffer
	require.NoError(t, conn.Preload("Lines").Where("cycle_id = ?", cycle.ID).Order("id ASC").Find(&offers).Error)
	require.Len(t, offers, 2)
	assert.Len(t, offers[1].Lines, 2)
}

func TestValidateCombinesProblems(t *testing.T) {
	doc, err := Parse([]byte(`
markets:
  - key: a
    name: A
  - key: a
products:
  - key: p
    name: Tomate
users:
  - key: u
    name: U
    email: u@example.com
    role: gerente
offers:
  - cycle: nope
    market: a
    supplier: u
    lines:
      - product: p
        quantity: "-1"
        unitPrice: abc
`))
	require.NoError(t, err)

	err = doc.Validate()
	require.Error(t, err)
	errs := multierr.Errors(err)
	msg := err.Error()
	assert.GreaterOrEqual(t, len(errs), 6)
	assert.Contains(t, msg, `duplicate key "a"`)
	assert.Contains(t, msg, "markets[1]: name is required")
	assert.Contains(t, msg, "name and unit are required")
	assert.Contains(t, msg, "gerente")
	assert.Contains(t, msg, `unknown cycle "nope"`)
	assert.Contains(t, msg, "quantity must not be negative")
	assert.Contains(t, msg, `unitPrice "abc" is not a number`)
}

func TestApplyRejectsInvalidDocumentWithoutWriting(t *testing.T) {
	client, conn := dbtest.Client(t)
	doc := &Document{
		Markets:  []Market{{Key: "m", Name: "Feira"}},
		Products: []Product{{Key: "p"}},
	}

	_, err := Apply(context.Background(), client, doc)
	require.Error(t, err)
	assert.Zero(t, dbtest.Count(t, conn, "markets"))
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("markets:\n  - key: a\n    nome: A\n"))
	require.Error(t, err)
}

func TestParseEmptyDocument(t *testing.T) {
	doc, err := Parse(nil)
	require.NoError(t, err)
	assert.NoError(t, doc.Validate())
}
