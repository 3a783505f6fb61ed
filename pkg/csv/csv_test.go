package csv

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/yurifrl/bankrec/pkg/models"
)

func TestCreate(t *testing.T) {
	amount := decimal.RequireFromString("-45.2")
	credit := decimal.RequireFromString("1500")
	entries := []*models.IndexEntry{
		{
			Title:         "DOMICILIATION",
			Amount:        &amount,
			BookingDate:   models.DatePtr(models.NewDate(2024, time.April, 1)),
			Communication: models.StringPtr("Facture 12, avril"),
		},
		{
			Title:        "SEPA CREDIT TRANSFER",
			Amount:       &credit,
			ValueDate:    models.DatePtr(models.NewDate(2024, time.April, 4)),
			Counterparty: models.Counterparty{Name: models.StringPtr("Client One")},
		},
		{Title: "CARD PAYMENT"},
	}

	out := Create(entries, func(e *models.IndexEntry) bool { return e.Amount != nil })

	want := "Date,Counterparty,Communication,Amount\n" +
		"2024-04-01,DOMICILIATION,\"Facture 12, avril\",-45.20\n" +
		"2024-04-04,Client One,,1500.00\n"
	assert.Equal(t, want, string(out))
}

func TestCreateWithoutFilter(t *testing.T) {
	out := Create([]*models.IndexEntry{{Title: "CARD PAYMENT"}}, nil)

	assert.Equal(t, "Date,Counterparty,Communication,Amount\n,CARD PAYMENT,,0.00\n", string(out))
}
