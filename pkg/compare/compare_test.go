package compare

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/bankrec/pkg/models"
)

func TestAmountWithin(t *testing.T) {
	tolerance := decimal.RequireFromString("0.001")

	assert.True(t, AmountWithin(decimal.RequireFromString("1500.00"), decimal.RequireFromString("1500"), tolerance))
	assert.True(t, AmountWithin(decimal.RequireFromString("1500.001"), decimal.RequireFromString("1500"), tolerance))
	assert.False(t, AmountWithin(decimal.RequireFromString("1500.01"), decimal.RequireFromString("1500"), tolerance))
	assert.False(t, AmountWithin(decimal.RequireFromString("-1500"), decimal.RequireFromString("1500"), tolerance))
}

func TestEntryAmountWithin(t *testing.T) {
	tolerance := decimal.RequireFromString("0.001")
	amount := decimal.RequireFromString("10")

	assert.False(t, EntryAmountWithin(nil, amount, tolerance))
	assert.True(t, EntryAmountWithin(&amount, amount, tolerance))
}

func TestDaysBetween(t *testing.T) {
	a := models.NewDate(2024, time.April, 1)
	b := models.NewDate(2024, time.April, 4)

	days := DaysBetween(&a, &b)
	require.NotNil(t, days)
	assert.Equal(t, 3, *days)

	days = DaysBetween(&b, &a)
	require.NotNil(t, days)
	assert.Equal(t, 3, *days)

	assert.Nil(t, DaysBetween(nil, &a))
	assert.Nil(t, DaysBetween(&a, nil))
}

func TestDaysBetweenAcrossYears(t *testing.T) {
	a := models.NewDate(2024, time.December, 30)
	b := models.NewDate(2025, time.January, 2)

	days := DaysBetween(&a, &b)
	require.NotNil(t, days)
	assert.Equal(t, 3, *days)
}

func TestInRange(t *testing.T) {
	d := models.NewDate(2024, time.April, 4)
	start := models.NewDate(2024, time.April, 1)
	end := models.NewDate(2024, time.April, 30)

	assert.True(t, InRange(&d, start, end))
	assert.True(t, InRange(&d, models.Date{}, models.Date{}))
	assert.True(t, InRange(nil, models.Date{}, models.Date{}))
	assert.False(t, InRange(nil, start, models.Date{}))
	assert.False(t, InRange(&d, models.NewDate(2024, time.May, 1), models.Date{}))
	assert.False(t, InRange(&d, models.Date{}, models.NewDate(2024, time.April, 3)))
}
