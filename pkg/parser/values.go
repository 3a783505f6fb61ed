package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/bankrec/pkg/models"
)

// parseAmount reads a statement number: "." groups thousands by three, ","
// marks decimals. Misplaced separators are an error.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	if !amountFormat.MatchString(s) {
		return decimal.Zero, fmt.Errorf("malformed amount %q", s)
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return decimal.NewFromString(s)
}

// signed applies a "+" or "-" suffix to an unsigned amount.
func signed(amount decimal.Decimal, sign string) decimal.Decimal {
	if sign == "-" {
		return amount.Neg()
	}
	return amount
}

// calendarDate builds a date and rejects values time.Date would normalise, like 31-02.
func calendarDate(year, month, day int) (models.Date, bool) {
	d := models.NewDate(year, time.Month(month), day)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return models.Date{}, false
	}
	return d, true
}

// parseDMY reads DD-MM-YYYY (also with / or . separators).
func parseDMY(s string) (models.Date, bool) {
	m := inlineDatePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return models.Date{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	return calendarDate(year, month, day)
}

// inferYear picks the year of a value date printed without one. The booking
// context decides: a month more than six months behind it belongs to the next
// year, more than six months ahead to the previous one. Without booking
// context the statement year is used.
func inferYear(month int, booking *models.Date, statementYear *int) (int, bool) {
	if booking != nil {
		year := booking.Year()
		diff := month - int(booking.Month())
		switch {
		case diff < -6:
			year++
		case diff > 6:
			year--
		}
		return year, true
	}
	if statementYear != nil {
		return *statementYear, true
	}
	return 0, false
}

// valueLine is a parsed "DD-MM[-YYYY] <amount> <sign>" line.
type valueLine struct {
	raw       string
	day       int
	month     int
	year      *int
	amount    decimal.Decimal
	amountErr error
}

func matchValueLine(line string) (valueLine, bool) {
	m := valueLinePattern.FindStringSubmatch(line)
	if m == nil {
		return valueLine{}, false
	}
	vl := valueLine{raw: line}
	vl.day, _ = strconv.Atoi(m[1])
	vl.month, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		year, _ := strconv.Atoi(m[3])
		vl.year = &year
	}
	amount, err := parseAmount(m[4])
	if err != nil {
		vl.amountErr = err
		amount = decimal.Zero
	}
	vl.amount = signed(amount, m[5])
	return vl, true
}

// date resolves the value date, inferring the year when the line omits it.
func (vl valueLine) date(booking *models.Date, statementYear *int) (models.Date, bool) {
	year := 0
	if vl.year != nil {
		year = *vl.year
	} else {
		inferred, ok := inferYear(vl.month, booking, statementYear)
		if !ok {
			return models.Date{}, false
		}
		year = inferred
	}
	return calendarDate(year, vl.month, vl.day)
}
