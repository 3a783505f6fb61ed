package csv

import (
	"bytes"
	stdcsv "encoding/csv"
	"strconv"
)

type Record interface {
	Date() string
	Payee() string
	Memo() string
	Amount64() float64
}

type FilterFunc[T Record] func(T) bool

var header = []string{"Date", "Counterparty", "Communication", "Amount"}

// Create renders the records accepted by filter (nil keeps all). Fields are
// quoted when they contain separators.
func Create[T Record](records []T, filter FilterFunc[T]) []byte {
	var buf bytes.Buffer
	w := stdcsv.NewWriter(&buf)
	_ = w.Write(header)
	for _, r := range records {
		if filter == nil || filter(r) {
			_ = w.Write([]string{
				r.Date(),
				r.Payee(),
				r.Memo(),
				strconv.FormatFloat(r.Amount64(), 'f', 2, 64),
			})
		}
	}
	w.Flush()
	return buf.Bytes()
}
