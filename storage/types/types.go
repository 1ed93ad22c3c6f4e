package types

import (
	"bytes"
	"encoding/json"
	"time"
)

// DateLayout is the dd/mm/yyyy layout used for every exposed date
const DateLayout = "02/01/2006"

// LookupKey identifies a single cell on a single source page
type LookupKey struct {
	URL   string
	Day   int
	Month int
}

// ResolvedUF is the UF value for a single day
type ResolvedUF struct {
	Date  time.Time `json:"-"`
	Value string    `json:"uf_value"`
}

// FormattedDate returns the dd/mm/yyyy representation of the date
func (r ResolvedUF) FormattedDate() string {
	return r.Date.Format(DateLayout)
}

func (r ResolvedUF) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value string `json:"uf_value"`
		Date  string `json:"date"`
	}{
		Value: r.Value,
		Date:  r.FormattedDate(),
	})
}

// MonthlyResult holds the values of a month, in walk order
type MonthlyResult struct {
	Average *string
	Values  []ResolvedUF
}

// MarshalJSON encodes the values as a dd/mm/yyyy keyed object,
// keeping the walk order of the keys
func (m MonthlyResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(`{"uf_values":{`)

	for i, v := range m.Values {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(v.FormattedDate())
		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(v.Value)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	if m.Average != nil {
		avg, err := json.Marshal(*m.Average)
		if err != nil {
			return nil, err
		}

		buf.WriteString(`,"uf_average":`)
		buf.Write(avg)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}
