package api

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

type wireRecord struct {
	Date     string      `json:"date"`
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
}

// MarshalJSON encodes the record as {"date":"YYYY-MM-DD","category":...,"amount":n}.
func (r TransactionRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireRecord{
		Date:     r.Date.Format(DateLayout),
		Category: r.Category,
		Amount:   json.Number(r.Amount.String()),
	})
}

// UnmarshalJSON accepts plain dates, read as UTC midnight, as well as RFC 3339 timestamps.
func (r *TransactionRecord) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	rec, err := w.record(time.UTC)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

func (w wireRecord) record(loc *time.Location) (TransactionRecord, error) {
	date, err := ParseDateIn(w.Date, loc)
	if err != nil {
		return TransactionRecord{}, err
	}

	amount, err := decimal.NewFromString(w.Amount.String())
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("parsing amount %q: %w", w.Amount, err)
	}

	return TransactionRecord{Date: date, Category: w.Category, Amount: amount}, nil
}

// ParseDate parses a YYYY-MM-DD date as UTC midnight, or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	return ParseDateIn(s, time.UTC)
}

// ParseDateIn parses a YYYY-MM-DD date as midnight in loc. RFC 3339 timestamps
// keep their own offset.
func ParseDateIn(s string, loc *time.Location) (time.Time, error) {
	if strings.Contains(s, "T") {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
		}
		return t, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// WriteRecords writes records as a JSON array.
func WriteRecords(w io.Writer, records []TransactionRecord) error {
	if records == nil {
		records = []TransactionRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	return nil
}

// ReadRecords reads a JSON array of records. Plain dates are UTC midnight.
func ReadRecords(r io.Reader) ([]TransactionRecord, error) {
	return ReadRecordsIn(r, time.UTC)
}

// ReadRecordsIn reads a JSON array of records, anchoring plain dates at midnight in loc.
func ReadRecordsIn(r io.Reader, loc *time.Location) ([]TransactionRecord, error) {
	var wire []wireRecord
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}

	records := make([]TransactionRecord, 0, len(wire))
	for i, w := range wire {
		rec, err := w.record(loc)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
