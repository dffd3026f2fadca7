// Package ais parses decoded AIS messages from csv files and keeps the valid ones.
package ais

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Columns are the columns of a clean csv file, in order. They match the ais_clean table.
var Columns = []string{
	"mmsi", "time", "message_id", "navigational_status", "sog",
	"longitude", "latitude", "cog", "heading", "imo", "draught",
	"destination", "vessel_name",
	"eta_month", "eta_day", "eta_hour", "eta_minute",
}

// RequiredColumns must be present in the header of a raw csv file.
var RequiredColumns = []string{"mmsi", "time", "message_id"}

// TimeLayout is the layout of the time column of clean csv files.
const TimeLayout = "2006-01-02 15:04:05"

var timeLayouts = []string{"20060102_150405", TimeLayout, time.RFC3339}

// Message is a decoded AIS message. Nil fields were not available.
type Message struct {
	MMSI               int64
	Time               time.Time
	MessageID          int
	NavigationalStatus *int
	SOG                *float64
	Longitude          *float64
	Latitude           *float64
	COG                *float64
	Heading            *int
	IMO                *int64
	Draught            *float64
	Destination        string
	VesselName         string
	ETAMonth           *int
	ETADay             *int
	ETAHour            *int
	ETAMinute          *int
}

// ErrInvalidValue marks a value that cannot be parsed, ErrOutOfRange a parsed value breaking a rule.
var (
	ErrInvalidValue  = errors.New("invalid value")
	ErrOutOfRange    = errors.New("out of range")
	ErrMissingValue  = errors.New("missing value")
	ErrMissingColumn = errors.New("missing column")
)

// FieldError tells which column of a row is wrong.
type FieldError struct {
	Column string
	Value  string
	Err    error
}

func (e *FieldError) Error() string {
	return e.Column + " " + strconv.Quote(e.Value) + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldError(column, value string, err error) *FieldError {
	return &FieldError{Column: column, Value: value, Err: err}
}

// Record formats the message as a clean csv row, in Columns order. Nil fields are empty.
func (m *Message) Record() []string {
	return []string{
		strconv.FormatInt(m.MMSI, 10),
		m.Time.UTC().Format(TimeLayout),
		strconv.Itoa(m.MessageID),
		formatInt(m.NavigationalStatus),
		formatFloat(m.SOG),
		formatFloat(m.Longitude),
		formatFloat(m.Latitude),
		formatFloat(m.COG),
		formatInt(m.Heading),
		formatInt64(m.IMO),
		formatFloat(m.Draught),
		m.Destination,
		m.VesselName,
		formatInt(m.ETAMonth),
		formatInt(m.ETADay),
		formatInt(m.ETAHour),
		formatInt(m.ETAMinute),
	}
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}

	return strconv.Itoa(*v)
}

func formatInt64(v *int64) string {
	if v == nil {
		return ""
	}

	return strconv.FormatInt(*v, 10)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}

	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, ErrInvalidValue
}

func parseFloat(value string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, ErrInvalidValue
	}

	return &f, nil
}

// parseInt64 accepts integers written as floats, such as "5.0", which some decoders produce.
func parseInt64(value string) (*int64, error) {
	if value == "" {
		return nil, nil
	}
	i, err := strconv.ParseInt(value, 10, 64)
	if err == nil {
		return &i, nil
	}
	f, err := parseFloat(value)
	if err != nil || *f != math.Trunc(*f) || math.Abs(*f) > math.MaxInt32 {
		return nil, ErrInvalidValue
	}
	i = int64(*f)

	return &i, nil
}

func parseInt(value string) (*int, error) {
	i64, err := parseInt64(value)
	if err != nil || i64 == nil {
		return nil, err
	}
	if *i64 > math.MaxInt32 || *i64 < math.MinInt32 {
		return nil, ErrInvalidValue
	}
	i := int(*i64)

	return &i, nil
}

// cleanText removes the '@' padding of AIS six-bit text and surrounding spaces.
func cleanText(value string) string {
	if i := strings.IndexByte(value, '@'); i >= 0 {
		value = value[:i]
	}

	return strings.TrimSpace(value)
}
