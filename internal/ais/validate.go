package ais

import (
	"strconv"
	"unicode/utf8"
)

const (
	minMMSI       = 100000000
	maxMMSI       = 999999999
	headingNA     = 511
	maxTextLength = 255
)

type floatRule struct {
	column   string
	value    *float64
	min, max float64
	// openMax excludes max itself
	openMax bool
}

type intRule struct {
	column   string
	value    *int
	min, max int
}

// Validate checks the ranges of a parsed message. It returns a *FieldError wrapping ErrOutOfRange for the first
// broken rule.
func Validate(msg *Message) error {
	if msg.MMSI < minMMSI || msg.MMSI > maxMMSI {
		return fieldError("mmsi", strconv.FormatInt(msg.MMSI, 10), ErrOutOfRange)
	}
	if msg.MessageID < 1 || msg.MessageID > 27 {
		return fieldError("message_id", strconv.Itoa(msg.MessageID), ErrOutOfRange)
	}

	for _, r := range []intRule{
		{"navigational_status", msg.NavigationalStatus, 0, 15},
		{"eta_month", msg.ETAMonth, 0, 12},
		{"eta_day", msg.ETADay, 0, 31},
		{"eta_hour", msg.ETAHour, 0, 24},
		{"eta_minute", msg.ETAMinute, 0, 60},
	} {
		if r.value != nil && (*r.value < r.min || *r.value > r.max) {
			return fieldError(r.column, strconv.Itoa(*r.value), ErrOutOfRange)
		}
	}
	if h := msg.Heading; h != nil && *h != headingNA && (*h < 0 || *h > 359) {
		return fieldError("heading", strconv.Itoa(*h), ErrOutOfRange)
	}

	for _, r := range []floatRule{
		{column: "sog", value: msg.SOG, min: 0, max: 102.2},
		{column: "longitude", value: msg.Longitude, min: -180, max: 180},
		{column: "latitude", value: msg.Latitude, min: -90, max: 90},
		{column: "cog", value: msg.COG, min: 0, max: 360, openMax: true},
		{column: "draught", value: msg.Draught, min: 0, max: 25.5},
	} {
		if r.value == nil {
			continue
		}
		v := *r.value
		if v < r.min || v > r.max || (r.openMax && v == r.max) {
			return fieldError(r.column, formatFloat(r.value), ErrOutOfRange)
		}
	}

	if msg.IMO != nil && !ValidIMO(*msg.IMO) {
		return fieldError("imo", formatInt64(msg.IMO), ErrOutOfRange)
	}
	if utf8.RuneCountInString(msg.Destination) > maxTextLength {
		return fieldError("destination", msg.Destination, ErrOutOfRange)
	}
	if utf8.RuneCountInString(msg.VesselName) > maxTextLength {
		return fieldError("vessel_name", msg.VesselName, ErrOutOfRange)
	}

	return nil
}

// ValidIMO reports whether imo is 0 (not available) or a seven digit IMO number with a valid check digit.
// The check digit is the last digit of the sum of the first six digits weighted from 7 down to 2.
func ValidIMO(imo int64) bool {
	if imo == 0 {
		return true
	}
	if imo < 1000000 || imo > 9999999 {
		return false
	}

	check := imo % 10
	rest := imo / 10
	var sum int64
	for weight := int64(2); weight <= 7; weight++ {
		sum += (rest % 10) * weight
		rest /= 10
	}

	return sum%10 == check
}
