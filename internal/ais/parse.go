package ais

import (
	"strings"
)

// Header maps clean column names to their index in a raw csv row.
type Header map[string]int

// NewHeader reads a raw header row. Column names are matched case insensitively; unknown columns are ignored.
func NewHeader(row []string) (Header, error) {
	known := make(map[string]struct{}, len(Columns))
	for _, col := range Columns {
		known[col] = struct{}{}
	}

	h := make(Header, len(Columns))
	for i, name := range row {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := known[name]; !ok {
			continue
		}
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	for _, col := range RequiredColumns {
		if _, ok := h[col]; !ok {
			return nil, fieldError(col, "", ErrMissingColumn)
		}
	}

	return h, nil
}

func (h Header) value(row []string, column string) (string, bool) {
	i, ok := h[column]
	if !ok {
		return "", true
	}
	if i >= len(row) {
		return "", false
	}

	return strings.TrimSpace(row[i]), true
}

// Parse decodes a raw row. A *FieldError wrapping ErrInvalidValue or ErrMissingValue is returned when a value
// cannot be decoded. Parse does not check value ranges, see Validate.
func (h Header) Parse(row []string) (*Message, error) {
	get := func(column string) (string, error) {
		v, ok := h.value(row, column)
		if !ok {
			return "", fieldError(column, "", ErrMissingValue)
		}

		return v, nil
	}

	msg := &Message{}

	required := func(column string) (string, error) {
		v, err := get(column)
		if err != nil {
			return "", err
		}
		if v == "" {
			return "", fieldError(column, v, ErrMissingValue)
		}

		return v, nil
	}

	v, err := required("mmsi")
	if err != nil {
		return nil, err
	}
	mmsi, err := parseInt64(v)
	if err != nil {
		return nil, fieldError("mmsi", v, err)
	}
	msg.MMSI = *mmsi

	v, err = required("time")
	if err != nil {
		return nil, err
	}
	msg.Time, err = parseTime(v)
	if err != nil {
		return nil, fieldError("time", v, err)
	}

	v, err = required("message_id")
	if err != nil {
		return nil, err
	}
	messageID, err := parseInt(v)
	if err != nil {
		return nil, fieldError("message_id", v, err)
	}
	msg.MessageID = *messageID

	ints := []struct {
		column string
		dst    **int
	}{
		{"navigational_status", &msg.NavigationalStatus},
		{"heading", &msg.Heading},
		{"eta_month", &msg.ETAMonth},
		{"eta_day", &msg.ETADay},
		{"eta_hour", &msg.ETAHour},
		{"eta_minute", &msg.ETAMinute},
	}
	for _, f := range ints {
		v, err := get(f.column)
		if err != nil {
			return nil, err
		}
		*f.dst, err = parseInt(v)
		if err != nil {
			return nil, fieldError(f.column, v, err)
		}
	}

	floats := []struct {
		column string
		dst    **float64
	}{
		{"sog", &msg.SOG},
		{"longitude", &msg.Longitude},
		{"latitude", &msg.Latitude},
		{"cog", &msg.COG},
		{"draught", &msg.Draught},
	}
	for _, f := range floats {
		v, err := get(f.column)
		if err != nil {
			return nil, err
		}
		*f.dst, err = parseFloat(v)
		if err != nil {
			return nil, fieldError(f.column, v, err)
		}
	}

	v, err = get("imo")
	if err != nil {
		return nil, err
	}
	msg.IMO, err = parseInt64(v)
	if err != nil {
		return nil, fieldError("imo", v, err)
	}

	v, err = get("destination")
	if err != nil {
		return nil, err
	}
	msg.Destination = cleanText(v)

	v, err = get("vessel_name")
	if err != nil {
		return nil, err
	}
	msg.VesselName = cleanText(v)

	return msg, nil
}
