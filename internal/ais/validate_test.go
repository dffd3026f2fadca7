package ais

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMessage() *Message {
	return &Message{
		MMSI:      235000001,
		Time:      time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC),
		MessageID: 1,
	}
}

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestValidate(t *testing.T) {
	tcs := map[string]struct {
		mutate func(m *Message)
		column string
	}{
		"valid": {mutate: func(m *Message) {}},
		"all fields valid": {mutate: func(m *Message) {
			m.NavigationalStatus = intPtr(15)
			m.SOG = floatPtr(102.2)
			m.Longitude = floatPtr(-180)
			m.Latitude = floatPtr(90)
			m.COG = floatPtr(359.9)
			m.Heading = intPtr(511)
			m.IMO = int64Ptr(9074729)
			m.Draught = floatPtr(25.5)
			m.ETAMonth = intPtr(12)
			m.ETADay = intPtr(31)
			m.ETAHour = intPtr(24)
			m.ETAMinute = intPtr(60)
		}},
		"imo not available":     {mutate: func(m *Message) { m.IMO = int64Ptr(0) }},
		"short mmsi":            {mutate: func(m *Message) { m.MMSI = 12345 }, column: "mmsi"},
		"long mmsi":             {mutate: func(m *Message) { m.MMSI = 1234567890 }, column: "mmsi"},
		"message id zero":       {mutate: func(m *Message) { m.MessageID = 0 }, column: "message_id"},
		"message id 28":         {mutate: func(m *Message) { m.MessageID = 28 }, column: "message_id"},
		"status 16":             {mutate: func(m *Message) { m.NavigationalStatus = intPtr(16) }, column: "navigational_status"},
		"sog not available":     {mutate: func(m *Message) { m.SOG = floatPtr(102.3) }, column: "sog"},
		"negative sog":          {mutate: func(m *Message) { m.SOG = floatPtr(-1) }, column: "sog"},
		"longitude unavailable": {mutate: func(m *Message) { m.Longitude = floatPtr(181) }, column: "longitude"},
		"latitude unavailable":  {mutate: func(m *Message) { m.Latitude = floatPtr(91) }, column: "latitude"},
		"cog 360":               {mutate: func(m *Message) { m.COG = floatPtr(360) }, column: "cog"},
		"heading 360":           {mutate: func(m *Message) { m.Heading = intPtr(360) }, column: "heading"},
		"bad imo check digit":   {mutate: func(m *Message) { m.IMO = int64Ptr(9074728) }, column: "imo"},
		"draught":               {mutate: func(m *Message) { m.Draught = floatPtr(25.6) }, column: "draught"},
		"eta month":             {mutate: func(m *Message) { m.ETAMonth = intPtr(13) }, column: "eta_month"},
		"eta minute":            {mutate: func(m *Message) { m.ETAMinute = intPtr(61) }, column: "eta_minute"},
		"long name":             {mutate: func(m *Message) { m.VesselName = strings.Repeat("A", 256) }, column: "vessel_name"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			msg := validMessage()
			tc.mutate(msg)

			err := Validate(msg)
			if tc.column == "" {
				assert.NoError(t, err)

				return
			}
			require.ErrorIs(t, err, ErrOutOfRange)
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tc.column, fe.Column)
		})
	}
}

func TestValidIMO(t *testing.T) {
	assert.True(t, ValidIMO(0))
	assert.True(t, ValidIMO(9074729))
	assert.True(t, ValidIMO(9176187))
	assert.False(t, ValidIMO(9176188))
	assert.False(t, ValidIMO(123456))
	assert.False(t, ValidIMO(12345678))
}
