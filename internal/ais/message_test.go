package ais

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rawHeader = []string{
	"MMSI", "Message_ID", "Repeat_indicator", "Time", "Millisecond", "Region", "Country", "Base_station",
	"Online_data", "Group_code", "Sequence_ID", "Channel", "Data_length", "Vessel_Name", "Call_sign", "IMO",
	"Ship_Type", "Dimension_to_Bow", "Dimension_to_stern", "Dimension_to_port", "Dimension_to_starboard",
	"Draught", "Destination", "AIS_version", "Navigational_status", "SOG", "Accuracy", "Longitude", "Latitude",
	"COG", "Heading", "Regional", "Maneuver", "RAIM_flag", "Communication_flag", "Communication_state",
	"UTC_year", "UTC_month", "UTC_day", "UTC_hour", "UTC_minute", "UTC_second", "Fixing_device",
	"Transmission_control", "ETA_month", "ETA_day", "ETA_hour", "ETA_minute", "Sequence", "Destination_ID",
	"Retransmit_flag", "Country_code", "Functional_ID", "Data", "Destination_ID_1", "Sequence_1",
	"Destination_ID_2", "Sequence_2", "Destination_ID_3", "Sequence_3", "Destination_ID_4", "Sequence_4",
	"Altitude", "Altitude_sensor", "Data_terminal", "Mode", "Safety_text", "Non-standard_bits", "Name_extension",
	"Name_extension_padding", "Message_ID_1_1", "Offset_1_1", "Message_ID_1_2", "Offset_1_2", "Message_ID_2_1",
	"Offset_2_1", "Destination_ID_A", "Offset_A", "Increment_A", "Destination_ID_B", "offsetB", "incrementB",
	"data_msg_type", "station_ID", "Z_count", "num_data_words", "health", "unit_flag", "display", "DSC", "band",
	"msg22", "offset1", "num_slots1", "timeout1", "Increment_1", "Offset_2", "Number_slots_2", "Timeout_2",
	"Increment_2", "Offset_3", "Number_slots_3", "Timeout_3", "Increment_3", "Offset_4", "Number_slots_4",
	"Timeout_4", "Increment_4", "ATON_type", "ATON_name", "off_position", "ATON_status", "Virtual_ATON",
	"Channel_A", "Channel_B", "Tx_Rx_mode", "Power", "Message_indicator", "Channel_A_bandwidth",
	"Channel_B_bandwidth", "Transzone_size", "Longitude_1", "Latitude_1", "Longitude_2", "Latitude_2",
	"Station_Type", "Report_Interval", "Quiet_Time", "Part_Number", "Vendor_ID", "Mother_ship_MMSI",
	"Destination_indicator", "Binary_flag", "GNSS_status", "spare", "spare2", "spare3", "spare4",
}

func TestNewHeader(t *testing.T) {
	h, err := NewHeader(rawHeader)
	require.NoError(t, err)
	assert.Len(t, h, len(Columns))
	assert.Equal(t, 0, h["mmsi"])
	assert.Equal(t, 3, h["time"])
}

func TestNewHeaderMissingColumn(t *testing.T) {
	_, err := NewHeader([]string{"MMSI", "Time"})
	require.ErrorIs(t, err, ErrMissingColumn)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "message_id", fe.Column)
}

func TestParse(t *testing.T) {
	h, err := NewHeader([]string{"\ufeffmmsi", "time", "message_id", "sog", "heading", "imo", "vessel_name", "extra"})
	require.NoError(t, err)

	msg, err := h.Parse([]string{"235000001", "20140101_120503", "1", "12.5", "511", "", "MY SHIP@@@@", "x"})
	require.NoError(t, err)
	assert.EqualValues(t, 235000001, msg.MMSI)
	assert.Equal(t, time.Date(2014, 1, 1, 12, 5, 3, 0, time.UTC), msg.Time)
	assert.Equal(t, 1, msg.MessageID)
	require.NotNil(t, msg.SOG)
	assert.InDelta(t, 12.5, *msg.SOG, 1e-9)
	require.NotNil(t, msg.Heading)
	assert.Equal(t, 511, *msg.Heading)
	assert.Nil(t, msg.IMO)
	assert.Nil(t, msg.Latitude)
	assert.Equal(t, "MY SHIP", msg.VesselName)
}

func TestParseErrors(t *testing.T) {
	h, err := NewHeader([]string{"mmsi", "time", "message_id", "sog"})
	require.NoError(t, err)

	tcs := map[string]struct {
		row     []string
		column  string
		wantErr error
	}{
		"missing mmsi":     {row: []string{"", "2014-01-01 00:00:00", "1", ""}, column: "mmsi", wantErr: ErrMissingValue},
		"bad mmsi":         {row: []string{"abc", "2014-01-01 00:00:00", "1", ""}, column: "mmsi", wantErr: ErrInvalidValue},
		"bad time":         {row: []string{"235000001", "yesterday", "1", ""}, column: "time", wantErr: ErrInvalidValue},
		"fractional id":    {row: []string{"235000001", "2014-01-01 00:00:00", "1.5", ""}, column: "message_id", wantErr: ErrInvalidValue},
		"nan sog":          {row: []string{"235000001", "2014-01-01 00:00:00", "1", "NaN"}, column: "sog", wantErr: ErrInvalidValue},
		"short row":        {row: []string{"235000001", "2014-01-01 00:00:00", "1"}, column: "sog", wantErr: ErrMissingValue},
		"short before ids": {row: []string{"235000001"}, column: "time", wantErr: ErrMissingValue},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			_, err := h.Parse(tc.row)
			require.ErrorIs(t, err, tc.wantErr)

			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tc.column, fe.Column)
		})
	}
}

func TestParseIntegerWrittenAsFloat(t *testing.T) {
	h, err := NewHeader([]string{"mmsi", "time", "message_id", "navigational_status"})
	require.NoError(t, err)

	msg, err := h.Parse([]string{"235000001.0", "2014-01-01T00:00:00Z", "3.0", "5"})
	require.NoError(t, err)
	assert.EqualValues(t, 235000001, msg.MMSI)
	assert.Equal(t, 3, msg.MessageID)
	assert.Equal(t, 5, *msg.NavigationalStatus)
}

func TestRecord(t *testing.T) {
	sog := 10.25
	heading := 90
	imo := int64(9074729)
	msg := &Message{
		MMSI:        235000001,
		Time:        time.Date(2014, 1, 1, 12, 5, 3, 0, time.UTC),
		MessageID:   5,
		SOG:         &sog,
		Heading:     &heading,
		IMO:         &imo,
		Destination: "LONDON",
	}

	assert.Equal(t, []string{
		"235000001", "2014-01-01 12:05:03", "5", "", "10.25", "", "", "", "90", "9074729", "",
		"LONDON", "", "", "", "", "",
	}, msg.Record())
	assert.Len(t, msg.Record(), len(Columns))
}
