package ais

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/askiada/go-aisingest/internal/workdir"
)

const checkContextEvery = 1024

// Stats counts the rows of a raw csv file.
//
// Invalid rows could not be decoded, dirty rows were decoded but break a validation rule and clean rows are the
// ones written to the clean file.
type Stats struct {
	Total   int64 `json:"total"`
	Clean   int64 `json:"clean"`
	Dirty   int64 `json:"dirty"`
	Invalid int64 `json:"invalid"`
	// BadHeader counts files whose header could not be read or lacks a required column. All the rows of such a
	// file are invalid.
	BadHeader int64 `json:"bad_header,omitempty"`
	// Rejected counts invalid and dirty rows per column.
	Rejected map[string]int64 `json:"rejected,omitempty"`
}

func (s *Stats) reject(err error) {
	var fe *FieldError
	if !errors.As(err, &fe) {
		return
	}
	if s.Rejected == nil {
		s.Rejected = make(map[string]int64)
	}
	s.Rejected[fe.Column]++
}

// Add sums two stats.
func (s Stats) Add(other Stats) Stats {
	res := Stats{
		Total:   s.Total + other.Total,
		Clean:   s.Clean + other.Clean,
		Dirty:   s.Dirty + other.Dirty,
		Invalid: s.Invalid + other.Invalid,

		BadHeader: s.BadHeader + other.BadHeader,
	}
	for _, m := range []map[string]int64{s.Rejected, other.Rejected} {
		for k, v := range m {
			if res.Rejected == nil {
				res.Rejected = make(map[string]int64)
			}
			res.Rejected[k] += v
		}
	}

	return res
}

// MarshalStats encodes stats for the count files of the working folder.
func MarshalStats(s Stats) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalStats decodes stats written by MarshalStats.
func UnmarshalStats(data []byte) (Stats, error) {
	var s Stats
	err := json.Unmarshal(data, &s)

	return s, errors.Wrap(err, "unable to decode stats")
}

// Filter reads raw messages from r and writes the clean ones to w, header first. A file without a usable header
// still gets a clean file holding the header only, its rows are counted as invalid.
func Filter(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	var stats Stats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	var header Header
	headerRow, err := reader.Read()
	var parseErr *csv.ParseError
	switch {
	case err == nil:
		header, err = NewHeader(headerRow)
		if err != nil {
			stats.BadHeader = 1
		}
	case errors.Is(err, io.EOF), errors.As(err, &parseErr):
		stats.BadHeader = 1
	default:
		return stats, errors.Wrap(err, "unable to read header")
	}

	writer := csv.NewWriter(w)
	err = writer.Write(Columns)
	if err != nil {
		return stats, errors.Wrap(err, "unable to write header")
	}

	for {
		if stats.Total%checkContextEvery == 0 && ctx.Err() != nil {
			return stats, ctx.Err()
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			stats.Total++
			stats.Invalid++

			continue
		}
		if err != nil {
			return stats, errors.Wrap(err, "unable to read row")
		}
		if isBlank(row) {
			continue
		}
		stats.Total++
		if header == nil {
			stats.Invalid++

			continue
		}

		msg, err := header.Parse(row)
		if err != nil {
			stats.Invalid++
			stats.reject(err)

			continue
		}
		err = Validate(msg)
		if err != nil {
			stats.Dirty++
			stats.reject(err)

			continue
		}

		err = writer.Write(msg.Record())
		if err != nil {
			return stats, errors.Wrap(err, "unable to write row")
		}
		stats.Clean++
	}

	writer.Flush()

	return stats, errors.Wrap(writer.Error(), "unable to flush rows")
}

func isBlank(row []string) bool {
	return len(row) == 1 && row[0] == ""
}

// ProduceValidCSV writes the clean messages of the raw csv file in to out. out only appears once complete.
func ProduceValidCSV(ctx context.Context, in, out string) (Stats, error) {
	src, err := os.Open(in)
	if err != nil {
		return Stats{}, errors.Wrapf(err, "unable to open %s", in)
	}
	defer src.Close()

	var stats Stats
	err = workdir.WriteAtomic(out, func(f *os.File) error {
		var err error
		stats, err = Filter(ctx, src, f)

		return err
	})
	if err != nil {
		return stats, errors.Wrapf(err, "unable to validate %s", in)
	}

	return stats, nil
}
