package importer

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// record is one CSV row with its 1-based line number (header is line 1).
type record struct {
	line   int
	fields []string
}

// streamCSV reads r and sends trimmed records to out until EOF. The header row
// is returned through header before any record is sent. out is closed on
// return.
func streamCSV(ctx context.Context, r io.Reader, header chan<- []string, out chan<- record) error {
	defer close(out)

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.Comment = '#'

	line := 0
	for {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "importer: context cancelled")
		}
		fields, err := reader.Read()
		if err == io.EOF {
			if line == 0 {
				return eris.New("importer: empty input")
			}
			return nil
		}
		if err != nil {
			return eris.Wrap(err, "importer: read row")
		}
		line++
		for i, f := range fields {
			fields[i] = strings.TrimSpace(f)
		}

		if line == 1 {
			select {
			case header <- fields:
			case <-ctx.Done():
				return eris.Wrap(ctx.Err(), "importer: context cancelled sending header")
			}
			continue
		}

		select {
		case out <- record{line: line, fields: fields}:
		case <-ctx.Done():
			return eris.Wrap(ctx.Err(), "importer: context cancelled")
		}
	}
}
