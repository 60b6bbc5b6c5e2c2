package combatlog

import (
	"encoding/csv"
	"strings"
)

// Parse converts one raw combat log line into an Event.
//
// A combat log line is a timestamp prefix, a separator of two
// consecutive spaces, and a CSV payload:
//
//	4/12 21:15:00.123  ENCOUNTER_START,2688,"Rashok",16,20,2569
//
// Older clients emit a single-space separator after the time token, so
// when no double space exists the split falls back to the second
// whitespace token boundary.
//
// Parse never fails: a structurally malformed line yields an Event with
// Kind Other and empty Fields.
func Parse(rawLine string) Event {
	line := strings.TrimRight(strings.TrimSpace(rawLine), "\r")
	if line == "" {
		return Event{}
	}

	ts, data, ok := splitTimestamp(line)
	if !ok {
		return Event{}
	}

	fields, ok := parseFields(data)
	if !ok || len(fields) == 0 {
		return Event{Timestamp: ts}
	}

	return Event{
		Timestamp: ts,
		Kind:      kindForName(strings.ToUpper(fields[0])),
		Fields:    fields,
	}
}

// splitTimestamp separates the timestamp prefix from the data payload.
func splitTimestamp(line string) (ts, data string, ok bool) {
	if i := strings.Index(line, "  "); i >= 0 {
		return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+2:]), true
	}

	// Fallback: timestamp is the first two whitespace-delimited tokens.
	first := strings.IndexByte(line, ' ')
	if first < 0 {
		return "", "", false
	}
	second := strings.IndexByte(line[first+1:], ' ')
	if second < 0 {
		return "", "", false
	}
	second += first + 1
	return strings.TrimSpace(line[:second]), strings.TrimSpace(line[second+1:]), true
}

// parseFields decodes the payload as a single CSV record with
// double-quote quoting, trimming each field and stripping one layer of
// surrounding quotes if the codec left them in place.
func parseFields(data string) ([]string, bool) {
	r := csv.NewReader(strings.NewReader(data))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	record, err := r.Read()
	if err != nil {
		return nil, false
	}

	fields := make([]string, 0, len(record))
	for _, f := range record {
		f = strings.TrimSpace(f)
		if len(f) >= 2 && f[0] == '"' && f[len(f)-1] == '"' {
			f = f[1 : len(f)-1]
		}
		fields = append(fields, f)
	}
	return fields, true
}
