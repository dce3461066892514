package ingest

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParseCSV_Basic(t *testing.T) {
	data := "Month,Revenue,COGS,Opex,Customers,Notes\n" +
		"2024-01,1000,300,200,100,launch\n" +
		"2024-02,\"1,100\",$330,205,110,\n"

	records, err := ParseCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	second := records[1]
	if !second.Month.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected month: %v", second.Month)
	}
	if second.Revenue != 1100 || second.COGS != 330 || second.Opex != 205 || second.Customers != 110 {
		t.Errorf("unexpected values: %+v", second)
	}
}

func TestParseCSV_MissingColumns(t *testing.T) {
	data := "month,revenue,customers\n2024-01,1000,100\n"

	_, err := ParseCSV(strings.NewReader(data))
	var mce *MissingColumnsError
	if !errors.As(err, &mce) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
	if !reflect.DeepEqual(mce.Missing, []string{"cogs", "opex"}) {
		t.Errorf("unexpected missing columns: %v", mce.Missing)
	}
	if mce.Error() != "Missing columns: ['cogs', 'opex']" {
		t.Errorf("unexpected message: %s", mce.Error())
	}
}

func TestParseCSV_BlankCellsAreNaN(t *testing.T) {
	data := "month,revenue,cogs,opex,customers\n2024-01,,300,200,100\n\n"

	records, err := ParseCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected blank line to be skipped, got %d records", len(records))
	}
	if !math.IsNaN(records[0].Revenue) {
		t.Errorf("expected NaN revenue, got %f", records[0].Revenue)
	}
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"header only", "month,revenue,cogs,opex,customers\n"},
		{"bad month", "month,revenue,cogs,opex,customers\nsoon,1,1,1,1\n"},
		{"bad number", "month,revenue,cogs,opex,customers\n2024-01,lots,1,1,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCSV(strings.NewReader(tt.data)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseMonth_Layouts(t *testing.T) {
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-03", "2024-03-01", "2024/03", "03/01/2024", "Mar 2024", "March 2024"} {
		got, err := ParseMonth(in)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("%q: expected %v, got %v", in, want, got)
		}
	}
}

func TestTail(t *testing.T) {
	data := "month,revenue,cogs,opex,customers\n" +
		"2024-01,1,1,1,1\n2024-02,2,2,2,2\n2024-03,3,3,3,3\n"
	records, err := ParseCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := Tail(records, 2); len(got) != 2 || got[0].Revenue != 2 {
		t.Errorf("unexpected tail: %+v", got)
	}
	if got := Tail(records, 10); len(got) != 3 {
		t.Errorf("expected all records, got %d", len(got))
	}
	if got := Tail(records, 0); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}
