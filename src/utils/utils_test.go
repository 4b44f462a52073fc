package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"1234.56", "1234.56", true},
		{"1.234,56", "1234.56", true},
		{"R$ 1.234,56", "1234.56", true},
		{"1,234.56", "1234.56", true},
		{"-10,5", "-10.5", true},
		{"100", "100", true},
		{"", "0", false},
		{"null", "0", false},
		{"abc", "0", false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		if ok != tt.wantOK || got.String() != tt.want {
			t.Errorf("ParseAmount(%q) = (%s, %v), want (%s, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"2024-05-01", "2024-05-01", true},
		{"2024-05-01 13:45:00", "2024-05-01", true},
		{"2024-05-01 13:45:00.123456-03", "2024-05-01", true},
		{"2024-05-01T13:45:00Z", "2024-05-01", true},
		{"01/05/2024", "2024-05-01", true},
		{"", "", false},
		{"NaT", "", false},
		{"31/02/2024", "", false},
		{"garbage", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if ok != tt.wantOK {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if ok && got.Format("2006-01-02") != tt.want {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
		}
	}
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	got := Today(loc)
	if got.Hour() != 0 || got.Location() != time.UTC {
		t.Errorf("Today() = %v, want UTC midnight", got)
	}
}

func TestGenerateETagStable(t *testing.T) {
	a, err := GenerateETag(map[string]int{"b": 2, "a": 1})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := GenerateETag(map[string]int{"a": 1, "b": 2})
	if a != b || len(a) != 64 {
		t.Errorf("etags %q and %q", a, b)
	}
}

func TestSendJSONError(t *testing.T) {
	rr := httptest.NewRecorder()
	SendJSONError(rr, "nope", http.StatusTeapot)
	if rr.Code != http.StatusTeapot {
		t.Errorf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"error":"nope"`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}
