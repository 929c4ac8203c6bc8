package routes

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/readloom/readloom/pkg/common"

	"github.com/labstack/echo/v4"
)

func queryContext(t *testing.T, rawQuery string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/graph?"+rawQuery, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestParseListParam(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []common.NodeType
	}{
		{
			name:  "repeated params",
			query: "nodeTypes=book&nodeTypes=topic",
			want:  []common.NodeType{common.NodeTypeBook, common.NodeTypeTopic},
		},
		{
			name:  "comma joined",
			query: "nodeTypes=book,topic",
			want:  []common.NodeType{common.NodeTypeBook, common.NodeTypeTopic},
		},
		{
			name:  "mixed with whitespace",
			query: "nodeTypes=book,%20topic&nodeTypes=emotion",
			want:  []common.NodeType{common.NodeTypeBook, common.NodeTypeTopic, common.NodeTypeEmotion},
		},
		{
			name:  "unknown values dropped",
			query: "nodeTypes=book,planet",
			want:  []common.NodeType{common.NodeTypeBook},
		},
		{
			name:  "only unknown values means no filter",
			query: "nodeTypes=planet",
			want:  nil,
		},
		{
			name:  "absent means no filter",
			query: "",
			want:  nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := queryContext(t, tc.query)
			got := parseListParam(c, "nodeTypes", common.NodeTypes)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("parseListParam() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseNumberParam(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "integer", query: "nodeLimit=300", want: 300},
		{name: "float truncates", query: "nodeLimit=300.9", want: 300},
		{name: "garbage ignored", query: "nodeLimit=abc", want: 0},
		{name: "absent", query: "", want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := queryContext(t, tc.query)
			if got := parseNumberParam(c, "nodeLimit"); got != tc.want {
				t.Fatalf("parseNumberParam() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestParseTimeParam(t *testing.T) {
	c := queryContext(t, "startDate=2026-01-15")
	got := parseTimeParam(c, "startDate")
	if got == nil || got.Format("2006-01-02") != "2026-01-15" {
		t.Fatalf("parseTimeParam() date-only = %v", got)
	}

	c = queryContext(t, "startDate=2026-01-15T09%3A30%3A00Z")
	got = parseTimeParam(c, "startDate")
	want := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Fatalf("parseTimeParam() rfc3339 = %v, want %v", got, want)
	}

	c = queryContext(t, "startDate=yesterday")
	if got := parseTimeParam(c, "startDate"); got != nil {
		t.Fatalf("parseTimeParam() should ignore unparsable input, got %v", got)
	}
}
