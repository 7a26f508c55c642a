package blitz

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alfawal/LoA/internal/roster"
	"github.com/alfawal/LoA/internal/stats"
	"github.com/alfawal/LoA/internal/webapi"
)

const sampleBody = `{"data":{"allChampionStats":[
	{"championId":22,"role":"ADC","patch":"14.1","wins":520,"games":1000},
	{"championId":1,"role":"MID","patch":"14.1","wins":30,"games":60},
	{"championId":22,"role":"SUPPORT","patch":"14.1","wins":10,"games":20}
]}}`

func TestFetchRaw_SendsGraphQLAndNormalizes(t *testing.T) {
	var gotQuery, gotVariables string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotVariables = r.URL.Query().Get("variables")
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	client := New(webapi.NewClient(webapi.Options{}), Settings{URL: srv.URL})
	raw, err := client.FetchRaw(context.Background())
	if err != nil {
		t.Fatalf("FetchRaw() error = %v", err)
	}
	if !strings.Contains(gotQuery, "allChampionStats") || !strings.Contains(gotQuery, "mostPopular:true") {
		t.Fatalf("query = %q, want the tier list query", gotQuery)
	}
	var vars map[string]string
	if err := json.Unmarshal([]byte(gotVariables), &vars); err != nil {
		t.Fatalf("variables %q are not JSON: %v", gotVariables, err)
	}
	if vars["queue"] != DefaultQueue || vars["region"] != DefaultRegion || vars["tier"] != DefaultTier {
		t.Fatalf("variables = %v", vars)
	}

	ds, report, err := stats.Normalize(raw, roster.Roster{1: "Annie", 22: "Ashe", 2: "Olaf"})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if report.Duplicates != 1 {
		t.Fatalf("Duplicates = %d, want 1", report.Duplicates)
	}
	first := ds.Records[0]
	if first.ChampionID != 22 || first.Role != "ADC" || first.WinRate != 52 {
		t.Fatalf("Records[0] = %+v, want Ashe ADC 52%%", first)
	}
	if ds.Records[1].Role != "Mid" {
		t.Fatalf("Records[1].Role = %q, want Mid", ds.Records[1].Role)
	}
	if last := ds.Records[2]; !last.Synthesized || last.ChampionName != "Olaf" || last.Provider != Name {
		t.Fatalf("Records[2] = %+v, want Olaf placeholder", last)
	}
}

func TestDecode_GraphQLErrors(t *testing.T) {
	_, err := decode([]byte(`{"errors":[{"message":"Unknown argument"}],"data":null}`))
	malformed, ok := errors.AsType[*stats.MalformedResponseError](err)
	if !ok {
		t.Fatalf("decode() error = %v, want *stats.MalformedResponseError", err)
	}
	if !strings.Contains(malformed.Detail, "Unknown argument") {
		t.Fatalf("Detail = %q, want the GraphQL message", malformed.Detail)
	}
}

func TestDecode_MissingStats(t *testing.T) {
	for _, body := range []string{`{}`, `{"data":{}}`, `[]`} {
		if _, err := decode([]byte(body)); err == nil {
			t.Fatalf("decode(%q) error = nil, want error", body)
		}
	}
}

func TestMapRow_UnknownChampion(t *testing.T) {
	rows, err := decode([]byte(sampleBody))
	if err != nil {
		t.Fatalf("decode() error = %v", err)
	}
	_, err = rows.MapRow(0, roster.Roster{1: "Annie"})
	if _, ok := errors.AsType[*stats.UnknownChampionError](err); !ok {
		t.Fatalf("MapRow() error = %v, want *stats.UnknownChampionError", err)
	}
}
