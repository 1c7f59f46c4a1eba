package models

import (
	"encoding/json"
	"testing"
)

func TestFlexStringAcceptsStringsNumbersAndNull(t *testing.T) {
	var row PositionEntry
	data := []byte(`{"symbol":"BTCUSDT","size":0.5,"avgPrice":"42000.1","markPrice":null,"leverage":{"x":1}}`)
	if err := json.Unmarshal(data, &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if row.Symbol != "BTCUSDT" || row.Size != "0.5" || row.AvgPrice != "42000.1" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.MarkPrice != "" || row.Leverage != "" {
		t.Fatalf("expected null and object values to decode as empty: %+v", row)
	}
}

func TestListSkipsMalformedElements(t *testing.T) {
	var res TickersResult
	data := []byte(`{"list":[{"symbol":"BTCUSDT"},"junk",42,{"symbol":"ETHUSDT"}]}`)
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(res.List) != 2 || res.List[0].Symbol != "BTCUSDT" || res.List[1].Symbol != "ETHUSDT" {
		t.Fatalf("unexpected list: %+v", res.List)
	}
}

func TestListNonArrayIsEmpty(t *testing.T) {
	var res WalletBalanceResult
	if err := json.Unmarshal([]byte(`{"list":"nope"}`), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(res.List) != 0 {
		t.Fatalf("expected empty list, got %+v", res.List)
	}
}

func TestEnvelopeMissingRetCode(t *testing.T) {
	var env Envelope
	if err := json.Unmarshal([]byte(`{"retMsg":"OK","result":{}}`), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Succeeded() {
		t.Fatal("missing retCode must not count as success")
	}
}

func TestEnvelopeSucceeded(t *testing.T) {
	cases := map[string]bool{
		`{"retCode":0}`:     true,
		`{"retCode":10003}`: false,
		`{"retCode":"0"}`:   false,
		`{"retCode":null}`:  false,
	}
	for body, want := range cases {
		var env Envelope
		if err := json.Unmarshal([]byte(body), &env); err != nil {
			t.Fatalf("unmarshal %s: %v", body, err)
		}
		if got := env.Succeeded(); got != want {
			t.Errorf("%s: got %v want %v", body, got, want)
		}
	}
}
