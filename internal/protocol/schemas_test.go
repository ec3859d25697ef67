package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	actSchema := compile("act.schema.json")
	stateSchema := compile("state.schema.json")
	resultSchema := compile("result.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "client_name":"dashboard"
	}`), &hello)
	validate(helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "world_id":"city-1",
	  "seed":1337,
	  "transport_digest":"deadbeef",
	  "events_digest":"deadbeef"
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var act any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACT",
	  "protocol_version":"1.0",
	  "id":"a1",
	  "cmd":"BUILD_LINE",
	  "build_line":{
	    "name":"Crosstown 1",
	    "mode":"bus",
	    "frequency_min":10,
	    "stations":[
	      {"name":"Placa Nord","lat":41.40,"lon":2.17,"depth":"surface"},
	      {"name":"Placa Sud","lat":41.38,"lon":2.18,"depth":"surface"}
	    ]
	  }
	}`), &act)
	validate(actSchema, act)

	var state any
	_ = json.Unmarshal([]byte(`{
	  "type":"STATE",
	  "protocol_version":"1.0",
	  "date_ms":1736139600000,
	  "hour":8,
	  "time_of_day":"morning_rush",
	  "day_type":"weekday",
	  "game_speed":1,
	  "balance":995000000,
	  "net_income":12000,
	  "satisfaction":72.5,
	  "passengers":4812,
	  "lines":2,
	  "stations":7,
	  "vehicles":5,
	  "active_events":0,
	  "bottlenecks":1,
	  "vehicle_positions":[
	    {"vehicle_id":"v-1","line_id":"line-1","lat":41.39,"lon":2.17,"load":34,"status":"in_transit"}
	  ]
	}`), &state)
	validate(stateSchema, state)

	var result any
	_ = json.Unmarshal([]byte(`{
	  "type":"RESULT",
	  "protocol_version":"1.0",
	  "id":"a1",
	  "ok":false,
	  "code":"E_NO_FUNDS",
	  "reason":"construction cost 85000000.00 exceeds balance"
	}`), &result)
	validate(resultSchema, result)
}

func TestSchemas_RejectBadAct(t *testing.T) {
	p := filepath.Join("..", "..", "schemas", "act.schema.json")
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	bad := []string{
		`{"type":"ACT","protocol_version":"1.0","cmd":"TELEPORT"}`,
		`{"type":"ACT","protocol_version":"1.0","cmd":"SET_SPEED","set_speed":{"speed":9}}`,
		`{"type":"ACT","protocol_version":"1.0","cmd":"BUILD_LINE","build_line":{"name":"x","mode":"bus","stations":[{"lat":41.4,"lon":2.17}]}}`,
		`{"type":"ACT","protocol_version":"1.0","cmd":"TAKE_LOAN","take_loan":{"amount":1000000,"months":6}}`,
	}
	for i, raw := range bad {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		if err := s.Validate(v); err == nil {
			t.Fatalf("sample %d: expected validation failure", i)
		}
	}
}
