package model

import (
	"encoding/json"
	"testing"
)

func TestStopSessionPayloadForms(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{"object", `{"sessionId": 1740823200000}`, 1740823200000, false},
		{"object with string", `{"sessionId": "42"}`, 42, false},
		{"bare number", `1740823200000`, 1740823200000, false},
		{"numeric string", `"17"`, 17, false},
		{"word", `"abc"`, 0, true},
		{"bool", `true`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p StopSessionPayload
			err := json.Unmarshal([]byte(tt.in), &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && p.SessionID != tt.want {
				t.Errorf("sessionId = %d, want %d", p.SessionID, tt.want)
			}
		})
	}
}

func TestRespondPayloadFlags(t *testing.T) {
	var p RespondPayload
	if err := json.Unmarshal([]byte(`{"_id":"x","status":"accepted","allowAudio":true}`), &p); err != nil {
		t.Fatal(err)
	}
	f := p.Flags()
	if f.Screen != nil || f.Webcam != nil || f.Audio == nil || !*f.Audio {
		t.Errorf("flags = %+v", f)
	}
}
