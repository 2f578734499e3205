package fetch

import (
	"errors"
	"testing"
)

func TestProcessJSON(t *testing.T) {
	tests := []struct {
		name     string
		raw      *RawResponse
		want     any
		wantErr  bool
		wantCode int
	}{
		{
			name: "object",
			raw:  &RawResponse{Status: 200, Body: []byte(`{"id":7}`)},
			want: map[string]any{"id": float64(7)},
		},
		{
			name: "array",
			raw:  &RawResponse{Status: 200, Body: []byte(`[1,2]`)},
			want: []any{float64(1), float64(2)},
		},
		{
			name: "empty body",
			raw:  &RawResponse{Status: 200},
			want: nil,
		},
		{
			name: "no content",
			raw:  &RawResponse{Status: 204, Body: []byte(`ignored`)},
			want: nil,
		},
		{
			name:     "client error",
			raw:      &RawResponse{Status: 404, Body: []byte(`missing`)},
			wantErr:  true,
			wantCode: 404,
		},
		{
			name:     "server error",
			raw:      &RawResponse{Status: 503},
			wantErr:  true,
			wantCode: 503,
		},
		{
			name:    "malformed json",
			raw:     &RawResponse{Status: 200, Body: []byte(`{broken`)},
			wantErr: true,
		},
		{
			name:    "nil response",
			raw:     nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ProcessJSON(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ProcessJSON() = %v, want error", got)
				}
				if tt.wantCode != 0 {
					var se *StatusError
					if !errors.As(err, &se) {
						t.Fatalf("error = %v, want StatusError", err)
					}
					if se.Status != tt.wantCode {
						t.Errorf("Status = %d, want %d", se.Status, tt.wantCode)
					}
					if tt.raw != nil && string(se.Body) != string(tt.raw.Body) {
						t.Errorf("Body = %s, want original body kept", se.Body)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("ProcessJSON() error = %v", err)
			}
			switch want := tt.want.(type) {
			case map[string]any:
				gm, ok := got.(map[string]any)
				if !ok || gm["id"] != want["id"] {
					t.Errorf("got %v, want %v", got, want)
				}
			case []any:
				ga, ok := got.([]any)
				if !ok || len(ga) != len(want) {
					t.Errorf("got %v, want %v", got, want)
				}
			default:
				if got != tt.want {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}
