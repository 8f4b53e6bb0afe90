package pause

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSimulated(t *testing.T) {
	s := NewSimulated()
	ctx := context.Background()

	if s.Poll(ctx) != Running {
		t.Error("expected running initially")
	}

	s.Press(Pause)
	if s.Poll(ctx) != Pause {
		t.Error("expected pause after press")
	}
	// Сигнал защёлкивается
	if s.Poll(ctx) != Pause {
		t.Error("pause should stay until reset")
	}

	s.Reset()
	if s.Poll(ctx) != Running {
		t.Error("expected running after reset")
	}
}

func TestAny(t *testing.T) {
	ctx := context.Background()
	a, b := NewSimulated(), NewSimulated()
	src := Any(a, nil, b, Never{})

	if src.Poll(ctx) != Running {
		t.Error("expected running")
	}

	b.Press(LostConnection)
	if got := src.Poll(ctx); got != LostConnection {
		t.Errorf("expected lost connection, got %v", got)
	}

	a.Press(Pause)
	if got := src.Poll(ctx); got != Pause {
		t.Errorf("first source should win, got %v", got)
	}
}

func TestHTTPButton(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    State
	}{
		{
			name: "released",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"pressed":false}`))
			},
			want: Running,
		},
		{
			name: "pressed",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"pressed":true}`))
			},
			want: Pause,
		},
		{
			name: "gateway error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			want: LostConnection,
		},
		{
			name: "garbage",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`not json`))
			},
			want: LostConnection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			if got := NewHTTPButton(srv.URL + "/button").Poll(context.Background()); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestHTTPButton_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if got := NewHTTPButton(url).Poll(context.Background()); got != LostConnection {
		t.Errorf("expected lost connection, got %v", got)
	}
}

func TestState_String(t *testing.T) {
	if Running.String() != "running" || Pause.String() != "pause" || LostConnection.String() != "lost_connection" {
		t.Error("unexpected state names")
	}
}
