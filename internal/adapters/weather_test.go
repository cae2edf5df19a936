package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestForecast_ParsesWire(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("location"); got != "外滩" {
			t.Errorf("location = %q, want 外滩", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"temperature":"28°C","weather":"小雨","humidity":"80%","precipitation_probability":0.7,"recommendation":"记得带伞"}`))
	}))
	defer srv.Close()

	a := NewWeatherAdapter(srv.URL, "上海", testAdapterConfig(), nil, nil)
	res := a.Forecast(context.Background(), "外滩")

	if !res.Success || res.Degraded {
		t.Fatalf("result = %+v, want clean success", res)
	}
	if res.Data.Condition != "小雨" {
		t.Errorf("Condition = %q, want 小雨", res.Data.Condition)
	}
	if res.Data.TemperatureC != 28 {
		t.Errorf("TemperatureC = %v, want 28", res.Data.TemperatureC)
	}
	if !res.Data.Rainy() {
		t.Error("Rainy() = false, want true")
	}
}

func TestForecast_FallbackWhenUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewWeatherAdapter(srv.URL, "上海", testAdapterConfig(), nil, nil)
	res := a.Forecast(context.Background(), "外滩")

	if res.Success {
		t.Error("Success = true, want false on fallback")
	}
	if !res.Degraded {
		t.Fatal("Degraded = false, want true")
	}
	if res.Error != ErrorKindAdapterUnavailable {
		t.Errorf("Error = %s, want %s", res.Error, ErrorKindAdapterUnavailable)
	}
	// The fallback still carries usable mild-day data.
	if res.Data.Condition == "" || res.Data.Location != "外滩" {
		t.Errorf("fallback data = %+v, want populated report", res.Data)
	}
}

func TestParseCelsius(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"22°C", 22},
		{"22℃", 22},
		{" -3°C ", -3},
		{"22", 22},
		{"garbage", 0},
	}
	for _, tt := range tests {
		if got := parseCelsius(tt.in); got != tt.want {
			t.Errorf("parseCelsius(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
