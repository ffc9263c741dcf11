package main

import "testing"

func TestViewerURL(t *testing.T) {
	tests := []struct {
		addr   string
		hasWeb bool
		want   string
	}{
		{"localhost:8080", true, "http://localhost:8080/"},
		{"localhost:8080", false, "http://localhost:8080/api/stream"},
		{":9000", false, "http://localhost:9000/api/stream"},
	}

	for _, tt := range tests {
		if got := viewerURL(tt.addr, tt.hasWeb); got != tt.want {
			t.Errorf("viewerURL(%q, %v) = %q, want %q", tt.addr, tt.hasWeb, got, tt.want)
		}
	}
}
