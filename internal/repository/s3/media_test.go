package s3

import "testing"

func TestObjectURL(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		bucket string
		key    string
		want   string
	}{
		{"plain", "https://media.example.com", "cycles", "a/b.jpg", "https://media.example.com/cycles/a/b.jpg"},
		{"trailing slash", "https://media.example.com/", "cycles", "a/b.jpg", "https://media.example.com/cycles/a/b.jpg"},
		{"minio endpoint", "http://localhost:9000", "uploads", "cycles/2026/09/01/x", "http://localhost:9000/uploads/cycles/2026/09/01/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := objectURL(tt.base, tt.bucket, tt.key); got != tt.want {
				t.Fatalf("objectURL(%q, %q, %q) = %q, want %q", tt.base, tt.bucket, tt.key, got, tt.want)
			}
		})
	}
}
