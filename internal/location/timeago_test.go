package location

import "testing"

func TestTimeAgo(t *testing.T) {
	const now = int64(1700000000)

	tests := []struct {
		name string
		ts   int64
		want string
	}{
		{"same second", now, "just now"},
		{"59 seconds", now - 59, "just now"},
		{"one minute", now - 60, "1 min ago"},
		{"ninety seconds truncates", now - 90, "1 min ago"},
		{"thirty minutes", now - 1800, "30 min ago"},
		{"just under an hour", now - 3599, "59 min ago"},
		{"one hour", now - 3600, "1 hr ago"},
		{"five hours", now - 18000, "5 hr ago"},
		{"two days", now - 172800, "48 hr ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimeAgo(tt.ts, now); got != tt.want {
				t.Fatalf("TimeAgo(-%ds) = %q, want %q", now-tt.ts, got, tt.want)
			}
		})
	}
}
