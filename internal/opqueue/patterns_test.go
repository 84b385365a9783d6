package opqueue

import "testing"

func TestQueueable(t *testing.T) {
	t.Parallel()
	cases := []struct {
		method, endpoint string
		want             bool
	}{
		{"POST", "/voices", true},
		{"DELETE", "/voices/v123", true},
		{"POST", "/voices/v123/stories/42/audio", true},
		{"POST", "/voices/v123/stories/42/audio?redirect=true", true},

		// Reads never queue.
		{"GET", "/voices", false},
		{"GET", "/stories", false},
		{"HEAD", "/voices/v123/stories/42/audio", false},

		// Shape mismatches.
		{"POST", "/voices/v123", false},
		{"DELETE", "/voices", false},
		{"DELETE", "/voices/v123/extra", false},
		{"POST", "/voices//stories/42/audio", false},
		{"POST", "/auth/login", false},
	}
	for _, c := range cases {
		if got := Queueable(c.method, c.endpoint); got != c.want {
			t.Errorf("Queueable(%s %s) = %v, want %v", c.method, c.endpoint, got, c.want)
		}
	}
}
