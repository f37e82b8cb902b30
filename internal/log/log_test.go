package log

import "testing"

func TestMaskValue(t *testing.T) {
	cases := []struct {
		key, val, want string
	}{
		{"api_key", "sk-abcdefghijklmnopqrst", "sk-a***qrst"},
		{"token", "short", "***"},
		{"authorization", "Bearer abcdefghijklmnop", "Bear***mnop"},
		{"header", "Bearer abcdefghijklmnop", "Bearer abcd***mnop"},
		{"model", "sk-abcdefghijklmnopqrst", "sk-a***qrst"},
		{"path", "/data/cvs", "/data/cvs"},
		{"question", "Who has experience with React?", "Who has experience with React?"},
	}
	for _, tc := range cases {
		if got := maskValue(tc.key, tc.val); got != tc.want {
			t.Errorf("maskValue(%q, %q) = %q, want %q", tc.key, tc.val, got, tc.want)
		}
	}
}
