package logx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeAddr(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "203.0.113.42:5555", want: "203.0.113.0"},
		{in: "203.0.113.42", want: "203.0.113.0"},
		{in: "10.1.2.255:40000", want: "10.1.2.0"},
		{in: "[::ffff:198.51.100.7]:80", want: "198.51.100.0"},
		{in: "127.0.0.1:8080", want: "127.0.0.1"},
		{in: "[::1]:8080", want: "127.0.0.1"},
		{in: "[2001:db8:1:2:3:4:5:6]:80", want: "2001:db8:1:2::"},
		{in: "pipe", want: "unknown_ip"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, AnonymizeAddr(tt.in))
		})
	}
}

func TestCheckFields(t *testing.T) {
	assert.Nil(t, checkFields("Info", []any{"only_key"}))
	assert.Equal(t, []any{"k", 1}, checkFields("Info", []any{"k", 1}))
}
