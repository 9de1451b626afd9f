package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeSessionCode(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		want    string
		wantErr bool
	}{
		{
			name: "zero",
			n:    0,
			want: "A2A2A",
		},
		{
			name: "one",
			n:    1,
			want: "A2A2B",
		},
		{
			name: "carry into digit position",
			n:    24,
			want: "A2A3A",
		},
		{
			name: "max",
			n:    MaxCode - 1,
			want: "Z9Z9Z",
		},
		{
			name:    "negative",
			n:       -1,
			wantErr: true,
		},
		{
			name:    "out of range",
			n:       MaxCode,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeSessionCode(tt.n)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, CodeLength)
		})
	}
}

func TestDecodeSessionCode(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		want    int
		wantErr bool
	}{
		{
			name: "zero",
			code: "A2A2A",
			want: 0,
		},
		{
			name: "max",
			code: "Z9Z9Z",
			want: MaxCode - 1,
		},
		{
			name:    "wrong length",
			code:    "A2A2",
			wantErr: true,
		},
		{
			name:    "excluded digit",
			code:    "A0A2A",
			wantErr: true,
		},
		{
			name:    "excluded letter",
			code:    "I2A2A",
			wantErr: true,
		},
		{
			name:    "digit in letter position",
			code:    "22A2A",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSessionCode(tt.code)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSessionCodeRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 23, 24, 191, 4607, 99999, MaxCode / 2, MaxCode - 2, MaxCode - 1} {
		code, err := EncodeSessionCode(n)
		assert.NoError(t, err)
		decoded, err := DecodeSessionCode(code)
		assert.NoError(t, err)
		assert.Equal(t, n, decoded, "code %s", code)
	}
}
