package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "payflow/pkg/domain-errors"
)

// TestParseAmount validates the amount invariant: strictly positive,
// at most two fractional digits, stored exactly in minor units.
func TestParseAmount(t *testing.T) {
	t.Run("parses whole amounts", func(t *testing.T) {
		a, err := ParseAmount("1500")
		require.NoError(t, err)
		assert.Equal(t, Amount(150000), a)
	})

	t.Run("parses fractional amounts", func(t *testing.T) {
		a, err := ParseAmount("1500.50")
		require.NoError(t, err)
		assert.Equal(t, Amount(150050), a)
	})

	t.Run("pads a single fractional digit", func(t *testing.T) {
		a, err := ParseAmount("1.5")
		require.NoError(t, err)
		assert.Equal(t, Amount(150), a)
	})

	t.Run("parses the smallest positive amount", func(t *testing.T) {
		a, err := ParseAmount("0.01")
		require.NoError(t, err)
		assert.Equal(t, Amount(1), a)
	})

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"zero", "0"},
		{"zero with decimals", "0.00"},
		{"negative", "-10"},
		{"three decimal places", "1.005"},
		{"not a number", "ten"},
		{"scientific notation", "1e5"},
		{"signed fraction", "1.-5"},
		{"plus-signed fraction", "1.+5"},
		{"plus-signed whole", "+5"},
		{"overflowing minor units", "184467440737095517"},
		{"int64 max", "9223372036854775807"},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := ParseAmount(tt.input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "1500.00", Amount(150000).String())
	assert.Equal(t, "1500.50", Amount(150050).String())
	assert.Equal(t, "0.01", Amount(1).String())
	assert.Equal(t, "0.10", Amount(10).String())
}

func TestAmount_JSON(t *testing.T) {
	t.Run("marshals as bare number", func(t *testing.T) {
		b, err := json.Marshal(Amount(150050))
		require.NoError(t, err)
		assert.Equal(t, "1500.50", string(b))
	})

	t.Run("unmarshals a JSON number", func(t *testing.T) {
		var a Amount
		require.NoError(t, json.Unmarshal([]byte("1500.50"), &a))
		assert.Equal(t, Amount(150050), a)
	})

	t.Run("unmarshals a quoted string", func(t *testing.T) {
		var a Amount
		require.NoError(t, json.Unmarshal([]byte(`"99.99"`), &a))
		assert.Equal(t, Amount(9999), a)
	})

	t.Run("keeps the validation code on bad input", func(t *testing.T) {
		var a Amount
		err := json.Unmarshal([]byte(`"-5"`), &a)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
