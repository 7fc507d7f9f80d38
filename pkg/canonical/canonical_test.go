package canonical

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSortsKeys(t *testing.T) {
	b, err := Marshal(map[string]any{"zeta": 1, "alpha": "x", "mid": true})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":"x","mid":true,"zeta":1}`, string(b))
}

func TestMarshalStableAcrossCalls(t *testing.T) {
	v := map[string]any{
		"trace_id": "trace-x",
		"hop":      2,
		"payload":  map[string]any{"total": 42.5, "lines": []any{"a", "b"}},
		"prev":     nil,
	}
	first, err := Marshal(v)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestMarshalNullAndNested(t *testing.T) {
	b, err := Marshal(map[string]any{
		"prev_receipt_hash": nil,
		"payload":           map[string]any{"items": []any{map[string]any{"n": 1}}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"payload":{"items":[{"n":1}]},"prev_receipt_hash":null}`, string(b))
}

func TestMarshalIntegralFloatMatchesInt(t *testing.T) {
	// A value that went through encoding/json decoding (float64) must hash
	// the same as the original integer.
	asInt, err := Marshal(map[string]any{"hop": 7})
	require.NoError(t, err)
	asFloat, err := Marshal(map[string]any{"hop": float64(7)})
	require.NoError(t, err)
	assert.Equal(t, string(asInt), string(asFloat))
}

func TestMarshalNumberPreservesLiteral(t *testing.T) {
	var v map[string]any
	dec := json.NewDecoder(strings.NewReader(`{"total":10.50,"n":3}`))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&v))
	b, err := Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"n":3,"total":10.50}`, string(b))
}

func TestMarshalStringEscaping(t *testing.T) {
	b, err := Marshal(map[string]any{"s": "a\"b\\c\nd<&>é"})
	require.NoError(t, err)
	// Quote, backslash and newline escaped; HTML and non-ASCII left raw.
	assert.Equal(t, `{"s":"a\"b\\c\nd<&>é"}`, string(b))
}

func TestMarshalNFCNormalization(t *testing.T) {
	composed, err := Marshal("é")         // é as one rune
	require.NoError(t, err)
	decomposed, err := Marshal("é") // e + combining acute
	require.NoError(t, err)
	assert.Equal(t, string(composed), string(decomposed))
}

func TestMarshalRejectsUnsupported(t *testing.T) {
	_, err := Marshal(map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestContentAddressFormat(t *testing.T) {
	cid := ContentAddress([]byte("hello"))
	assert.True(t, strings.HasPrefix(cid, "sha256:"))
	assert.Len(t, cid, len("sha256:")+64)
	assert.Equal(t, strings.ToLower(cid), cid)
	// Known vector for sha256("hello").
	assert.Equal(t, "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", cid)
}

func TestAddressIndependentOfInsertionOrder(t *testing.T) {
	a := map[string]any{}
	a["x"] = 1
	a["y"] = 2
	b := map[string]any{}
	b["y"] = 2
	b["x"] = 1
	ca, err := Address(a)
	require.NoError(t, err)
	cb, err := Address(b)
	require.NoError(t, err)
	assert.Equal(t, ca, cb)
}
