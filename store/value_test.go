package store

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	cases := map[string]Value{
		"null":        Null(),
		"bool":        Bool(true),
		"int":         Int(-42),
		"float":       Float(0.1),
		"big":         Float(1e300),
		"string":      String("line\nbreak, \"quoted\" ünïcode"),
		"emptyArray":  Array(),
		"emptyObject": Object(),
		"nested": Object(
			M("zeta", Int(1)),
			M("alpha", Array(Float(1.5), Null(), String("x"), Object(M("k", Bool(false))))),
			M("mid", Object(M("b", Int(2)), M("a", Int(1)))),
		),
	}
	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			token, err := EncodeValue(v)
			require.NoError(t, err)
			got, err := DecodeValue(token)
			require.NoError(t, err)
			assert.True(t, v.Equal(got), "decode(encode(v)) = %s, want %s", mustJSON(t, got), token)
		})
	}
}

func TestDecodePreservesKeyOrderAndNumberText(t *testing.T) {
	token := `{"b":1.50,"a":[1e3,2],"c":{"y":null,"x":true}}`
	v, err := DecodeValue(token)
	require.NoError(t, err)

	again, err := EncodeValue(v)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	keys := []string{}
	for _, m := range v.Members() {
		keys = append(keys, m.Key)
	}
	assert.Equal(t, []string{"b", "a", "c"}, keys)
	b, _ := v.Get("b")
	f, ok := b.AsFloat()
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)

	c, _ := v.Get("c")
	x, _ := c.Get("x")
	flag, ok := x.AsBool()
	assert.True(t, ok)
	assert.True(t, flag)
	_, ok = b.AsBool()
	assert.False(t, ok)
}

func TestDecodeValueRejectsMalformed(t *testing.T) {
	for _, token := range []string{"{broken", `{"a":1} extra`, "", "[1,"} {
		_, err := DecodeValue(token)
		assert.True(t, errors.Is(err, ErrCodecFailure), "token %q: err = %v", token, err)
	}
}

func TestDecodeCellIsLenient(t *testing.T) {
	v, ok := decodeCell("")
	assert.True(t, ok)
	assert.True(t, v.IsNull())

	v, ok = decodeCell("not json")
	assert.False(t, ok)
	s, isStr := v.AsString()
	assert.True(t, isStr)
	assert.Equal(t, "not json", s)
}

func TestFloatNaNBecomesNull(t *testing.T) {
	var zero float64
	assert.True(t, Float(zero/zero).IsNull())
}

func TestValueWithKeepsPosition(t *testing.T) {
	v := Object(M("a", Int(1)), M("b", Int(2)))
	w := v.With("a", Int(9)).With("c", Int(3))

	assert.Equal(t, `{"a":1,"b":2}`, mustJSON(t, v), "With must not mutate the receiver")
	assert.Equal(t, `{"a":9,"b":2,"c":3}`, mustJSON(t, w))
}

func TestValueOf(t *testing.T) {
	v, err := ValueOf(map[string]any{"z": 1, "a": []any{"x", 2.5, nil}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":["x",2.5,null],"z":1}`, mustJSON(t, v))

	type point struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	v, err = ValueOf(point{Lat: 1.25, Lon: -3})
	require.NoError(t, err)
	assert.Equal(t, `{"lat":1.25,"lon":-3}`, mustJSON(t, v))
}

func TestValueInsideStructJSON(t *testing.T) {
	type wrapper struct {
		Data Value `json:"data"`
	}
	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"k":[1,2]}}`), &w))
	k, ok := w.Data.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, k.Len())
	assert.Equal(t, "2", k.Index(1).Literal())

	out, err := json.Marshal(w)
	require.NoError(t, err)
	assert.Equal(t, `{"data":{"k":[1,2]}}`, string(out))
}

func mustJSON(t *testing.T, v Value) string {
	t.Helper()
	data, err := v.MarshalJSON()
	require.NoError(t, err)
	return string(data)
}
