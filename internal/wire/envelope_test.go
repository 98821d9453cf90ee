package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junsooki/airstream/internal/input"
)

func TestAppendFragment_Layout(t *testing.T) {
	b := AppendFragment(nil, Fragment{Seq: 0x01020304, Index: 2, Count: 7, Payload: []byte{0xAA, 0xBB}})

	assert.Equal(t, []byte{0, 1, 2, 3, 4, 0, 2, 0, 7, 0xAA, 0xBB}, b)
}

func TestDecode_Media(t *testing.T) {
	b := AppendFragment(nil, Fragment{Seq: 42, Index: 0, Count: 1, Payload: []byte("frame")})

	env, err := Decode(b)

	require.NoError(t, err)
	assert.Equal(t, TypeMedia, env.Type)
	assert.Equal(t, uint32(42), env.Fragment.Seq)
	assert.Equal(t, uint16(0), env.Fragment.Index)
	assert.Equal(t, uint16(1), env.Fragment.Count)
	assert.Equal(t, []byte("frame"), env.Fragment.Payload)
	assert.Nil(t, env.Control)
}

func TestDecode_MediaEmptyPayload(t *testing.T) {
	env, err := Decode(AppendFragment(nil, Fragment{Seq: 1, Index: 0, Count: 1}))

	require.NoError(t, err)
	assert.Empty(t, env.Fragment.Payload)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrShortDatagram},
		{"short media header", []byte{0, 0, 0, 0, 1, 0, 0, 0}, ErrShortDatagram},
		{"zero count", []byte{0, 0, 0, 0, 1, 0, 0, 0, 0}, ErrBadFragment},
		{"index past count", []byte{0, 0, 0, 0, 1, 0, 3, 0, 3}, ErrBadFragment},
		{"unknown type", []byte{7, 1, 2}, ErrUnknownType},
		{"short control", []byte{1}, ErrShortDatagram},
		{"unknown control kind", []byte{1, 9}, ErrUnknownControlKind},
		{"pointer body too short", []byte{1, 0, 0, 0, 0, 1}, ErrBadControlBody},
		{"button body too long", []byte{1, 1, 0, 1, 0}, ErrBadControlBody},
		{"button bad bool", []byte{1, 1, 0, 2}, ErrBadControlBody},
		{"key bad bool", []byte{1, 2, 0, 4, 5, 0}, ErrBadControlBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// A media payload whose bytes look like a control datagram is still media:
// only the discriminator decides.
func TestDecode_MediaPayloadResemblingControl(t *testing.T) {
	ctrl, err := MarshalControl(input.Key{KeyCode: 1, Pressed: true})
	require.NoError(t, err)

	env, err := Decode(AppendFragment(nil, Fragment{Seq: 3, Index: 0, Count: 1, Payload: ctrl}))

	require.NoError(t, err)
	assert.Equal(t, TypeMedia, env.Type)
	assert.Equal(t, ctrl, env.Fragment.Payload)
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "media", TypeMedia.String())
	assert.Equal(t, "control", TypeControl.String())
	assert.Equal(t, "type(9)", Type(9).String())
}
