package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-enet/pkg/types"
)

func TestCodec_Encode_Defaults(t *testing.T) {
	c := NewCodec(0)
	assert.Equal(t, DefaultMaxPacketSize, c.MaxSize())

	data := []byte("hello")
	p, err := c.Encode(data, Options{})
	require.NoError(t, err)

	assert.Equal(t, uint8(0), p.Channel())
	assert.True(t, p.Flags().IsReliable())
	assert.Equal(t, data, p.Data())

	data[0] = 'j'
	assert.Equal(t, "hello", string(p.Data()), "默认复制负载")
}

func TestCodec_Encode_NoAllocate(t *testing.T) {
	data := []byte("shared")
	p, err := NewCodec(0).Encode(data, Options{Channel: 3, NoAllocate: true})
	require.NoError(t, err)

	assert.True(t, p.Flags().Has(types.PacketFlagNoAllocate))
	data[0] = 'S'
	assert.Equal(t, "Shared", string(p.Data()))
}

func TestCodec_Encode_Delivery(t *testing.T) {
	tests := []struct {
		delivery Delivery
		want     types.PacketFlag
	}{
		{Reliable, types.PacketFlagReliable},
		{Unreliable, 0},
		{Unsequenced, types.PacketFlagUnsequenced},
	}
	for _, tt := range tests {
		t.Run(tt.delivery.String(), func(t *testing.T) {
			p, err := NewCodec(0).Encode(nil, Options{Delivery: tt.delivery})
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Flags())
			assert.Equal(t, tt.delivery.String(), p.Flags().String())
		})
	}
}

func TestCodec_Encode_Errors(t *testing.T) {
	c := NewCodec(4)

	_, err := c.Encode([]byte("12345"), Options{})
	assert.ErrorIs(t, err, ErrPacketAllocationFailure)

	_, err = c.Encode([]byte("1234"), Options{})
	assert.NoError(t, err, "恰好等于上限")

	_, err = c.Encode(nil, Options{Channel: 256})
	assert.ErrorIs(t, err, ErrInvalidChannel)

	_, err = c.Encode(nil, Options{Channel: -1})
	assert.ErrorIs(t, err, ErrInvalidChannel)

	_, err = c.Encode(nil, Options{Channel: 255})
	assert.NoError(t, err, "超出主机通道数量的通道在编码阶段允许")

	_, err = c.Encode(nil, Options{Delivery: Delivery(9)})
	assert.ErrorIs(t, err, ErrInvalidDelivery)
}

func TestDecode(t *testing.T) {
	src := []byte{0, 1, 2, 0xff}
	p := types.NewPacket(src, 7, types.PacketFlagReliable)

	data, ch := Decode(p)
	assert.Equal(t, src, data)
	assert.Equal(t, uint8(7), ch)

	src[0] = 9
	assert.Equal(t, byte(0), data[0], "解码结果不共享内存")

	data, ch = Decode(nil)
	assert.Nil(t, data)
	assert.Zero(t, ch)
}

func TestParseDelivery(t *testing.T) {
	for _, s := range []string{"", "reliable", "RELIABLE"} {
		d, err := ParseDelivery(s)
		require.NoError(t, err)
		assert.Equal(t, Reliable, d)
	}

	d, err := ParseDelivery("unsequenced")
	require.NoError(t, err)
	assert.Equal(t, Unsequenced, d)

	_, err = ParseDelivery("maybe")
	assert.ErrorIs(t, err, ErrInvalidDelivery)
}
