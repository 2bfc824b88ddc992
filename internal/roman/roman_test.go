package roman

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRomanize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"안녕하세요", "annyeonghaseyo"},
		{"사랑해", "saranghae"},
		{"음악", "eumak"},
		{"몰라", "molla"},
		{"사랑이", "sarangi"},
		{"좋아", "joa"},
		{"읽어", "ilgeo"},
		{"없어", "eopseo"},
		{"있어요", "isseoyo"},
		{"많아", "mana"},
		{"길을 잃었어요", "gireul ireosseoyo"},
		{"사랑 LOVE!", "sarang love!"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Romanize(c.in), c.in)
	}
}

func TestRomanize_NoLiaisonAcrossSpace(t *testing.T) {
	assert.Equal(t, "mal ani", Romanize("말 아니"))
}

func TestRomanize_FallbackToLowercase(t *testing.T) {
	assert.Equal(t, "", Romanize(""))
	assert.Equal(t, "   ", Romanize("   "))
	assert.Equal(t, "hello", Romanize("Hello"))
}
