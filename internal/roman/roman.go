// Package roman 韩文罗马字转写（국어의 로마자 표기법）
package roman

import "strings"

const (
	syllableBase  = 0xAC00
	syllableLast  = 0xD7A3
	vowelCount    = 21
	finalCount    = 28
	initialSilent = 11 // ㅇ
	initialRieul  = 5  // ㄹ
	finalRieul    = 8
	finalIeung    = 21
)

var initials = [...]string{
	"g", "kk", "n", "d", "tt", "r", "m", "b", "pp", "s",
	"ss", "", "j", "jj", "ch", "k", "t", "p", "h",
}

var vowels = [...]string{
	"a", "ae", "ya", "yae", "eo", "e", "yeo", "ye", "o", "wa",
	"wae", "oe", "yo", "u", "wo", "we", "wi", "yu", "eu", "ui", "i",
}

// finals 音节末尾的代表音
var finals = [...]string{
	"", "k", "k", "k", "n", "n", "n", "t", "l", "k",
	"m", "l", "l", "l", "p", "l", "m", "p", "p", "t",
	"t", "ng", "t", "t", "k", "t", "p", "t",
}

// liaison 后接 ㅇ 声母时的连音：[留在本音节, 移到下一音节]
var liaison = [finalCount][2]string{
	{"", ""}, {"", "g"}, {"", "kk"}, {"k", "s"}, {"", "n"}, {"n", "j"}, {"", "n"}, {"", "d"},
	{"", "r"}, {"l", "g"}, {"l", "m"}, {"l", "b"}, {"l", "s"}, {"l", "t"}, {"l", "p"}, {"", "r"},
	{"", "m"}, {"", "b"}, {"p", "s"}, {"", "s"}, {"", "ss"}, {"", ""}, {"", "j"}, {"", "ch"},
	{"", "k"}, {"", "t"}, {"", "p"}, {"", ""},
}

type syllable struct {
	l, v, t int
	ok      bool
}

func decompose(r rune) syllable {
	if r < syllableBase || r > syllableLast {
		return syllable{}
	}
	s := int(r - syllableBase)
	return syllable{
		l:  s / (vowelCount * finalCount),
		v:  (s % (vowelCount * finalCount)) / finalCount,
		t:  s % finalCount,
		ok: true,
	}
}

// Romanize 非韩文字符原样保留并转小写，结果为空时返回小写原文
func Romanize(text string) string {
	runes := []rune(text)
	syls := make([]syllable, len(runes))
	for i, r := range runes {
		syls[i] = decompose(r)
	}

	var b strings.Builder
	b.Grow(len(text))
	var carry string
	carried := false
	for i, r := range runes {
		s := syls[i]
		if !s.ok {
			b.WriteString(strings.ToLower(string(r)))
			carried = false
			continue
		}

		initial := initials[s.l]
		if carried {
			initial = carry
			carried = false
		}
		final := finals[s.t]
		if s.t != 0 && i+1 < len(runes) && syls[i+1].ok {
			next := syls[i+1]
			switch {
			case next.l == initialSilent && s.t != finalIeung:
				final, carry = liaison[s.t][0], liaison[s.t][1]
				carried = true
			case next.l == initialRieul && s.t == finalRieul:
				carry, carried = "l", true
			}
		}
		b.WriteString(initial)
		b.WriteString(vowels[s.v])
		b.WriteString(final)
	}

	out := b.String()
	if strings.TrimSpace(out) == "" {
		return strings.ToLower(text)
	}
	return out
}
