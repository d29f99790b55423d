package gensvc

import (
	"hash/crc32"
	"math"
)

const (
	lcgMultiplier = 1103515245
	lcgIncrement  = 12345
	lcgModulus    = 1<<31 - 1
)

// Scores derives reproducible stats from a name and type: health in
// [60,100], defense in [30,80] and attack in [30,100]. The seed is the CRC-32
// of the ASCII-lowercased "name|type", driving a Park-Miller style LCG.
func Scores(name, typeName string) (health, defense, attack int) {
	next := lcg(crc32.ChecksumIEEE([]byte(asciiLower(name + "|" + typeName))))

	health = 60 + int(math.Round(next()*40))
	defense = 30 + int(math.Round(next()*50))
	attack = 30 + int(math.Round(next()*70))

	return health, defense, attack
}

func lcg(seed uint32) func() float64 {
	state := int64(seed) & 0x7fffffff

	return func() float64 {
		state = (lcgMultiplier*state + lcgIncrement) % lcgModulus

		return float64(state) / lcgModulus
	}
}

// asciiLower lowercases A-Z only, leaving other bytes untouched.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}

	return string(b)
}
