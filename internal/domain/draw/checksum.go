package draw

import (
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Checksum хеш содержимого результата без учета updated_at
func Checksum(d *DrawResult) string {
	var b strings.Builder
	b.WriteString(d.DrawName)
	b.WriteByte(0)
	b.WriteString(d.DrawDate)
	b.WriteByte(0)
	writeNumbers(&b, d.WinningNumbers)
	b.WriteByte(0)
	writeNumbers(&b, d.MachineNumbers)

	sum := blake2b.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func writeNumbers(b *strings.Builder, numbers []int) {
	for i, n := range numbers {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(n))
	}
}
