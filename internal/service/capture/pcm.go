package capture

import "encoding/binary"

// PCM моно-запись: сэмплы int16 little-endian подряд.
type PCM struct {
	Data       []byte
	SampleRate int
}

// Samples количество сэмплов в записи.
func (p PCM) Samples() int { return len(p.Data) / 2 }

// Ints раскладывает байты в []int для go-audio (IntBuffer хранит значения как int).
func (p PCM) Ints() []int {
	out := make([]int, p.Samples())
	for i := range out {
		out[i] = int(int16(binary.LittleEndian.Uint16(p.Data[2*i:])))
	}
	return out
}

// encodeInt16 переводит блок сэмплов в little-endian байты.
func encodeInt16(samples []int16) []byte {
	b := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(s))
	}
	return b
}
