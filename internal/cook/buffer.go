package cook

// Buffer is a window onto a byte slice. The zero value is empty.
type Buffer struct {
	Data  []byte
	Start int
	Size  int
}

// IsEmpty reports whether the buffer holds no bytes.
func (b *Buffer) IsEmpty() bool {
	return b.Data == nil || b.Size == 0
}

// Bytes returns the windowed bytes without copying.
func (b *Buffer) Bytes() []byte {
	if b.IsEmpty() {
		return nil
	}
	return b.Data[b.Start : b.Start+b.Size]
}

// Set points the buffer at the whole of data.
func (b *Buffer) Set(data []byte) {
	b.Data = data
	b.Start = 0
	b.Size = len(data)
}

// Reset empties the window but keeps the backing array.
func (b *Buffer) Reset() {
	b.Start = 0
	b.Size = 0
}

// Clear empties the window and drops the backing array.
func (b *Buffer) Clear() {
	b.Data = nil
	b.Start = 0
	b.Size = 0
}
