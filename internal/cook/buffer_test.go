package cook

import "testing"

func TestBufferLifecycle(t *testing.T) {
	var b Buffer
	if !b.IsEmpty() || b.Bytes() != nil {
		t.Fatal("zero buffer should be empty")
	}

	b.Set([]byte("hello"))
	if b.IsEmpty() || string(b.Bytes()) != "hello" {
		t.Fatalf("unexpected bytes %q", b.Bytes())
	}

	b.Start, b.Size = 1, 3
	if string(b.Bytes()) != "ell" {
		t.Fatalf("window = %q, want ell", b.Bytes())
	}

	b.Reset()
	if !b.IsEmpty() || b.Data == nil {
		t.Fatal("Reset should keep the backing array and empty the window")
	}

	b.Set([]byte("x"))
	b.Clear()
	if !b.IsEmpty() || b.Data != nil {
		t.Fatal("Clear should drop the backing array")
	}

	b.Set([]byte{})
	if !b.IsEmpty() {
		t.Fatal("zero-length data should be empty")
	}
}
