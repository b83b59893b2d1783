package sha256

import "testing"

func TestHashKnownValue(t *testing.T) {
	t.Parallel()

	h := New()
	got := h.Hash([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("Hash(abc) = %s, want %s", got, want)
	}
}

func TestHashEmptyInput(t *testing.T) {
	t.Parallel()

	h := New()
	got := h.Hash(nil)
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got != want {
		t.Fatalf("Hash(nil) = %s, want %s", got, want)
	}
}
