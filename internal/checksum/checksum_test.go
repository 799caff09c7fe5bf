package checksum

import "testing"

func TestSum(t *testing.T) {
	got := Sum([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("Sum = %q, want %q", got, want)
	}
}

func TestCombine_OrderIndependent(t *testing.T) {
	a, b := Sum([]byte("a")), Sum([]byte("b"))
	if Combine(a, b) != Combine(b, a) {
		t.Error("Combine should not depend on argument order")
	}
	if Combine(a) == Combine(a, b) {
		t.Error("Combine should change when a digest is added")
	}
}
