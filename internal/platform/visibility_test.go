package platform

import "testing"

func TestVisibilityCounterNestsHideShow(t *testing.T) {
	var v visibilityCounter

	if !v.hide() {
		t.Fatal("first hide should request the OS-level hide")
	}
	if v.hide() {
		t.Fatal("nested hide should not re-issue the OS-level hide")
	}
	if v.show() {
		t.Fatal("first show of a nested pair should not yet issue the OS-level show")
	}
	if !v.show() {
		t.Fatal("matching final show should issue the OS-level show")
	}
}

func TestVisibilityCounterShowWithoutHideIsNoop(t *testing.T) {
	var v visibilityCounter
	if v.show() {
		t.Fatal("show without a prior hide should not underflow the counter")
	}
}
