package common

import "testing"

func TestHasAny(t *testing.T) {
	if !HasAny("Free WLAN available", "wlan", "wifi") {
		t.Error("expected case-insensitive substring match")
	}
	if HasAny("no network here", "wlan", "wifi") {
		t.Error("expected no match")
	}
	if HasAny("anything", "") == false {
		t.Error("empty substring matches everything")
	}
}

func TestEqualsAny(t *testing.T) {
	if !EqualsAny("yes", "yes", "wlan") {
		t.Error("expected exact match")
	}
	if EqualsAny("Yes", "yes") {
		t.Error("EqualsAny is case-sensitive")
	}
}
