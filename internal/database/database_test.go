package database

import "testing"

func TestConnectRequiresURL(t *testing.T) {
	if _, err := Connect(""); err == nil {
		t.Error("expected an error for an empty database URL")
	}
}
