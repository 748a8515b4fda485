package memory

import (
	"testing"

	"github.com/gasless-labs/vault-server/pkg/custody/data/borrowing/tests"
)

func TestBorrowingMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunTests(t, testStore, teardown)
}
