package memory

import (
	"testing"

	"github.com/gasless-labs/vault-server/pkg/custody/data/deposit/tests"
)

func TestDepositMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunTests(t, testStore, teardown)
}
