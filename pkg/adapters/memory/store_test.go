package memory_test

import (
	"testing"

	"github.com/aretw0/gantry/pkg/adapters/memory"
	"github.com/aretw0/gantry/pkg/ports/tests"
)

func TestMemoryStore_Contract(t *testing.T) {
	tests.RunArtifactStoreContract(t, memory.NewStore())
}
