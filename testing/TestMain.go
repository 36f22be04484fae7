// Package testing flips the binaries into test mode. Test packages that
// exercise cmd/ or app wiring import it for its side effect.
package testing

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		_ = os.Setenv("AGRODASH_TEST_MODE", "1")
		if os.Getenv("IDENTITY_PROVIDER") == "" {
			_ = os.Setenv("IDENTITY_PROVIDER", "local")
		}
		if os.Getenv("LOCAL_TOKEN_SECRET") == "" {
			_ = os.Setenv("LOCAL_TOKEN_SECRET", "test-secret")
		}
	})
}
