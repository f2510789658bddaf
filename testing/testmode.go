// Package testing switches binaries into test mode. Import it for side
// effects from tests that start commands or load config.
package testing

import (
	"os"
	"sync"

	"github.com/bigcity/rewardstrategy/internal/app"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv(app.TestModeEnv, "1")
		if os.Getenv("WEBHOOK_URL") == "" {
			_ = os.Setenv("WEBHOOK_URL", "http://127.0.0.1:0/webhook")
		}
	})
}

func init() {
	ensureTestMode()
}
