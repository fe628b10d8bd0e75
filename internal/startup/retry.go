package startup

import (
	"os"
	"time"

	"github.com/eduhub/internal/logger"
)

const maxBackoff = 30 * time.Second

// retry вызывает attempt, пока тот не вернёт nil или не истечёт maxWait.
// По истечении процесс завершается: без хранилища API не имеет смысла.
func retry(what string, maxWait time.Duration, logPrefix string, attempt func() error) {
	deadline := time.Now().Add(maxWait)
	backoff := 2 * time.Second
	for {
		err := attempt()
		if err == nil {
			return
		}
		if time.Now().After(deadline) {
			logger.Errorf("%s%s (gave up after %v): %v", logPrefix, what, maxWait, err)
			os.Exit(1)
		}
		logger.Errorf("%s%s failed, retry in %v: %v", logPrefix, what, backoff, err)
		time.Sleep(backoff)
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}
