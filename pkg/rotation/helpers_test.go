package rotation

import "github.com/opsloom/credrotate/internal/logging"

func testLogger() *logging.Logger {
	return logging.New(false, true)
}
