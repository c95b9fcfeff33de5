package env

import (
	"context"
	"os"
	"strings"

	"github.com/code-payments/code-timelock/pkg/config"
)

type conf struct {
	val string
}

// NewConfig returns a config.Config backed by the upper-cased environment
// variable key. The value is read once.
func NewConfig(key string) config.Config {
	return &conf{
		val: os.Getenv(strings.ToUpper(key)),
	}
}

// Get implements Config.Get
func (c *conf) Get(ctx context.Context) (interface{}, error) {
	if len(c.val) == 0 {
		return nil, config.ErrNoValue
	}

	return []byte(c.val), nil
}

// Shutdown implements Config.Shutdown
func (c *conf) Shutdown() {
}
