package env

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/code-timelock/pkg/config"
)

func TestConfigDoesntExist(t *testing.T) {
	const env = "ENV_CONFIG_TEST_VAR"
	t.Setenv(env, "default")

	v, err := NewConfig(env).Get(context.Background())
	assert.Equal(t, []byte("default"), v)
	assert.Nil(t, err)

	t.Setenv(env, "")

	v, err = NewConfig(env).Get(context.Background())
	assert.Nil(t, v)
	assert.Equal(t, config.ErrNoValue, err)
}

func TestKeyIsUpperCased(t *testing.T) {
	t.Setenv("TIMELOCK_VAULT_ENV_TEST", "90s")

	v, err := NewConfig("timelock_vault_env_test").Get(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []byte("90s"), v)
}
