package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
aliyun:
  api_key: "sk-from-file"
  model: "qwen-plus"
  task_models:
    job_match: "qwen-max"

tika:
  server_url: "http://localhost:9998"
  type: "tika"

mysql:
  host: "localhost"
  port: 3307
  username: "app"
  password: "secret"
  database: "job_agent"

server:
  address: ":9090"
  api_keys:
    - "key-1"
    - "key-2"

generator:
  qpm: 120
  max_retries: 5
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigYAML), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "sk-from-file", cfg.Aliyun.APIKey)
	assert.Equal(t, "http://localhost:9998", cfg.Tika.ServerURL)
	assert.Equal(t, 3307, cfg.MySQL.Port)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, []string{"key-1", "key-2"}, cfg.Server.APIKeys)
	assert.Equal(t, 120, cfg.Generator.QPM)
	assert.Equal(t, 5, cfg.Generator.MaxRetries)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t))
	require.NoError(t, err)

	// 文件中未出现的配置应该保留默认值
	assert.Equal(t, 10, cfg.MySQL.MaxIdleConns)
	assert.Equal(t, 60, cfg.Tika.TimeoutSeconds)
	assert.Equal(t, 60, cfg.Generator.InvokeTimeoutSeconds)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 2, cfg.RabbitMQ.AutoGenWorkers)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("ALIYUN_API_KEY", "sk-from-env")
	t.Setenv("MYSQL_PASSWORD", "env-secret")

	cfg, err := LoadConfig(writeTestConfig(t))
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.Aliyun.APIKey, "环境变量应该覆盖文件配置")
	assert.Equal(t, "env-secret", cfg.MySQL.Password)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGetModelForTask(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "qwen-max", cfg.GetModelForTask("job_match"), "任务专用模型优先")
	assert.Equal(t, "qwen-plus", cfg.GetModelForTask("generate_resume"), "未配置的任务回退到默认模型")
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, GetDuration("5s", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("not-a-duration", time.Minute))
}
