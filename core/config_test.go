package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_defaults(t *testing.T) {
	t.Setenv("ENV", "test")

	conf := NewConfig()
	assert.Equal(t, "TEST", conf.Env)
	assert.True(t, conf.TestMode)
	assert.Equal(t, "sessionid", conf.Server.SessionCookie)
	assert.Equal(t, 14*24*time.Hour, conf.Server.SessionExpirationDelta)
	assert.Equal(t, 5*time.Second, conf.Server.ShutdownTimeout)
	assert.Equal(t, PathsConfig{
		Login:       "/login/",
		AdminHome:   "/admin_home/",
		StaffHome:   "/staff_home/",
		StudentHome: "/student_home/",
	}, conf.Paths)
	assert.Equal(t, "localhost:5432", conf.Database.Address())
}

func TestNewConfig_env(t *testing.T) {
	t.Setenv("ENV", "QA")
	t.Setenv("QA_DEBUG", "false")
	t.Setenv("QA_DATABASE_ENGINE", "SQLite")
	t.Setenv("QA_DATABASE_PATH", "/tmp/sms.db")
	t.Setenv("QA_SERVER_SESSIONEXPIRATIONDELTA", "2h")
	t.Setenv("QA_PATHS_LOGIN", "/accounts/login/")
	t.Setenv("TEST_SUPERUSER_EMAIL", "root@nu.edu.pk")
	t.Setenv("TEST_SUPERUSER_PASSWORD", "toor")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")

	conf := NewConfig()
	assert.Equal(t, "QA", conf.Env)
	assert.False(t, conf.Debug)
	assert.False(t, conf.TestMode)
	assert.Equal(t, "sqlite", conf.Database.Engine)
	assert.Equal(t, "/tmp/sms.db", conf.Database.Path)
	assert.Equal(t, 2*time.Hour, conf.Server.SessionExpirationDelta)
	assert.Equal(t, "/accounts/login/", conf.Paths.Login)
	assert.Equal(t, "/admin_home/", conf.Paths.AdminHome)
	assert.Equal(t, SuperuserConfig{Email: "root@nu.edu.pk", Password: "toor"}, conf.Superuser)
	assert.Equal(t, "redis://localhost:6379/1", conf.Redis.URL)
}

func TestProjectRoot(t *testing.T) {
	root, err := ProjectRoot()
	if assert.NoError(t, err) {
		assert.FileExists(t, root+"/go.mod")
	}
}
