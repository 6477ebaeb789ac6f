package core

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug        bool
		TestMode     bool
		Env          string
		Build        string
		AppName      string
		SecretKey    string
		RollbarToken string

		Server    ServerConfig
		Database  DatabaseConfig
		Redis     RedisConfig
		Paths     PathsConfig
		Superuser SuperuserConfig
	}

	ServerConfig struct {
		Host                   string
		Address                string
		DebugHost              string
		ShutdownTimeout        time.Duration
		DisableReqLogs         bool
		SessionCookie          string
		SessionExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Path          string // sqlite only
	}

	RedisConfig struct {
		URL string
	}

	// PathsConfig holds the URLs the access gate redirects to.
	PathsConfig struct {
		Login       string
		AdminHome   string
		StaffHome   string
		StudentHome string
	}

	SuperuserConfig struct {
		Email    string
		Password string
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, strconv.Itoa(dbc.Port))
}

// NewConfig loads the configuration of the current ENV (DEV by default) from
// config/.env.<env> (if present) and from <ENV>_ prefixed environment variables,
// e.g. DEV_DATABASE_ENGINE=sqlite.
func NewConfig() *Config {
	v := viper.New()

	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "SMS")
	v.SetDefault("secretKey", "f1z$_9!c2m7ct=j@7w#q+x0n(5h0r9v6a*3r)o8@b%4kd&e1yt")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.sessionCookie", "sessionid")
	v.SetDefault("server.sessionExpirationDelta", 14*24*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "sms")
	v.SetDefault("database.user", "sms")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", "sms.sqlite3")

	v.SetDefault("redis.url", "")

	v.SetDefault("paths.login", "/login/")
	v.SetDefault("paths.adminHome", "/admin_home/")
	v.SetDefault("paths.staffHome", "/staff_home/")
	v.SetDefault("paths.studentHome", "/student_home/")

	v.SetDefault("superuser.email", "ijtaba@ijtaba.com")
	v.SetDefault("superuser.password", "ijtaba")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	if root, err := ProjectRoot(); err == nil {
		dotEnvPath := filepath.Join(root, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	v.AutomaticEnv()

	// the superuser command reads unprefixed variables
	_ = v.BindEnv("superuser.email", "TEST_SUPERUSER_EMAIL")
	_ = v.BindEnv("superuser.password", "TEST_SUPERUSER_PASSWORD")
	_ = v.BindEnv("redis.url", env+"_REDIS_URL", "REDIS_URL")

	return &Config{
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                   v.GetString("server.host"),
			Address:                v.GetString("server.address"),
			DebugHost:              v.GetString("server.debugHost"),
			ShutdownTimeout:        v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:         v.GetBool("server.disableReqLogs"),
			SessionCookie:          v.GetString("server.sessionCookie"),
			SessionExpirationDelta: v.GetDuration("server.sessionExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        strings.ToLower(v.GetString("database.engine")),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			Path:          v.GetString("database.path"),
		},
		Redis: RedisConfig{
			URL: v.GetString("redis.url"),
		},
		Paths: PathsConfig{
			Login:       v.GetString("paths.login"),
			AdminHome:   v.GetString("paths.adminHome"),
			StaffHome:   v.GetString("paths.staffHome"),
			StudentHome: v.GetString("paths.studentHome"),
		},
		Superuser: SuperuserConfig{
			Email:    v.GetString("superuser.email"),
			Password: v.GetString("superuser.password"),
		},
	}
}

// ProjectRoot returns the nearest directory, from the working directory upwards, holding a go.mod.
// go test runs inside the package directory, so a plain os.Getwd() is not enough.
func ProjectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir, nil
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return "", fmt.Errorf("project root not found from %s", wd)
		}
		currDir = newDir
	}
}
