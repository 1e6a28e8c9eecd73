package config

import (
	"bytes"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const ENV_PREFIX = "VAULT_"

// Config stores global configuration
type Config struct {
	// Is development mode on
	IsDevelopment bool

	// Maximum time the service will be closing before stop is forced.
	StopTimeout time.Duration

	// Logging level
	LogLevel string

	Vault    Vault
	Database Database
	Redis    Redis
	Store    Store
	Gateway  Gateway
	Profiler Profiler
	Auditor  Auditor
	Client   Client
}

func setDefaults() {
	viper.SetDefault("IsDevelopment", "false")
	viper.SetDefault("LogLevel", "DEBUG")
	viper.SetDefault("StopTimeout", "30s")

	setVaultDefaults()
	setDatabaseDefaults()
	setRedisDefaults()
	setStoreDefaults()
	setGatewayDefaults()
	setProfilerDefaults()
	setAuditorDefaults()
	setClientDefaults()
}

func Default() (config *Config) {
	config, _ = Load("")
	return
}

// Registers an env variable for every leaf field, e.g. Vault.APY -> VAULT_VAULT_APY
func BindEnv(path []string, val reflect.Value) {
	if val.Kind() != reflect.Struct {
		key := strings.ToLower(strings.Join(path, "."))
		env := ENV_PREFIX + strcase.ToScreamingSnake(strings.Join(path, "_"))
		err := viper.BindEnv(key, env)
		if err != nil {
			panic(err)
		}
		return
	}

	// Iterates over struct fields
	for i := 0; i < val.NumField(); i++ {
		newPath := make([]string, len(path))
		copy(newPath, path)
		newPath = append(newPath, val.Type().Field(i).Name)
		BindEnv(newPath, val.Field(i))
	}
}

func decodeHook() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
}

// Load configuration from file and env
func Load(filename string) (config *Config, err error) {
	viper.Reset()
	viper.SetConfigType("json")

	setDefaults()

	// Visits every field and registers upper snake case ENV name for it
	BindEnv([]string{}, reflect.ValueOf(Config{}))

	// Empty filename means we use default values
	if filename != "" {
		var content []byte
		/* #nosec */
		content, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}

		err = viper.ReadConfig(bytes.NewBuffer(content))
		if err != nil {
			return nil, err
		}
	}

	config = new(Config)
	err = viper.Unmarshal(&config, decodeHook())
	if err != nil {
		return nil, err
	}

	err = config.Vault.Validate()
	if err != nil {
		return nil, err
	}

	return
}
