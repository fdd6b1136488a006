package memo

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/on-the-ground/memo_ive_go/configkeys"
	"github.com/on-the-ground/memo_ive_go/log"
	"github.com/on-the-ground/memo_ive_go/shared/helper"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

var errNoSuchKey = errors.New("no such key")

// LoadConfig reads a cache config from a YAML file. Keys are the dotted paths
// of package configkeys:
//
//	memo:
//	  policy: lru
//	  capacity: 1024
//	fib:
//	  memo:
//	    capacity: 64
//
// With a namespace, "<namespace>.<key>" takes precedence over "<key>", so the
// "fib" namespace above reads an lru cache of 64 entries. Missing keys keep
// their zero value.
func LoadConfig(path, namespace string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := ParseConfig(raw, namespace)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig is LoadConfig for YAML already in memory.
func ParseConfig(raw []byte, namespace string) (Config, error) {
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return Config{}, fmt.Errorf("%w: parse yaml: %w", ErrInvalidConfig, err)
	}
	f := fileConfig{namespace: namespace, data: data}

	var (
		cfg  Config
		errs error
	)
	set := func(key string, err error) {
		if err != nil && !errors.Is(err, errNoSuchKey) {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}

	var policy, level string
	set(configkeys.ConfigName, f.getString(configkeys.ConfigName, &cfg.Name))
	set(configkeys.ConfigPolicy, f.getString(configkeys.ConfigPolicy, &policy))
	set(configkeys.ConfigCapacity, f.getInt(configkeys.ConfigCapacity, &cfg.Capacity))
	set(configkeys.ConfigTTL, f.getDuration(configkeys.ConfigTTL, &cfg.TTL))
	set(configkeys.ConfigCleanupInterval, f.getDuration(configkeys.ConfigCleanupInterval, &cfg.CleanupInterval))
	set(configkeys.ConfigShards, f.getInt(configkeys.ConfigShards, &cfg.Shards))
	set(configkeys.ConfigVerify, f.getBool(configkeys.ConfigVerify, &cfg.Verify))
	set(configkeys.ConfigWarmNumWorkers, f.getInt(configkeys.ConfigWarmNumWorkers, &cfg.WarmNumWorkers))
	set(configkeys.ConfigWarmBufferSize, f.getInt(configkeys.ConfigWarmBufferSize, &cfg.WarmBufferSize))
	set(configkeys.ConfigLogLevel, f.getString(configkeys.ConfigLogLevel, &level))
	cfg.Policy = Policy(policy)
	cfg.LogLevel = log.LogLevel(level)

	if errs != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, errs)
	}
	return cfg, nil
}

type fileConfig struct {
	namespace string
	data      map[string]any
}

// get walks the dotted key path, trying the namespaced path first.
func (f fileConfig) get(key string) (any, error) {
	candidates := []string{key}
	if f.namespace != "" {
		candidates = []string{f.namespace + "." + key, key}
	}

	for _, candidate := range candidates {
		var current any = f.data
		found := true
		for _, part := range strings.Split(candidate, ".") {
			m, ok := current.(map[string]any)
			if !ok {
				found = false
				break
			}
			if current, ok = m[part]; !ok {
				found = false
				break
			}
		}
		if found {
			return current, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", errNoSuchKey, candidates)
}

func (f fileConfig) getString(key string, dst *string) error {
	v, err := helper.GetTypedValueOf[string](func() (any, error) { return f.get(key) })
	if err == nil {
		*dst = v
	}
	return err
}

func (f fileConfig) getBool(key string, dst *bool) error {
	v, err := helper.GetTypedValueOf[bool](func() (any, error) { return f.get(key) })
	if err == nil {
		*dst = v
	}
	return err
}

// getInt accepts YAML integers only.
func (f fileConfig) getInt(key string, dst *int) error {
	v, err := helper.GetTypedValueOf[int](func() (any, error) { return f.get(key) })
	if err == nil {
		*dst = v
	}
	return err
}

// getDuration accepts time.ParseDuration strings such as "90s" or "1h30m".
func (f fileConfig) getDuration(key string, dst *time.Duration) error {
	var s string
	if err := f.getString(key, &s); err != nil {
		return err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
