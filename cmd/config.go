// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"maxifier.safepic.fr/tsmap"
)

const (
	configBaseName   = "maxifier"
	configFolderPath = "."
	envPrefix        = "MAXIFIER"

	outDirKey        = "out_dir"
	verboseKey       = "verbose"
	eolKey           = "eol"
	beautifyKey      = "beautify"
	useSourceRootKey = "use_source_root"
	saveMapKey       = "save_map"
	manifestKey      = "manifest"

	userAgentKey = "http.user_agent"
	proxyKey     = "http.proxy"
	insecureKey  = "http.insecure"
	timeoutKey   = "http.timeout"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

// newConfig returns a viper instance with defaults, env binding and the
// maxifier.yaml search path. The file itself is read by readConfig once flags
// are parsed.
func newConfig() *viper.Viper {
	v := viper.New()
	v.SetConfigName(configBaseName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configFolderPath)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(outDirKey, tsmap.DefaultOutDir)
	v.SetDefault(verboseKey, false)
	v.SetDefault(eolKey, tsmap.EOLKeep)
	v.SetDefault(beautifyKey, false)
	v.SetDefault(useSourceRootKey, false)
	v.SetDefault(saveMapKey, false)
	v.SetDefault(manifestKey, "")

	v.SetDefault(userAgentKey, tsmap.DefaultUserAgent)
	v.SetDefault(proxyKey, "")
	v.SetDefault(insecureKey, false)
	v.SetDefault(timeoutKey, 0)

	v.SetDefault(logFilenameKey, "")
	v.SetDefault(logLevelKey, "warn")
	v.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	v.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	v.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	v.SetDefault(logCompressKey, defaultLogCompress)

	return v
}

// readConfig loads the config file. A missing maxifier.yaml is fine, a
// missing file named with --config is not.
func readConfig(v *viper.Viper, path string) error {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return &tsmap.UsageError{Msg: fmt.Sprintf("read config: %v", err)}
		}
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return &tsmap.UsageError{Msg: fmt.Sprintf("read config: %v", err)}
	}
	return nil
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(v *viper.Viper, flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(v.BindPFlag(key, flag))
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger installs the default slog logger. Diagnostics go to stderr,
// and also to a rotating file when log.filename is set. Verbose forces Debug.
func configureLogger(v *viper.Viper, stderr io.Writer) *slog.Logger {
	var level slog.Level
	if v.GetBool(verboseKey) {
		level = slog.LevelDebug
	} else {
		level = parseSlogLevel(v.GetString(logLevelKey), slog.LevelWarn)
	}

	w := stderr
	if logPath := strings.TrimSpace(v.GetString(logFilenameKey)); logPath != "" {
		w = io.MultiWriter(stderr, &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    v.GetInt(logMaxSizeKey),
			MaxBackups: v.GetInt(logMaxBackupsKey),
			MaxAge:     v.GetInt(logMaxAgeKey),
			Compress:   v.GetBool(logCompressKey),
		})
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// transformFromConfig and fetcherFromConfig turn config values into the
// tsmap options shared by the root and crawl commands.
func transformFromConfig(v *viper.Viper) (tsmap.Transform, error) {
	t, err := tsmap.NewTransform(v.GetBool(beautifyKey), v.GetString(eolKey))
	if err != nil {
		return tsmap.Transform{}, &tsmap.UsageError{Msg: err.Error()}
	}
	return t, nil
}

func fetcherFromConfig(v *viper.Viper) (tsmap.Fetcher, error) {
	f, err := tsmap.NewHTTPFetcher(tsmap.HTTPOptions{
		UserAgent: v.GetString(userAgentKey),
		Proxy:     v.GetString(proxyKey),
		Insecure:  v.GetBool(insecureKey),
		Timeout:   v.GetDuration(timeoutKey),
	})
	if err != nil {
		return nil, &tsmap.UsageError{Msg: err.Error()}
	}
	return f, nil
}
