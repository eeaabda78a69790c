package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
	m "mreval.dev/pkg/mreval/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "mreval"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."
	dotEnvFileName   = ".env"

	outputFlagName      = "output"
	verboseFlagName     = "verbose"
	runParallelFlagName = "parallel"
	runProfileFlagName  = "profile"
	runStagesFlagName   = "stages"

	runParallelConfigKey = "run.parallel"
	runProfileConfigKey  = "run.profile"
	subjectsConfigKey    = "subjects"
	toolsConfigKey       = "tools"
	profilesConfigKey    = "profiles"

	maxTestsKey        = "defaults.max_tests"
	randomSeedKey      = "defaults.random_seed"
	workersKey         = "defaults.workers"
	followupTimeoutKey = "defaults.followup_timeout"
	assertionsDirKey   = "defaults.assertions_dir"
	experimentsKey     = "defaults.experiments"

	defaultOutputDir       = "mreval-results"
	defaultRunParallel     = 0
	defaultMaxTests        = 0
	defaultRandomSeed      = 0
	defaultFollowupTimeout = time.Minute
	defaultAssertionsDir   = "assertions"
	defaultExperiments     = "*"

	envPrefix = "MREVAL"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".mreval.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	if err := godotenv.Load(filepath.Join(configFolderPath, dotEnvFileName)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputFlagName, defaultOutputDir)
	viper.SetDefault(runParallelConfigKey, defaultRunParallel)
	viper.SetDefault(runProfileConfigKey, "")
	viper.SetDefault(subjectsConfigKey, []m.Subject{})
	viper.SetDefault(toolsConfigKey, map[string][]string{})
	viper.SetDefault(profilesConfigKey, map[string]m.Overrides{})

	// Pipeline settings applied when no profile overrides them.
	viper.SetDefault(maxTestsKey, defaultMaxTests)
	viper.SetDefault(randomSeedKey, defaultRandomSeed)
	viper.SetDefault(workersKey, defaultRunParallel)
	viper.SetDefault(followupTimeoutKey, defaultFollowupTimeout)
	viper.SetDefault(assertionsDirKey, defaultAssertionsDir)
	viper.SetDefault(experimentsKey, defaultExperiments)

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return
		}

		slog.Warn("Failed to read config file", "path", configFileName, "error", err)
	}
}

// loadConfig decodes the viper state into a Config and validates it
// together with the settings of profile.
func loadConfig(profile string) (m.Config, error) {
	var config m.Config
	if err := viper.Unmarshal(&config); err != nil {
		slog.Error("Failed to decode config", "error", err)
		return m.Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := validate.Struct(config); err != nil {
		slog.Error("Failed to validate config", "error", err)
		return m.Config{}, fmt.Errorf("%w: %w", m.ErrInvalidConfig, err)
	}

	settings, err := config.Resolve(profile)
	if err != nil {
		return m.Config{}, err
	}

	if err := validate.Struct(settings); err != nil {
		slog.Error("Failed to validate profile settings", "profile", profile, "error", err)
		return m.Config{}, fmt.Errorf("%w: profile %q: %w", m.ErrInvalidConfig, profile, err)
	}

	return config, nil
}

// defaultConfig is the configuration written by init.
func defaultConfig() m.Config {
	return m.Config{
		Version: currentConfigVersion,
		Output:  defaultOutputDir,
		Subjects: []m.Subject{
			{Class: "Calculator", Source: "src/calculator.go"},
		},
		Defaults: m.Settings{
			MaxTests:        defaultMaxTests,
			RandomSeed:      defaultRandomSeed,
			Workers:         defaultRunParallel,
			FollowupTimeout: defaultFollowupTimeout,
			AssertionsDir:   defaultAssertionsDir,
			Experiments:     defaultExperiments,
		},
		Tools: m.Tools{
			m.ToolMutationEngine:     {"mutate", "--source", "{{.Source}}", "--out", "{{.OutDir}}"},
			m.ToolTestGenerator:      {"gen-inputs", "--unit", "{{.Unit}}", "--seed", "{{.Seed}}", "--out", "{{.OutDir}}"},
			m.ToolVariantBuilder:     {"build", "--variant", "{{.Variant}}", "--src", "{{.MutantDir}}", "--out", "{{.OutDir}}"},
			m.ToolStateExecutor:      {"exec-state", "--input", "{{.InputFile}}", "--work", "{{.WorkDir}}", "--out", "{{.OutFile}}"},
			m.ToolRelationSplitter:   {"split-mrs", "--assertions", "{{.AssertionsDir}}", "--out", "{{.OutDir}}"},
			m.ToolRelationTranslator: {"translate-mr", "--mr", "{{.MR}}", "--dir", "{{.RelationDir}}"},
			m.ToolFollowupGenerator:  {"gen-followups", "--mr", "{{.MR}}", "--inputs", "{{.InputsDir}}", "--out", "{{.OutDir}}"},
			m.ToolSuiteBuilder:       {"build-suite", "--followups", "{{.FollowupsDir}}", "--out", "{{.OutDir}}"},
			m.ToolBaselineRunner:     {"run-suite", "--suite", "{{.SuiteDir}}", "--out", "{{.OutDir}}"},
			m.ToolMutationRunner:     {"run-mutants", "--suite", "{{.SuiteDir}}", "--class", "{{.TestClass}}", "--out", "{{.OutDir}}"},
		},
	}
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

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
