package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/lumberjack.v3"
)

var once sync.Once
var appLogger *zap.Logger
var arbitrageLogger *zap.Logger
var stateLogger *zap.Logger

type Config struct {
	Filename   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// Get returns the main application logger
func Get() *zap.Logger {
	once.Do(initLoggers)
	return appLogger
}

// GetArbitrageLogger returns the logger that records every reported opportunity
func GetArbitrageLogger() *zap.Logger {
	once.Do(initLoggers)
	return arbitrageLogger
}

// GetStateLogger returns the internal state logger
func GetStateLogger() *zap.Logger {
	once.Do(initLoggers)
	return stateLogger
}

func newLogger(config Config, useConsole bool) (*zap.Logger, error) {
	opts := []lumberjack.LoggerOption{
		lumberjack.WithFileName(config.Filename),
		lumberjack.WithMaxBytes(int64(config.MaxSize * 1024 * 1024)),
		lumberjack.WithMaxBackups(config.MaxBackups),
		lumberjack.WithMaxDays(config.MaxAge),
	}
	if config.Compress {
		opts = append(opts, lumberjack.WithCompress())
	}
	fileHandler, err := lumberjack.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create file handler: %w", err)
	}

	level := zap.InfoLevel
	if levelEnv := os.Getenv("LOG_LEVEL"); levelEnv != "" {
		if parsedLevel, err := zapcore.ParseLevel(levelEnv); err == nil {
			level = parsedLevel
		}
	}
	logLevel := zap.NewAtomicLevelAt(level)

	productionCfg := zap.NewProductionEncoderConfig()
	productionCfg.TimeKey = "timestamp"
	productionCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	developmentCfg := zap.NewDevelopmentEncoderConfig()
	developmentCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(developmentCfg)
	fileEncoder := zapcore.NewJSONEncoder(productionCfg)

	var cores []zapcore.Core
	if useConsole {
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), logLevel))
	}
	cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(fileHandler), logLevel))

	return zap.New(zapcore.NewTee(cores...)), nil
}

func initLoggers() {
	// LOG_DIR=off keeps everything on the console. Test binaries default to it.
	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
		if strings.HasSuffix(os.Args[0], ".test") {
			logDir = "off"
		}
	}
	if logDir == "off" {
		appLogger = zap.Must(zap.NewDevelopment())
		arbitrageLogger = zap.NewNop()
		stateLogger = zap.NewNop()
		return
	}

	appConfig := Config{
		Filename:   filepath.Join(logDir, "app.log"),
		MaxSize:    5,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	arbitrageConfig := Config{
		Filename:   filepath.Join(logDir, "arbitrage.log"),
		MaxSize:    5,
		MaxBackups: 10,
		MaxAge:     30,
		Compress:   true,
	}

	stateConfig := Config{
		Filename:   filepath.Join(logDir, "internal_state.log"),
		MaxSize:    5,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var err error
	appLogger, err = newLogger(appConfig, true) // with console output
	if err != nil {
		log.Fatalf("failed to create app logger: %v", err)
	}

	arbitrageLogger, err = newLogger(arbitrageConfig, false)
	if err != nil {
		log.Fatalf("failed to create arbitrage logger: %v", err)
	}

	stateLogger, err = newLogger(stateConfig, false) // without console output
	if err != nil {
		log.Fatalf("failed to create state logger: %v", err)
	}
}
