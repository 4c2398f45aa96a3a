package log

import (
	"clipcast/internal/appdirs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"os"
)

var Logger *zap.Logger

const logFileName = "app.log"

var appDirsResolver = appdirs.Resolve

func InitLogger() {
	logDir, err := ResolveLogDir()
	if err != nil {
		panic("failed to resolve log directory: " + err.Error())
	}

	if err = os.MkdirAll(logDir, 0o755); err != nil {
		panic("failed to create log directory: " + err.Error())
	}

	logFilePath := filepath.Join(logDir, logFileName)
	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		panic("failed to open log file: " + err.Error())
	}

	fileSyncer := zapcore.AddSync(file)
	consoleSyncer := zapcore.AddSync(os.Stdout)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileSyncer, zap.DebugLevel),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), consoleSyncer, zap.InfoLevel),
	)

	Logger = zap.New(core, zap.AddCaller())
}

func ResolveLogDir() (string, error) {
	dirs, err := appDirsResolver()
	if err != nil {
		return "", err
	}

	logDir := strings.TrimSpace(dirs.LogDir)
	if logDir == "" {
		return ".", nil
	}

	return logDir, nil
}

func ResolveLogFilePath() (string, error) {
	logDir, err := ResolveLogDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(logDir, logFileName), nil
}

func GetLogger() *zap.Logger {
	return Logger
}
