package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New construit le logger zap: JSON en "production", console colorée sinon.
// Les logs vont toujours sur stderr, stdout pouvant porter le CSV ("-").
func New(environment string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.CallerKey = "caller"
	cfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	return cfg.Build(zap.AddCaller())
}
