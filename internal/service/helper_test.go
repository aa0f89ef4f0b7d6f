package service_test

import "taskhub/internal/logger"

func initTestLogger() {
	if logger.Logger == nil {
		logger.Init(true)
	}
}
