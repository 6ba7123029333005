package cache

import (
	"github.com/umakantv/go-utils/cache"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// InitializeCache creates the in-process cache used for ephemeral sessions
func InitializeCache() (cache.Cache, error) {
	c, err := cache.New(cache.Config{
		Type: "memory",
	})
	if err != nil {
		logger.Error("Failed to initialize cache:", zap.Error(err))
		return nil, err
	}
	return c, nil
}
