package handler

import (
	"roomchat/internal/app/chat"
	"roomchat/internal/configs"
	"roomchat/internal/pkg/limiter"
)

// AppDeps carries the shared services the HTTP handlers need.
type AppDeps struct {
	Manager *chat.Manager
	Config  *configs.AppConfig

	// ConnLimiter is the per-IP connect limiter shared with the TCP listener. Nil disables it.
	ConnLimiter *limiter.IPRateLimiter
}
