package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/danielsheh02/willy-wonka-factory/internal/security"
	"github.com/danielsheh02/willy-wonka-factory/pkg/logger"
)

// AuthConfig 认证配置
type AuthConfig struct {
	Keys      *security.APIKeyManager
	SkipPaths []string // 跳过认证的路径前缀
}

// Auth API密钥认证中间件
func Auth(cfg *AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range cfg.SkipPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			apiKey := security.ExtractAPIKey(r)
			if apiKey == "" {
				unauthorized(w, "API密钥未提供")
				return
			}
			if _, err := cfg.Keys.Validate(apiKey); err != nil {
				logger.WithError(err).Str("path", r.URL.Path).Msg("API密钥验证失败")
				unauthorized(w, "无效的API密钥")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":true,"code":"UNAUTHORIZED","message":"%s"}`, message)
}
