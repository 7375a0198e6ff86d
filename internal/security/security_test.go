package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestAPIKey_IsValid(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)

	tests := []struct {
		name     string
		key      *APIKey
		expected bool
	}{
		{
			name:     "有效密钥",
			key:      &APIKey{Enabled: true},
			expected: true,
		},
		{
			name:     "禁用密钥",
			key:      &APIKey{Enabled: false},
			expected: false,
		},
		{
			name:     "未过期密钥",
			key:      &APIKey{Enabled: true, ExpiresAt: &future},
			expected: true,
		},
		{
			name:     "已过期密钥",
			key:      &APIKey{Enabled: true, ExpiresAt: &past},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.key.IsValid(); result != tt.expected {
				t.Errorf("IsValid() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestAPIKey_HasScope(t *testing.T) {
	key := &APIKey{
		Scopes: []string{ScopeExcursionsWrite, ScopeTicketsWrite},
	}

	if !key.HasScope(ScopeExcursionsWrite) {
		t.Error("应有参观团写权限")
	}
	if !key.HasScope(ScopeTicketsWrite) {
		t.Error("应有金券写权限")
	}
	if key.HasScope(ScopeWorkshopsWrite) {
		t.Error("不应有车间写权限")
	}

	// 测试通配符
	admin := &APIKey{Scopes: []string{ScopeAll}}
	if !admin.HasScope("anything") {
		t.Error("通配符应匹配任何权限")
	}
}

func TestAPIKeyManager_GenerateKey(t *testing.T) {
	manager := NewAPIKeyManager()

	key, err := manager.GenerateKey("前台终端", []string{ScopeTicketsWrite}, nil)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	if key.Key == "" {
		t.Error("Key should not be empty")
	}
	if !strings.HasPrefix(key.Key, "wk_") {
		t.Errorf("Expected wk_ prefix, got %s", key.Key)
	}
	if key.Name != "前台终端" {
		t.Errorf("Expected Name='前台终端', got %s", key.Name)
	}
	if !key.Enabled {
		t.Error("New key should be enabled")
	}
}

func TestAPIKeyManager_Validate(t *testing.T) {
	manager := NewAPIKeyManager()

	key, _ := manager.GenerateKey("测试", []string{ScopeReportsRead}, nil)

	// 验证有效密钥
	validKey, err := manager.Validate(key.Key)
	if err != nil {
		t.Errorf("Validate failed: %v", err)
	}
	if validKey.Key != key.Key {
		t.Error("Got wrong key")
	}

	// 验证无效密钥
	_, err = manager.Validate("invalid_key")
	if err != ErrInvalidAPIKey {
		t.Errorf("Expected ErrInvalidAPIKey, got: %v", err)
	}
}

func TestAPIKeyManager_Register(t *testing.T) {
	manager := NewAPIKeyManager()
	manager.Register("wk_preset", "预置密钥", []string{ScopeAll})

	key, err := manager.Validate("wk_preset")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !key.HasScope(ScopeExcursionsWrite) {
		t.Error("Preset key with wildcard should match any scope")
	}
}

func TestAPIKeyManager_Revoke(t *testing.T) {
	manager := NewAPIKeyManager()

	key, _ := manager.GenerateKey("测试", []string{ScopeTicketsWrite}, nil)
	manager.Revoke(key.Key)

	_, err := manager.Validate(key.Key)
	if err != ErrExpiredAPIKey {
		t.Errorf("Expected ErrExpiredAPIKey after revoke, got: %v", err)
	}
}

func TestAPIKeyManager_Delete(t *testing.T) {
	manager := NewAPIKeyManager()

	key, _ := manager.GenerateKey("测试", []string{ScopeTicketsWrite}, nil)
	manager.Delete(key.Key)

	_, err := manager.Validate(key.Key)
	if err != ErrInvalidAPIKey {
		t.Errorf("Expected ErrInvalidAPIKey after delete, got: %v", err)
	}
}

func TestAPIKeyManager_Expiry(t *testing.T) {
	manager := NewAPIKeyManager()

	expiresIn := -time.Hour
	key, _ := manager.GenerateKey("过期密钥", []string{ScopeTicketsWrite}, &expiresIn)

	_, err := manager.Validate(key.Key)
	if err != ErrExpiredAPIKey {
		t.Errorf("Expected ErrExpiredAPIKey, got: %v", err)
	}
}

func TestExtractAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		expected string
	}{
		{
			name: "从Bearer提取",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer test_key")
			},
			expected: "test_key",
		},
		{
			name: "从X-API-Key提取",
			setup: func(r *http.Request) {
				r.Header.Set("X-API-Key", "api_key_123")
			},
			expected: "api_key_123",
		},
		{
			name: "从query参数提取",
			setup: func(r *http.Request) {
				q := r.URL.Query()
				q.Set("api_key", "query_key")
				r.URL.RawQuery = q.Encode()
			},
			expected: "query_key",
		},
		{
			name:     "无密钥",
			setup:    func(r *http.Request) {},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			tt.setup(req)

			result := ExtractAPIKey(req)
			if result != tt.expected {
				t.Errorf("ExtractAPIKey() = %v, expected %v", result, tt.expected)
			}
		})
	}
}
