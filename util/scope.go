package util

import "github.com/gin-gonic/gin"

// SetScope sets scope to the context with a key/value.
func SetScope(c *gin.Context, key string, value interface{}) {
	scopeValue, exists := c.Get("scopes")
	if !exists {
		// Initializes scope with the key and value.
		c.Set("scopes", map[string]interface{}{key: value})
		return
	}

	scopeValue.(map[string]interface{})[key] = value
}

// GetScopeByKey gets specific scope by key from scopes.
func GetScopeByKey(c *gin.Context, key string) interface{} {
	scopeValue, exists := c.Get("scopes")
	if exists {
		return scopeValue.(map[string]interface{})[key]
	}
	return nil
}

// GetScopeByKeyAsUint64 gets scope by key and value of type uint64.
func GetScopeByKeyAsUint64(c *gin.Context, key string) uint64 {
	intrfce := GetScopeByKey(c, key)
	if intrfce == nil {
		return 0
	}
	return intrfce.(uint64)
}

func GetScopeByKeyAsString(c *gin.Context, key string) string {
	iface := GetScopeByKey(c, key)
	if iface == nil {
		return ""
	}
	return iface.(string)
}

func GetScopeByKeyAsBool(c *gin.Context, key string) bool {
	iface := GetScopeByKey(c, key)
	if iface == nil {
		return false
	}
	return iface.(bool)
}
