package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Configuration 以点分路径访问的层级配置，承载数据源参数与插件级设置
type Configuration interface {
	Set(path string, value interface{})
	Get(path string) interface{}

	GetString(path string) string
	GetStringWithDefault(path, defaultValue string) string
	GetInt(path string) int
	GetIntWithDefault(path string, defaultValue int) int
	GetBool(path string) bool
	GetBoolWithDefault(path string, defaultValue bool) bool
	GetDuration(path string, defaultValue time.Duration) time.Duration

	GetStringList(path string) []string
	GetStringMap(path string) map[string]string
	GetMap(path string) map[string]interface{}
	GetConfiguration(path string) Configuration

	Keys() []string
	ToJSON() (string, error)
	Clone() Configuration
	IsExists(path string) bool
}

// DefaultConfiguration 基于嵌套 map 的配置实现
type DefaultConfiguration struct {
	data map[string]interface{}
}

func NewConfiguration() Configuration {
	return &DefaultConfiguration{data: make(map[string]interface{})}
}

func NewConfigurationFromMap(data map[string]interface{}) Configuration {
	if data == nil {
		data = make(map[string]interface{})
	}
	return &DefaultConfiguration{data: data}
}

func FromJSON(jsonStr string) (Configuration, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	return NewConfigurationFromMap(data), nil
}

func FromFile(filename string) (Configuration, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read configuration %s: %w", filename, err)
	}
	return FromJSON(string(content))
}

func (c *DefaultConfiguration) Set(path string, value interface{}) {
	keys := strings.Split(path, ".")
	current := c.data

	for _, key := range keys[:len(keys)-1] {
		next, ok := current[key].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[key] = next
		}
		current = next
	}
	current[keys[len(keys)-1]] = value
}

func (c *DefaultConfiguration) Get(path string) interface{} {
	if path == "" {
		return c.data
	}

	var current interface{} = c.data
	for _, key := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current, ok = m[key]
		if !ok {
			return nil
		}
	}
	return current
}

func (c *DefaultConfiguration) GetString(path string) string {
	switch v := c.Get(path).(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (c *DefaultConfiguration) GetStringWithDefault(path, defaultValue string) string {
	if value := c.GetString(path); value != "" {
		return value
	}
	return defaultValue
}

func (c *DefaultConfiguration) GetInt(path string) int {
	return c.GetIntWithDefault(path, 0)
}

func (c *DefaultConfiguration) GetIntWithDefault(path string, defaultValue int) int {
	switch v := c.Get(path).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return defaultValue
}

func (c *DefaultConfiguration) GetBool(path string) bool {
	return c.GetBoolWithDefault(path, false)
}

func (c *DefaultConfiguration) GetBoolWithDefault(path string, defaultValue bool) bool {
	switch v := c.Get(path).(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetDuration 支持 "30s" 形式的字符串，纯数字按毫秒处理
func (c *DefaultConfiguration) GetDuration(path string, defaultValue time.Duration) time.Duration {
	switch v := c.Get(path).(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	case float64:
		return time.Duration(v) * time.Millisecond
	case int:
		return time.Duration(v) * time.Millisecond
	case int64:
		return time.Duration(v) * time.Millisecond
	}
	return defaultValue
}

// GetStringList 同时接受 JSON 数组与逗号分隔的字符串
func (c *DefaultConfiguration) GetStringList(path string) []string {
	switch v := c.Get(path).(type) {
	case []interface{}:
		result := make([]string, 0, len(v))
		for _, item := range v {
			result = append(result, fmt.Sprintf("%v", item))
		}
		return result
	case []string:
		return append([]string(nil), v...)
	case string:
		if v == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return nil
}

func (c *DefaultConfiguration) GetStringMap(path string) map[string]string {
	m := c.GetMap(path)
	if m == nil {
		return nil
	}
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = fmt.Sprintf("%v", v)
	}
	return result
}

func (c *DefaultConfiguration) GetMap(path string) map[string]interface{} {
	if m, ok := c.Get(path).(map[string]interface{}); ok {
		return m
	}
	return nil
}

// GetConfiguration 返回子树视图，与父配置共享底层数据；需要隔离时调用 Clone
func (c *DefaultConfiguration) GetConfiguration(path string) Configuration {
	if m := c.GetMap(path); m != nil {
		return NewConfigurationFromMap(m)
	}
	return NewConfiguration()
}

func (c *DefaultConfiguration) Keys() []string {
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *DefaultConfiguration) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (c *DefaultConfiguration) Clone() Configuration {
	return NewConfigurationFromMap(deepCopy(c.data).(map[string]interface{}))
}

func (c *DefaultConfiguration) IsExists(path string) bool {
	return c.Get(path) != nil
}

func deepCopy(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[k] = deepCopy(val)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, val := range t {
			s[i] = deepCopy(val)
		}
		return s
	default:
		return v
	}
}
