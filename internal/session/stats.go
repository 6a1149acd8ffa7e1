package session

import (
	"time"

	"OpenEmployee/internal/employee"
)

// Stats 聚合会话状态统计，常用于仪表盘或健康检查。
type Stats struct {
	Total           int                   `json:"total"`
	Busy            int                   `json:"busy"`
	ByStatus        map[Status]int        `json:"by_status"`
	ByMode          map[employee.Mode]int `json:"by_mode"`
	OldestUpdatedAt time.Time             `json:"oldest_updated_at,omitzero"`
	NewestUpdatedAt time.Time             `json:"newest_updated_at,omitzero"`
}
