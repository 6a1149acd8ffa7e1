package session

import (
	"strings"
	"time"

	"OpenEmployee/internal/employee"
)

// SortOrder 定义列表排序方式。
type SortOrder int

const (
	// SortByUpdatedDesc 按更新时间倒序（最新在前）。
	SortByUpdatedDesc SortOrder = iota
	// SortByUpdatedAsc 按更新时间正序。
	SortByUpdatedAsc
)

// ListOptions 控制查询注册表时的筛选条件。
type ListOptions struct {
	Limit        int
	Offset       int
	Statuses     []Status
	Modes        []employee.Mode
	UpdatedSince time.Time
	UpdatedUntil time.Time
	Order        SortOrder
	Query        string
}

func (opts *ListOptions) applyDefaults() {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if opts.Statuses != nil {
		opts.Statuses = normalizeStatuses(opts.Statuses)
	}
	if opts.Modes != nil {
		opts.Modes = normalizeModes(opts.Modes)
	}
	if opts.Order != SortByUpdatedAsc {
		opts.Order = SortByUpdatedDesc
	}
	opts.Query = strings.ToLower(strings.TrimSpace(opts.Query))
}

// ListOption 修改 ListOptions。
type ListOption func(*ListOptions)

// WithLimit 限制返回数量。
func WithLimit(limit int) ListOption {
	return func(opts *ListOptions) {
		opts.Limit = limit
	}
}

// WithOffset 跳过前 n 条匹配结果。
func WithOffset(offset int) ListOption {
	return func(opts *ListOptions) {
		opts.Offset = offset
	}
}

// WithStatuses 按状态筛选。
func WithStatuses(statuses ...Status) ListOption {
	return func(opts *ListOptions) {
		opts.Statuses = append(opts.Statuses[:0], statuses...)
	}
}

// WithModes 按生成模式筛选。
func WithModes(modes ...employee.Mode) ListOption {
	return func(opts *ListOptions) {
		opts.Modes = append(opts.Modes[:0], modes...)
	}
}

// WithUpdatedSince 只保留在该时刻及之后更新的会话。
func WithUpdatedSince(ts time.Time) ListOption {
	return func(opts *ListOptions) {
		opts.UpdatedSince = ts
	}
}

// WithUpdatedUntil 只保留在该时刻及之前更新的会话。
func WithUpdatedUntil(ts time.Time) ListOption {
	return func(opts *ListOptions) {
		opts.UpdatedUntil = ts
	}
}

// WithSortOrder 修改排序方式。
func WithSortOrder(order SortOrder) ListOption {
	return func(opts *ListOptions) {
		opts.Order = order
	}
}

// WithQuery 在输入文本与配置名称中做不区分大小写的匹配。
func WithQuery(query string) ListOption {
	return func(opts *ListOptions) {
		opts.Query = query
	}
}

// BuildListOptions 在默认值之上应用选项函数。
func BuildListOptions(opts ...ListOption) ListOptions {
	options := ListOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	options.applyDefaults()
	return options
}

func normalizeStatuses(input []Status) []Status {
	if len(input) == 0 {
		return nil
	}
	seen := make(map[Status]struct{}, len(input))
	result := make([]Status, 0, len(input))
	for _, status := range input {
		if !IsValidStatus(status) {
			continue
		}
		if _, ok := seen[status]; ok {
			continue
		}
		seen[status] = struct{}{}
		result = append(result, status)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func normalizeModes(input []employee.Mode) []employee.Mode {
	result := make([]employee.Mode, 0, len(input))
	for _, mode := range input {
		if mode.Valid() && !containsMode(result, mode) {
			result = append(result, mode)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func containsMode(modes []employee.Mode, mode employee.Mode) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}

func matchesListFilters(s *Session, opts ListOptions) bool {
	if len(opts.Statuses) > 0 {
		matched := false
		for _, status := range opts.Statuses {
			if s.Status == status {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if len(opts.Modes) > 0 && !containsMode(opts.Modes, s.Mode) {
		return false
	}
	if !opts.UpdatedSince.IsZero() && s.UpdatedAt.Before(opts.UpdatedSince) {
		return false
	}
	if !opts.UpdatedUntil.IsZero() && s.UpdatedAt.After(opts.UpdatedUntil) {
		return false
	}
	if opts.Query != "" {
		haystack := strings.ToLower(s.Input)
		if s.CurrentConfig != nil {
			haystack += "\n" + strings.ToLower(s.CurrentConfig.Name)
		}
		if !strings.Contains(haystack, opts.Query) {
			return false
		}
	}
	return true
}
