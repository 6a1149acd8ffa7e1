package session

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"

	"OpenEmployee/internal/employee"
	xerrors "OpenEmployee/internal/errors"
)

// applyPatch 按 JSON merge patch 语义合并字段：null 删除字段，对象递归合并，其余值整体替换。
// 未知字段会被拒绝。
func applyPatch(form employee.ConfigForm, patch map[string]any) (employee.ConfigForm, error) {
	raw, err := json.Marshal(form)
	if err != nil {
		return employee.ConfigForm{}, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "序列化当前配置失败")
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return employee.ConfigForm{}, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "解析当前配置失败")
	}
	merged, err := json.Marshal(mergePatch(doc, patch))
	if err != nil {
		return employee.ConfigForm{}, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "补丁包含无法序列化的值")
	}

	dec := json.NewDecoder(bytes.NewReader(merged))
	dec.DisallowUnknownFields()
	var out employee.ConfigForm
	if err := dec.Decode(&out); err != nil {
		return employee.ConfigForm{}, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "补丁字段不合法")
	}
	return out, nil
}

func mergePatch(target, patch map[string]any) map[string]any {
	if target == nil {
		target = make(map[string]any, len(patch))
	}
	for key, value := range patch {
		if value == nil {
			delete(target, key)
			continue
		}
		if nested, ok := value.(map[string]any); ok {
			existing, _ := target[key].(map[string]any)
			target[key] = mergePatch(existing, nested)
			continue
		}
		target[key] = value
	}
	return target
}

func patchKeys(patch map[string]any) []string {
	return slices.Sorted(maps.Keys(patch))
}
