package gateway

// DeepCopy returns a copy of a decoded JSON value that shares no maps or
// slices with the original.
func DeepCopy(value any) any {
	switch v := value.(type) {
	case map[string]any:
		copied := make(map[string]any, len(v))
		for key, item := range v {
			copied[key] = DeepCopy(item)
		}
		return copied
	case []any:
		copied := make([]any, len(v))
		for i, item := range v {
			copied[i] = DeepCopy(item)
		}
		return copied
	default:
		return v
	}
}

// DeepCopyMap is DeepCopy for payload maps. A nil map yields an empty map.
func DeepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return DeepCopy(m).(map[string]any)
}
