package hvdclient

// deepCopyDetails returns an independent copy of a detail payload. Resource
// handles embedded by related-resource expansion are cloned so that callers
// can never reach the cached originals.
func deepCopyDetails(details map[string]interface{}) map[string]interface{} {
	if details == nil {
		return nil
	}

	copied := make(map[string]interface{}, len(details))
	for key, value := range details {
		copied[key] = deepCopyValue(value)
	}

	return copied
}

func deepCopyValue(value interface{}) interface{} {
	switch val := value.(type) {
	case map[string]interface{}:
		return deepCopyDetails(val)
	case []interface{}:
		copied := make([]interface{}, len(val))
		for i, item := range val {
			copied[i] = deepCopyValue(item)
		}

		return copied
	case *Resource:
		return val.clone()
	case *Operation:
		return val.clone()
	default:
		// scalars are immutable
		return val
	}
}
