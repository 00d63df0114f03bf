package payload

// RequiresFormDataUpload reports whether v is a file or contains one at any
// depth. Such payloads must be sent as multipart/form-data; everything else
// can go out as JSON.
func RequiresFormDataUpload(v Value) bool {
	switch v.kind {
	case KindFile:
		return true
	case KindArray:
		for _, item := range v.items {
			if RequiresFormDataUpload(item) {
				return true
			}
		}
		return false
	case KindObject:
		return v.fields.RequiresFormDataUpload()
	case KindNull, KindBool, KindNumber, KindString:
		return false
	default:
		return false
	}
}

// RequiresFormDataUpload reports whether any field holds a file.
func (f Fields) RequiresFormDataUpload() bool {
	for _, field := range f {
		if RequiresFormDataUpload(field.Value) {
			return true
		}
	}
	return false
}
