package message

import (
	"encoding/json"
	"fmt"
)

// ParseInbound decodes a raw inbound payload. ok is false when the payload is
// not JSON or does not carry the selection-mode type tag; such messages must
// be ignored without any state change.
func ParseInbound(data []byte) (cmd SetSelectionMode, ok bool) {
	if err := json.Unmarshal(data, &cmd); err != nil {
		return SetSelectionMode{}, false
	}
	if cmd.Type != TypeSetSelectionMode {
		return SetSelectionMode{}, false
	}
	return cmd, true
}

// MarshalSelection serialises a Selection, forcing the type tag.
func MarshalSelection(s *Selection) ([]byte, error) {
	s.Type = TypeElementSelected
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("message: marshal selection: %w", err)
	}
	return data, nil
}

// UnmarshalSelection decodes an outbound selection message.
func UnmarshalSelection(data []byte) (*Selection, error) {
	var s Selection
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Type != TypeElementSelected {
		return nil, fmt.Errorf("message: unexpected type %q", s.Type)
	}
	return &s, nil
}
