package relations

import (
	"bytes"

	"github.com/bookstore-app/store/pkg/errcodes"
	"github.com/segmentio/encoding/json"
)

// OptionalInt tells an absent field apart from an explicit null. Set is true
// whenever the key was present; Value is nil for null.
type OptionalInt struct {
	Set   bool
	Value *int
}

func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return errcodes.ValidationTypeError("value should be of type int or null")
	}
	o.Value = &v
	return nil
}

// RelationPayload is a partial update. Absent fields are left unchanged; a
// null rate clears the rating.
type RelationPayload struct {
	Like        *bool       `json:"like"`
	InBookmarks *bool       `json:"in_bookmarks"`
	Rate        OptionalInt `json:"rate"`
}
