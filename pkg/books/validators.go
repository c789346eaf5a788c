package books

import (
	"bytes"
	"strconv"
)

type ListBooksQuery struct {
	Price    *string `query:"price"`
	Search   *string `query:"search" validate:"omitempty,max=255"`
	Ordering *string `query:"ordering" validate:"omitempty,oneof=author_name -author_name price -price"`
}

// DecimalString holds a decimal sent either as a JSON string ("10.99") or a
// JSON number (10.99). The text is kept as sent and parsed later so that the
// error names the field.
type DecimalString string

func (d *DecimalString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*d = DecimalString(s)
		return nil
	}
	*d = DecimalString(data)
	return nil
}

type BookPayload struct {
	Name       string        `json:"name" mod:"trim" validate:"required,max=255"`
	Price      DecimalString `json:"price" mod:"trim" validate:"required"`
	AuthorName string        `json:"author_name" mod:"trim" validate:"max=255"`
}
