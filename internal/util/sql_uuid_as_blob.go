package util

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// UUIDAsBlob is stored as blob(16) but used as a uuid.UUID
type UUIDAsBlob uuid.UUID

func NewUUIDAsBlob() UUIDAsBlob {
	return UUIDAsBlob(uuid.New())
}

func (t UUIDAsBlob) Value() (driver.Value, error) {
	buf := [16]byte(t)
	return driver.Value(buf[:]), nil
}

func (t UUIDAsBlob) UUID() uuid.UUID {
	return uuid.UUID(t)
}

func (t UUIDAsBlob) String() string {
	return t.UUID().String()
}

func (t UUIDAsBlob) IsZero() bool {
	return [16]byte(t) == [16]byte{}
}

func (t *UUIDAsBlob) Scan(src interface{}) error {
	slice, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("expected []byte, got %T", src)
	}

	if len(slice) != 16 {
		return fmt.Errorf("expected 16 bytes, got %d", len(slice))
	}

	var buf [16]byte
	copy(buf[:], slice)
	*t = UUIDAsBlob(buf)

	return nil
}

func (t UUIDAsBlob) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return json.Marshal(nil)
	}

	return json.Marshal(t.UUID())
}
