package valid

import (
	"time"

	"github.com/google/uuid"

	"github.com/syssam/minorm/schema"
)

type Base struct {
	CreatedAt time.Time
}

// Item is stored in the items table.
//
//minorm:shape
type Item struct {
	Base
	ID     schema.Key `minorm:"id"`
	Name   string     `minorm:",unique,maxlen=32"`
	Score  int        `minorm:",default=5"`
	Nick   *string
	Tags   []string `minorm:",packed"`
	Flags  map[string]struct{}
	Attrs  map[string]int
	Owner  uuid.UUID
	Data   []byte
	Skip   string `minorm:"-"`
	secret string
}

type (
	// Person overrides its table name.
	//
	//minorm:shape table=people
	Person struct {
		Key  schema.IntKey `minorm:"id"`
		Name string
		Home *Address
	}

	Address struct {
		City string
	}
)

// NotAShape has no directive.
type NotAShape struct {
	A int
}
