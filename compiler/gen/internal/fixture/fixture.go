// Package fixture holds records whose codecs are generated by minorm gen.
package fixture

import (
	"time"

	"github.com/google/uuid"

	"github.com/syssam/minorm/schema"
)

//go:generate go run github.com/syssam/minorm/cmd/minorm gen

type Base struct {
	CreatedAt time.Time
}

//minorm:shape
type Item struct {
	Base
	ID    schema.Key `minorm:"id"`
	Name  string     `minorm:",unique,maxlen=32"`
	Score int        `minorm:",default=5"`
	Nick  *string
	Tags  []string `minorm:",packed"`
	Attrs map[string]int
	Owner uuid.UUID
}

//minorm:shape table=people
type Person struct {
	Key  schema.IntKey `minorm:"id"`
	Name string
	Home *Address
}

type Address struct {
	City string
}
