package models

import "github.com/google/uuid"

// ensureID fills a nil primary key so inserts work on stores without
// gen_random_uuid() (sqlite in tests and local dev).
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
