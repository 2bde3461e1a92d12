// internal/models/link.go
package models

import "time"

type LinkStatus string

const (
	LinkResolved   LinkStatus = "resolved"
	LinkUnresolved LinkStatus = "unresolved"
	LinkAmbiguous  LinkStatus = "ambiguous"
)

type LinkMethod string

const (
	LinkByPersisted LinkMethod = "persisted"
	LinkByID        LinkMethod = "id"
	LinkByTitle     LinkMethod = "title"
	LinkByManual    LinkMethod = "manual"
)

// ContentLink maps an inventory tour to its website content record.
type ContentLink struct {
	ArcticID  string     `json:"arcticId"`
	WebsiteID string     `json:"websiteId,omitempty"`
	Status    LinkStatus `json:"status"`
	Method    LinkMethod `json:"method,omitempty"`
	CheckedAt time.Time  `json:"checkedAt"`
}

// KeyedName is the minimal identity pair used during link reconciliation.
type KeyedName struct {
	Key  string
	Name string
}
