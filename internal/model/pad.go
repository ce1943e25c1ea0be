package model

import "time"

// Pad is one fetched snapshot of a pad.
// A Pad is never modified after the fetch that produced it.
type Pad struct {
	// Link identifies the pad.
	Link Link `json:"link"`

	// Title is the pad title reported by the server.
	Title string `json:"title"`

	// Description is the short description reported by the server.
	Description string `json:"description,omitempty"`

	// ViewCount is the number of views reported by the server.
	ViewCount uint64 `json:"viewcount"`

	// Content is the raw markdown source of the pad.
	Content string `json:"-"`

	// CreateTime is when the pad was created on the server.
	CreateTime time.Time `json:"createtime"`

	// UpdateTime is when the pad was last edited on the server.
	UpdateTime time.Time `json:"updatetime"`
}

// DisplayTitle returns the title, or the pad name when the title is empty.
func (p *Pad) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return p.Link.Name
}

// Change describes a settled content change of a pad.
// It is what notifiers receive when a change has quiesced.
type Change struct {
	// Pad is the snapshot whose content has settled.
	Pad *Pad

	// Prior is the previously persisted content. Empty when Created is true.
	Prior string

	// Created is true when no snapshot had been persisted before.
	Created bool
}

// Verb returns "created" or "updated" depending on the kind of change.
func (c Change) Verb() string {
	if c.Created {
		return "created"
	}
	return "updated"
}
