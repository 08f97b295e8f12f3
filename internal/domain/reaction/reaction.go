// Package reaction holds the like/dislike state machine shared by the
// server-side ledger and the client cache. Both sides derive counters from
// the same transition table so they can never disagree about a toggle.
package reaction

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Disposition is a user's standing reaction to one post
type Disposition int8

const (
	Neutral Disposition = iota
	Liked
	Disliked
)

// Action is what the user clicked
type Action int8

const (
	Like Action = iota + 1
	Dislike
)

// ActionFromBool maps the wire flag isLike onto an Action
func ActionFromBool(isLike bool) Action {
	if isLike {
		return Like
	}
	return Dislike
}

// IsLike is the inverse of ActionFromBool
func (a Action) IsLike() bool { return a == Like }

func (a Action) String() string {
	switch a {
	case Like:
		return "like"
	case Dislike:
		return "dislike"
	}
	return fmt.Sprintf("action(%d)", int8(a))
}

// FromRecord maps a stored is_like flag onto a disposition
func FromRecord(isLike bool) Disposition {
	if isLike {
		return Liked
	}
	return Disliked
}

func (d Disposition) String() string {
	switch d {
	case Neutral:
		return "neutral"
	case Liked:
		return "liked"
	case Disliked:
		return "disliked"
	}
	return fmt.Sprintf("disposition(%d)", int8(d))
}

// Bool returns the wire form: true liked, false disliked, nil neutral
func (d Disposition) Bool() *bool {
	switch d {
	case Liked:
		v := true
		return &v
	case Disliked:
		v := false
		return &v
	}
	return nil
}

// FromBool is the inverse of Bool
func FromBool(v *bool) Disposition {
	if v == nil {
		return Neutral
	}
	return FromRecord(*v)
}

// MarshalJSON encodes the disposition as true, false or null
func (d Disposition) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Bool())
}

// UnmarshalJSON accepts true, false or null
func (d *Disposition) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Neutral
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("userLike must be true, false or null: %w", err)
	}
	*d = FromRecord(v)
	return nil
}

// target is the disposition an action asks for
func (a Action) target() Disposition {
	if a == Like {
		return Liked
	}
	return Disliked
}

// Next applies an action to the current disposition. Repeating the standing
// reaction clears it, anything else switches to the requested side.
func Next(current Disposition, action Action) Disposition {
	want := action.target()
	if current == want {
		return Neutral
	}
	return want
}

// Counts are the denormalized per-post counters
type Counts struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}

// Delta returns the counter change for moving from current to next
func Delta(current, next Disposition) Counts {
	var d Counts
	switch current {
	case Liked:
		d.Likes--
	case Disliked:
		d.Dislikes--
	}
	switch next {
	case Liked:
		d.Likes++
	case Disliked:
		d.Dislikes++
	}
	return d
}

// Apply adds delta, never going below zero
func (c Counts) Apply(delta Counts) Counts {
	return Counts{
		Likes:    max(c.Likes+delta.Likes, 0),
		Dislikes: max(c.Dislikes+delta.Dislikes, 0),
	}
}

// Op is the ledger write needed for a transition
type Op int8

const (
	OpNone Op = iota
	OpInsert
	OpDelete
	OpUpdate
)

// Operation tells the store how to persist current -> next
func Operation(current, next Disposition) Op {
	switch {
	case current == next:
		return OpNone
	case current == Neutral:
		return OpInsert
	case next == Neutral:
		return OpDelete
	default:
		return OpUpdate
	}
}

// State is what both the server and the client know about one user's view of a post
type State struct {
	Counts
	Disposition Disposition `json:"userLike"`
}

// Reduce applies an action, returning the new state
func (s State) Reduce(action Action) State {
	next := Next(s.Disposition, action)
	return State{
		Counts:      s.Counts.Apply(Delta(s.Disposition, next)),
		Disposition: next,
	}
}
