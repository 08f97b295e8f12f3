package reaction

import (
	"encoding/json"
	"math/rand"
	"testing"
)

func TestNext(t *testing.T) {
	tests := []struct {
		current Disposition
		action  Action
		want    Disposition
		op      Op
	}{
		{Neutral, Like, Liked, OpInsert},
		{Neutral, Dislike, Disliked, OpInsert},
		{Liked, Like, Neutral, OpDelete},
		{Liked, Dislike, Disliked, OpUpdate},
		{Disliked, Dislike, Neutral, OpDelete},
		{Disliked, Like, Liked, OpUpdate},
	}

	for _, tt := range tests {
		t.Run(tt.current.String()+"/"+tt.action.String(), func(t *testing.T) {
			got := Next(tt.current, tt.action)
			if got != tt.want {
				t.Fatalf("Next(%v, %v) = %v, want %v", tt.current, tt.action, got, tt.want)
			}
			if op := Operation(tt.current, got); op != tt.op {
				t.Fatalf("Operation = %v, want %v", op, tt.op)
			}
			d := Delta(tt.current, got)
			if d.Likes < -1 || d.Likes > 1 || d.Dislikes < -1 || d.Dislikes > 1 {
				t.Fatalf("delta out of range: %+v", d)
			}
		})
	}
}

func TestReduce_Scenarios(t *testing.T) {
	// first like on a fresh post
	s := State{}.Reduce(Like)
	if s != (State{Counts: Counts{Likes: 1}, Disposition: Liked}) {
		t.Fatalf("first like: %+v", s)
	}

	// switching sides
	s = State{Counts: Counts{Likes: 3, Dislikes: 1}, Disposition: Liked}.Reduce(Dislike)
	if s != (State{Counts: Counts{Likes: 2, Dislikes: 2}, Disposition: Disliked}) {
		t.Fatalf("switch: %+v", s)
	}

	// toggling off
	s = State{Counts: Counts{Likes: 2, Dislikes: 2}, Disposition: Disliked}.Reduce(Dislike)
	if s != (State{Counts: Counts{Likes: 2, Dislikes: 1}, Disposition: Neutral}) {
		t.Fatalf("toggle off: %+v", s)
	}
}

func TestReduce_NeverNegative(t *testing.T) {
	// counters already drifted to zero while a record still exists
	s := State{Disposition: Liked}.Reduce(Like)
	if s.Likes != 0 || s.Dislikes != 0 {
		t.Fatalf("counts went negative: %+v", s)
	}
}

func TestReduce_RepeatFromNeutralIsIdentity(t *testing.T) {
	base := State{Counts: Counts{Likes: 5, Dislikes: 5}}
	for _, a := range []Action{Like, Dislike} {
		if got := base.Reduce(a).Reduce(a); got != base {
			t.Fatalf("%v twice: %+v, want %+v", a, got, base)
		}
	}
}

// ledger mirrors the record store: one entry per user, counters kept by deltas
type ledger struct {
	records map[int]bool
	counts  Counts
}

func (l *ledger) react(user int, a Action) {
	current := Neutral
	if isLike, ok := l.records[user]; ok {
		current = FromRecord(isLike)
	}
	next := Next(current, a)
	switch Operation(current, next) {
	case OpInsert, OpUpdate:
		l.records[user] = next == Liked
	case OpDelete:
		delete(l.records, user)
	}
	l.counts = l.counts.Apply(Delta(current, next))
}

func TestCountersMatchLedger(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	l := &ledger{records: map[int]bool{}}

	for i := 0; i < 5000; i++ {
		l.react(rng.Intn(20), Action(rng.Intn(2)+1))

		var likes, dislikes int64
		for _, isLike := range l.records {
			if isLike {
				likes++
			} else {
				dislikes++
			}
		}
		if l.counts.Likes != likes || l.counts.Dislikes != dislikes {
			t.Fatalf("step %d: counters %+v, ledger likes=%d dislikes=%d", i, l.counts, likes, dislikes)
		}
	}
}

func TestDispositionJSON(t *testing.T) {
	tests := []struct {
		d    Disposition
		want string
	}{
		{Liked, "true"},
		{Disliked, "false"},
		{Neutral, "null"},
	}
	for _, tt := range tests {
		b, err := json.Marshal(tt.d)
		if err != nil {
			t.Fatalf("marshal %v: %v", tt.d, err)
		}
		if string(b) != tt.want {
			t.Fatalf("marshal %v = %s, want %s", tt.d, b, tt.want)
		}
		var back Disposition
		if err := json.Unmarshal(b, &back); err != nil || back != tt.d {
			t.Fatalf("unmarshal %s = %v (%v)", b, back, err)
		}
	}

	b, _ := json.Marshal(State{Counts: Counts{Likes: 1}, Disposition: Liked})
	if string(b) != `{"likes":1,"dislikes":0,"userLike":true}` {
		t.Fatalf("state json = %s", b)
	}
}
